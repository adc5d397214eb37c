package queue

import "encoding/json"

// MessageVersion is bumped when Message changes incompatibly.
const MessageVersion = 1

// Message announces a persisted analysis record to downstream consumers.
type Message struct {
	RecordID         string `json:"recordId"`
	UserID           string `json:"userId"`
	RequestID        string `json:"requestId,omitempty"`
	Urgency          string `json:"urgency"`
	ExtractionMethod string `json:"extractionMethod"`
	CreatedAt        string `json:"createdAt"`
	Version          int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
