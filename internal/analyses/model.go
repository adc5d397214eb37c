package analyses

import (
	"strings"
	"time"
)

// Urgency is how quickly the recipient has to react to a letter.
type Urgency string

const (
	UrgencyHigh    Urgency = "high"
	UrgencyMedium  Urgency = "medium"
	UrgencyLow     Urgency = "low"
	UrgencyUnknown Urgency = "unknown"
)

// NormalizeUrgency maps free-form model output onto the four urgency levels.
// Anything unrecognised becomes UrgencyUnknown.
func NormalizeUrgency(raw string) Urgency {
	clean := strings.ToLower(strings.TrimSpace(raw))
	clean = strings.Trim(clean, " .!*_`\"'")
	if i := strings.IndexAny(clean, " \t,;:-(/"); i > 0 {
		clean = clean[:i]
	}
	switch clean {
	case "high", "urgent", "critical":
		return UrgencyHigh
	case "medium", "moderate", "normal":
		return UrgencyMedium
	case "low", "none", "informational":
		return UrgencyLow
	default:
		return UrgencyUnknown
	}
}

// Action is something the recipient must do.
type Action struct {
	Description string `json:"description"`
	Deadline    string `json:"deadline,omitempty"`
}

// KeyDate is a date mentioned in the letter.
type KeyDate struct {
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
}

// Fields are the structured parts of an analysis.
type Fields struct {
	Sender         string    `json:"sender"`
	Recipient      string    `json:"recipient"`
	Topic          string    `json:"topic"`
	KeyFacts       []string  `json:"keyFacts"`
	Actions        []Action  `json:"requiredActions"`
	Dates          []KeyDate `json:"dates"`
	ContactInfo    string    `json:"contactInfo"`
	SuggestedReply string    `json:"suggestedReply"`
}

// normalized replaces nil slices so records always serialise as arrays.
func (f Fields) normalized() Fields {
	if f.KeyFacts == nil {
		f.KeyFacts = []string{}
	}
	if f.Actions == nil {
		f.Actions = []Action{}
	}
	if f.Dates == nil {
		f.Dates = []KeyDate{}
	}
	return f
}

// Analysis is the output of the Generator for one piece of text.
type Analysis struct {
	DocumentLanguage string
	Urgency          Urgency
	Summary          string
	Fields           Fields
	RawResponse      string
	Structured       bool
	Warnings         []string
	Provider         string
	Model            string
}

// Record is a persisted analysis owned by one user. Records are never updated.
type Record struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	FileName         string    `json:"fileName"`
	ContentType      string    `json:"contentType"`
	SizeBytes        int64     `json:"sizeBytes"`
	DocumentLanguage string    `json:"documentLanguage"`
	TargetLanguage   string    `json:"targetLanguage"`
	Urgency          Urgency   `json:"urgency"`
	Summary          string    `json:"summary"`
	Fields           Fields    `json:"fields"`
	ExtractionMethod string    `json:"extractionMethod"`
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	PromptVersion    string    `json:"promptVersion"`
	RawResponse      string    `json:"rawResponse"`
	StorageKey       string    `json:"storageKey,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}
