package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, in)
	return &sqs.SendMessageOutput{}, f.err
}

func TestSQSClientSendStandardQueue(t *testing.T) {
	fake := &fakeSQS{}
	c := &SQSClient{client: fake, queueURL: "https://sqs.eu-central-1.amazonaws.com/123/letters"}

	if err := c.Send(context.Background(), Message{RecordID: "rec-1", UserID: "u1", Version: MessageVersion}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(fake.inputs) != 1 {
		t.Fatalf("expected one send, got %d", len(fake.inputs))
	}
	in := fake.inputs[0]
	if aws.ToString(in.QueueUrl) != c.queueURL || in.MessageGroupId != nil {
		t.Fatalf("unexpected input %+v", in)
	}
	msg, err := DecodeMessage([]byte(aws.ToString(in.MessageBody)))
	if err != nil || msg.RecordID != "rec-1" {
		t.Fatalf("unexpected body %q: %v", aws.ToString(in.MessageBody), err)
	}
}

func TestSQSClientSendFIFOAndErrors(t *testing.T) {
	fake := &fakeSQS{err: errors.New("throttled")}
	c := &SQSClient{client: fake, queueURL: "https://sqs.eu-central-1.amazonaws.com/123/letters.fifo"}

	err := c.Send(context.Background(), Message{RecordID: "rec-2", UserID: "u2"})
	if err == nil {
		t.Fatalf("expected error")
	}
	in := fake.inputs[0]
	if aws.ToString(in.MessageGroupId) != "u2" || aws.ToString(in.MessageDeduplicationId) != "rec-2" {
		t.Fatalf("expected fifo attributes, got %+v", in)
	}
}

func TestNewSQSClientRequiresURL(t *testing.T) {
	if _, err := NewSQSClient(context.Background(), " ", "eu-central-1"); err == nil {
		t.Fatalf("expected error for empty url")
	}
}
