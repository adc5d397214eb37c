package analyses

import (
	"context"
	"sync"

	"letter-backend/internal/documents"
	"letter-backend/internal/extraction"
	"letter-backend/internal/llm"
	"letter-backend/internal/queue"
)

type fakeModel struct {
	mu      sync.Mutex
	answer  string
	err     error
	calls   int
	systems []string
	prompts []string
}

func (f *fakeModel) Complete(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.systems = append(f.systems, req.System)
	f.prompts = append(f.prompts, req.Prompt)
	return f.answer, f.err
}

func (f *fakeModel) Name() string  { return "fake" }
func (f *fakeModel) Model() string { return "fake-1" }

// keyedModel is a fakeModel registered as a provider the user holds a key for.
type keyedModel struct {
	*fakeModel
	name string
}

func (k keyedModel) Name() string { return k.name }

func (k keyedModel) Transcribe(context.Context, llm.Image) (string, error) {
	return "", llm.ErrUnsupportedInput
}

func (f *fakeModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// countingExtractor records how often the pipeline reached extraction.
type countingExtractor struct {
	next  Extractor
	calls int
}

func (c *countingExtractor) Orchestrate(ctx context.Context, doc documents.Document, creds extraction.Credentials) (extraction.Result, error) {
	c.calls++
	return c.next.Orchestrate(ctx, doc, creds)
}

type recordingQueue struct {
	msgs []queue.Message
	err  error
}

func (q *recordingQueue) Send(_ context.Context, msg queue.Message) error {
	q.msgs = append(q.msgs, msg)
	return q.err
}

// defaultChain is the built-in adapter order with no user keys and no OCR key.
func defaultChain() *extraction.Orchestrator {
	return &extraction.Orchestrator{Adapters: []extraction.Adapter{
		&extraction.Vision{Registry: llm.NewRegistry()},
		&extraction.HostedOCR{},
		extraction.PDFText{},
		extraction.PlainText{},
	}}
}
