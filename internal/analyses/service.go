package analyses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"letter-backend/internal/documents"
	"letter-backend/internal/extraction"
	"letter-backend/internal/llm"
	"letter-backend/internal/queue"
	"letter-backend/internal/shared/metrics"
	"letter-backend/internal/shared/telemetry"
)

// Extractor produces text for a document.
type Extractor interface {
	Orchestrate(ctx context.Context, doc documents.Document, creds extraction.Credentials) (extraction.Result, error)
}

// Intake is one upload to analyze.
type Intake struct {
	UserID      string
	Document    documents.Document
	Language    string
	Credentials extraction.Credentials
}

// Service runs the intake pipeline and serves stored records.
type Service struct {
	Repo      Repo
	Extractor Extractor
	Models    ModelPicker
	// MaxBytes is the upload limit. Zero means documents.DefaultMaxBytes.
	MaxBytes        int64
	DefaultLanguage string

	// Archive and Events are optional.
	Archive *documents.Archive
	Events  queue.Client

	Now func() time.Time
}

// Handle validates the upload, extracts its text, analyzes it and persists
// the record. Every failure is terminal; nothing is retried here.
func (s *Service) Handle(ctx context.Context, in Intake) (Record, error) {
	start := time.Now()
	rec, err := s.handle(ctx, in)
	if err != nil {
		code := ErrorCode(err)
		metrics.IncIntakeFailed(code)
		telemetry.Warn("intake.rejected", map[string]any{
			"request_id":   requestIDFromContext(ctx),
			"user_id":      in.UserID,
			"content_type": in.Document.ContentType,
			"size_bytes":   in.Document.Size(),
			"code":         code,
			"error":        err.Error(),
		})
		return Record{}, err
	}
	metrics.IncIntakeCompleted()
	metrics.ObserveAnalysisDurationMs(metrics.SinceMillis(start))
	return rec, nil
}

func (s *Service) handle(ctx context.Context, in Intake) (Record, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return Record{}, ErrAuthRequired
	}
	doc := in.Document
	if err := documents.Validate(doc, s.maxBytes()); err != nil {
		return Record{}, err
	}
	metrics.IncIntakeStarted()

	language := strings.ToLower(strings.TrimSpace(in.Language))
	if language == "" {
		language = s.defaultLanguage()
	}

	extracted, err := s.Extractor.Orchestrate(ctx, doc, in.Credentials)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	if extracted.Method == extraction.MethodNone {
		return Record{}, fmt.Errorf("%w: %s", ErrExtractionFailed, extracted.Diagnostic)
	}
	telemetry.Info("extraction.complete", map[string]any{
		"request_id": requestIDFromContext(ctx),
		"user_id":    in.UserID,
		"method":     string(extracted.Method),
		"chars":      len(extracted.Text),
	})

	gen := Generator{Model: s.Models.For(in.Credentials.LLMKeys)}
	analysis, err := gen.Analyze(ctx, extracted.Text, language)
	if err != nil {
		telemetry.Error("analysis.failed", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"user_id":    in.UserID,
			"error":      err.Error(),
		})
		return Record{}, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	if len(analysis.Warnings) > 0 {
		telemetry.Warn("analysis.schema_warnings", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"warnings":   analysis.Warnings,
		})
	}

	rec := Record{
		ID:               uuid.NewString(),
		UserID:           in.UserID,
		FileName:         doc.FileName,
		ContentType:      doc.ContentType,
		SizeBytes:        doc.Size(),
		DocumentLanguage: analysis.DocumentLanguage,
		TargetLanguage:   language,
		Urgency:          analysis.Urgency,
		Summary:          analysis.Summary,
		Fields:           analysis.Fields,
		ExtractionMethod: string(extracted.Method),
		Provider:         analysis.Provider,
		Model:            analysis.Model,
		PromptVersion:    llm.PromptVersion,
		RawResponse:      analysis.RawResponse,
		CreatedAt:        s.now(),
	}

	if s.Archive != nil {
		key, err := s.Archive.Save(ctx, in.UserID, doc, extracted.Text)
		if err != nil {
			telemetry.Warn("intake.archive_failed", map[string]any{"record_id": rec.ID, "error": err.Error()})
		} else {
			rec.StorageKey = key
		}
	}

	if err := s.Repo.Create(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("persist record: %w", err)
	}
	telemetry.Info("analysis.complete", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           rec.UserID,
		"record_id":         rec.ID,
		"urgency":           string(rec.Urgency),
		"extraction_method": rec.ExtractionMethod,
		"provider":          rec.Provider,
		"structured":        analysis.Structured,
	})

	s.publish(ctx, rec)
	return rec, nil
}

func (s *Service) publish(ctx context.Context, rec Record) {
	if s.Events == nil {
		return
	}
	msg := queue.Message{
		RecordID:         rec.ID,
		UserID:           rec.UserID,
		RequestID:        requestIDFromContext(ctx),
		Urgency:          string(rec.Urgency),
		ExtractionMethod: rec.ExtractionMethod,
		CreatedAt:        rec.CreatedAt.Format(time.RFC3339),
		Version:          queue.MessageVersion,
	}
	if err := s.Events.Send(ctx, msg); err != nil {
		telemetry.Warn("intake.event_failed", map[string]any{"record_id": rec.ID, "error": err.Error()})
	}
}

// Get returns one of the user's records.
func (s *Service) Get(ctx context.Context, userID, recordID string) (Record, error) {
	if userID == "" {
		return Record{}, ErrAuthRequired
	}
	if recordID == "" {
		return Record{}, ErrNotFound
	}
	return s.Repo.GetForUser(ctx, userID, recordID)
}

// List returns the user's records newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Record, error) {
	if userID == "" {
		return nil, ErrAuthRequired
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// MaxUploadBytes reports the effective upload limit.
func (s *Service) MaxUploadBytes() int64 {
	return s.maxBytes()
}

func (s *Service) maxBytes() int64 {
	if s.MaxBytes > 0 {
		return s.MaxBytes
	}
	return documents.DefaultMaxBytes
}

func (s *Service) defaultLanguage() string {
	if lang := strings.ToLower(strings.TrimSpace(s.DefaultLanguage)); lang != "" {
		return lang
	}
	return "en"
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// ErrorCode maps an intake error to its API error code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthRequired):
		return ErrorCodeUnauthorized
	case errors.Is(err, documents.ErrEmptyFile):
		return ErrorCodeEmptyFile
	case errors.Is(err, documents.ErrFileTooLarge):
		return ErrorCodeFileTooLarge
	case errors.Is(err, documents.ErrUnsupportedType):
		return ErrorCodeUnsupportedType
	case errors.Is(err, ErrExtractionFailed):
		return ErrorCodeExtractionFailed
	case errors.Is(err, ErrAnalysisFailed):
		return ErrorCodeAnalysisFailed
	case errors.Is(err, ErrNotFound):
		return ErrorCodeNotFound
	default:
		return ErrorCodeInternal
	}
}
