package analyses

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrAuthRequired     = errors.New("authentication required")
	ErrExtractionFailed = errors.New("text extraction failed")
	ErrAnalysisFailed   = errors.New("analysis failed")

	// ErrProviderUnavailable is returned by the Generator when the model call fails.
	ErrProviderUnavailable = errors.New("analysis provider unavailable")
	// ErrNoModel means neither the user nor the service has a model configured.
	ErrNoModel = errors.New("no analysis model configured")
	ErrNoText  = errors.New("no text to analyze")
)

const (
	ErrorCodeValidation       = "validation_error"
	ErrorCodeFileTooLarge     = "file_too_large"
	ErrorCodeUnsupportedType  = "unsupported_type"
	ErrorCodeEmptyFile        = "empty_file"
	ErrorCodeUnauthorized     = "unauthorized"
	ErrorCodeExtractionFailed = "extraction_failed"
	ErrorCodeAnalysisFailed   = "analysis_failed"
	ErrorCodeNotFound         = "not_found"
	ErrorCodeInternal         = "internal_error"
)
