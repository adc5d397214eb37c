package extraction

import (
	"context"

	"letter-backend/internal/documents"
)

// Adapter wraps exactly one text extraction mechanism.
type Adapter interface {
	Method() Method
	// Applicable is a local check with no I/O. It returns ErrNoCredential or
	// ErrUnsupportedType when the adapter should be skipped.
	Applicable(doc documents.Document, creds Credentials) error
	// Extract returns trimmed, non-empty text or an error wrapping one of the
	// package failure kinds.
	Extract(ctx context.Context, doc documents.Document, creds Credentials) (string, error)
}
