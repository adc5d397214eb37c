package extraction

import (
	"context"
	"errors"
	"fmt"

	"letter-backend/internal/documents"
	"letter-backend/internal/ocr"
)

// Recognizer is the hosted OCR call.
type Recognizer interface {
	Recognize(ctx context.Context, data []byte, fileName, fileType string) (string, error)
}

// HostedOCR sends documents to a hosted OCR REST API with a service-wide key.
// A nil Client means no key is configured.
type HostedOCR struct {
	Client Recognizer
}

func (h *HostedOCR) Method() Method { return MethodHostedOCR }

func (h *HostedOCR) Applicable(doc documents.Document, _ Credentials) error {
	if h.Client == nil {
		return ErrNoCredential
	}
	if ocr.FileType(doc.ContentType) == "" {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, doc.ContentType)
	}
	return nil
}

func (h *HostedOCR) Extract(ctx context.Context, doc documents.Document, creds Credentials) (string, error) {
	if err := h.Applicable(doc, creds); err != nil {
		return "", err
	}
	fileType := ocr.FileType(doc.ContentType)
	name := doc.FileName
	if name == "" {
		name = "upload." + lowerExt(fileType)
	}
	text, err := h.Client.Recognize(ctx, doc.Data, name, fileType)
	switch {
	case err == nil:
		return nonEmpty(text)
	case errors.Is(err, ocr.ErrEmpty):
		return "", ErrEmptyResult
	default:
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
}

func lowerExt(fileType string) string {
	switch fileType {
	case "PDF":
		return "pdf"
	case "PNG":
		return "png"
	case "JPG":
		return "jpg"
	case "GIF":
		return "gif"
	default:
		return "bmp"
	}
}
