package extraction

import (
	"context"
	"fmt"

	"letter-backend/internal/documents"
	"letter-backend/internal/extract"
)

// PDFText reads the embedded text layer of a PDF. Scanned PDFs give ErrEmptyResult.
type PDFText struct{}

func (PDFText) Method() Method { return MethodPDFDirectText }

func (PDFText) Applicable(doc documents.Document, _ Credentials) error {
	if !doc.IsPDF() {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, doc.ContentType)
	}
	return nil
}

func (p PDFText) Extract(ctx context.Context, doc documents.Document, creds Credentials) (string, error) {
	if err := p.Applicable(doc, creds); err != nil {
		return "", err
	}
	text, err := extract.ExtractTextFromBytes(ctx, doc.Data, doc.ContentType)
	if err != nil {
		// A PDF the parser cannot open has no usable text layer.
		return "", fmt.Errorf("%w: %v", ErrEmptyResult, err)
	}
	return nonEmpty(text)
}

// PlainText decodes text/plain uploads.
type PlainText struct{}

func (PlainText) Method() Method { return MethodPlainText }

func (PlainText) Applicable(doc documents.Document, _ Credentials) error {
	if !doc.IsText() {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, doc.ContentType)
	}
	return nil
}

func (p PlainText) Extract(ctx context.Context, doc documents.Document, creds Credentials) (string, error) {
	if err := p.Applicable(doc, creds); err != nil {
		return "", err
	}
	text, err := extract.ExtractTextFromBytes(ctx, doc.Data, doc.ContentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEmptyResult, err)
	}
	return nonEmpty(text)
}
