package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	mimePDF  = "application/pdf"
	mimeText = "text/plain"
)

// ErrUnsupported is returned for content types this package cannot read locally.
var ErrUnsupported = errors.New("unsupported mime type")

// ExtractTextFromBytes extracts text from an in-memory payload without network I/O.
// Libraries used: github.com/ledongthuc/pdf (PDF) and golang.org/x/text (plain text).
func ExtractTextFromBytes(ctx context.Context, data []byte, mimeType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch clean {
	case mimePDF:
		return extractPDF(data)
	case mimeText:
		return DecodeText(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, clean)
	}
}

// extractPDF reads the text layer. Scanned PDFs yield an empty string.
func extractPDF(data []byte) (text string, err error) {
	// ledongthuc/pdf panics on some malformed object streams.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parse: %v", r)
		}
	}()

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf open: %w", err)
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return normalizeText(buf.String()), nil
}

// DecodeText converts a text upload to UTF-8. A UTF-8 or UTF-16 byte order
// mark wins; otherwise valid UTF-8 is kept and anything else is read as Windows-1252.
func DecodeText(data []byte) (string, error) {
	var out []byte
	switch {
	case hasBOM(data):
		decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		if err != nil {
			return "", fmt.Errorf("decode text: %w", err)
		}
		out = decoded
	case utf8.Valid(data):
		out = data
	default:
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("decode text: %w", err)
		}
		out = decoded
	}
	return normalizeText(string(out)), nil
}

func hasBOM(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) ||
		bytes.HasPrefix(data, []byte{0xFF, 0xFE}) ||
		bytes.HasPrefix(data, []byte{0xFE, 0xFF})
}

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}
