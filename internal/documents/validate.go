package documents

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	MimePDF  = "application/pdf"
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeGIF  = "image/gif"
	MimeBMP  = "image/bmp"
	MimeWEBP = "image/webp"
	MimeText = "text/plain"

	mimeOctetStream = "application/octet-stream"

	// DefaultMaxBytes is the upload limit when none is configured.
	DefaultMaxBytes int64 = 10 << 20
)

var supportedTypes = map[string]struct{}{
	MimePDF:  {},
	MimePNG:  {},
	MimeJPEG: {},
	MimeGIF:  {},
	MimeBMP:  {},
	MimeWEBP: {},
	MimeText: {},
}

var aliases = map[string]string{
	"application/x-pdf": MimePDF,
	"image/jpg":         MimeJPEG,
	"image/pjpeg":       MimeJPEG,
	"image/x-ms-bmp":    MimeBMP,
	"image/x-bmp":       MimeBMP,
}

var extensions = map[string]string{
	".pdf":  MimePDF,
	".png":  MimePNG,
	".jpg":  MimeJPEG,
	".jpeg": MimeJPEG,
	".gif":  MimeGIF,
	".bmp":  MimeBMP,
	".webp": MimeWEBP,
	".txt":  MimeText,
}

// SupportedTypes lists the accepted content types.
func SupportedTypes() []string {
	return []string{MimePDF, MimePNG, MimeJPEG, MimeGIF, MimeBMP, MimeWEBP, MimeText}
}

// NormalizeContentType resolves the content type of an upload. The declared type
// wins when present; otherwise the bytes are sniffed and the extension is the last resort.
func NormalizeContentType(declared, fileName string, data []byte) string {
	ct := canonicalType(declared)
	if ct == "" || ct == mimeOctetStream {
		if len(data) > 0 {
			ct = canonicalType(mimetype.Detect(data).String())
		}
	}
	if ct == "" || ct == mimeOctetStream {
		if byExt, ok := extensions[strings.ToLower(filepath.Ext(fileName))]; ok {
			return byExt
		}
	}
	return ct
}

// CheckSize validates a byte count against the limit. A size equal to max is accepted.
func CheckSize(size, max int64) error {
	if max <= 0 {
		max = DefaultMaxBytes
	}
	if size <= 0 {
		return ErrEmptyFile
	}
	if size > max {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d bytes", ErrFileTooLarge, size, max)
	}
	return nil
}

// CheckType validates that the content type is accepted for analysis.
func CheckType(contentType string) error {
	if _, ok := supportedTypes[contentType]; !ok {
		if contentType == "" {
			contentType = "unknown"
		}
		return fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	return nil
}

// Validate runs the size check and then the type check.
func Validate(doc Document, max int64) error {
	if err := CheckSize(doc.Size(), max); err != nil {
		return err
	}
	return CheckType(doc.ContentType)
}

func canonicalType(raw string) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(raw, ";")[0]))
	if mapped, ok := aliases[clean]; ok {
		return mapped
	}
	return clean
}
