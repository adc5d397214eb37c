package documents

// Document is an uploaded artifact held in memory for the duration of one request.
type Document struct {
	Data        []byte
	ContentType string
	FileName    string
}

// Size returns the document size in bytes.
func (d Document) Size() int64 {
	return int64(len(d.Data))
}

// IsPDF reports whether the document is a PDF.
func (d Document) IsPDF() bool {
	return d.ContentType == MimePDF
}

// IsImage reports whether the document is one of the accepted raster image formats.
func (d Document) IsImage() bool {
	switch d.ContentType {
	case MimePNG, MimeJPEG, MimeGIF, MimeBMP, MimeWEBP:
		return true
	default:
		return false
	}
}

// IsText reports whether the document is plain text.
func (d Document) IsText() bool {
	return d.ContentType == MimeText
}
