// Package ocr is a client for OCR.space-compatible hosted OCR REST APIs.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const maxResponseBytes = 4 << 20

var (
	// ErrUnavailable marks network, auth and processing failures.
	ErrUnavailable = errors.New("ocr provider unavailable")
	// ErrEmpty is returned when OCR succeeded but found no text.
	ErrEmpty = errors.New("ocr returned no text")
)

// Client calls the hosted OCR endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	language   string
	engine     int
	httpClient *http.Client
}

// Options configures a Client.
type Options struct {
	Endpoint string
	APIKey   string
	Language string
	Engine   int
	Timeout  time.Duration
}

// New constructs a client. Endpoint and APIKey are required.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, errors.New("ocr endpoint is required")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("ocr api key is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	engine := opts.Engine
	if engine <= 0 {
		engine = 2
	}
	return &Client{
		endpoint:   strings.TrimSpace(opts.Endpoint),
		apiKey:     strings.TrimSpace(opts.APIKey),
		language:   strings.TrimSpace(opts.Language),
		engine:     engine,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type parseResponse struct {
	ParsedResults []struct {
		ParsedText        string `json:"ParsedText"`
		FileParseExitCode int    `json:"FileParseExitCode"`
		ErrorMessage      string `json:"ErrorMessage"`
	} `json:"ParsedResults"`
	OCRExitCode           int             `json:"OCRExitCode"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
}

// Recognize uploads the file and returns the text of all parsed pages joined by newlines.
func (c *Client) Recognize(ctx context.Context, data []byte, fileName, fileType string) (string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fields := map[string]string{
		"OCREngine":         strconv.Itoa(c.engine),
		"isOverlayRequired": "false",
		"scale":             "true",
	}
	if c.language != "" {
		fields["language"] = c.language
	}
	if fileType != "" {
		fields["filetype"] = fileType
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return "", err
		}
	}
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: ocr request: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: ocr read response: %w", ErrUnavailable, err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: ocr http status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed parseResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		// OCR.space answers some auth failures with a bare string body.
		msg := strings.TrimSpace(string(raw))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return "", fmt.Errorf("%w: ocr response parse: %s", ErrUnavailable, msg)
	}
	if parsed.IsErroredOnProcessing || parsed.OCRExitCode > 2 {
		return "", fmt.Errorf("%w: ocr exit code %d: %s", ErrUnavailable, parsed.OCRExitCode, errorMessage(parsed.ErrorMessage))
	}

	var pages []string
	for _, r := range parsed.ParsedResults {
		if text := strings.TrimSpace(r.ParsedText); text != "" {
			pages = append(pages, text)
		}
	}
	if len(pages) == 0 {
		return "", ErrEmpty
	}
	return strings.Join(pages, "\n"), nil
}

// errorMessage flattens the ErrorMessage field, which is either a string or a list of strings.
func errorMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "unknown error"
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}
	return string(raw)
}

// FileType maps a MIME type to the OCR API's filetype hint. Empty means unsupported.
func FileType(mimeType string) string {
	switch mimeType {
	case "application/pdf":
		return "PDF"
	case "image/png":
		return "PNG"
	case "image/jpeg":
		return "JPG"
	case "image/gif":
		return "GIF"
	case "image/bmp":
		return "BMP"
	default:
		return ""
	}
}
