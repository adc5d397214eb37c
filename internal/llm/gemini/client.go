package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"letter-backend/internal/llm"
)

const (
	baseURL          = "https://generativelanguage.googleapis.com/v1beta"
	defaultTimeout   = 60 * time.Second
	maxResponseBytes = 8 << 20
)

// Client implements llm.Provider using the Gemini generateContent API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, e.g. for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if strings.TrimSpace(url) != "" {
			c.baseURL = strings.TrimRight(strings.TrimSpace(url), "/")
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient constructs a Gemini client.
func NewClient(apiKey, model string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("gemini model is required")
	}
	c := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		model:      strings.TrimSpace(model),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Name() string  { return "gemini" }
func (c *Client) Model() string { return c.model }

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature      float32 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Complete sends a prompt and returns the concatenated text parts of the first candidate.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: req.Prompt}}}},
	}
	if strings.TrimSpace(req.System) != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.System}}}
	}
	if req.JSON {
		body.GenerationConfig.ResponseMimeType = "application/json"
	}
	return c.generate(ctx, body)
}

// Transcribe sends the document inline and asks for a verbatim transcription.
func (c *Client) Transcribe(ctx context.Context, img llm.Image) (string, error) {
	switch img.MimeType {
	case "image/png", "image/jpeg", "image/webp", "application/pdf":
	default:
		return "", fmt.Errorf("%w: gemini does not accept %s", llm.ErrUnsupportedInput, img.MimeType)
	}
	body := generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: llm.TranscribePrompt()},
				{InlineData: &inlineData{MimeType: img.MimeType, Data: base64.StdEncoding.EncodeToString(img.Data)}},
			},
		}},
	}
	return c.generate(ctx, body)
}

func (c *Client) generate(ctx context.Context, body generateRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: gemini request: %w", llm.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: gemini read response: %w", llm.ErrUnavailable, err)
	}

	var parsed generateResponse
	decodeErr := json.Unmarshal(raw, &parsed)
	if resp.StatusCode >= 400 {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && parsed.Error != nil {
			msg = parsed.Error.Status + ": " + parsed.Error.Message
		}
		if len(msg) > 300 {
			msg = msg[:300] + "..."
		}
		return "", fmt.Errorf("%w: gemini http status %d: %s", llm.ErrUnavailable, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: gemini response parse: %w", llm.ErrUnavailable, decodeErr)
	}
	if len(parsed.Candidates) == 0 {
		return "", fmt.Errorf("%w: gemini response missing candidates", llm.ErrEmptyResponse)
	}

	var sb strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w: gemini empty content (finish=%s)", llm.ErrEmptyResponse, parsed.Candidates[0].FinishReason)
	}
	return text, nil
}

var _ llm.Provider = (*Client)(nil)
