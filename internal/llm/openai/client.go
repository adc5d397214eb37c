package openai

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
	apiURL           = "https://api.openai.com/v1/chat/completions"
	defaultTimeout   = 60 * time.Second
	maxResponseBytes = 8 << 20
)

// Client implements llm.Provider using OpenAI Chat Completions.
type Client struct {
	apiKey      string
	model       string
	visionModel string
	endpoint    string
	httpClient  *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithVisionModel sets the model used for transcription. Defaults to the completion model.
func WithVisionModel(model string) Option {
	return func(c *Client) {
		if strings.TrimSpace(model) != "" {
			c.visionModel = strings.TrimSpace(model)
		}
	}
}

// WithEndpoint overrides the chat completions URL.
func WithEndpoint(url string) Option {
	return func(c *Client) {
		if strings.TrimSpace(url) != "" {
			c.endpoint = strings.TrimSpace(url)
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

// NewClient constructs a new OpenAI client.
func NewClient(apiKey, model string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("openai model is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	c := &Client{
		apiKey:      strings.TrimSpace(apiKey),
		model:       strings.TrimSpace(model),
		visionModel: strings.TrimSpace(model),
		endpoint:    apiURL,
		httpClient:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the provider name.
func (c *Client) Name() string { return "openai" }

// Model returns the completion model.
func (c *Client) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
	File     *filePart `json:"file,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type filePart struct {
	Filename string `json:"filename"`
	FileData string `json:"file_data"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float32        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends a system and user prompt and returns the model's answer.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	var messages []chatMessage
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body := chatRequest{Model: c.model, Messages: messages}
	if req.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	if !isGPT5(c.model) {
		temp := float32(0)
		body.Temperature = &temp
	}
	return c.send(ctx, body)
}

// Transcribe sends an image or PDF to the vision model and returns the transcribed text.
func (c *Client) Transcribe(ctx context.Context, img llm.Image) (string, error) {
	part, err := visionPart(img)
	if err != nil {
		return "", err
	}
	body := chatRequest{
		Model: c.visionModel,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: llm.TranscribePrompt()},
				part,
			},
		}},
	}
	if !isGPT5(c.visionModel) {
		temp := float32(0)
		body.Temperature = &temp
	}
	return c.send(ctx, body)
}

func visionPart(img llm.Image) (contentPart, error) {
	dataURL := "data:" + img.MimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
	switch img.MimeType {
	case "image/png", "image/jpeg", "image/gif", "image/webp":
		return contentPart{Type: "image_url", ImageURL: &imageURL{URL: dataURL}}, nil
	case "application/pdf":
		name := img.FileName
		if strings.TrimSpace(name) == "" {
			name = "document.pdf"
		}
		return contentPart{Type: "file", File: &filePart{Filename: name, FileData: dataURL}}, nil
	default:
		return contentPart{}, fmt.Errorf("%w: openai vision does not accept %s", llm.ErrUnsupportedInput, img.MimeType)
	}
}

func (c *Client) send(ctx context.Context, body chatRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: openai request: %w", llm.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: openai read response: %w", llm.ErrUnavailable, err)
	}

	var parsed chatResponse
	decodeErr := json.Unmarshal(raw, &parsed)
	if resp.StatusCode >= 400 {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("%w: openai http status %d: %s", llm.ErrUnavailable, resp.StatusCode, truncate(msg, 300))
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: openai response parse: %w", llm.ErrUnavailable, decodeErr)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: openai error: %s (%s)", llm.ErrUnavailable, parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: openai response missing choices", llm.ErrEmptyResponse)
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: openai response empty content", llm.ErrEmptyResponse)
	}
	return content, nil
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ llm.Provider = (*Client)(nil)
