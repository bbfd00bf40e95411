package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "http://localhost:11434"
	defaultModel       = "mistral"
	defaultHTTPTimeout = 60 * time.Second

	promptTemplate = `Give me a json-format with title, date_sent as dd.MM.yyyy and 5 tags for this text: "%s"`
)

// Client wraps the Ollama generate API for document metadata extraction.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option customizes the Ollama client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithModel overrides the model used for generation.
func WithModel(model string) Option {
	return func(c *Client) {
		model = strings.TrimSpace(model)
		if model != "" {
			c.model = model
		}
	}
}

// WithTimeout overrides the HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient constructs an Ollama API client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// Metadata captures the JSON payload the model produces for a document.
type Metadata struct {
	Title    string   `json:"title"`
	DateSent string   `json:"date_sent"`
	Tags     []string `json:"tags"`
	Raw      string   `json:"-"`
}

// ExtractMetadata asks the model for title, date, and tags describing the
// document text.
func (c *Client) ExtractMetadata(ctx context.Context, text string) (Metadata, error) {
	var empty Metadata
	text = strings.TrimSpace(text)
	if text == "" {
		return empty, errors.New("ollama extract: text required")
	}

	requestBody := generateRequest{
		Model:  c.model,
		Prompt: fmt.Sprintf(promptTemplate, text),
		Stream: false,
		Format: "json",
	}
	encoded, err := json.Marshal(requestBody)
	if err != nil {
		return empty, fmt.Errorf("ollama extract: encode request: %w", err)
	}

	endpoint, err := url.JoinPath(c.baseURL, "/api/generate")
	if err != nil {
		return empty, fmt.Errorf("ollama extract: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return empty, fmt.Errorf("ollama extract: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return empty, fmt.Errorf("ollama extract: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, fmt.Errorf("ollama extract: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return empty, fmt.Errorf("ollama extract: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var generated generateResponse
	if err := json.Unmarshal(body, &generated); err != nil {
		return empty, fmt.Errorf("ollama extract: decode response: %w", err)
	}
	if generated.Error != "" {
		return empty, fmt.Errorf("ollama extract: api error: %s", strings.TrimSpace(generated.Error))
	}

	content := strings.TrimSpace(generated.Response)
	if content == "" {
		return empty, errors.New("ollama extract: empty response")
	}

	payload, ok := extractJSONObject(content)
	if !ok {
		return empty, fmt.Errorf("ollama extract: no json object in response: %s", content)
	}

	var parsed Metadata
	parsed.Raw = content
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return empty, fmt.Errorf("ollama extract: parse payload: %w", err)
	}
	parsed.Title = strings.TrimSpace(parsed.Title)
	parsed.DateSent = strings.TrimSpace(parsed.DateSent)
	for i, tag := range parsed.Tags {
		parsed.Tags[i] = strings.TrimSpace(tag)
	}
	return parsed, nil
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// extractJSONObject salvages the JSON object from a response that wraps it
// in prose. Models occasionally preface the payload with commentary even
// when asked for bare JSON.
func extractJSONObject(content string) (string, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return content[start : end+1], true
}
