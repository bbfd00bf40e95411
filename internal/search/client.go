package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "http://localhost:9200"
	defaultIndexName   = "documents"
	defaultHTTPTimeout = 10 * time.Second
)

// Client wraps the Elasticsearch document API for the indexing stage.
type Client struct {
	baseURL    string
	indexName  string
	httpClient *http.Client
}

// Option customizes the search client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default cluster base URL (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithIndexName overrides the target index.
func WithIndexName(name string) Option {
	return func(c *Client) {
		name = strings.TrimSpace(name)
		if name != "" {
			c.indexName = name
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

// NewClient constructs an Elasticsearch client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		indexName:  defaultIndexName,
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

// IndexableDocument is the search payload for a fully enriched document.
type IndexableDocument struct {
	ID             int64    `json:"id"`
	Filename       string   `json:"filename"`
	Owner          string   `json:"owner"`
	Title          string   `json:"title"`
	DateOnDocument string   `json:"date_on_document,omitempty"`
	Tags           []string `json:"tags"`
	Text           string   `json:"text"`
}

// Index writes the document into the search index using the document ID as
// the index document ID, so repeated indexing of the same document
// overwrites rather than duplicates.
func (c *Client) Index(ctx context.Context, doc IndexableDocument) error {
	if doc.ID <= 0 {
		return errors.New("search index: document id required")
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("search index: encode document: %w", err)
	}

	endpoint, err := url.JoinPath(c.baseURL, c.indexName, "_doc", strconv.FormatInt(doc.ID, 10))
	if err != nil {
		return fmt.Errorf("search index: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("search index: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("search index: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("search index: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("search index: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
