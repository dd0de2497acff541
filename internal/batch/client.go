package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/claude/trackplan/internal/ingest"
	"github.com/claude/trackplan/internal/ingest/notes"
)

// Sink receives the raw text of each converted note for storage.
type Sink interface {
	Submit(ctx context.Context, text, source string) (*ingest.Result, error)
}

// Client submits notes to a trackplan server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	retryWait  time.Duration
}

var _ Sink = (*Client)(nil)

// NewClient creates a new HTTP client for the trackplan server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		retryWait: time.Second,
	}
}

// Submit POSTs a note to /api/v1/plans. Server errors and transport failures
// are retried up to 3 times with exponential backoff; 4xx responses are not.
func (c *Client) Submit(ctx context.Context, text, source string) (*ingest.Result, error) {
	target := c.serverURL + "/api/v1/plans?" + url.Values{"source": {source}}.Encode()

	result, err := retry.DoWithData(
		func() (*ingest.Result, error) {
			return c.post(ctx, target, text)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(c.retryWait),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("submitting notes: %w", err)
	}
	return result, nil
}

func (c *Client) post(ctx context.Context, target, text string) (*ingest.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(text))
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		err := fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode < 500 {
			return nil, retry.Unrecoverable(err)
		}
		return nil, err
	}

	var result ingest.Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("decoding result: %w", err))
	}
	return &result, nil
}

// ProviderSink stores notes directly through a notes provider, bypassing HTTP.
type ProviderSink struct {
	Provider *notes.Provider
	UserID   int
}

var _ Sink = ProviderSink{}

// Submit converts and stores text for the configured user.
func (s ProviderSink) Submit(ctx context.Context, text, source string) (*ingest.Result, error) {
	_, result, err := s.Provider.IngestText(ctx, text, s.UserID, source)
	return result, err
}
