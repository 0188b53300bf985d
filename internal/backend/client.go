package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rickyrobinett/basic-chat/internal/chat"
)

// DefaultBaseURL is the Cloudflare REST API root the inference endpoint
// lives under.
const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

// Event is one element of a token stream. Exactly one of Text and Err is
// meaningful; an Err event is terminal.
type Event struct {
	Text string
	Err  error
}

// Config holds the settings needed to reach the inference backend.
type Config struct {
	BaseURL   string
	AccountID string
	APIToken  string
	Model     string

	// HTTPClient overrides the default client. Streaming requests are
	// long-lived, so the default carries no overall timeout.
	HTTPClient *http.Client
}

// Client invokes a Workers-AI-compatible text-generation model in
// streaming mode.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// New creates a backend client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 30 * time.Second,
			},
		}
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger}
}

// streamRequest is the inference invocation payload.
type streamRequest struct {
	Messages  []chat.Turn `json:"messages"`
	MaxTokens int         `json:"max_tokens"`
	Stream    bool        `json:"stream"`
}

// Stream invokes the model with the given messages and returns a channel of
// token events. The channel is closed on clean end-of-stream (including the
// [DONE] sentinel); a decode or transport failure mid-stream is delivered
// as a terminal Err event. A failure to invoke the backend at all is
// returned directly and no channel is created.
//
// The request is attempted exactly once; cancelling ctx tears down the
// underlying connection and ends the stream.
func (c *Client) Stream(ctx context.Context, messages []chat.Turn, maxTokens int) (<-chan Event, error) {
	payload, err := json.Marshal(streamRequest{
		Messages:  messages,
		MaxTokens: maxTokens,
		Stream:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("encode backend request: %w", err)
	}

	url := fmt.Sprintf("%s/accounts/%s/ai/run/%s",
		strings.TrimSuffix(c.cfg.BaseURL, "/"), c.cfg.AccountID, c.cfg.Model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build backend request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.cfg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoke backend: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("backend returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	events := make(chan Event, 10)
	go c.readStream(ctx, resp.Body, events)
	return events, nil
}

// readStream drives the two-stage decode over the response body and feeds
// the event channel until the stream ends or fails.
func (c *Client) readStream(ctx context.Context, body io.ReadCloser, events chan<- Event) {
	defer close(events)
	defer body.Close()

	scanner := NewEventScanner(body)
	for {
		data, err := scanner.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			c.send(ctx, events, Event{Err: fmt.Errorf("read backend stream: %w", err)})
			return
		}

		fragment, done, err := decodePayload(data)
		if err != nil {
			// Reference behavior: a malformed payload aborts the whole
			// stream rather than skipping the event.
			c.send(ctx, events, Event{Err: err})
			return
		}
		if done {
			return
		}
		if fragment == "" {
			continue
		}
		if !c.send(ctx, events, Event{Text: fragment}) {
			return
		}
	}
}

func (c *Client) send(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
