package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"aguibridge/retry"
)

// DefaultUserID is used when the caller does not supply a user id.
const DefaultUserID = "default-user"

// maxLineBytes bounds a single upstream event line.
const maxLineBytes = 4 * 1024 * 1024

// StreamEvent is one item of the upstream sequence: either a decoded
// event or a terminal transport error.
type StreamEvent struct {
	Event *Event
	Err   error
}

// TransportError is a non-200 response from the Agent Engine endpoint.
type TransportError struct {
	Code int
	Body string
}

// Error returns the error message.
func (e *TransportError) Error() string {
	return fmt.Sprintf("agent engine: HTTP %d: %s", e.Code, e.Body)
}

// StatusCode returns the HTTP status code, making the error visible to
// the retry package's transience heuristics.
func (e *TransportError) StatusCode() int {
	return e.Code
}

// StreamClient streams raw events from a Google Agent Engine deployment.
type StreamClient struct {
	endpoint   string
	httpClient *http.Client
	tokens     TokenSource
	retryCfg   retry.Config
	log        *slog.Logger
}

// ClientOption configures a StreamClient.
type ClientOption func(*StreamClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(sc *StreamClient) {
		sc.httpClient = c
	}
}

// WithRetryConfig sets the retry policy for opening the stream.
func WithRetryConfig(cfg retry.Config) ClientOption {
	return func(sc *StreamClient) {
		sc.retryCfg = cfg
	}
}

// WithLogger sets the logger for discarded lines and stream lifecycle.
func WithLogger(log *slog.Logger) ClientOption {
	return func(sc *StreamClient) {
		sc.log = log
	}
}

// WithEndpoint overrides the computed endpoint URL. Intended for tests.
func WithEndpoint(url string) ClientOption {
	return func(sc *StreamClient) {
		sc.endpoint = url
	}
}

// NewStreamClient creates a client for one Reasoning Engine deployment.
func NewStreamClient(projectID, location, engineID string, tokens TokenSource, opts ...ClientOption) *StreamClient {
	resource := fmt.Sprintf("projects/%s/locations/%s/reasoningEngines/%s", projectID, location, engineID)
	c := &StreamClient{
		endpoint:   fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1/%s:streamQuery?alt=sse", location, resource),
		httpClient: http.DefaultClient,
		tokens:     tokens,
		retryCfg:   retry.DefaultConfig(),
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the resolved streamQuery URL.
func (c *StreamClient) Endpoint() string {
	return c.endpoint
}

type streamQueryRequest struct {
	ClassMethod string           `json:"class_method"`
	Input       streamQueryInput `json:"input"`
}

type streamQueryInput struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// StreamQuery sends a query and returns a channel of decoded events.
// The channel closes when the upstream finishes, errors, or ctx is
// cancelled; a transport failure mid-stream is the final item's Err.
//
// Opening the connection is retried for transient failures; the returned
// error is the last attempt's failure.
func (c *StreamClient) StreamQuery(ctx context.Context, message, userID string) (<-chan StreamEvent, error) {
	if userID == "" {
		userID = DefaultUserID
	}

	body, err := json.Marshal(streamQueryRequest{
		ClassMethod: "async_stream_query",
		Input:       streamQueryInput{Message: message, UserID: userID},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	resp, err := retry.Do(ctx, c.retryCfg, func() (*http.Response, error) {
		return c.open(ctx, body)
	})
	if err != nil {
		return nil, err
	}

	out := make(chan StreamEvent)
	go c.readStream(ctx, resp.Body, out)
	return out, nil
}

// open performs one connection attempt.
func (c *StreamClient) open(ctx context.Context, body []byte) (*http.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &TransportError{Code: resp.StatusCode, Body: strings.TrimSpace(string(errBody))}
	}

	return resp, nil
}

// readStream decodes the response body line by line until EOF, error, or
// cancellation. Lines that are not valid JSON events are discarded.
func (c *StreamClient) readStream(ctx context.Context, body io.ReadCloser, out chan<- StreamEvent) {
	defer close(out)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// The endpoint serves SSE framing; tolerate both bare JSON
		// lines and data-prefixed frames.
		line = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if line == "" {
			continue
		}

		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			c.log.Warn("discarding malformed upstream line", "error", err)
			continue
		}

		select {
		case out <- StreamEvent{Event: &ev}:
		case <-ctx.Done():
			return
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		select {
		case out <- StreamEvent{Err: fmt.Errorf("read stream: %w", err)}:
		case <-ctx.Done():
		}
	}
}
