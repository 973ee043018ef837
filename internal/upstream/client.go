// Package upstream opens streaming chat-completion requests against an
// OpenAI-compatible endpoint and hands back the raw response lines.
package upstream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

var (
	// ErrEmptyQuestion is returned before any network call when the
	// question is blank.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrIdleTimeout is the cause recorded when no line arrives in time.
	ErrIdleTimeout = errors.New("upstream idle timeout")
)

// ConnectionError is a transport-level failure talking to the upstream.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("upstream connection: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// StatusError is a non-200 answer to the opening request.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, truncate(e.Body, 200))
}

// Options configures a Client.
type Options struct {
	URL            string
	APIKey         string
	Model          string
	MaxTokens      int
	Temperature    float64
	TopK           int
	IdleTimeout    time.Duration
	ConnectTimeout time.Duration
	Retries        int    // extra connect attempts on 429, 5xx or dial failure
	Persona        string // system prompt; DefaultPersona when empty
}

// Client calls the chat-completions endpoint in streaming mode.
type Client struct {
	opts       Options
	httpClient *http.Client
	backoff    func(attempt int) time.Duration
	log        *slog.Logger
}

func NewClient(opts Options) *Client {
	return NewClientWithLogger(opts, slog.Default())
}

// NewClientWithLogger is NewClient with an explicit logger for retries.
func NewClientWithLogger(opts Options, log *slog.Logger) *Client {
	if opts.Persona == "" {
		opts.Persona = DefaultPersona
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 15 * time.Second
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 60 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Retries > MaxRetries {
		opts.Retries = MaxRetries
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: opts.ConnectTimeout, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = opts.ConnectTimeout
	transport.ResponseHeaderTimeout = opts.IdleTimeout

	return &Client{
		opts: opts,
		// No overall timeout: streams are bounded by the idle timer instead.
		httpClient: &http.Client{Transport: transport},
		backoff:    Backoff,
		log:        log,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.opts.Model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	MaxTokens   int           `json:"max_tokens"`
	TopK        int           `json:"top_k"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
	Model       string        `json:"model"`
	Stream      bool          `json:"stream"`
}

// Open validates question and starts a streaming completion, retrying a
// failed connect a few times. The returned Stream must be closed by the
// caller.
func (c *Client) Open(ctx context.Context, question string) (*Stream, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	for attempt := 0; ; attempt++ {
		s, err := c.open(ctx, question)
		if err == nil || attempt >= c.opts.Retries || !isRetryable(ctx, err) {
			return s, err
		}
		wait := c.backoff(attempt)
		c.log.Warn("upstream open failed, retrying", "attempt", attempt+1, "wait_ms", wait.Milliseconds(), "error", err)
		if err := sleepCtx(ctx, wait); err != nil {
			return nil, &ConnectionError{Err: err}
		}
	}
}

func (c *Client) open(ctx context.Context, question string) (*Stream, error) {
	body, err := json.Marshal(chatRequest{
		MaxTokens:   c.opts.MaxTokens,
		TopK:        c.opts.TopK,
		Temperature: c.opts.Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: c.opts.Persona},
			{Role: "user", Content: question},
		},
		Model:  c.opts.Model,
		Stream: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithCancelCause(ctx)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, bytes.NewReader(body))
	if err != nil {
		cancel(nil)
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		cancel(nil)
		return nil, &ConnectionError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
		cancel(nil)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	s := &Stream{
		body:   resp.Body,
		reader: bufio.NewReaderSize(resp.Body, 16<<10),
		ctx:    ctx,
		cancel: cancel,
		idle:   c.opts.IdleTimeout,
	}
	s.timer = time.AfterFunc(s.idle, func() { cancel(ErrIdleTimeout) })
	s.timer.Stop()
	return s, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Stream is one open completion. Lines are read lazily; a Stream cannot be
// restarted once it ends.
type Stream struct {
	body   io.ReadCloser
	reader *bufio.Reader
	ctx    context.Context
	cancel context.CancelCauseFunc
	idle   time.Duration
	timer  *time.Timer

	closeOnce sync.Once
	done      bool
}

// Next returns the next line without its terminator. It returns io.EOF
// when the upstream closes the connection, and a *ConnectionError for any
// other read failure, including the idle timeout.
func (s *Stream) Next() (string, error) {
	if s.done {
		return "", io.EOF
	}

	s.timer.Reset(s.idle)
	line, err := s.reader.ReadString('\n')
	s.timer.Stop()

	if err != nil {
		if errors.Is(err, io.EOF) && s.ctx.Err() == nil {
			s.done = true
			if line != "" {
				return strings.TrimRight(line, "\r\n"), nil
			}
			return "", io.EOF
		}
		s.done = true
		if cause := context.Cause(s.ctx); cause != nil {
			return "", &ConnectionError{Err: cause}
		}
		return "", &ConnectionError{Err: err}
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Close aborts the request if it is still running. Safe to call more than
// once.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.timer.Stop()
		s.cancel(context.Canceled)
		err = s.body.Close()
	})
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
