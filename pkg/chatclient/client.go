// Package chatclient consumes the streaming chat API incrementally,
// maintaining a live transcript with support for cancellation.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// State of one chat session's stream consumer.
type State int

const (
	StateIdle      State = iota // No request outstanding.
	StateSending                // Request dispatched, stream not yet open.
	StateStreaming              // Stream open, deltas arriving.
	StateCompleted              // Stream closed normally.
	StateCancelled              // Stopped by the caller.
	StateFailed                 // Transport failure.
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// ErrBusy reports that a send was attempted while a stream is active.
var ErrBusy = errors.New("a stream is already active for this session")

// Turn is one role-tagged entry of the displayed transcript.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RenderFunc receives the full transcript after every change. The last
// entry carries the running assistant text while streaming.
type RenderFunc func(transcript []Turn)

// Session drives one conversation against the chat API. At most one send
// is in flight at a time; methods are safe for concurrent use.
type Session struct {
	baseURL    string
	chatID     string
	httpClient *http.Client
	render     RenderFunc

	mu         sync.Mutex
	state      State
	transcript []Turn
}

// Option configures a Session.
type Option func(*Session)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) { s.httpClient = c }
}

// WithRender installs the transcript render callback.
func WithRender(fn RenderFunc) Option {
	return func(s *Session) { s.render = fn }
}

// WithHistory seeds the displayed transcript, e.g. from a stored
// conversation.
func WithHistory(history []Turn) Option {
	return func(s *Session) { s.transcript = append(s.transcript, history...) }
}

// NewSession creates a consumer for one chat.
func NewSession(baseURL, chatID string, opts ...Option) *Session {
	s := &Session{
		baseURL:    baseURL,
		chatID:     chatID,
		httpClient: http.DefaultClient,
		state:      StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current consumer state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns a copy of the displayed transcript.
func (s *Session) Transcript() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]Turn, len(s.transcript))
	copy(copied, s.transcript)
	return copied
}

// Result reports the terminal outcome of one send.
type Result struct {
	State State
	// Reply is the assistant text accumulated up to completion or
	// cancellation, in delta order.
	Reply string
	Err   error
}

// Send appends the user message optimistically, dispatches the request and
// consumes the reply stream until it closes, the context is cancelled, or
// the transport fails. Cancel by cancelling ctx: consumption stops, the
// transcript keeps the deltas received so far, and no further renders
// occur. Returns ErrBusy while a previous send is still active.
func (s *Session) Send(ctx context.Context, content string) (Result, error) {
	s.mu.Lock()
	if s.state == StateSending || s.state == StateStreaming {
		s.mu.Unlock()
		return Result{}, ErrBusy
	}
	s.state = StateSending
	s.transcript = append(s.transcript, Turn{Role: "user", Content: content})
	history := make([]Turn, len(s.transcript))
	copy(history, s.transcript)
	s.mu.Unlock()

	s.renderSnapshot()

	resp, err := s.dispatch(ctx, history)
	if err != nil {
		return s.finish(ctx, "", err), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("stream request failed: %s: %s", resp.Status, bytes.TrimSpace(body))
		return s.finish(ctx, "", err), nil
	}

	// Stream confirmed open: insert the placeholder assistant message the
	// first delta will update.
	s.mu.Lock()
	s.state = StateStreaming
	s.transcript = append(s.transcript, Turn{Role: "assistant", Content: ""})
	s.mu.Unlock()
	s.renderSnapshot()

	running, err := s.consume(ctx, resp.Body)
	return s.finish(ctx, running, err), nil
}

func (s *Session) dispatch(ctx context.Context, history []Turn) (*http.Response, error) {
	payload, err := json.Marshal(map[string]any{
		"history": history,
		"chatId":  s.chatID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/continueConversation", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return s.httpClient.Do(req)
}

// consume reads the raw delta stream, re-rendering the transcript after
// every chunk. The returned text is the accumulation up to the point
// consumption stopped.
func (s *Session) consume(ctx context.Context, body io.Reader) (string, error) {
	var running bytes.Buffer
	buf := make([]byte, 4096)

	for {
		n, err := body.Read(buf)
		if n > 0 {
			running.Write(buf[:n])
			s.updateAssistant(running.String())
			s.renderSnapshot()
		}
		if errors.Is(err, io.EOF) {
			return running.String(), nil
		}
		if err != nil {
			return running.String(), err
		}
		if ctx.Err() != nil {
			return running.String(), ctx.Err()
		}
	}
}

func (s *Session) updateAssistant(running string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.transcript) > 0 {
		s.transcript[len(s.transcript)-1] = Turn{Role: "assistant", Content: running}
	}
}

// finish moves the session to its terminal state. Cancellation wins over
// any transport error it induced.
func (s *Session) finish(ctx context.Context, running string, err error) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled):
		s.state = StateCancelled
		return Result{State: StateCancelled, Reply: running}
	case err != nil:
		s.state = StateFailed
		return Result{State: StateFailed, Reply: running, Err: err}
	default:
		s.state = StateCompleted
		return Result{State: StateCompleted, Reply: running}
	}
}

func (s *Session) renderSnapshot() {
	if s.render == nil {
		return
	}
	s.render(s.Transcript())
}
