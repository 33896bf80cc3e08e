// Package ollama is a minimal HTTP client for a locally hosted Ollama
// server, covering the single streamed chat call this service performs.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrUnavailable reports that the model backend could not be reached or
// refused to start a generation. It is always returned before any delta.
var ErrUnavailable = errors.New("model backend unavailable")

// Config holds connection settings for the Ollama server.
type Config struct {
	// BaseURL of the Ollama API, e.g. http://127.0.0.1:11434.
	BaseURL string
	// Model identifier passed on every chat request.
	Model string
}

// Client talks to one Ollama server. Safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a client for the given server configuration.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		// No transport timeout: generation duration is bounded by the
		// request context, not the connection.
		httpClient: &http.Client{},
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.cfg.Model
}

// ChatStream starts a streamed generation for the given conversation and
// returns a Stream of text deltas. A failure to obtain the stream is
// reported as ErrUnavailable; the stream itself is single-use and must be
// closed by the caller.
func (c *Client) ChatStream(ctx context.Context, messages []Message) (*Stream, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		var apiErr apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, apiErr.Error)
		}
		return nil, fmt.Errorf("%w: unexpected status %s", ErrUnavailable, resp.Status)
	}

	return &Stream{body: resp.Body, reader: bufio.NewReader(resp.Body)}, nil
}

// Stream yields the text deltas of one generation in emission order.
type Stream struct {
	body   io.ReadCloser
	reader *bufio.Reader
	done   bool
}

// Recv returns the next non-empty delta. It returns io.EOF once the server
// reports completion or the body ends.
func (s *Stream) Recv() (string, error) {
	for {
		if s.done {
			return "", io.EOF
		}

		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(bytes.TrimSpace(line)) == 0 {
				return "", io.EOF
			}
			if err != io.EOF {
				return "", err
			}
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var chunk chatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			// Malformed lines are skipped rather than aborting the turn.
			continue
		}

		if chunk.Done {
			s.done = true
			if chunk.Message.Content == "" {
				return "", io.EOF
			}
		}
		if chunk.Message.Content == "" {
			continue
		}
		return chunk.Message.Content, nil
	}
}

// Close releases the underlying response body.
func (s *Stream) Close() error {
	return s.body.Close()
}
