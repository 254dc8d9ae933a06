// Package chatclient consumes the chat event stream on the client side and
// folds it into a transcript.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"lingo-backend/internal/models"
	"lingo-backend/internal/stream"
)

// TurnError is returned when the server ended a turn with an error event.
type TurnError struct {
	Message string
}

func (e *TurnError) Error() string { return e.Message }

// Reassemble reads events from r and folds them into t until a terminal event
// arrives or r ends. onToken, when set, sees every token in arrival order.
// The reply is sealed in either case.
func Reassemble(r io.Reader, t *Transcript, onToken func(string)) error {
	defer t.Seal()

	dec := stream.NewDecoder(r)
	for {
		ev, err := dec.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if ev.Kind == stream.KindToken && onToken != nil {
			onToken(ev.Token)
		}
		if t.Apply(ev) {
			if ev.Kind == stream.KindError {
				return &TurnError{Message: ev.Message}
			}
			return nil
		}
	}
}

// Client posts chat turns to the relay's /chat endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Chat sends one turn and streams the reply into t. It returns the assistant
// message the turn produced.
func (c *Client) Chat(ctx context.Context, req models.ChatRequest, t *Transcript, onToken func(string)) (Message, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Message{}, fmt.Errorf("encode chat request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return Message{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	t.AddUser(req.Message)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Message{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Message{}, fmt.Errorf("chat failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	err = Reassemble(resp.Body, t, onToken)
	last, ok := t.Last()
	if !ok || last.Role != RoleAssistant {
		last = Message{}
	}
	return last, err
}
