package chatclient

import (
	"strings"
	"sync"
	"time"

	"lingo-backend/internal/stream"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a chat transcript. An assistant message grows while
// Streaming is true and is never changed again once it is false.
type Message struct {
	Role       Role      `json:"role"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"receivedAt"`
	Streaming  bool      `json:"streaming"`
	Failed     bool      `json:"failed,omitempty"`
}

// Transcript folds chat events into messages. It is safe for concurrent use.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
	now      func() time.Time
}

func NewTranscript() *Transcript {
	return &Transcript{now: time.Now}
}

func (t *Transcript) AddUser(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, Message{
		Role:       RoleUser,
		Text:       text,
		ReceivedAt: t.now(),
	})
}

// Apply folds one event into the transcript and reports whether it ended the
// turn.
//
// A token extends the last assistant message if it is still streaming and
// starts a new one otherwise. An error seals the current reply as failed, or
// adds the error text as the assistant's reply when nothing was streaming.
// Done seals the current reply.
func (t *Transcript) Apply(ev stream.Event) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Kind {
	case stream.KindToken:
		if m := t.streamingLocked(); m != nil {
			m.Text += ev.Token
			return false
		}
		t.messages = append(t.messages, Message{
			Role:       RoleAssistant,
			Text:       ev.Token,
			ReceivedAt: t.now(),
			Streaming:  true,
		})
		return false

	case stream.KindError:
		if m := t.streamingLocked(); m != nil {
			m.Streaming = false
			m.Failed = true
			return true
		}
		t.messages = append(t.messages, Message{
			Role:       RoleAssistant,
			Text:       ev.Message,
			ReceivedAt: t.now(),
			Failed:     true,
		})
		return true

	case stream.KindDone:
		if m := t.streamingLocked(); m != nil {
			m.Streaming = false
		}
		return true
	}
	return false
}

// Seal stops the message being streamed, if any. It is used when the
// connection ends without a terminal event.
func (t *Transcript) Seal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if m := t.streamingLocked(); m != nil {
		m.Streaming = false
	}
}

// Streaming reports whether a reply is still being received.
func (t *Transcript) Streaming() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := len(t.messages)
	return n > 0 && t.messages[n-1].Streaming
}

func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Last returns the most recent message.
func (t *Transcript) Last() (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

func (t *Transcript) String() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var b strings.Builder
	for _, m := range t.messages {
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

func (t *Transcript) streamingLocked() *Message {
	n := len(t.messages)
	if n == 0 {
		return nil
	}
	m := &t.messages[n-1]
	if m.Role != RoleAssistant || !m.Streaming {
		return nil
	}
	return m
}
