package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// EventKind identifies which of the three event shapes an Event carries.
type EventKind int

const (
	KindToken EventKind = iota + 1
	KindError
	KindDone
)

func (k EventKind) String() string {
	switch k {
	case KindToken:
		return "token"
	case KindError:
		return "error"
	case KindDone:
		return "done"
	default:
		return "unknown"
	}
}

// Event is one record of a chat stream. On the wire it is exactly one of
// {"token": "<char>"}, {"error": "<message>"} or {"done": true}.
type Event struct {
	Kind    EventKind
	Token   string
	Message string
}

func TokenEvent(token string) Event { return Event{Kind: KindToken, Token: token} }

func ErrorEvent(message string) Event { return Event{Kind: KindError, Message: message} }

func DoneEvent() Event { return Event{Kind: KindDone} }

// Terminal reports whether e ends a session.
func (e Event) Terminal() bool {
	return e.Kind == KindError || e.Kind == KindDone
}

func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case KindToken:
		return json.Marshal(struct {
			Token string `json:"token"`
		}{e.Token})
	case KindError:
		return json.Marshal(struct {
			Error string `json:"error"`
		}{e.Message})
	case KindDone:
		return []byte(`{"done":true}`), nil
	default:
		return nil, fmt.Errorf("stream: cannot encode event of kind %d", e.Kind)
	}
}

var errUnknownEvent = errors.New("stream: record is not a chat event")

func (e *Event) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if raw, ok := fields["token"]; ok {
		var token string
		if err := json.Unmarshal(raw, &token); err != nil {
			return fmt.Errorf("stream: token field: %w", err)
		}
		*e = TokenEvent(token)
		return nil
	}
	if raw, ok := fields["error"]; ok {
		var message string
		if err := json.Unmarshal(raw, &message); err != nil {
			return fmt.Errorf("stream: error field: %w", err)
		}
		*e = ErrorEvent(message)
		return nil
	}
	if raw, ok := fields["done"]; ok {
		var done bool
		if err := json.Unmarshal(raw, &done); err != nil || !done {
			return errUnknownEvent
		}
		*e = DoneEvent()
		return nil
	}
	return errUnknownEvent
}

const (
	recordPrefix    = "data:"
	recordSeparator = "\n\n"
)

// Frame renders e as a single server-sent event record: "data: <json>\n\n".
func Frame(e Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	b.Grow(len(recordPrefix) + 1 + len(payload) + len(recordSeparator))
	b.WriteString(recordPrefix)
	b.WriteByte(' ')
	b.Write(payload)
	b.WriteString(recordSeparator)
	return b.Bytes(), nil
}
