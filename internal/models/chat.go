package models

import (
	"encoding/json"
)

// ChatOptions is the option bag sent with a chat message. Only CorrectGrammar,
// Explain and TranslateTo change what the tutor is asked for; the remaining
// keys are UI hints that are carried along untouched.
type ChatOptions struct {
	CorrectGrammar bool   `json:"correctGrammar,omitempty"`
	Explain        bool   `json:"explain,omitempty"`
	TranslateTo    string `json:"translateTo,omitempty"`
	Quiz           bool   `json:"quiz,omitempty"`
	AutoSpeak      bool   `json:"autoSpeak,omitempty"`

	// raw keeps the options object exactly as received so unknown keys reach
	// the upstream service.
	raw json.RawMessage
}

// UnmarshalJSON never fails on well-formed JSON. A key holding an unexpected
// type is left at its zero value, and a non-object bag sets nothing; either
// way the bag is still forwarded as received.
func (o *ChatOptions) UnmarshalJSON(data []byte) error {
	*o = ChatOptions{}
	if string(data) == "null" {
		return nil
	}
	o.raw = append(json.RawMessage(nil), data...)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	lenient(fields["correctGrammar"], &o.CorrectGrammar)
	lenient(fields["explain"], &o.Explain)
	lenient(fields["translateTo"], &o.TranslateTo)
	lenient(fields["quiz"], &o.Quiz)
	lenient(fields["autoSpeak"], &o.AutoSpeak)
	return nil
}

// lenient decodes raw into dst, leaving dst untouched when raw is absent or
// of another type.
func lenient[T any](raw json.RawMessage, dst *T) {
	if len(raw) == 0 {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err == nil {
		*dst = v
	}
}

func (o ChatOptions) MarshalJSON() ([]byte, error) {
	if len(o.raw) > 0 {
		return o.raw, nil
	}
	type plain ChatOptions
	return json.Marshal(plain(o))
}

// ChatRequest is the payload sent to the chat stream endpoints.
type ChatRequest struct {
	Message string      `json:"message"`
	Options ChatOptions `json:"options"`
}

// UpstreamReply is the complete reply obtained for one chat turn.
type UpstreamReply struct {
	Text string `json:"text"`
}
