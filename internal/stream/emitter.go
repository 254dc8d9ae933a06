package stream

import (
	"time"
)

// DefaultTokenInterval is the pause between two emitted events.
const DefaultTokenInterval = 30 * time.Millisecond

// Emitter replays a complete reply as a paced sequence of token events.
type Emitter struct {
	Interval time.Duration
}

func NewEmitter(interval time.Duration) *Emitter {
	return &Emitter{Interval: interval}
}

// EmitResult describes how far an emission got.
type EmitResult struct {
	Tokens      int
	Interrupted bool
}

// Emit sends one token event per rune of text, in order, followed by a
// single done event. The sink is checked before every event; once it is
// closed Emit returns without sending anything else, done included.
func (e *Emitter) Emit(text string, sink Sink) EmitResult {
	var res EmitResult

	var tick <-chan time.Time
	if e.Interval > 0 {
		ticker := time.NewTicker(e.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for _, r := range text {
		if !e.wait(tick, sink) {
			res.Interrupted = true
			return res
		}
		if err := sink.Send(TokenEvent(string(r))); err != nil {
			res.Interrupted = true
			return res
		}
		res.Tokens++
	}

	if !e.wait(tick, sink) {
		res.Interrupted = true
		return res
	}
	if err := sink.Send(DoneEvent()); err != nil {
		res.Interrupted = true
	}
	return res
}

// wait blocks until the next emission slot and reports whether the sink is
// still open.
func (e *Emitter) wait(tick <-chan time.Time, sink Sink) bool {
	if tick != nil {
		select {
		case <-tick:
		case <-sink.Done():
			return false
		}
	}
	select {
	case <-sink.Done():
		return false
	default:
		return true
	}
}
