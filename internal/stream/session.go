package stream

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"goa.design/clue/log"

	"lingo-backend/internal/models"
)

const (
	// MessageRequired is the error sent when a turn arrives without text.
	MessageRequired = "Message required"
	// NoResponse replaces a reply that came back without usable text.
	NoResponse = "(no response)"
	// UpstreamTimedOut is the error sent when the reply source exceeds its budget.
	UpstreamTimedOut = "Upstream request timed out"

	DefaultUpstreamTimeout = 30 * time.Second
)

// ReplySource produces one complete reply per chat turn.
type ReplySource interface {
	Reply(ctx context.Context, req models.ChatRequest) (models.UpstreamReply, error)
}

// State is the lifecycle position of a Session.
type State int32

const (
	StateIdle State = iota
	StateAwaitingUpstream
	StateEmitting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingUpstream:
		return "awaiting_upstream"
	case StateEmitting:
		return "emitting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Outcome is how a session ended.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeRejected
	OutcomeFailed
	OutcomeDisconnected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFailed:
		return "failed"
	case OutcomeDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Relay holds what every chat session shares: the reply source, the pacing
// and the upstream time budget. It has no per-session state.
type Relay struct {
	source  ReplySource
	emitter *Emitter
	timeout time.Duration
}

func NewRelay(source ReplySource, tokenInterval, upstreamTimeout time.Duration) *Relay {
	if upstreamTimeout <= 0 {
		upstreamTimeout = DefaultUpstreamTimeout
	}
	return &Relay{
		source:  source,
		emitter: NewEmitter(tokenInterval),
		timeout: upstreamTimeout,
	}
}

// NewSession binds a new session to sink.
func (r *Relay) NewSession(sink Sink) *Session {
	s := &Session{
		ID:    uuid.New(),
		relay: r,
		sink:  sink,
	}
	s.state.Store(int32(StateIdle))
	return s
}

// Session runs one chat turn over one sink.
type Session struct {
	ID uuid.UUID

	relay *Relay
	sink  Sink
	state atomic.Int32
}

func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

// Run drives the turn to completion. It always leaves the session Closed and
// the sink closed, and it never sends more than one terminal event.
func (s *Session) Run(ctx context.Context, req models.ChatRequest) Outcome {
	ctx = log.With(ctx, log.KV{K: "session_id", V: s.ID.String()})
	defer s.close()

	if err := s.sink.Open(); err != nil {
		log.Error(ctx, err, log.KV{K: "msg", V: "chat stream could not be opened"})
		return OutcomeDisconnected
	}

	if req.Message == "" {
		if err := s.sink.Send(ErrorEvent(MessageRequired)); err != nil {
			return OutcomeDisconnected
		}
		log.Info(ctx, log.KV{K: "msg", V: "chat turn rejected"}, log.KV{K: "reason", V: "empty message"})
		return OutcomeRejected
	}

	s.setState(StateAwaitingUpstream)
	reply, err := s.fetch(ctx, req)
	if err != nil {
		if s.sinkClosed() {
			log.Info(ctx, log.KV{K: "msg", V: "client left while waiting for upstream"})
			return OutcomeDisconnected
		}
		log.Error(ctx, err, log.KV{K: "msg", V: "upstream reply failed"})
		if sendErr := s.sink.Send(ErrorEvent(err.Error())); sendErr != nil {
			return OutcomeDisconnected
		}
		return OutcomeFailed
	}

	text := reply.Text
	if text == "" {
		text = NoResponse
	}

	s.setState(StateEmitting)
	res := s.relay.emitter.Emit(text, s.sink)
	if res.Interrupted {
		log.Info(ctx, log.KV{K: "msg", V: "client disconnected mid-stream"}, log.KV{K: "tokens_sent", V: res.Tokens})
		return OutcomeDisconnected
	}
	log.Info(ctx, log.KV{K: "msg", V: "chat turn streamed"}, log.KV{K: "tokens_sent", V: res.Tokens})
	return OutcomeCompleted
}

// fetch makes the single upstream call for this turn. The call is abandoned
// when the time budget runs out or the sink closes.
func (s *Session) fetch(ctx context.Context, req models.ChatRequest) (models.UpstreamReply, error) {
	ctx, cancel := context.WithTimeout(ctx, s.relay.timeout)
	defer cancel()

	go func() {
		select {
		case <-s.sink.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	ctx, span := otel.Tracer("lingo-backend/stream").Start(ctx, "upstream.reply",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("session.id", s.ID.String())),
	)
	defer span.End()

	reply, err := s.relay.source.Reply(ctx, req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = &timeoutError{err: err}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.UpstreamReply{}, err
	}
	span.SetAttributes(attribute.Int("reply.length", len(reply.Text)))
	return reply, nil
}

func (s *Session) sinkClosed() bool {
	select {
	case <-s.sink.Done():
		return true
	default:
		return false
	}
}

func (s *Session) close() {
	s.sink.Close()
	s.setState(StateClosed)
}

type timeoutError struct{ err error }

func (e *timeoutError) Error() string { return UpstreamTimedOut }
func (e *timeoutError) Unwrap() error { return e.err }
