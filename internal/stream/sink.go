package stream

import (
	"errors"
	"net/http"
	"sync"
)

// ErrSinkClosed is returned by Send once the sink can no longer be written,
// either because the session closed it or because the client went away.
var ErrSinkClosed = errors.New("stream: sink closed")

// Sink is the write side of one session's connection.
type Sink interface {
	// Open prepares the transport for events. It is called once, before the
	// first Send.
	Open() error
	// Send delivers one event. It returns ErrSinkClosed after Close or after
	// the peer disconnected.
	Send(Event) error
	// Done is closed when the sink stops accepting events.
	Done() <-chan struct{}
	// Close releases the sink. It is safe to call more than once.
	Close() error
}

// SSESink writes events to an HTTP response as a server-sent event stream.
type SSESink struct {
	w       http.ResponseWriter
	flusher http.Flusher

	mu     sync.Mutex
	opened bool
	done   chan struct{}
	once   sync.Once
}

// NewSSESink binds a sink to w. The sink is closed automatically when r's
// context ends, which is how a client disconnect is observed.
func NewSSESink(w http.ResponseWriter, r *http.Request) *SSESink {
	s := &SSESink{
		w:    w,
		done: make(chan struct{}),
	}
	s.flusher, _ = w.(http.Flusher)

	go func() {
		select {
		case <-r.Context().Done():
			s.Close()
		case <-s.done:
		}
	}()
	return s
}

func (s *SSESink) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opened {
		return nil
	}
	s.opened = true

	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	s.flush()
	return nil
}

func (s *SSESink) Send(e Event) error {
	frame, err := Frame(e)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed() {
		return ErrSinkClosed
	}
	if !s.opened {
		return errors.New("stream: send before open")
	}
	if _, err := s.w.Write(frame); err != nil {
		s.closeLocked()
		return ErrSinkClosed
	}
	s.flush()
	return nil
}

func (s *SSESink) Done() <-chan struct{} { return s.done }

func (s *SSESink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
	return nil
}

func (s *SSESink) closeLocked() {
	s.once.Do(func() { close(s.done) })
}

func (s *SSESink) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *SSESink) flush() {
	if s.flusher != nil {
		s.flusher.Flush()
	}
}
