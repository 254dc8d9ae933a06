package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"goa.design/clue/log"

	"lingo-backend/internal/models"
	"lingo-backend/internal/stream"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 << 10
	maxQueuedTurns = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub serves chat turns over WebSocket connections. Every text frame a client
// sends is one chat request; the reply streams back as one JSON text frame
// per event. Turns on a connection run one at a time.
type Hub struct {
	relay *stream.Relay

	mu          sync.Mutex
	connections map[*websocket.Conn]struct{}
}

func NewHub(relay *stream.Relay) *Hub {
	return &Hub{
		relay:       relay,
		connections: make(map[*websocket.Conn]struct{}),
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error(r.Context(), err, log.KV{K: "msg", V: "websocket upgrade failed"})
		return
	}
	conn.SetReadLimit(maxMessageSize)

	// The connection outlives the handler; keep the logger, drop the cancel.
	ctx := context.WithoutCancel(r.Context())
	h.registerConnection(ctx, conn)

	closed := make(chan struct{})
	turns := make(chan models.ChatRequest, maxQueuedTurns)
	go h.runTurns(ctx, conn, turns, closed)

	// Keep reading so a disconnect is noticed while a turn is streaming.
	go func() {
		defer h.unregisterConnection(ctx, conn)
		defer close(closed)
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}
			var req models.ChatRequest
			if err := json.Unmarshal(data, &req); err != nil {
				req = models.ChatRequest{}
			}
			select {
			case turns <- req:
			default:
				log.Info(ctx, log.KV{K: "msg", V: "chat turn dropped"}, log.KV{K: "reason", V: "too many queued turns"})
			}
		}
	}()
}

func (h *Hub) runTurns(ctx context.Context, conn *websocket.Conn, turns <-chan models.ChatRequest, closed <-chan struct{}) {
	var writeMu sync.Mutex
	for {
		select {
		case req := <-turns:
			sink := newSocketSink(conn, &writeMu, closed)
			h.relay.NewSession(sink).Run(ctx, req)
		case <-closed:
			return
		}
	}
}

func (h *Hub) registerConnection(ctx context.Context, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[conn] = struct{}{}
	log.Info(ctx, log.KV{K: "msg", V: "chat socket connected"}, log.KV{K: "total", V: len(h.connections)})
}

func (h *Hub) unregisterConnection(ctx context.Context, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()
	delete(h.connections, conn)
	log.Info(ctx, log.KV{K: "msg", V: "chat socket disconnected"}, log.KV{K: "total", V: len(h.connections)})
}

// Count returns the number of open chat sockets.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections)
}

// Shutdown sends a close frame to every open socket. Streaming turns end when
// their read loops observe the close.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for conn := range h.connections {
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		conn.Close()
	}
}

// socketSink writes one turn's events to a socket. writeMu is shared by all
// turns of a connection.
type socketSink struct {
	conn    *websocket.Conn
	writeMu *sync.Mutex

	done chan struct{}
	once sync.Once
}

func newSocketSink(conn *websocket.Conn, writeMu *sync.Mutex, connClosed <-chan struct{}) *socketSink {
	s := &socketSink{
		conn:    conn,
		writeMu: writeMu,
		done:    make(chan struct{}),
	}
	go func() {
		select {
		case <-connClosed:
			s.Close()
		case <-s.done:
		}
	}()
	return s
}

func (s *socketSink) Open() error { return nil }

func (s *socketSink) Send(e stream.Event) error {
	select {
	case <-s.done:
		return stream.ErrSinkClosed
	default:
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		s.Close()
		return stream.ErrSinkClosed
	}
	return nil
}

func (s *socketSink) Done() <-chan struct{} { return s.done }

func (s *socketSink) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
