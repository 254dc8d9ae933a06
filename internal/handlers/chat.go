package handlers

import (
	"encoding/json"
	"net/http"

	"goa.design/clue/log"

	"lingo-backend/internal/models"
	"lingo-backend/internal/stream"
)

// maxChatBody caps the JSON body of a chat turn.
const maxChatBody = 1 << 20

type ChatHandler struct {
	relay *stream.Relay
}

func NewChatHandler(relay *stream.Relay) *ChatHandler {
	return &ChatHandler{relay: relay}
}

// Stream answers one chat turn as a server-sent event stream. Every outcome,
// a rejected message included, is reported in-stream with status 200.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	body := http.MaxBytesReader(w, r.Body, maxChatBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		// An unreadable body carries no message; the session rejects it.
		req = models.ChatRequest{}
	}

	sink := stream.NewSSESink(w, r)
	sess := h.relay.NewSession(sink)
	outcome := sess.Run(r.Context(), req)

	log.Print(r.Context(), log.KV{K: "msg", V: "chat turn finished"},
		log.KV{K: "session_id", V: sess.ID.String()},
		log.KV{K: "outcome", V: outcome.String()})
}
