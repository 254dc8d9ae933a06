package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"goa.design/clue/log"

	"lingo-backend/internal/middleware"
	"lingo-backend/internal/models"
	"lingo-backend/internal/repository"
)

type vocabRepository interface {
	Create(ctx context.Context, v *models.Vocab) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Vocab, error)
	Weakest(ctx context.Context, userID uuid.UUID) (*models.Vocab, error)
}

type VocabHandler struct {
	vocabRepo vocabRepository
}

func NewVocabHandler(vocabRepo vocabRepository) *VocabHandler {
	return &VocabHandler{vocabRepo: vocabRepo}
}

func (h *VocabHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.vocabRepo.ListByUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		log.Error(r.Context(), err, log.KV{K: "msg", V: "list vocab failed"})
		internalError(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"vocab": items})
}

func (h *VocabHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateVocabRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	term := strings.TrimSpace(req.Term)
	if term == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"term": "term is required"}, r))
		return
	}

	v := &models.Vocab{
		UserID:   middleware.GetUserID(r.Context()),
		Term:     term,
		Meaning:  strings.TrimSpace(req.Meaning),
		Strength: models.DefaultVocabStrength,
	}
	err := h.vocabRepo.Create(r.Context(), v)
	if errors.Is(err, repository.ErrDuplicate) {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Already exists", r))
		return
	}
	if err != nil {
		log.Error(r.Context(), err, log.KV{K: "msg", V: "create vocab failed"})
		internalError(w, r)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"vocab": v})
}

// Review returns the weakest term of the caller's deck, or null.
func (h *VocabHandler) Review(w http.ResponseWriter, r *http.Request) {
	weakest, err := h.vocabRepo.Weakest(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		log.Error(r.Context(), err, log.KV{K: "msg", V: "review vocab failed"})
		internalError(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"weakest": weakest})
}
