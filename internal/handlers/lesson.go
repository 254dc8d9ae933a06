package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"goa.design/clue/log"

	"lingo-backend/internal/middleware"
	"lingo-backend/internal/models"
)

type lessonRepository interface {
	Create(ctx context.Context, l *models.Lesson) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Lesson, error)
	MarkDone(ctx context.Context, id, userID uuid.UUID) (*models.Lesson, error)
}

type LessonHandler struct {
	lessonRepo lessonRepository
}

func NewLessonHandler(lessonRepo lessonRepository) *LessonHandler {
	return &LessonHandler{lessonRepo: lessonRepo}
}

func (h *LessonHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	lessons, err := h.lessonRepo.ListByUser(r.Context(), userID)
	if err != nil {
		log.Error(r.Context(), err, log.KV{K: "msg", V: "list lessons failed"})
		internalError(w, r)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"lessons": lessons})
}

func (h *LessonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"title": "title is required"}, r))
		return
	}

	lesson := &models.Lesson{
		UserID: middleware.GetUserID(r.Context()),
		Title:  title,
	}
	if err := h.lessonRepo.Create(r.Context(), lesson); err != nil {
		log.Error(r.Context(), err, log.KV{K: "msg", V: "create lesson failed"})
		internalError(w, r)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"lesson": lesson})
}

func (h *LessonHandler) Complete(w http.ResponseWriter, r *http.Request) {
	lessonID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	lesson, err := h.lessonRepo.MarkDone(r.Context(), lessonID, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Lesson not found or not owned by user", r))
		return
	}
	if err != nil {
		log.Error(r.Context(), err, log.KV{K: "msg", V: "complete lesson failed"})
		internalError(w, r)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"lesson": lesson})
}
