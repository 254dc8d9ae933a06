package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"lingo-backend/internal/models"
)

type stubLessonRepo struct {
	lessons  []*models.Lesson
	created  *models.Lesson
	listErr  error
	lastID   uuid.UUID
	lastUser uuid.UUID
}

func (s *stubLessonRepo) Create(ctx context.Context, l *models.Lesson) error {
	l.ID = uuid.New()
	l.CreatedAt = time.Now()
	s.created = l
	return nil
}

func (s *stubLessonRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Lesson, error) {
	s.lastUser = userID
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.lessons, nil
}

func (s *stubLessonRepo) MarkDone(ctx context.Context, id, userID uuid.UUID) (*models.Lesson, error) {
	s.lastID = id
	s.lastUser = userID
	for _, l := range s.lessons {
		if l.ID == id && l.UserID == userID {
			l.Done = true
			return l, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func TestLessonHandler_List(t *testing.T) {
	userID := uuid.New()
	repo := &stubLessonRepo{lessons: []*models.Lesson{
		{ID: uuid.New(), UserID: userID, Title: "Past tense"},
	}}
	h := NewLessonHandler(repo)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/lessons", nil), userID)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if repo.lastUser != userID {
		t.Errorf("Expected lessons listed for %s, got %s", userID, repo.lastUser)
	}

	var body struct {
		Lessons []models.Lesson `json:"lessons"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(body.Lessons) != 1 || body.Lessons[0].Title != "Past tense" {
		t.Errorf("Unexpected lessons: %+v", body.Lessons)
	}
}

func TestLessonHandler_ListFailure(t *testing.T) {
	h := NewLessonHandler(&stubLessonRepo{listErr: errors.New("connection reset")})

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/lessons", nil), uuid.New())
	rr := httptest.NewRecorder()
	h.List(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rr.Code)
	}
	if code := decodeError(t, rr).Code; code != "INTERNAL_ERROR" {
		t.Errorf("Expected INTERNAL_ERROR, got %q", code)
	}
}

func TestLessonHandler_Create(t *testing.T) {
	userID := uuid.New()
	repo := &stubLessonRepo{}
	h := NewLessonHandler(repo)

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/lessons", strings.NewReader(`{"title":"  Greetings  "}`)), userID)
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", rr.Code)
	}
	if repo.created == nil {
		t.Fatal("Expected lesson to be created")
	}
	if repo.created.Title != "Greetings" {
		t.Errorf("Expected trimmed title, got %q", repo.created.Title)
	}
	if repo.created.UserID != userID {
		t.Errorf("Expected owner %s, got %s", userID, repo.created.UserID)
	}
	if repo.created.Done {
		t.Error("New lesson should not be done")
	}
}

func TestLessonHandler_CreateValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing title", `{}`, "VALIDATION_ERROR"},
		{"blank title", `{"title":"   "}`, "VALIDATION_ERROR"},
		{"invalid json", `{"title":`, "VALIDATION_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubLessonRepo{}
			h := NewLessonHandler(repo)

			req := withUser(httptest.NewRequest(http.MethodPost, "/api/lessons", strings.NewReader(tc.body)), uuid.New())
			rr := httptest.NewRecorder()
			h.Create(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d", rr.Code)
			}
			if code := decodeError(t, rr).Code; code != tc.code {
				t.Errorf("Expected %s, got %q", tc.code, code)
			}
			if repo.created != nil {
				t.Error("Lesson should not be created")
			}
		})
	}
}

func TestLessonHandler_Complete_Authorization(t *testing.T) {
	lessonID := uuid.New()
	ownerID := uuid.New()
	otherUserID := uuid.New()

	newRepo := func() *stubLessonRepo {
		return &stubLessonRepo{lessons: []*models.Lesson{
			{ID: lessonID, UserID: ownerID, Title: "Numbers"},
		}}
	}

	t.Run("owner completes lesson", func(t *testing.T) {
		repo := newRepo()
		h := NewLessonHandler(repo)

		req := httptest.NewRequest(http.MethodPut, "/api/lessons/"+lessonID.String()+"/complete", nil)
		req = withUser(withURLParam(req, "id", lessonID.String()), ownerID)
		rr := httptest.NewRecorder()
		h.Complete(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rr.Code)
		}
		var body struct {
			Lesson models.Lesson `json:"lesson"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if !body.Lesson.Done {
			t.Error("Expected lesson to be done")
		}
	})

	t.Run("other user gets not found", func(t *testing.T) {
		repo := newRepo()
		h := NewLessonHandler(repo)

		req := httptest.NewRequest(http.MethodPut, "/api/lessons/"+lessonID.String()+"/complete", nil)
		req = withUser(withURLParam(req, "id", lessonID.String()), otherUserID)
		rr := httptest.NewRecorder()
		h.Complete(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Fatalf("Expected 404, got %d", rr.Code)
		}
		apiErr := decodeError(t, rr)
		if apiErr.Message != "Lesson not found or not owned by user" {
			t.Errorf("Unexpected message %q", apiErr.Message)
		}
		if repo.lastUser != otherUserID {
			t.Errorf("Expected ownership checked for %s, got %s", otherUserID, repo.lastUser)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		repo := newRepo()
		h := NewLessonHandler(repo)

		req := httptest.NewRequest(http.MethodPut, "/api/lessons/not-a-uuid/complete", nil)
		req = withUser(withURLParam(req, "id", "not-a-uuid"), ownerID)
		rr := httptest.NewRecorder()
		h.Complete(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", rr.Code)
		}
		if repo.lastID != uuid.Nil {
			t.Error("Repository should not be called for an invalid id")
		}
	})
}
