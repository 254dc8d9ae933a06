package models

import (
	"time"

	"github.com/google/uuid"
)

type Lesson struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateLessonRequest struct {
	Title string `json:"title"`
}
