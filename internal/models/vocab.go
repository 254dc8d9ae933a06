package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultVocabStrength is the recall strength given to a new term. Strength
// runs from 0 (forgotten) to 1 (mastered).
const DefaultVocabStrength = 0.1

type Vocab struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Term      string    `json:"term"`
	Meaning   string    `json:"meaning"`
	Strength  float64   `json:"strength"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateVocabRequest struct {
	Term    string `json:"term"`
	Meaning string `json:"meaning"`
}
