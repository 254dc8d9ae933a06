package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"lingo-backend/internal/models"
)

type LessonRepo struct {
	pool *pgxpool.Pool
}

func NewLessonRepo(pool *pgxpool.Pool) *LessonRepo {
	return &LessonRepo{pool: pool}
}

func (r *LessonRepo) Create(ctx context.Context, l *models.Lesson) error {
	l.ID = uuid.New()
	query := `INSERT INTO lessons (id, user_id, title, done)
		VALUES ($1, $2, $3, $4) RETURNING created_at`

	return r.pool.QueryRow(ctx, query, l.ID, l.UserID, l.Title, l.Done).Scan(&l.CreatedAt)
}

func (r *LessonRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Lesson, error) {
	query := `SELECT id, user_id, title, done, created_at
		FROM lessons WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lessons := []*models.Lesson{}
	for rows.Next() {
		l := &models.Lesson{}
		if err := rows.Scan(&l.ID, &l.UserID, &l.Title, &l.Done, &l.CreatedAt); err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// MarkDone flags the user's lesson as done. It returns pgx.ErrNoRows when the
// lesson does not exist or belongs to someone else.
func (r *LessonRepo) MarkDone(ctx context.Context, id, userID uuid.UUID) (*models.Lesson, error) {
	l := &models.Lesson{}
	query := `UPDATE lessons SET done = TRUE WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, title, done, created_at`

	err := r.pool.QueryRow(ctx, query, id, userID).Scan(&l.ID, &l.UserID, &l.Title, &l.Done, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}
