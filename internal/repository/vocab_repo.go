package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"lingo-backend/internal/models"
)

// ErrDuplicate is returned when an insert hits a unique constraint.
var ErrDuplicate = errors.New("record already exists")

const uniqueViolation = "23505"

type VocabRepo struct {
	pool *pgxpool.Pool
}

func NewVocabRepo(pool *pgxpool.Pool) *VocabRepo {
	return &VocabRepo{pool: pool}
}

func (r *VocabRepo) Create(ctx context.Context, v *models.Vocab) error {
	v.ID = uuid.New()
	query := `INSERT INTO vocab (id, user_id, term, meaning, strength)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`

	err := r.pool.QueryRow(ctx, query, v.ID, v.UserID, v.Term, v.Meaning, v.Strength).Scan(&v.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

func (r *VocabRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Vocab, error) {
	query := `SELECT id, user_id, term, meaning, strength, created_at
		FROM vocab WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*models.Vocab{}
	for rows.Next() {
		v := &models.Vocab{}
		if err := rows.Scan(&v.ID, &v.UserID, &v.Term, &v.Meaning, &v.Strength, &v.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

// Weakest returns the user's term with the lowest strength, or nil when the
// deck is empty.
func (r *VocabRepo) Weakest(ctx context.Context, userID uuid.UUID) (*models.Vocab, error) {
	v := &models.Vocab{}
	query := `SELECT id, user_id, term, meaning, strength, created_at
		FROM vocab WHERE user_id = $1 ORDER BY strength ASC, created_at ASC LIMIT 1`

	err := r.pool.QueryRow(ctx, query, userID).Scan(&v.ID, &v.UserID, &v.Term, &v.Meaning, &v.Strength, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
