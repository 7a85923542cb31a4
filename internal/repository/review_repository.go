package repository

import (
	"context"
	"time"

	"github.com/fjod/fruitables/internal/domain"
)

type ReviewRepository struct {
	db  *DB
	now func() time.Time
}

func NewReviewRepository(db *DB) *ReviewRepository {
	return &ReviewRepository{db: db, now: time.Now}
}

func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	rv.CreatedAt = r.now().UTC()
	query := `
		INSERT INTO reviews (user_id, email, review, rating, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	if err := r.db.db.QueryRowContext(ctx, query, rv.UserID, rv.Email, rv.Review, rv.Rating, rv.CreatedAt).Scan(&rv.ID); err != nil {
		return storeErr("failed to insert review", err)
	}
	return nil
}

// List returns up to limit reviews, newest first, with the author's username.
func (r *ReviewRepository) List(ctx context.Context, limit int) ([]domain.Review, error) {
	query := `
		SELECT r.id, r.user_id, u.username, r.email, r.review, r.rating, r.created_at
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $1
	`

	rows, err := r.db.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, storeErr("failed to query reviews", err)
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.Username, &rv.Email, &rv.Review, &rv.Rating, &rv.CreatedAt); err != nil {
			return nil, storeErr("failed to scan review", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("error iterating reviews", err)
	}
	return reviews, nil
}
