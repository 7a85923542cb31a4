package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/fjod/fruitables/internal/domain"
)

type ContactRepository struct {
	db  *DB
	now func() time.Time
}

func NewContactRepository(db *DB) *ContactRepository {
	return &ContactRepository{db: db, now: time.Now}
}

func (r *ContactRepository) Create(ctx context.Context, m *domain.ContactMessage) error {
	m.CreatedAt = r.now().UTC()
	query := `
		INSERT INTO contact_messages (your_name, email, message, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	if err := r.db.db.QueryRowContext(ctx, query, m.YourName, m.Email, m.Message, m.CreatedAt).Scan(&id); err != nil {
		return storeErr("failed to insert contact message", err)
	}
	m.ID = strconv.FormatInt(id, 10)
	return nil
}

func (r *ContactRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM contact_messages WHERE your_name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, storeErr("failed to query contact messages", err)
	}
	return exists, nil
}
