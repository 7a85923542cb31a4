package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/fruitables/internal/domain"
)

type UserRepository struct {
	db  *DB
	now func() time.Time
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

const userColumns = `id, fullname, username, email, phone_number, password_hash, otp, created_at`

// Create inserts u and fills in its ID and CreatedAt.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	u.CreatedAt = r.now().UTC()
	query := `
		INSERT INTO users (fullname, username, email, phone_number, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.db.QueryRowContext(ctx, query,
		u.Fullname, u.Username, u.Email, u.PhoneNumber, u.PasswordHash, u.CreatedAt).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("username %q: %w", u.Username, domain.ErrDuplicate)
		}
		return storeErr("failed to insert user", err)
	}
	return nil
}

func (r *UserRepository) ByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// ByEmail returns the earliest account registered with email. Emails are not unique.
func (r *UserRepository) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 ORDER BY id LIMIT 1`, email)
}

func (r *UserRepository) SetOTP(ctx context.Context, id int64, otp string) error {
	return r.update(ctx, `UPDATE users SET otp = $1 WHERE id = $2`, otp, id)
}

// UpdatePassword stores a new hash and consumes any pending OTP.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.update(ctx, `UPDATE users SET password_hash = $1, otp = NULL WHERE id = $2`, hash, id)
}

func (r *UserRepository) one(ctx context.Context, query string, arg any) (*domain.User, error) {
	var (
		u   domain.User
		otp sql.NullString
	)
	err := r.db.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Fullname,
		&u.Username,
		&u.Email,
		&u.PhoneNumber,
		&u.PasswordHash,
		&otp,
		&u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("failed to query user", err)
	}
	if otp.Valid {
		u.OTP = &otp.String
	}
	return &u, nil
}

func (r *UserRepository) update(ctx context.Context, query string, args ...any) error {
	result, err := r.db.db.ExecContext(ctx, query, args...)
	if err != nil {
		return storeErr("failed to update user", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return storeErr("failed to read affected rows", err)
	}
	if n == 0 {
		return fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	return nil
}
