package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/fruitables/internal/domain"
)

type CartRepository struct {
	db  *DB
	now func() time.Time
}

func NewCartRepository(db *DB) *CartRepository {
	return &CartRepository{db: db, now: time.Now}
}

// Increment adds the product with quantity 1, or bumps an existing row by one,
// in a single statement so concurrent calls cannot lose an update.
func (r *CartRepository) Increment(ctx context.Context, userID int64, productID string) (*domain.CartItem, error) {
	now := r.now().UTC()
	query := `
		INSERT INTO cart_items (user_id, product_id, quantity, added_at, updated_at)
		VALUES ($1, $2, 1, $3, $4)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + 1, updated_at = excluded.updated_at
	`

	if _, err := r.db.db.ExecContext(ctx, query, userID, productID, now, now); err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("user %d or product %q: %w", userID, productID, domain.ErrNotFound)
		}
		return nil, storeErr("failed to upsert cart item", err)
	}
	return r.Item(ctx, userID, productID)
}

func (r *CartRepository) Item(ctx context.Context, userID int64, productID string) (*domain.CartItem, error) {
	query := `
		SELECT user_id, product_id, quantity, added_at, updated_at
		FROM cart_items
		WHERE user_id = $1 AND product_id = $2
	`

	item := &domain.CartItem{}
	err := r.db.db.QueryRowContext(ctx, query, userID, productID).
		Scan(&item.UserID, &item.ProductID, &item.Quantity, &item.AddedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cart item %q: %w", productID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("failed to query cart item", err)
	}
	return item, nil
}

func (r *CartRepository) Remove(ctx context.Context, userID int64, productID string) error {
	result, err := r.db.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return storeErr("failed to remove cart item", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return storeErr("failed to read affected rows", err)
	}
	if n == 0 {
		return fmt.Errorf("cart item %q: %w", productID, domain.ErrNotFound)
	}
	return nil
}

// Lines returns the user's cart joined with current product data.
func (r *CartRepository) Lines(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	query := `
		SELECT p.id, p.name, p.price, p.quantity, p.category, p.details, p.image_url, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.added_at, ci.product_id
	`

	rows, err := r.db.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, storeErr("failed to query cart items", err)
	}
	defer rows.Close()

	lines := make([]domain.CartLine, 0)
	for rows.Next() {
		var (
			line     domain.CartLine
			category int
		)
		err := rows.Scan(
			&line.Product.ID,
			&line.Product.Name,
			&line.Product.Price,
			&line.Product.Quantity,
			&category,
			&line.Product.Details,
			&line.Product.ImageURL,
			&line.Quantity,
		)
		if err != nil {
			return nil, storeErr("failed to scan cart item", err)
		}
		line.Product.Category = domain.Category(category)
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("row iteration error", err)
	}
	return lines, nil
}

// Clear deletes every cart row of the user and reports how many went away.
func (r *CartRepository) Clear(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return 0, storeErr("failed to clear cart", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, storeErr("failed to read affected rows", err)
	}
	return n, nil
}
