package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/fruitables/internal/domain"
)

type ProductRepository struct {
	db *DB
}

func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, name, price, quantity, category, details, image_url`

// ListProducts returns products matching every non-nil predicate of f, ordered by id.
// SQLite's LOWER only folds ASCII, so there the name predicate is applied in Go.
func (r *ProductRepository) ListProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	foldInGo := r.db.Driver() == DriverSQLite && f.Query != nil
	sqlFilter := f
	if foldInGo {
		sqlFilter.Query = nil
	}
	query, args := buildProductQuery(sqlFilter)

	rows, err := r.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("failed to query products", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, storeErr("failed to scan product", err)
		}
		if foldInGo && !f.Matches(*p) {
			continue
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("row iteration error", err)
	}

	return products, nil
}

func (r *ProductRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.db.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("failed to query product", err)
	}
	return p, nil
}

func buildProductQuery(f domain.ProductFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Query != nil {
		pattern := "%" + escapeLike(strings.ToLower(*f.Query)) + "%"
		where = append(where, `LOWER(name) LIKE `+next(pattern)+` ESCAPE '\'`)
	}
	if f.MinPrice != nil {
		where = append(where, `price >= `+next(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, `price <= `+next(*f.MaxPrice))
	}
	if f.HasCategory() {
		where = append(where, `category = `+next(int(*f.Category)))
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY id`
	return query, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	p := &domain.Product{}
	var category int
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.Quantity,
		&category,
		&p.Details,
		&p.ImageURL,
	)
	if err != nil {
		return nil, err
	}
	p.Category = domain.Category(category)
	return p, nil
}
