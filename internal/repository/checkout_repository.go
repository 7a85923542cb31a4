package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/fruitables/internal/domain"
	"github.com/google/uuid"
)

type CheckoutRepository struct {
	db  *DB
	now func() time.Time
}

func NewCheckoutRepository(db *DB) *CheckoutRepository {
	return &CheckoutRepository{db: db, now: time.Now}
}

// CreateWithEvent stores the checkout record and its outbox event in one transaction.
func (r *CheckoutRepository) CreateWithEvent(ctx context.Context, rec *domain.CheckoutRecord, eventType string, payload []byte) error {
	tx, err := r.db.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insertRecord := `
		INSERT INTO checkout_records (
			id, user_id, fullname, company_name, address, city, country, zipcode,
			phone_number, email, create_account, ship_to_different_address, order_notes,
			direct_bank_transfer, check_payments, cash_on_delivery, paypal, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	var notes sql.NullString
	if rec.OrderNotes != "" {
		notes = sql.NullString{String: rec.OrderNotes, Valid: true}
	}

	_, err = tx.ExecContext(ctx, insertRecord,
		rec.ID.String(),
		rec.UserID,
		rec.Fullname,
		rec.CompanyName,
		rec.Address,
		rec.City,
		rec.Country,
		rec.Zipcode,
		rec.PhoneNumber,
		rec.Email,
		rec.CreateAccount,
		rec.ShipToDifferentAddress,
		notes,
		rec.DirectBankTransfer,
		rec.CheckPayments,
		rec.CashOnDelivery,
		rec.Paypal,
		rec.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("checkout %s: %w", rec.ID, domain.ErrDuplicate)
		}
		return storeErr("failed to insert checkout record", err)
	}

	insertEvent := `
		INSERT INTO outbox_events (aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.ExecContext(ctx, insertEvent, rec.ID.String(), eventType, string(payload), r.now().UTC()); err != nil {
		return storeErr("failed to insert outbox event", err)
	}

	if err := tx.Commit(); err != nil {
		return storeErr("failed to commit transaction", err)
	}
	return nil
}

func (r *CheckoutRepository) GetRecord(ctx context.Context, id uuid.UUID) (*domain.CheckoutRecord, error) {
	query := `
		SELECT id, user_id, fullname, company_name, address, city, country, zipcode,
			phone_number, email, create_account, ship_to_different_address, order_notes,
			direct_bank_transfer, check_payments, cash_on_delivery, paypal, created_at
		FROM checkout_records
		WHERE id = $1
	`

	var (
		rec    domain.CheckoutRecord
		userID sql.NullInt64
		notes  sql.NullString
	)
	err := r.db.db.QueryRowContext(ctx, query, id.String()).Scan(
		&rec.ID,
		&userID,
		&rec.Fullname,
		&rec.CompanyName,
		&rec.Address,
		&rec.City,
		&rec.Country,
		&rec.Zipcode,
		&rec.PhoneNumber,
		&rec.Email,
		&rec.CreateAccount,
		&rec.ShipToDifferentAddress,
		&notes,
		&rec.DirectBankTransfer,
		&rec.CheckPayments,
		&rec.CashOnDelivery,
		&rec.Paypal,
		&rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("checkout %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("failed to query checkout record", err)
	}
	if userID.Valid {
		rec.UserID = &userID.Int64
	}
	rec.OrderNotes = notes.String
	return &rec, nil
}

// UnprocessedEvents returns up to limit events not yet published, oldest first.
func (r *CheckoutRepository) UnprocessedEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	query := `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox_events
		WHERE processed_at IS NULL
		ORDER BY id
		LIMIT $1
	`

	rows, err := r.db.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, storeErr("failed to query outbox events", err)
	}
	defer rows.Close()

	var events []*domain.OutboxEvent
	for rows.Next() {
		var (
			e       domain.OutboxEvent
			payload string
		)
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &payload, &e.CreatedAt); err != nil {
			return nil, storeErr("failed to scan outbox event", err)
		}
		e.Payload = []byte(payload)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("row iteration error", err)
	}
	return events, nil
}

func (r *CheckoutRepository) MarkEventProcessed(ctx context.Context, id int64) error {
	result, err := r.db.db.ExecContext(ctx,
		`UPDATE outbox_events SET processed_at = $1 WHERE id = $2 AND processed_at IS NULL`,
		r.now().UTC(), id)
	if err != nil {
		return storeErr("failed to mark outbox event", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return storeErr("failed to read affected rows", err)
	}
	if n == 0 {
		return fmt.Errorf("outbox event %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
