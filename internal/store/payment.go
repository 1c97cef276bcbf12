package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/openconf/apiserver/types"
)

// PaymentRepository handles persistence for payment proofs.
type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `
	id, user_id, reference, amount_cents, receipt_key, receipt_name,
	status, COALESCE(note, ''), COALESCE(verified_by, 0),
	created_at, updated_at`

func (r *PaymentRepository) Get(ctx context.Context, id int) (types.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(r.db.QueryRowContext(ctx, query, id))
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID int) ([]types.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (r *PaymentRepository) List(ctx context.Context, status string, offset, limit int) ([]types.Payment, int, error) {
	var total int
	if status == "" {
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments`).Scan(&total); err != nil {
			return nil, 0, err
		}
	} else {
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments WHERE status = $1`, status).Scan(&total); err != nil {
			return nil, 0, err
		}
	}

	var rows *sql.Rows
	var err error
	if status == "" {
		query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY created_at DESC OFFSET $1 LIMIT $2`
		rows, err = r.db.QueryContext(ctx, query, offset, limit)
	} else {
		query := `SELECT ` + paymentColumns + ` FROM payments WHERE status = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3`
		rows, err = r.db.QueryContext(ctx, query, status, offset, limit)
	}
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	payments, err := collectPayments(rows)
	return payments, total, err
}

func (r *PaymentRepository) Create(ctx context.Context, payment types.Payment) (types.Payment, error) {
	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	payment.Status = types.StatusPending

	const query = `
		INSERT INTO payments (user_id, reference, amount_cents, receipt_key, receipt_name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		payment.UserID,
		payment.Reference,
		payment.AmountCents,
		payment.ReceiptKey,
		payment.ReceiptName,
		payment.Status,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Scan(&payment.ID); err != nil {
		return types.Payment{}, err
	}
	return payment, nil
}

// Verify moves a pending payment to approved or rejected. Only pending
// rows match; an already-verified payment returns ErrConflict.
func (r *PaymentRepository) Verify(ctx context.Context, id int, status, note string, verifiedBy int) (types.Payment, error) {
	const query = `
		UPDATE payments
		SET status = $1,
			note = $2,
			verified_by = $3,
			updated_at = $4
		WHERE id = $5 AND status = $6
		RETURNING ` + paymentColumns
	payment, err := scanPayment(r.db.QueryRowContext(ctx, query, status, note, verifiedBy, time.Now(), id, types.StatusPending))
	if err == nil {
		return payment, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return types.Payment{}, err
	}

	if _, getErr := r.Get(ctx, id); getErr != nil {
		return types.Payment{}, getErr
	}
	return types.Payment{}, ErrConflict
}

func scanPayment(row *sql.Row) (types.Payment, error) {
	var payment types.Payment
	err := row.Scan(
		&payment.ID,
		&payment.UserID,
		&payment.Reference,
		&payment.AmountCents,
		&payment.ReceiptKey,
		&payment.ReceiptName,
		&payment.Status,
		&payment.Note,
		&payment.VerifiedBy,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Payment{}, ErrNotFound
		}
		return types.Payment{}, err
	}
	return payment, nil
}

func collectPayments(rows *sql.Rows) ([]types.Payment, error) {
	var payments []types.Payment
	for rows.Next() {
		var payment types.Payment
		if err := rows.Scan(
			&payment.ID,
			&payment.UserID,
			&payment.Reference,
			&payment.AmountCents,
			&payment.ReceiptKey,
			&payment.ReceiptName,
			&payment.Status,
			&payment.Note,
			&payment.VerifiedBy,
			&payment.CreatedAt,
			&payment.UpdatedAt,
		); err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}
