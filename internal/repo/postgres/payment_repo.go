package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrPaymentReplayed means the provider transaction was already
	// confirmed. Webhook retries hit this path and must not credit twice.
	ErrPaymentReplayed = errors.New("payment already confirmed")
)

type PaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

const paymentColumns = ` id, user_id, provider, provider_tx_id, amount, point_amount, status, created_at, updated_at`

func (r *PaymentRepo) Create(ctx context.Context, id string, userID int64, provider string, amount, pointAmount int64) (model.Payment, error) {
	if id == "" || userID <= 0 || amount <= 0 || pointAmount <= 0 {
		return model.Payment{}, fmt.Errorf("invalid payment payload")
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO payments (id, user_id, provider, amount, point_amount, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, 'pending', NOW(), NOW())
RETURNING`+paymentColumns, id, userID, provider, amount, pointAmount)

	p, err := scanPayment(row)
	if err != nil {
		return model.Payment{}, fmt.Errorf("insert payment: %w", err)
	}
	return p, nil
}

func (r *PaymentRepo) GetByID(ctx context.Context, id string) (model.Payment, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+paymentColumns+` FROM payments WHERE id = $1`, id)

	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Payment{}, ErrPaymentNotFound
		}
		return model.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// GetForUpdate locks the payment row so a webhook retry and the client
// confirm call cannot both credit points.
func (r *PaymentRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Payment, error) {
	if tx == nil {
		return model.Payment{}, fmt.Errorf("transaction is required")
	}

	row := tx.QueryRow(ctx, `SELECT`+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id)

	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Payment{}, ErrPaymentNotFound
		}
		return model.Payment{}, fmt.Errorf("lock payment: %w", err)
	}
	return p, nil
}

// MarkPaid records the provider transaction id. The unique index on
// (provider, provider_tx_id) turns a replay into ErrPaymentReplayed.
func (r *PaymentRepo) MarkPaid(ctx context.Context, tx pgx.Tx, id, providerTxID string) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	tag, err := tx.Exec(ctx, `
UPDATE payments SET status = 'paid', provider_tx_id = $2, updated_at = NOW()
WHERE id = $1 AND status = 'pending'
`, id, providerTxID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrPaymentReplayed
		}
		return fmt.Errorf("mark payment paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentReplayed
	}
	return nil
}

// Confirm settles a pending payment and credits the points in one
// transaction. Replays of the same payment return ErrPaymentReplayed
// without touching the ledger.
func (r *PaymentRepo) Confirm(ctx context.Context, id, providerTxID string) (model.Payment, error) {
	if id == "" || providerTxID == "" {
		return model.Payment{}, fmt.Errorf("invalid confirmation payload")
	}

	var confirmed model.Payment
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		payment, err := r.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if payment.Status != enums.PaymentStatusPending {
			return ErrPaymentReplayed
		}

		if err := r.MarkPaid(ctx, tx, id, providerTxID); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
INSERT INTO point_entries (user_id, delta, reason, ref_id, created_at)
VALUES ($1, $2, 'topup', NULL, NOW())
`, payment.UserID, payment.PointAmount); err != nil {
			return fmt.Errorf("credit topup: %w", err)
		}

		row := tx.QueryRow(ctx, `SELECT`+paymentColumns+` FROM payments WHERE id = $1`, id)
		confirmed, err = scanPayment(row)
		if err != nil {
			return fmt.Errorf("reload payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Payment{}, err
	}
	return confirmed, nil
}

func (r *PaymentRepo) MarkFailed(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE payments SET status = 'failed', updated_at = NOW()
WHERE id = $1 AND status = 'pending'
`, id)
	if err != nil {
		return fmt.Errorf("mark payment failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (r *PaymentRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Payment, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+paymentColumns+`
FROM payments
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]model.Payment, 0, limit)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate payments: %w", rows.Err())
	}

	return payments, nil
}

func scanPayment(row rowScanner) (model.Payment, error) {
	var (
		p      model.Payment
		status string
	)
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Provider,
		&p.ProviderTxID,
		&p.Amount,
		&p.PointAmount,
		&status,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return model.Payment{}, err
	}
	p.Status = enums.PaymentStatus(status)
	return p, nil
}
