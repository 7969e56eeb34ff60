package wallet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrTransactionNotFound = errors.New("wallet transaction not found")

// TransactionColumns is the canonical select list for ledger entries; the
// billing engine reuses it inside its settlement transaction.
const TransactionColumns = `id, user_id, amount, type, status, reason, order_id, payment_id, refund_id, plan_id, gym_id, entitlement_id, related_tx_id, failure_detail, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreatePending(ctx context.Context, t *Transaction) (*Transaction, error) {
	var created Transaction
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO wallet_transactions (user_id, amount, type, status, reason, order_id, plan_id, gym_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+TransactionColumns,
		t.UserID, t.Amount, t.Type, StatusPending, t.Reason, t.OrderID, t.PlanID, t.GymID,
	).StructScan(&created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Transaction, error) {
	var t Transaction
	err := r.db.GetContext(ctx, &t, `
		SELECT `+TransactionColumns+`
		FROM wallet_transactions
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) ListByUser(ctx context.Context, userID, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	var txs []Transaction
	err := r.db.SelectContext(ctx, &txs, `
		SELECT `+TransactionColumns+`
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *repository) GetBalance(ctx context.Context, userID int) (int64, error) {
	var balance int64
	err := r.db.GetContext(ctx, &balance, `SELECT wallet_balance FROM users WHERE id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *repository) MarkFailed(ctx context.Context, id int, detail string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE wallet_transactions
		SET status = $1, failure_detail = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`, StatusFailed, detail, id, StatusPending)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}
