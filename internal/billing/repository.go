package billing

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gymshood/internal/membership"
	"gymshood/internal/occupancy"
	"gymshood/internal/wallet"

	"github.com/jmoiron/sqlx"
)

var (
	ErrStaleOrAlreadyProcessed = errors.New("ledger entry is not pending or does not match the order")
	ErrLedgerInconsistent      = errors.New("settled ledger entries missing for entitlement")
)

const entitlementColumns = `id, user_id, gym_id, plan_id, amount_paid, per_day_cost, total_days, used_days, session_hours, purchase_date, max_expiry_date, is_expired, status, refund_amount, payment_id, order_id, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetPendingPurchase(ctx context.Context, id int, orderID string, userID int) (*wallet.Transaction, error) {
	var t wallet.Transaction
	err := r.db.GetContext(ctx, &t, `
		SELECT `+wallet.TransactionColumns+`
		FROM wallet_transactions
		WHERE id = $1 AND order_id = $2 AND user_id = $3 AND status = $4 AND reason = $5
	`, id, orderID, userID, wallet.StatusPending, wallet.ReasonPlanPurchase)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStaleOrAlreadyProcessed
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) Settle(ctx context.Context, p SettleParams) (*membership.Entitlement, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Promote the debit exactly once; a second settle attempt finds no
	// pending row and fails cleanly.
	result, err := tx.ExecContext(ctx, `
		UPDATE wallet_transactions
		SET status = $1, payment_id = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`, wallet.StatusCompleted, p.PaymentID, p.DebitTxID, wallet.StatusPending)
	if err != nil {
		return nil, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrStaleOrAlreadyProcessed
	}

	var entitlement membership.Entitlement
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO entitlements (user_id, gym_id, plan_id, amount_paid, per_day_cost, total_days, session_hours, purchase_date, max_expiry_date, status, payment_id, order_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+entitlementColumns,
		p.UserID, p.GymID, p.PlanID, p.Amount, p.PerDayCost, p.TotalDays,
		p.SessionHours, p.Now, p.MaxExpiry, membership.StatusActive, p.PaymentID, p.OrderID,
	).StructScan(&entitlement)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallet_transactions
		SET entitlement_id = $1, updated_at = NOW()
		WHERE id = $2
	`, entitlement.ID, p.DebitTxID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO gym_plan_revenue (plan_id, gym_id, date, amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (plan_id, gym_id, date)
		DO UPDATE SET amount = gym_plan_revenue.amount + EXCLUDED.amount
	`, p.PlanID, p.GymID, occupancy.DayOf(p.Now), p.GymShare)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wallet_transactions (user_id, amount, type, status, reason, payment_id, plan_id, gym_id, entitlement_id, related_tx_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.OwnerID, p.GymShare, wallet.TypeCredit, wallet.StatusCompleted,
		wallet.ReasonGymRevenue, p.PaymentID, p.PlanID, p.GymID, entitlement.ID, p.DebitTxID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users
		SET wallet_balance = wallet_balance + $1
		WHERE id = $2
	`, p.GymShare, p.OwnerID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &entitlement, nil
}

func (r *repository) GetSettledPair(ctx context.Context, entitlementID int) (*wallet.Transaction, *wallet.Transaction, error) {
	var entries []wallet.Transaction
	err := r.db.SelectContext(ctx, &entries, `
		SELECT `+wallet.TransactionColumns+`
		FROM wallet_transactions
		WHERE entitlement_id = $1 AND status = $2 AND reason IN ($3, $4)
	`, entitlementID, wallet.StatusCompleted, wallet.ReasonPlanPurchase, wallet.ReasonGymRevenue)
	if err != nil {
		return nil, nil, err
	}

	var debit, credit *wallet.Transaction
	for i := range entries {
		switch entries[i].Reason {
		case wallet.ReasonPlanPurchase:
			debit = &entries[i]
		case wallet.ReasonGymRevenue:
			credit = &entries[i]
		}
	}
	if debit == nil || credit == nil {
		return nil, nil, ErrLedgerInconsistent
	}
	return debit, credit, nil
}

func (r *repository) RefundSettle(ctx context.Context, p RefundParams) (*wallet.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE entitlements
		SET status = $1, refund_amount = $2, is_expired = TRUE
		WHERE id = $3 AND status = $4
	`, membership.StatusRefunded, p.RefundAmount, p.EntitlementID, membership.StatusActive)
	if err != nil {
		return nil, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrStaleOrAlreadyProcessed
	}

	// The owner balance may legitimately go negative here.
	_, err = tx.ExecContext(ctx, `
		UPDATE users
		SET wallet_balance = wallet_balance - $1
		WHERE id = $2
	`, p.OwnerDeduction, p.OwnerID)
	if err != nil {
		return nil, err
	}

	var credit wallet.Transaction
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO wallet_transactions (user_id, amount, type, status, reason, refund_id, entitlement_id, related_tx_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+wallet.TransactionColumns,
		p.UserID, p.RefundAmount, wallet.TypeCredit, wallet.StatusCompleted,
		wallet.ReasonPurchaseRefund, p.RefundID, p.EntitlementID, p.DebitTxID,
	).StructScan(&credit)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallet_transactions
		SET refund_id = $1, updated_at = NOW()
		WHERE id = $2
	`, p.RefundID, p.DebitTxID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &credit, nil
}

func (r *repository) TotalRevenueByGym(ctx context.Context, gymID int) (int64, error) {
	var total int64
	err := r.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(amount), 0)
		FROM gym_plan_revenue
		WHERE gym_id = $1
	`, gymID)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) RevenueByPlan(ctx context.Context, gymID int) ([]PlanRevenue, error) {
	var rows []PlanRevenue
	err := r.db.SelectContext(ctx, &rows, `
		SELECT r.plan_id, p.name, SUM(r.amount) AS amount
		FROM gym_plan_revenue r
		JOIN plans p ON p.id = r.plan_id
		WHERE r.gym_id = $1
		GROUP BY r.plan_id, p.name
		ORDER BY amount DESC
	`, gymID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) RevenueLastDays(ctx context.Context, gymID int, since time.Time) ([]RevenueRecord, error) {
	var rows []RevenueRecord
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, plan_id, gym_id, date, amount
		FROM gym_plan_revenue
		WHERE gym_id = $1 AND date >= $2
		ORDER BY date ASC
	`, gymID, since)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
