package membership

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrNoActiveEntitlement = errors.New("no active plan found")

const entitlementColumns = `id, user_id, gym_id, plan_id, amount_paid, per_day_cost, total_days, used_days, session_hours, purchase_date, max_expiry_date, is_expired, status, refund_amount, payment_id, order_id, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id int) (*Entitlement, error) {
	var e Entitlement
	err := r.db.GetContext(ctx, &e, `SELECT `+entitlementColumns+` FROM entitlements WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) GetActiveForVisit(ctx context.Context, id, userID int, now time.Time) (*Entitlement, error) {
	var e Entitlement
	err := r.db.GetContext(ctx, &e, `
		SELECT `+entitlementColumns+`
		FROM entitlements
		WHERE id = $1
		  AND user_id = $2
		  AND status = $3
		  AND is_expired = FALSE
		  AND max_expiry_date >= $4
	`, id, userID, StatusActive, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveEntitlement
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) ConsumeDay(ctx context.Context, id int, now time.Time) (*Entitlement, error) {
	var e Entitlement
	err := r.db.GetContext(ctx, &e, `
		UPDATE entitlements
		SET used_days = used_days + 1,
		    is_expired = (used_days + 1 >= total_days OR max_expiry_date < $2)
		WHERE id = $1
		RETURNING `+entitlementColumns, id, now)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int) ([]Entitlement, error) {
	var list []Entitlement
	err := r.db.SelectContext(ctx, &list, `
		SELECT `+entitlementColumns+`
		FROM entitlements
		WHERE user_id = $1
		ORDER BY is_expired ASC, purchase_date DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) ListActiveByGym(ctx context.Context, gymID int) ([]Entitlement, error) {
	var list []Entitlement
	err := r.db.SelectContext(ctx, &list, `
		SELECT `+entitlementColumns+`
		FROM entitlements
		WHERE gym_id = $1 AND is_expired = FALSE AND status = $2
		ORDER BY purchase_date DESC
	`, gymID, StatusActive)
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE entitlements
		SET is_expired = TRUE
		WHERE is_expired = FALSE
		  AND (used_days >= total_days OR max_expiry_date <= $1)
	`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
