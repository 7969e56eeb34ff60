package plan

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrPlanNotFound = errors.New("plan not found")

const planColumns = `id, gym_id, name, plan_type, validity, price, discount_percent, duration, features, trainer_included, is_active, created_at`

type Repository interface {
	Create(ctx context.Context, gymID int, req CreatePlanRequest) (*Plan, error)
	GetByID(ctx context.Context, id int) (*Plan, error)
	ListByGym(ctx context.Context, gymID int, activeOnly bool) ([]Plan, error)
	SetActive(ctx context.Context, id int, active bool) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, gymID int, req CreatePlanRequest) (*Plan, error) {
	query := `
		INSERT INTO plans (gym_id, name, plan_type, validity, price, discount_percent, duration, features, trainer_included)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + planColumns

	var p Plan
	err := r.db.GetContext(ctx, &p, query,
		gymID, req.Name, req.PlanType, req.Validity, req.Price,
		req.DiscountPercent, req.Duration, req.Features, req.TrainerIncluded,
	)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Plan, error) {
	var p Plan
	err := r.db.GetContext(ctx, &p, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) ListByGym(ctx context.Context, gymID int, activeOnly bool) ([]Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE gym_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY price ASC`

	var plans []Plan
	err := r.db.SelectContext(ctx, &plans, query, gymID)
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repository) SetActive(ctx context.Context, id int, active bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE plans SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrPlanNotFound
	}
	return nil
}
