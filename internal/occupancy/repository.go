package occupancy

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrDuplicateCheckIn = errors.New("user already has an open check-in for this gym today")
	ErrNoActiveCheckIn  = errors.New("no active check-in found for this gym today")
)

const uniqueViolation = "23505"

const visitColumns = `id, gym_id, user_id, entitlement_id, per_day_cost, date, check_in, computed_check_out, real_check_out`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Open(ctx context.Context, visit *Visit) (*Visit, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO gym_daily_stats (gym_id, date, total_visits, active_count)
		VALUES ($1, $2, 1, 1)
		ON CONFLICT (gym_id, date)
		DO UPDATE SET total_visits = gym_daily_stats.total_visits + 1,
		              active_count = gym_daily_stats.active_count + 1
	`, visit.GymID, visit.Date)
	if err != nil {
		return nil, err
	}

	var created Visit
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO gym_visits (gym_id, user_id, entitlement_id, per_day_cost, date, check_in, computed_check_out)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+visitColumns,
		visit.GymID, visit.UserID, visit.EntitlementID, visit.PerDayCost,
		visit.Date, visit.CheckIn, visit.ComputedCheckOut,
	).StructScan(&created)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateCheckIn
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) Close(ctx context.Context, gymID, userID int, now time.Time) (*Visit, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var closed Visit
	err = tx.QueryRowxContext(ctx, `
		UPDATE gym_visits
		SET real_check_out = $1
		WHERE gym_id = $2 AND user_id = $3 AND date = $4 AND real_check_out IS NULL
		RETURNING `+visitColumns,
		now, gymID, userID, DayOf(now),
	).StructScan(&closed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveCheckIn
	}
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE gym_daily_stats
		SET active_count = GREATEST(active_count - 1, 0)
		WHERE gym_id = $1 AND date = $2
	`, gymID, closed.Date)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &closed, nil
}

func (r *repository) GetDayStats(ctx context.Context, gymID int, date time.Time) (*DayStats, error) {
	var stats DayStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT id, gym_id, date, total_visits, active_count
		FROM gym_daily_stats
		WHERE gym_id = $1 AND date = $2
	`, gymID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return &DayStats{GymID: gymID, Date: date}, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *repository) ListVisitsByDate(ctx context.Context, gymID int, date time.Time) ([]Visit, error) {
	var visits []Visit
	err := r.db.SelectContext(ctx, &visits, `
		SELECT `+visitColumns+`
		FROM gym_visits
		WHERE gym_id = $1 AND date = $2
		ORDER BY check_in ASC
	`, gymID, date)
	if err != nil {
		return nil, err
	}
	return visits, nil
}

func (r *repository) CountActive(ctx context.Context, gymID int, now time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM gym_visits
		WHERE gym_id = $1 AND real_check_out IS NULL AND computed_check_out > $2
	`, gymID, now)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryxContext(ctx, `
		UPDATE gym_visits
		SET real_check_out = computed_check_out
		WHERE real_check_out IS NULL AND computed_check_out <= $1
		RETURNING gym_id, date
	`, now)
	if err != nil {
		return 0, err
	}

	type dayKey struct {
		gymID int
		date  time.Time
	}
	closedPerDay := make(map[dayKey]int)
	var total int64
	for rows.Next() {
		var gymID int
		var date time.Time
		if err := rows.Scan(&gymID, &date); err != nil {
			rows.Close()
			return 0, err
		}
		closedPerDay[dayKey{gymID, date}]++
		total++
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	for key, n := range closedPerDay {
		_, err = tx.ExecContext(ctx, `
			UPDATE gym_daily_stats
			SET active_count = GREATEST(active_count - $1, 0)
			WHERE gym_id = $2 AND date = $3
		`, n, key.gymID, key.date)
		if err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) VisitsOnDay(ctx context.Context, gymID int, date time.Time) (float64, int, error) {
	var row struct {
		Total float64 `db:"total"`
		Count int     `db:"count"`
	}
	err := r.db.GetContext(ctx, &row, `
		SELECT COALESCE(SUM(per_day_cost), 0) AS total, COUNT(*) AS count
		FROM gym_visits
		WHERE gym_id = $1 AND date = $2
	`, gymID, date)
	if err != nil {
		return 0, 0, err
	}
	return row.Total, row.Count, nil
}
