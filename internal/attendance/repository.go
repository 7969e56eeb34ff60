package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var ErrNoLedger = errors.New("no attendance ledger for user")

const ledgerColumns = `id, user_id, starting_date, date_array, current_streak, completed_weeks, this_week_streak, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByUser(ctx context.Context, userID int) (*Ledger, error) {
	var l Ledger
	err := r.db.GetContext(ctx, &l, `
		SELECT `+ledgerColumns+`
		FROM attendance_ledgers
		WHERE user_id = $1
		ORDER BY starting_date DESC
		LIMIT 1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoLedger
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) Create(ctx context.Context, userID int, startingDate time.Time) (*Ledger, error) {
	slots := make([]int32, BufferDays)
	for i := range slots {
		slots[i] = SlotUnrecorded
	}

	var l Ledger
	err := r.db.GetContext(ctx, &l, `
		INSERT INTO attendance_ledgers (user_id, starting_date, date_array)
		VALUES ($1, $2, $3)
		RETURNING `+ledgerColumns, userID, startingDate, pq.Int32Array(slots))
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) Save(ctx context.Context, ledger *Ledger) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE attendance_ledgers
		SET date_array = $1,
		    current_streak = $2,
		    completed_weeks = $3,
		    this_week_streak = $4,
		    updated_at = NOW()
		WHERE id = $5
	`, ledger.DateArray, ledger.CurrentStreak, ledger.CompletedWeeks, ledger.ThisWeekStreak, ledger.ID)
	return err
}
