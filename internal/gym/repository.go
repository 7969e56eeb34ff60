package gym

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrGymNotFound = errors.New("gym not found")

const gymColumns = `id, owner_id, name, slogan, address, latitude, longitude, capacity, open_time, close_time, status, avg_rating, is_verified, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, ownerID int, req CreateGymRequest) (*Gym, error) {
	query := `
		INSERT INTO gyms (owner_id, name, slogan, address, latitude, longitude, capacity, open_time, close_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + gymColumns

	var g Gym
	err := r.db.GetContext(ctx, &g, query,
		ownerID, req.Name, req.Slogan, req.Address,
		req.Latitude, req.Longitude, req.Capacity, req.OpenTime, req.CloseTime,
	)
	if err != nil {
		return nil, err
	}

	return &g, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Gym, error) {
	var g Gym
	err := r.db.GetContext(ctx, &g, `SELECT `+gymColumns+` FROM gyms WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *repository) GetByOwner(ctx context.Context, ownerID int) (*Gym, error) {
	var g Gym
	err := r.db.GetContext(ctx, &g, `SELECT `+gymColumns+` FROM gyms WHERE owner_id = $1`, ownerID)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *repository) ListVerified(ctx context.Context) ([]Gym, error) {
	var gyms []Gym
	err := r.db.SelectContext(ctx, &gyms,
		`SELECT `+gymColumns+` FROM gyms WHERE is_verified = TRUE AND status <> 'maintenance' ORDER BY avg_rating DESC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	return gyms, nil
}

func (r *repository) ListUnverified(ctx context.Context) ([]Gym, error) {
	var gyms []Gym
	err := r.db.SelectContext(ctx, &gyms,
		`SELECT `+gymColumns+` FROM gyms WHERE is_verified = FALSE ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	return gyms, nil
}

// ListNearby orders verified gyms by haversine distance from the given point.
func (r *repository) ListNearby(ctx context.Context, lat, lng, radiusKm float64) ([]GymWithDistance, error) {
	query := `
		SELECT * FROM (
			SELECT ` + gymColumns + `,
				6371 * acos(
					least(1.0, cos(radians($1)) * cos(radians(latitude)) *
					cos(radians(longitude) - radians($2)) +
					sin(radians($1)) * sin(radians(latitude)))
				) AS distance_km
			FROM gyms
			WHERE is_verified = TRUE
		) g
		WHERE distance_km <= $3
		ORDER BY distance_km ASC
	`

	var gyms []GymWithDistance
	err := r.db.SelectContext(ctx, &gyms, query, lat, lng, radiusKm)
	if err != nil {
		return nil, err
	}
	return gyms, nil
}

func (r *repository) SetVerified(ctx context.Context, id int, verified bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE gyms SET is_verified = $1 WHERE id = $2`, verified, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrGymNotFound
	}
	return nil
}

func (r *repository) AddShift(ctx context.Context, gymID int, req CreateShiftRequest) (*Shift, error) {
	gender := req.Gender
	if gender == "" {
		gender = "all"
	}

	query := `
		INSERT INTO gym_shifts (gym_id, name, day, start_time, end_time, capacity, gender)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, gym_id, name, day, start_time, end_time, capacity, gender
	`

	var s Shift
	err := r.db.GetContext(ctx, &s, query, gymID, req.Name, req.Day, req.StartTime, req.EndTime, req.Capacity, gender)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *repository) GetShifts(ctx context.Context, gymID int) ([]Shift, error) {
	var shifts []Shift
	err := r.db.SelectContext(ctx, &shifts,
		`SELECT id, gym_id, name, day, start_time, end_time, capacity, gender
		 FROM gym_shifts WHERE gym_id = $1 ORDER BY day, start_time`, gymID)
	if err != nil {
		return nil, err
	}
	return shifts, nil
}
