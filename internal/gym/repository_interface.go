package gym

import "context"

type Repository interface {
	Create(ctx context.Context, ownerID int, req CreateGymRequest) (*Gym, error)
	GetByID(ctx context.Context, id int) (*Gym, error)
	GetByOwner(ctx context.Context, ownerID int) (*Gym, error)
	ListVerified(ctx context.Context) ([]Gym, error)
	ListUnverified(ctx context.Context) ([]Gym, error)
	ListNearby(ctx context.Context, lat, lng, radiusKm float64) ([]GymWithDistance, error)
	SetVerified(ctx context.Context, id int, verified bool) error
	AddShift(ctx context.Context, gymID int, req CreateShiftRequest) (*Shift, error)
	GetShifts(ctx context.Context, gymID int) ([]Shift, error)
}
