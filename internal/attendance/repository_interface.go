package attendance

import (
	"context"
	"time"
)

type Repository interface {
	GetByUser(ctx context.Context, userID int) (*Ledger, error)
	Create(ctx context.Context, userID int, startingDate time.Time) (*Ledger, error)
	Save(ctx context.Context, ledger *Ledger) error
}
