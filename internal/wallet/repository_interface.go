package wallet

import "context"

type Repository interface {
	// CreatePending appends a pending debit entry for a purchase intent.
	CreatePending(ctx context.Context, tx *Transaction) (*Transaction, error)
	GetByID(ctx context.Context, id int) (*Transaction, error)
	ListByUser(ctx context.Context, userID, limit, offset int) ([]Transaction, error)
	// GetBalance reads the user's current wallet balance.
	GetBalance(ctx context.Context, userID int) (int64, error)
	// MarkFailed transitions a pending entry to failed with error detail.
	MarkFailed(ctx context.Context, id int, detail string) error
}
