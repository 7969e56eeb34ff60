package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func setupMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() {
		sqlxDB.Close()
	}

	return repo, mock, closer
}

func transactionRows(t Transaction) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "amount", "type", "status", "reason",
		"order_id", "payment_id", "refund_id", "plan_id", "gym_id",
		"entitlement_id", "related_tx_id", "failure_detail", "created_at", "updated_at",
	}).AddRow(t.ID, t.UserID, t.Amount, t.Type, t.Status, t.Reason,
		t.OrderID, t.PaymentID, t.RefundID, t.PlanID, t.GymID,
		t.EntitlementID, t.RelatedTxID, t.FailureDetail, t.CreatedAt, t.UpdatedAt)
}

func TestCreatePending(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	orderID := "order_abc"
	planID := 4
	gymID := 3
	now := time.Now()

	mock.ExpectQuery("INSERT INTO wallet_transactions").
		WithArgs(7, int64(-900), TypeDebit, StatusPending, ReasonPlanPurchase, &orderID, &planID, &gymID).
		WillReturnRows(transactionRows(Transaction{
			ID: 1, UserID: 7, Amount: -900, Type: TypeDebit, Status: StatusPending,
			Reason: ReasonPlanPurchase, OrderID: &orderID, PlanID: &planID, GymID: &gymID,
			CreatedAt: now, UpdatedAt: now,
		}))

	created, err := repo.CreatePending(context.Background(), &Transaction{
		UserID: 7, Amount: -900, Type: TypeDebit, Reason: ReasonPlanPurchase,
		OrderID: &orderID, PlanID: &planID, GymID: &gymID,
	})
	require.NoError(t, err)
	require.Equal(t, 1, created.ID)
	require.Equal(t, StatusPending, created.Status)
}

func TestMarkFailed(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	mock.ExpectExec("UPDATE wallet_transactions").
		WithArgs(StatusFailed, "gateway timeout", 1, StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkFailed(context.Background(), 1, "gateway timeout"))

	// Already settled entries are not overwritten.
	mock.ExpectExec("UPDATE wallet_transactions").
		WithArgs(StatusFailed, "gateway timeout", 2, StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkFailed(context.Background(), 2, "gateway timeout")
	require.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestGetBalance(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	mock.ExpectQuery("SELECT wallet_balance FROM users").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"wallet_balance"}).AddRow(int64(1500)))

	balance, err := repo.GetBalance(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, int64(1500), balance)
}
