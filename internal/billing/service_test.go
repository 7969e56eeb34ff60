package billing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gymshood/internal/email"
	"gymshood/internal/gym"
	"gymshood/internal/membership"
	"gymshood/internal/occupancy"
	"gymshood/internal/payment"
	"gymshood/internal/plan"
	"gymshood/internal/user"
	"gymshood/internal/wallet"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockBillingRepo struct {
	mock.Mock
}

func (m *mockBillingRepo) GetPendingPurchase(ctx context.Context, id int, orderID string, userID int) (*wallet.Transaction, error) {
	args := m.Called(ctx, id, orderID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Transaction), args.Error(1)
}

func (m *mockBillingRepo) Settle(ctx context.Context, params SettleParams) (*membership.Entitlement, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.Entitlement), args.Error(1)
}

func (m *mockBillingRepo) GetSettledPair(ctx context.Context, entitlementID int) (*wallet.Transaction, *wallet.Transaction, error) {
	args := m.Called(ctx, entitlementID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*wallet.Transaction), args.Get(1).(*wallet.Transaction), args.Error(2)
}

func (m *mockBillingRepo) RefundSettle(ctx context.Context, params RefundParams) (*wallet.Transaction, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Transaction), args.Error(1)
}

func (m *mockBillingRepo) TotalRevenueByGym(ctx context.Context, gymID int) (int64, error) {
	args := m.Called(ctx, gymID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockBillingRepo) RevenueByPlan(ctx context.Context, gymID int) ([]PlanRevenue, error) {
	args := m.Called(ctx, gymID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]PlanRevenue), args.Error(1)
}

func (m *mockBillingRepo) RevenueLastDays(ctx context.Context, gymID int, since time.Time) ([]RevenueRecord, error) {
	args := m.Called(ctx, gymID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]RevenueRecord), args.Error(1)
}

type mockMembershipRepo struct {
	mock.Mock
}

func (m *mockMembershipRepo) GetByID(ctx context.Context, id int) (*membership.Entitlement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.Entitlement), args.Error(1)
}

func (m *mockMembershipRepo) GetActiveForVisit(ctx context.Context, id, userID int, now time.Time) (*membership.Entitlement, error) {
	args := m.Called(ctx, id, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.Entitlement), args.Error(1)
}

func (m *mockMembershipRepo) ConsumeDay(ctx context.Context, id int, now time.Time) (*membership.Entitlement, error) {
	args := m.Called(ctx, id, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.Entitlement), args.Error(1)
}

func (m *mockMembershipRepo) ListByUser(ctx context.Context, userID int) ([]membership.Entitlement, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]membership.Entitlement), args.Error(1)
}

func (m *mockMembershipRepo) ListActiveByGym(ctx context.Context, gymID int) ([]membership.Entitlement, error) {
	args := m.Called(ctx, gymID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]membership.Entitlement), args.Error(1)
}

func (m *mockMembershipRepo) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type mockWalletRepo struct {
	mock.Mock
}

func (m *mockWalletRepo) CreatePending(ctx context.Context, t *wallet.Transaction) (*wallet.Transaction, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Transaction), args.Error(1)
}

func (m *mockWalletRepo) GetByID(ctx context.Context, id int) (*wallet.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Transaction), args.Error(1)
}

func (m *mockWalletRepo) ListByUser(ctx context.Context, userID, limit, offset int) ([]wallet.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]wallet.Transaction), args.Error(1)
}

func (m *mockWalletRepo) GetBalance(ctx context.Context, userID int) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockWalletRepo) MarkFailed(ctx context.Context, id int, detail string) error {
	args := m.Called(ctx, id, detail)
	return args.Error(0)
}

type mockPlanRepo struct {
	mock.Mock
}

func (m *mockPlanRepo) Create(ctx context.Context, gymID int, req plan.CreatePlanRequest) (*plan.Plan, error) {
	args := m.Called(ctx, gymID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.Plan), args.Error(1)
}

func (m *mockPlanRepo) GetByID(ctx context.Context, id int) (*plan.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.Plan), args.Error(1)
}

func (m *mockPlanRepo) ListByGym(ctx context.Context, gymID int, activeOnly bool) ([]plan.Plan, error) {
	args := m.Called(ctx, gymID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]plan.Plan), args.Error(1)
}

func (m *mockPlanRepo) SetActive(ctx context.Context, id int, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

type mockGymRepo struct {
	mock.Mock
}

func (m *mockGymRepo) Create(ctx context.Context, ownerID int, req gym.CreateGymRequest) (*gym.Gym, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gym.Gym), args.Error(1)
}

func (m *mockGymRepo) GetByID(ctx context.Context, id int) (*gym.Gym, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gym.Gym), args.Error(1)
}

func (m *mockGymRepo) GetByOwner(ctx context.Context, ownerID int) (*gym.Gym, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gym.Gym), args.Error(1)
}

func (m *mockGymRepo) ListVerified(ctx context.Context) ([]gym.Gym, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gym.Gym), args.Error(1)
}

func (m *mockGymRepo) ListUnverified(ctx context.Context) ([]gym.Gym, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gym.Gym), args.Error(1)
}

func (m *mockGymRepo) ListNearby(ctx context.Context, lat, lng, radiusKm float64) ([]gym.GymWithDistance, error) {
	args := m.Called(ctx, lat, lng, radiusKm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gym.GymWithDistance), args.Error(1)
}

func (m *mockGymRepo) SetVerified(ctx context.Context, id int, verified bool) error {
	args := m.Called(ctx, id, verified)
	return args.Error(0)
}

func (m *mockGymRepo) AddShift(ctx context.Context, gymID int, req gym.CreateShiftRequest) (*gym.Shift, error) {
	args := m.Called(ctx, gymID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gym.Shift), args.Error(1)
}

func (m *mockGymRepo) GetShifts(ctx context.Context, gymID int) ([]gym.Shift, error) {
	args := m.Called(ctx, gymID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gym.Shift), args.Error(1)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, name, userEmail, passwordHash, role, phone string) (*user.User, error) {
	args := m.Called(ctx, name, userEmail, passwordHash, role, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, userEmail string) (*user.User, error) {
	args := m.Called(ctx, userEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockUserRepo) EmailExists(ctx context.Context, userEmail string) (bool, error) {
	args := m.Called(ctx, userEmail)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) UpdateLocation(ctx context.Context, id int, lat, lng float64) error {
	args := m.Called(ctx, id, lat, lng)
	return args.Error(0)
}

type mockOccupancyRepo struct {
	mock.Mock
}

func (m *mockOccupancyRepo) Open(ctx context.Context, visit *occupancy.Visit) (*occupancy.Visit, error) {
	args := m.Called(ctx, visit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*occupancy.Visit), args.Error(1)
}

func (m *mockOccupancyRepo) Close(ctx context.Context, gymID, userID int, now time.Time) (*occupancy.Visit, error) {
	args := m.Called(ctx, gymID, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*occupancy.Visit), args.Error(1)
}

func (m *mockOccupancyRepo) GetDayStats(ctx context.Context, gymID int, date time.Time) (*occupancy.DayStats, error) {
	args := m.Called(ctx, gymID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*occupancy.DayStats), args.Error(1)
}

func (m *mockOccupancyRepo) ListVisitsByDate(ctx context.Context, gymID int, date time.Time) ([]occupancy.Visit, error) {
	args := m.Called(ctx, gymID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]occupancy.Visit), args.Error(1)
}

func (m *mockOccupancyRepo) CountActive(ctx context.Context, gymID int, now time.Time) (int, error) {
	args := m.Called(ctx, gymID, now)
	return args.Int(0), args.Error(1)
}

func (m *mockOccupancyRepo) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockOccupancyRepo) VisitsOnDay(ctx context.Context, gymID int, date time.Time) (float64, int, error) {
	args := m.Called(ctx, gymID, date)
	return args.Get(0).(float64), args.Int(1), args.Error(2)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateOrder(ctx context.Context, amountMinorUnits int64, currency, receipt string, notes map[string]string) (*payment.Order, error) {
	args := m.Called(ctx, amountMinorUnits, currency, receipt, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Order), args.Error(1)
}

func (m *mockGateway) FetchOrder(ctx context.Context, orderID string) (*payment.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Order), args.Error(1)
}

func (m *mockGateway) FetchPayment(ctx context.Context, paymentID string) (*payment.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *mockGateway) Refund(ctx context.Context, paymentID string, amountMinorUnits int64) (*payment.Refund, error) {
	args := m.Called(ctx, paymentID, amountMinorUnits)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Refund), args.Error(1)
}

type testDeps struct {
	repo       *mockBillingRepo
	membership *mockMembershipRepo
	wallet     *mockWalletRepo
	plan       *mockPlanRepo
	gym        *mockGymRepo
	user       *mockUserRepo
	occupancy  *mockOccupancyRepo
	gateway    *mockGateway
}

const testSecret = "test_secret"

func newTestService(t *testing.T) (Service, *testDeps) {
	t.Helper()

	deps := &testDeps{
		repo:       new(mockBillingRepo),
		membership: new(mockMembershipRepo),
		wallet:     new(mockWalletRepo),
		plan:       new(mockPlanRepo),
		gym:        new(mockGymRepo),
		user:       new(mockUserRepo),
		occupancy:  new(mockOccupancyRepo),
		gateway:    new(mockGateway),
	}

	rdb, _ := redismock.NewClientMock()
	emailService := email.New("from@test.com", "Test", "localhost", "1025", "", "", "localhost:6379")

	svc := NewService(
		deps.repo, deps.membership, deps.wallet, deps.plan, deps.gym,
		deps.user, deps.occupancy, deps.gateway, emailService, rdb,
		testSecret, 30*time.Second,
	)
	return svc, deps
}

func TestSplitRevenue(t *testing.T) {
	gymShare, platformShare := SplitRevenue(1000)
	assert.Equal(t, int64(900), gymShare)
	assert.Equal(t, int64(100), platformShare)

	for _, amount := range []int64{1, 99, 900, 1234, 99999} {
		g, p := SplitRevenue(amount)
		assert.Equal(t, amount, g+p, "shares must sum to the amount for %d", amount)
	}
}

func TestProRatedRefund(t *testing.T) {
	// 900 paid over 7 days, 2 used.
	assert.Equal(t, int64(643), ProRatedRefund(900, 2, 900.0/7))

	// Days used beyond the paid value never produces a negative refund.
	assert.Equal(t, int64(0), ProRatedRefund(900, 30, 900.0/7))
	assert.Equal(t, int64(0), ProRatedRefund(0, 1, 100))
}

func TestInitiatePurchase(t *testing.T) {
	svc, deps := newTestService(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	deps.plan.On("GetByID", mock.Anything, 4).Return(&plan.Plan{
		ID: 4, GymID: 3, Name: "Weekly", PlanType: "7 days", Validity: 7,
		Price: 1000, DiscountPercent: 10, Duration: 2, IsActive: true,
	}, nil)
	deps.gym.On("GetByID", mock.Anything, 3).Return(&gym.Gym{ID: 3, OwnerID: 9, IsVerified: true}, nil)

	deps.gateway.On("CreateOrder", mock.Anything, int64(90000), "INR", mock.Anything, map[string]string{
		"user_id": "7", "plan_id": "4", "gym_id": "3",
	}).Return(&payment.Order{ID: "order_abc", Amount: 90000, Currency: "INR"}, nil)

	deps.wallet.On("CreatePending", mock.Anything, mock.MatchedBy(func(tx *wallet.Transaction) bool {
		return tx.UserID == 7 &&
			tx.Amount == -900 &&
			tx.Type == wallet.TypeDebit &&
			tx.Reason == wallet.ReasonPlanPurchase &&
			tx.OrderID != nil && *tx.OrderID == "order_abc"
	})).Return(&wallet.Transaction{ID: 21, UserID: 7, Amount: -900, Status: wallet.StatusPending}, nil)

	intent, err := svc.InitiatePurchase(context.Background(), 7, 4, now)

	assert.NoError(t, err)
	assert.Equal(t, 21, intent.LedgerEntryID)
	assert.Equal(t, int64(900), intent.Amount)
	deps.gateway.AssertExpectations(t)
	deps.wallet.AssertExpectations(t)
}

func TestInitiatePurchaseInactivePlan(t *testing.T) {
	svc, deps := newTestService(t)

	deps.plan.On("GetByID", mock.Anything, 4).Return(&plan.Plan{ID: 4, GymID: 3, PlanType: "7 days", IsActive: false}, nil)

	_, err := svc.InitiatePurchase(context.Background(), 7, 4, time.Now().UTC())
	assert.ErrorIs(t, err, ErrPlanUnavailable)
}

func TestInitiatePurchaseUnverifiedGym(t *testing.T) {
	svc, deps := newTestService(t)

	deps.plan.On("GetByID", mock.Anything, 4).Return(&plan.Plan{ID: 4, GymID: 3, PlanType: "7 days", Validity: 7, Price: 1000, IsActive: true}, nil)
	deps.gym.On("GetByID", mock.Anything, 3).Return(&gym.Gym{ID: 3, IsVerified: false}, nil)

	_, err := svc.InitiatePurchase(context.Background(), 7, 4, time.Now().UTC())
	assert.ErrorIs(t, err, ErrPlanUnavailable)
}

func TestVerifyAndSettleBadSignature(t *testing.T) {
	svc, deps := newTestService(t)

	_, err := svc.VerifyAndSettle(context.Background(), 7, VerifyRequest{
		OrderID: "order_abc", PaymentID: "pay_1", Signature: "bogus", LedgerEntryID: 21,
	}, time.Now().UTC())

	assert.ErrorIs(t, err, ErrSignatureMismatch)
	deps.repo.AssertNotCalled(t, "GetPendingPurchase", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyAndSettleEndToEnd(t *testing.T) {
	svc, deps := newTestService(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	req := VerifyRequest{
		OrderID:       "order_abc",
		PaymentID:     "pay_1",
		Signature:     signFor(testSecret, "order_abc", "pay_1"),
		LedgerEntryID: 21,
	}

	orderID := "order_abc"
	deps.repo.On("GetPendingPurchase", mock.Anything, 21, "order_abc", 7).
		Return(&wallet.Transaction{ID: 21, UserID: 7, Amount: -900, Status: wallet.StatusPending, OrderID: &orderID}, nil)

	deps.gateway.On("FetchOrder", mock.Anything, "order_abc").Return(&payment.Order{
		ID: "order_abc", Amount: 90000, Currency: "INR",
		Notes: map[string]string{"user_id": "7", "plan_id": "4", "gym_id": "3"},
	}, nil)
	deps.gateway.On("FetchPayment", mock.Anything, "pay_1").Return(&payment.Payment{
		ID: "pay_1", OrderID: "order_abc", Amount: 90000, Status: "captured",
	}, nil)

	deps.plan.On("GetByID", mock.Anything, 4).Return(&plan.Plan{
		ID: 4, GymID: 3, Name: "Weekly", PlanType: "7 days", Validity: 7,
		Price: 1000, DiscountPercent: 10, Duration: 2, IsActive: true,
	}, nil)
	deps.gym.On("GetByID", mock.Anything, 3).Return(&gym.Gym{ID: 3, OwnerID: 9, Name: "Iron Works", IsVerified: true}, nil)

	deps.repo.On("Settle", mock.Anything, mock.MatchedBy(func(p SettleParams) bool {
		return p.DebitTxID == 21 &&
			p.Amount == 900 &&
			p.GymShare == 810 &&
			p.TotalDays == 7 &&
			p.SessionHours == 2 &&
			p.MaxExpiry.Equal(now.Add(30*24*time.Hour)) &&
			p.OwnerID == 9
	})).Return(&membership.Entitlement{ID: 55, UserID: 7, GymID: 3, PlanID: 4, AmountPaid: 900, TotalDays: 7}, nil)

	// Email lookup fails; confirmation is best-effort and skipped.
	deps.user.On("FindByID", mock.Anything, 7).Return(nil, errors.New("not found"))

	entitlement, err := svc.VerifyAndSettle(context.Background(), 7, req, now)

	assert.NoError(t, err)
	assert.Equal(t, 55, entitlement.ID)
	deps.repo.AssertExpectations(t)
}

func TestVerifyAndSettleAlreadyProcessed(t *testing.T) {
	svc, deps := newTestService(t)

	deps.repo.On("GetPendingPurchase", mock.Anything, 21, "order_abc", 7).
		Return(nil, ErrStaleOrAlreadyProcessed)

	_, err := svc.VerifyAndSettle(context.Background(), 7, VerifyRequest{
		OrderID:       "order_abc",
		PaymentID:     "pay_1",
		Signature:     signFor(testSecret, "order_abc", "pay_1"),
		LedgerEntryID: 21,
	}, time.Now().UTC())

	assert.ErrorIs(t, err, ErrStaleOrAlreadyProcessed)
	deps.gateway.AssertNotCalled(t, "FetchOrder", mock.Anything, mock.Anything)
}

func TestVerifyAndSettleFailureMarksEntryAndRefunds(t *testing.T) {
	svc, deps := newTestService(t)
	now := time.Now().UTC()

	orderID := "order_abc"
	deps.repo.On("GetPendingPurchase", mock.Anything, 21, "order_abc", 7).
		Return(&wallet.Transaction{ID: 21, UserID: 7, Amount: -900, OrderID: &orderID}, nil)
	deps.gateway.On("FetchOrder", mock.Anything, "order_abc").Return(&payment.Order{
		ID: "order_abc", Amount: 90000,
		Notes: map[string]string{"plan_id": "4"},
	}, nil)
	deps.gateway.On("FetchPayment", mock.Anything, "pay_1").Return(&payment.Payment{ID: "pay_1", OrderID: "order_abc"}, nil)
	deps.plan.On("GetByID", mock.Anything, 4).Return(&plan.Plan{ID: 4, GymID: 3, PlanType: "7 days", Validity: 7, Duration: 2, IsActive: true}, nil)
	deps.gym.On("GetByID", mock.Anything, 3).Return(&gym.Gym{ID: 3, OwnerID: 9, IsVerified: true}, nil)

	deps.repo.On("Settle", mock.Anything, mock.Anything).Return(nil, errors.New("deadlock detected"))
	deps.wallet.On("MarkFailed", mock.Anything, 21, mock.Anything).Return(nil)
	deps.gateway.On("Refund", mock.Anything, "pay_1", int64(90000)).Return(&payment.Refund{ID: "rfnd_1"}, nil).Maybe()

	_, err := svc.VerifyAndSettle(context.Background(), 7, VerifyRequest{
		OrderID:       "order_abc",
		PaymentID:     "pay_1",
		Signature:     signFor(testSecret, "order_abc", "pay_1"),
		LedgerEntryID: 21,
	}, now)

	assert.ErrorIs(t, err, ErrSettlementFailed)
	deps.wallet.AssertCalled(t, "MarkFailed", mock.Anything, 21, mock.Anything)
}

func TestRefundProRatesAndDeducts(t *testing.T) {
	svc, deps := newTestService(t)
	now := time.Now().UTC()

	deps.membership.On("GetByID", mock.Anything, 55).Return(&membership.Entitlement{
		ID: 55, UserID: 7, GymID: 3, PlanID: 4, AmountPaid: 900,
		PerDayCost: 900.0 / 7, UsedDays: 2, TotalDays: 7,
		Status: membership.StatusActive, PaymentID: "pay_1",
	}, nil)

	deps.repo.On("GetSettledPair", mock.Anything, 55).Return(
		&wallet.Transaction{ID: 21, UserID: 7, Amount: -900, Reason: wallet.ReasonPlanPurchase},
		&wallet.Transaction{ID: 22, UserID: 9, Amount: 810, Reason: wallet.ReasonGymRevenue},
		nil,
	)

	// 900 - 2*(900/7) rounds to 643; owner gives back min(810, 643).
	deps.gateway.On("Refund", mock.Anything, "pay_1", int64(64300)).Return(&payment.Refund{ID: "rfnd_1"}, nil)

	deps.repo.On("RefundSettle", mock.Anything, mock.MatchedBy(func(p RefundParams) bool {
		return p.EntitlementID == 55 &&
			p.DebitTxID == 21 &&
			p.RefundAmount == 643 &&
			p.OwnerDeduction == 643 &&
			p.OwnerID == 9 &&
			p.RefundID == "rfnd_1"
	})).Return(&wallet.Transaction{ID: 30, UserID: 7, Amount: 643, Reason: wallet.ReasonPurchaseRefund}, nil)

	deps.user.On("FindByID", mock.Anything, 7).Return(nil, errors.New("skip email"))

	credit, err := svc.Refund(context.Background(), 55, "relocation", now)

	assert.NoError(t, err)
	assert.Equal(t, int64(643), credit.Amount)
	deps.repo.AssertExpectations(t)
}

func TestRefundAlreadyRefunded(t *testing.T) {
	svc, deps := newTestService(t)

	deps.membership.On("GetByID", mock.Anything, 55).Return(&membership.Entitlement{
		ID: 55, Status: membership.StatusRefunded,
	}, nil)

	_, err := svc.Refund(context.Background(), 55, "duplicate", time.Now().UTC())
	assert.ErrorIs(t, err, ErrStaleOrAlreadyProcessed)
}

func TestGetRevenueSummaryCacheHit(t *testing.T) {
	deps := &testDeps{repo: new(mockBillingRepo)}
	rdb, rmock := redismock.NewClientMock()
	emailService := email.New("from@test.com", "Test", "localhost", "1025", "", "", "localhost:6379")
	svc := NewService(deps.repo, new(mockMembershipRepo), new(mockWalletRepo), new(mockPlanRepo),
		new(mockGymRepo), new(mockUserRepo), new(mockOccupancyRepo), new(mockGateway),
		emailService, rdb, testSecret, 30*time.Second)

	cached, _ := json.Marshal(RevenueSummary{GymID: 3, Total: 5000})
	rmock.ExpectGet("revenue:gym:3").SetVal(string(cached))

	summary, err := svc.GetRevenueSummary(context.Background(), 3)

	assert.NoError(t, err)
	assert.Equal(t, int64(5000), summary.Total)
	deps.repo.AssertNotCalled(t, "TotalRevenueByGym", mock.Anything, mock.Anything)
}

func TestGetRevenueSummaryRecomputeOnMiss(t *testing.T) {
	svc, deps := newTestService(t)

	deps.repo.On("TotalRevenueByGym", mock.Anything, 3).Return(int64(5000), nil)
	deps.repo.On("RevenueByPlan", mock.Anything, 3).Return([]PlanRevenue{{PlanID: 4, Name: "Weekly", Amount: 5000}}, nil)
	deps.repo.On("RevenueLastDays", mock.Anything, 3, mock.Anything).Return([]RevenueRecord{}, nil)

	summary, err := svc.GetRevenueSummary(context.Background(), 3)

	assert.NoError(t, err)
	assert.Equal(t, int64(5000), summary.Total)
	assert.Len(t, summary.ByPlan, 1)
}

func signFor(secret, orderID, paymentID string) string {
	return payment.Sign(secret, orderID, paymentID)
}
