package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"gymshood/internal/email"
	"gymshood/internal/gym"
	"gymshood/internal/logger"
	"gymshood/internal/membership"
	"gymshood/internal/metrics"
	"gymshood/internal/occupancy"
	"gymshood/internal/payment"
	"gymshood/internal/plan"
	"gymshood/internal/user"
	"gymshood/internal/wallet"

	"github.com/redis/go-redis/v9"
)

var (
	ErrPlanUnavailable   = errors.New("plan is not available for purchase")
	ErrSignatureMismatch = errors.New("payment signature verification failed")
	ErrSettlementFailed  = errors.New("payment settlement failed")
)

const currency = "INR"

type Service interface {
	// InitiatePurchase opens a gateway order and records the pending debit.
	// No entitlement is granted until the payment is verified.
	InitiatePurchase(ctx context.Context, userID, planID int, now time.Time) (*PurchaseIntent, error)
	// VerifyAndSettle authenticates the payment callback and atomically
	// settles the purchase: debit completed, entitlement granted, revenue
	// split, owner credited.
	VerifyAndSettle(ctx context.Context, userID int, req VerifyRequest, now time.Time) (*membership.Entitlement, error)
	// Refund pro-rates the unused days back to the user and claws the
	// gym's share back from the owner's balance.
	Refund(ctx context.Context, entitlementID int, reason string, now time.Time) (*wallet.Transaction, error)
	GetRevenueSummary(ctx context.Context, gymID int) (*RevenueSummary, error)
	GetDailyEarnings(ctx context.Context, gymID int, date time.Time) (*DailyEarnings, error)
}

type service struct {
	repo           Repository
	membershipRepo membership.Repository
	walletRepo     wallet.Repository
	planRepo       plan.Repository
	gymRepo        gym.Repository
	userRepo       user.Repository
	occupancyRepo  occupancy.Repository
	gateway        payment.Gateway
	emailService   *email.Service
	rdb            *redis.Client
	paymentSecret  string
	cacheTTL       time.Duration
}

func NewService(
	repo Repository,
	membershipRepo membership.Repository,
	walletRepo wallet.Repository,
	planRepo plan.Repository,
	gymRepo gym.Repository,
	userRepo user.Repository,
	occupancyRepo occupancy.Repository,
	gateway payment.Gateway,
	emailService *email.Service,
	rdb *redis.Client,
	paymentSecret string,
	cacheTTL time.Duration,
) Service {
	return &service{
		repo:           repo,
		membershipRepo: membershipRepo,
		walletRepo:     walletRepo,
		planRepo:       planRepo,
		gymRepo:        gymRepo,
		userRepo:       userRepo,
		occupancyRepo:  occupancyRepo,
		gateway:        gateway,
		emailService:   emailService,
		rdb:            rdb,
		paymentSecret:  paymentSecret,
		cacheTTL:       cacheTTL,
	}
}

func (s *service) InitiatePurchase(ctx context.Context, userID, planID int, now time.Time) (*PurchaseIntent, error) {
	p, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, ErrPlanUnavailable
	}
	if !p.IsActive {
		return nil, ErrPlanUnavailable
	}
	if _, ok := plan.TermsFor(p.PlanType); !ok {
		return nil, ErrPlanUnavailable
	}

	g, err := s.gymRepo.GetByID(ctx, p.GymID)
	if err != nil || !g.IsVerified {
		return nil, ErrPlanUnavailable
	}

	amount := p.DiscountedPrice()
	receipt := fmt.Sprintf("plan_%d_user_%d_%d", planID, userID, now.Unix())
	notes := map[string]string{
		"user_id": strconv.Itoa(userID),
		"plan_id": strconv.Itoa(planID),
		"gym_id":  strconv.Itoa(p.GymID),
	}

	order, err := s.gateway.CreateOrder(ctx, amount*100, currency, receipt, notes)
	if err != nil {
		return nil, err
	}

	planRef := planID
	gymRef := p.GymID
	entry, err := s.walletRepo.CreatePending(ctx, &wallet.Transaction{
		UserID:  userID,
		Amount:  -amount,
		Type:    wallet.TypeDebit,
		Reason:  wallet.ReasonPlanPurchase,
		OrderID: &order.ID,
		PlanID:  &planRef,
		GymID:   &gymRef,
	})
	if err != nil {
		return nil, err
	}

	metrics.PurchasesInitiatedTotal.Inc()
	logger.Info("purchase initiated", "user_id", userID, "plan_id", planID, "order_id", order.ID, "amount", amount)

	return &PurchaseIntent{Order: order, LedgerEntryID: entry.ID, Amount: amount}, nil
}

func (s *service) VerifyAndSettle(ctx context.Context, userID int, req VerifyRequest, now time.Time) (*membership.Entitlement, error) {
	if !payment.VerifySignature(s.paymentSecret, req.OrderID, req.PaymentID, req.Signature) {
		metrics.SignatureFailuresTotal.Inc()
		logger.Error("payment signature rejected", "order_id", req.OrderID, "user_id", userID)
		return nil, ErrSignatureMismatch
	}

	entry, err := s.repo.GetPendingPurchase(ctx, req.LedgerEntryID, req.OrderID, userID)
	if err != nil {
		return nil, err
	}

	// Re-fetch the authoritative order and payment; client-supplied ids
	// are trusted only as lookup keys.
	order, err := s.gateway.FetchOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	pay, err := s.gateway.FetchPayment(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if pay.OrderID != order.ID {
		return nil, ErrStaleOrAlreadyProcessed
	}

	planID, err := strconv.Atoi(order.Notes["plan_id"])
	if err != nil {
		return nil, ErrStaleOrAlreadyProcessed
	}
	p, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, ErrPlanUnavailable
	}
	g, err := s.gymRepo.GetByID(ctx, p.GymID)
	if err != nil {
		return nil, ErrPlanUnavailable
	}
	terms, ok := plan.TermsFor(p.PlanType)
	if !ok {
		return nil, ErrPlanUnavailable
	}

	amount := order.Amount / 100
	gymShare, _ := SplitRevenue(amount)
	perDayCost := float64(amount) / float64(p.Validity)

	entitlement, err := s.repo.Settle(ctx, SettleParams{
		DebitTxID:    entry.ID,
		OrderID:      order.ID,
		PaymentID:    pay.ID,
		UserID:       userID,
		GymID:        g.ID,
		OwnerID:      g.OwnerID,
		PlanID:       p.ID,
		Amount:       amount,
		GymShare:     gymShare,
		PerDayCost:   perDayCost,
		TotalDays:    terms.TotalDays,
		SessionHours: p.Duration,
		Now:          now,
		MaxExpiry:    now.Add(time.Duration(terms.ExpiryFactorDays) * 24 * time.Hour),
	})
	if err != nil {
		if errors.Is(err, ErrStaleOrAlreadyProcessed) {
			return nil, err
		}
		s.abortSettlement(entry.ID, pay.ID, order.Amount, err)
		return nil, fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}

	metrics.RecordSettlement("success")
	s.invalidateRevenueCache(ctx, g.ID)

	// Best-effort confirmation, never inside the settle transaction.
	if u, err := s.userRepo.FindByID(ctx, userID); err == nil {
		if err := s.emailService.SendPurchaseConfirmation(ctx, u.Email, u.Name, p.Name, g.Name, p.PlanType, amount, now); err != nil {
			logger.Error("purchase confirmation email failed", "user_id", userID, "error", err)
		}
	}

	logger.Info("purchase settled", "user_id", userID, "entitlement_id", entitlement.ID, "gym_share", gymShare)
	return entitlement, nil
}

// abortSettlement handles a failed settle: the transaction already rolled
// back, so mark the ledger entry failed and fire a compensating gateway
// refund without blocking the caller.
func (s *service) abortSettlement(entryID int, paymentID string, amountMinorUnits int64, cause error) {
	metrics.RecordSettlement("failed")
	logger.Error("settlement aborted", "ledger_entry_id", entryID, "payment_id", paymentID, "error", cause)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.walletRepo.MarkFailed(ctx, entryID, cause.Error()); err != nil {
		logger.Error("failed to mark ledger entry failed", "ledger_entry_id", entryID, "error", err)
	}

	if paymentID == "" {
		return
	}
	go func() {
		refundCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.gateway.Refund(refundCtx, paymentID, amountMinorUnits); err != nil {
			logger.Error("compensating refund failed", "payment_id", paymentID, "error", err)
			return
		}
		logger.Info("compensating refund issued", "payment_id", paymentID)
	}()
}

func (s *service) Refund(ctx context.Context, entitlementID int, reason string, now time.Time) (*wallet.Transaction, error) {
	e, err := s.membershipRepo.GetByID(ctx, entitlementID)
	if err != nil {
		return nil, err
	}
	if e.Status != membership.StatusActive {
		return nil, ErrStaleOrAlreadyProcessed
	}

	debit, ownerCredit, err := s.repo.GetSettledPair(ctx, entitlementID)
	if err != nil {
		return nil, err
	}

	refundAmount := ProRatedRefund(e.AmountPaid, e.UsedDays, e.PerDayCost)

	// The owner gives back at most what they were credited; the balance may
	// go negative.
	deduction := ownerCredit.Amount
	if refundAmount < deduction {
		deduction = refundAmount
	}

	var refundID string
	if refundAmount > 0 {
		ref, err := s.gateway.Refund(ctx, e.PaymentID, refundAmount*100)
		if err != nil {
			return nil, err
		}
		refundID = ref.ID
	}

	credit, err := s.repo.RefundSettle(ctx, RefundParams{
		EntitlementID:  entitlementID,
		DebitTxID:      debit.ID,
		UserID:         e.UserID,
		OwnerID:        ownerCredit.UserID,
		RefundAmount:   refundAmount,
		OwnerDeduction: deduction,
		RefundID:       refundID,
		Now:            now,
	})
	if err != nil {
		return nil, err
	}

	metrics.RefundsTotal.Inc()
	s.invalidateRevenueCache(ctx, e.GymID)

	if u, err := s.userRepo.FindByID(ctx, e.UserID); err == nil {
		if p, perr := s.planRepo.GetByID(ctx, e.PlanID); perr == nil {
			if err := s.emailService.SendRefundNotice(ctx, u.Email, u.Name, p.Name, refundAmount, reason); err != nil {
				logger.Error("refund notice email failed", "user_id", e.UserID, "error", err)
			}
		}
	}

	logger.Info("entitlement refunded", "entitlement_id", entitlementID, "refund_amount", refundAmount, "owner_deduction", deduction)
	return credit, nil
}

func (s *service) GetRevenueSummary(ctx context.Context, gymID int) (*RevenueSummary, error) {
	key := revenueCacheKey(gymID)

	if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
		var summary RevenueSummary
		if err := json.Unmarshal([]byte(cached), &summary); err == nil {
			return &summary, nil
		}
	}

	summary, err := s.recomputeRevenue(ctx, gymID)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(summary); err == nil {
		if err := s.rdb.Set(ctx, key, encoded, s.cacheTTL).Err(); err != nil {
			logger.Error("revenue cache write failed", "gym_id", gymID, "error", err)
		}
	}

	return summary, nil
}

func (s *service) recomputeRevenue(ctx context.Context, gymID int) (*RevenueSummary, error) {
	total, err := s.repo.TotalRevenueByGym(ctx, gymID)
	if err != nil {
		return nil, err
	}

	byPlan, err := s.repo.RevenueByPlan(ctx, gymID)
	if err != nil {
		return nil, err
	}

	since := occupancy.DayOf(time.Now()).AddDate(0, 0, -30)
	lastDays, err := s.repo.RevenueLastDays(ctx, gymID, since)
	if err != nil {
		return nil, err
	}

	return &RevenueSummary{
		GymID:      gymID,
		Total:      total,
		ByPlan:     byPlan,
		LastDays:   lastDays,
		ComputedAt: time.Now().UTC(),
	}, nil
}

func (s *service) GetDailyEarnings(ctx context.Context, gymID int, date time.Time) (*DailyEarnings, error) {
	earnings, visits, err := s.occupancyRepo.VisitsOnDay(ctx, gymID, occupancy.DayOf(date))
	if err != nil {
		return nil, err
	}

	return &DailyEarnings{
		GymID:    gymID,
		Date:     occupancy.DayOf(date),
		Visits:   visits,
		Earnings: earnings,
	}, nil
}

func (s *service) invalidateRevenueCache(ctx context.Context, gymID int) {
	if err := s.rdb.Del(ctx, revenueCacheKey(gymID)).Err(); err != nil {
		logger.Error("revenue cache invalidation failed", "gym_id", gymID, "error", err)
	}
}

func revenueCacheKey(gymID int) string {
	return fmt.Sprintf("revenue:gym:%d", gymID)
}

// ProRatedRefund computes the refundable remainder of a purchase: the amount
// paid less the value of days already used, floored at zero.
func ProRatedRefund(amountPaid int64, usedDays int, perDayCost float64) int64 {
	refund := float64(amountPaid) - float64(usedDays)*perDayCost
	if refund <= 0 {
		return 0
	}
	return int64(math.Round(refund))
}
