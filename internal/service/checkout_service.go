package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/digibuy-next/internal/cache"
	"github.com/digibuy-next/internal/constants"
	"github.com/digibuy-next/internal/i18n"
	"github.com/digibuy-next/internal/logger"
	"github.com/digibuy-next/internal/metrics"
	"github.com/digibuy-next/internal/models"
	"github.com/digibuy-next/internal/payment/card"
	"github.com/digibuy-next/internal/queue"
	"github.com/digibuy-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const voidTimeout = 5 * time.Second

// PaymentAuthorizer 银行卡授权
type PaymentAuthorizer interface {
	Authorize(ctx context.Context, instrument card.Instrument, amount decimal.Decimal) (*card.Authorization, error)
}

// PaymentVoider 撤销授权（授权器可选实现）
type PaymentVoider interface {
	Void(ctx context.Context, auth *card.Authorization) error
}

// NotificationSink 结算通知投递，失败不影响结算结果
type NotificationSink interface {
	EnqueueSettlementEmail(ctx context.Context, payload queue.SettlementEmailPayload) error
	Driver() string
}

// SettlementLocker 订单级互斥锁
type SettlementLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error)
}

// CheckoutOptions 结算选项
type CheckoutOptions struct {
	PointsAllocation string
	LockTTL          time.Duration
	EmailLocale      string
}

// SettleInput 结算输入
type SettleInput struct {
	OrderID    uint
	UserID     uint
	CouponCode string
	UsePoints  bool
	Card       *card.Instrument
}

// SettlementResult 结算结果
type SettlementResult struct {
	OrderID          uint         `json:"order_id"`
	OrderNo          string       `json:"order_no"`
	Payable          models.Money `json:"payable"`
	Discount         models.Money `json:"discount"`
	CouponCode       string       `json:"coupon_code,omitempty"`
	PointsUsed       models.Money `json:"points_used"`
	PointsEarned     models.Money `json:"points_earned"`
	CardCharge       models.Money `json:"card_charge"`
	WalletDeduction  models.Money `json:"wallet_deduction"`
	AuthorizationRef string       `json:"authorization_ref,omitempty"`
	SettledAt        time.Time    `json:"settled_at"`
}

// settlementPlan 提交前计算完成的全部变更
type settlementPlan struct {
	order     *models.Order
	user      *models.User
	coupon    *AppliedCoupon
	amount    AmountBreakdown
	points    PointsAllocation
	split     PaymentSplit
	auth      *card.Authorization
	settledAt time.Time
}

// CheckoutService 订单结算协调器
type CheckoutService struct {
	db              *gorm.DB
	orderRepo       repository.OrderRepository
	userRepo        repository.UserRepository
	couponRepo      repository.CouponRepository
	productRepo     repository.ProductRepository
	paymentRepo     repository.PaymentRepository
	balanceRepo     repository.BalanceTransactionRepository
	couponValidator *CouponValidator
	authorizer      PaymentAuthorizer
	notifier        NotificationSink
	locker          SettlementLocker
	options         CheckoutOptions
	now             func() time.Time
}

// NewCheckoutService 创建结算服务
func NewCheckoutService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	couponRepo repository.CouponRepository,
	productRepo repository.ProductRepository,
	paymentRepo repository.PaymentRepository,
	balanceRepo repository.BalanceTransactionRepository,
	authorizer PaymentAuthorizer,
	notifier NotificationSink,
	locker SettlementLocker,
	options CheckoutOptions,
) *CheckoutService {
	if options.PointsAllocation == "" {
		options.PointsAllocation = constants.PointsAllocationInsertion
	}
	if options.LockTTL <= 0 {
		options.LockTTL = 30 * time.Second
	}
	if options.EmailLocale == "" {
		options.EmailLocale = i18n.DefaultLocale
	}
	return &CheckoutService{
		db:              db,
		orderRepo:       orderRepo,
		userRepo:        userRepo,
		couponRepo:      couponRepo,
		productRepo:     productRepo,
		paymentRepo:     paymentRepo,
		balanceRepo:     balanceRepo,
		couponValidator: NewCouponValidator(couponRepo),
		authorizer:      authorizer,
		notifier:        notifier,
		locker:          locker,
		options:         options,
		now:             time.Now,
	}
}

// SetClock 替换时钟（测试使用）
func (s *CheckoutService) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
	s.couponValidator.now = now
}

// Settle 结算订单：校验优惠券、计算金额与积分、拆分支付、授权银行卡，最后在单个事务内提交。
// 任一步骤失败均不会留下部分修改。
func (s *CheckoutService) Settle(ctx context.Context, input SettleInput) (result *SettlementResult, err error) {
	started := time.Now()
	defer func() {
		metrics.RecordSettlement(settlementOutcome(result, err), time.Since(started))
	}()

	if input.OrderID == 0 || input.UserID == 0 {
		return nil, ErrOrderNotFound
	}
	log := logger.Ctx(ctx, "order_id", input.OrderID, "user_id", input.UserID)

	unlock, err := s.lockOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	plan, err := s.prepare(ctx, input)
	if err != nil {
		log.Infow("checkout_settle_rejected", "error", err)
		return nil, err
	}

	if plan.split.RequiresCard() {
		plan.auth, err = s.authorizeCard(ctx, input.Card, plan.split.CardCharge)
		if err != nil {
			log.Infow("checkout_card_authorize_failed", "amount", plan.split.CardCharge.StringFixed(2), "error", err)
			return nil, err
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		s.voidAuthorization(ctx, plan.auth)
		return nil, fmt.Errorf("%w: %v", ErrSettlementTimeout, ctxErr)
	}

	plan.settledAt = s.now()
	if err := s.commit(ctx, plan); err != nil {
		s.voidAuthorization(ctx, plan.auth)
		log.Warnw("checkout_settle_commit_failed", "error", err)
		return nil, err
	}

	result = buildSettlementResult(plan)
	log.Infow("checkout_settle_committed",
		"order_no", result.OrderNo,
		"payable", result.Payable.String(),
		"wallet_deduction", result.WalletDeduction.String(),
		"card_charge", result.CardCharge.String(),
		"points_used", result.PointsUsed.String(),
		"points_earned", result.PointsEarned.String(),
	)
	recordSettledAmounts(result)
	s.enqueueNotification(ctx, plan.user, result)
	return result, nil
}

func (s *CheckoutService) lockOrder(ctx context.Context, orderID uint) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	unlock, ok, err := s.locker.TryLock(ctx, cache.SettlementLockKey(orderID), s.options.LockTTL)
	if err != nil {
		// 锁服务不可用时仍依赖事务内的版本校验保证正确性
		logger.Ctx(ctx).Warnw("checkout_settle_lock_unavailable", "order_id", orderID, "error", err)
		return func() {}, nil
	}
	if !ok {
		return nil, fmt.Errorf("%w: order %d is being settled", ErrConcurrencyConflict, orderID)
	}
	return unlock, nil
}

// prepare 读取订单与用户，完成全部纯计算，不产生任何写入
func (s *CheckoutService) prepare(ctx context.Context, input SettleInput) (*settlementPlan, error) {
	order, err := s.orderRepo.WithContext(ctx).GetByIDAndUser(input.OrderID, input.UserID)
	if err != nil {
		return nil, s.wrapStoreError(ctx, "load order", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !order.IsActive {
		return nil, ErrOrderAlreadySettled
	}

	user, err := s.userRepo.WithContext(ctx).GetByID(input.UserID)
	if err != nil {
		return nil, s.wrapStoreError(ctx, "load user", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	coupon, err := s.couponValidator.Resolve(ctx, input.CouponCode)
	if err != nil {
		if errors.Is(err, ErrPersistenceFailure) && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrSettlementTimeout, ctx.Err())
		}
		return nil, err
	}
	discount := decimal.Zero
	if coupon != nil {
		discount = coupon.Amount
	}

	lines := settlementLinesFromItems(order.Items)
	amount := CalculateOrderAmount(AmountInput{
		Lines:         lines,
		Discount:      discount,
		UsePoints:     input.UsePoints,
		PointsBalance: user.PointsBalance.Decimal,
	})

	rules, err := s.loadRewardRules(ctx, lines)
	if err != nil {
		return nil, err
	}
	points := AllocatePoints(lines, amount.PointsToUse, rules, s.options.PointsAllocation)
	split := SplitPayment(amount.Payable, user.WalletBalance.Decimal)

	return &settlementPlan{
		order:  order,
		user:   user,
		coupon: coupon,
		amount: amount,
		points: points,
		split:  split,
	}, nil
}

func (s *CheckoutService) loadRewardRules(ctx context.Context, lines []SettlementLine) (map[uint]RewardRule, error) {
	ids := make([]uint, 0, len(lines))
	seen := make(map[uint]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	products, err := s.productRepo.WithContext(ctx).ListByIDs(ids)
	if err != nil {
		return nil, s.wrapStoreError(ctx, "load reward rules", err)
	}
	rules := make(map[uint]RewardRule, len(products))
	for _, product := range products {
		rules[product.ID] = RewardRule{
			Percentage: product.RewardPercentage.Decimal,
			MaxPoints:  product.MaxRewardPoints.Decimal,
		}
	}
	return rules, nil
}

func (s *CheckoutService) authorizeCard(ctx context.Context, instrument *card.Instrument, amount decimal.Decimal) (*card.Authorization, error) {
	if instrument == nil {
		return nil, fmt.Errorf("%w: card required for %s", ErrPaymentInstrumentInvalid, amount.StringFixed(2))
	}
	if s.authorizer == nil {
		return nil, fmt.Errorf("%w: card payment unavailable", ErrPaymentDeclined)
	}
	auth, err := s.authorizer.Authorize(ctx, *instrument, amount)
	if err == nil {
		return auth, nil
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return nil, fmt.Errorf("%w: %v", ErrSettlementTimeout, err)
	case errors.Is(err, card.ErrInvalidInstrument):
		return nil, fmt.Errorf("%w: %v", ErrPaymentInstrumentInvalid, err)
	default:
		return nil, fmt.Errorf("%w: %v", ErrPaymentDeclined, err)
	}
}

func (s *CheckoutService) voidAuthorization(ctx context.Context, auth *card.Authorization) {
	if auth == nil {
		return
	}
	voider, ok := s.authorizer.(PaymentVoider)
	if !ok {
		logger.Ctx(ctx).Errorw("checkout_card_void_unsupported", "authorization_ref", auth.Reference)
		return
	}
	voidCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), voidTimeout)
	defer cancel()
	if err := voider.Void(voidCtx, auth); err != nil {
		logger.Ctx(ctx).Errorw("checkout_card_void_failed", "authorization_ref", auth.Reference, "error", err)
		return
	}
	logger.Ctx(ctx).Infow("checkout_card_voided", "authorization_ref", auth.Reference)
}

// commit 单事务提交：订单、订单项、优惠券、用户余额、流水与支付记录
func (s *CheckoutService) commit(ctx context.Context, plan *settlementPlan) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		userRepo := s.userRepo.WithTx(tx)
		order := plan.order
		user := plan.user
		if err := lockSettlementRows(orderRepo, userRepo, order, user); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"discount_amount":    models.NewMoneyFromDecimal(plan.amount.Discount),
			"points_used":        models.NewMoneyFromDecimal(plan.amount.PointsToUse),
			"points_earned":      models.NewMoneyFromDecimal(plan.points.PointsEarned),
			"wallet_paid_amount": models.NewMoneyFromDecimal(plan.split.WalletDeduction),
			"card_paid_amount":   models.NewMoneyFromDecimal(plan.split.CardCharge),
			"total_amount":       models.NewMoneyFromDecimal(plan.amount.Payable),
			"settled_at":         plan.settledAt,
			"updated_at":         plan.settledAt,
		}
		if plan.coupon != nil {
			updates["coupon_id"] = plan.coupon.ID
			updates["coupon_code"] = plan.coupon.Code
		}
		rows, err := orderRepo.SettleWithVersion(order.ID, order.Version, updates)
		if err != nil {
			return err
		}
		if rows == 0 {
			return resolveOrderConflict(orderRepo, order.ID)
		}
		if err := orderRepo.DeactivateItems(order.ID); err != nil {
			return err
		}

		if plan.coupon != nil {
			rows, err := s.couponRepo.WithTx(tx).MarkUsedWithVersion(plan.coupon.ID, plan.coupon.Version, plan.settledAt)
			if err != nil {
				return err
			}
			if rows == 0 {
				return ErrCouponInvalidOrExpired
			}
		}

		newWallet := user.WalletBalance.Decimal.Sub(plan.split.WalletDeduction)
		newPoints := user.PointsBalance.Decimal.Sub(plan.amount.PointsToUse).Add(plan.points.PointsEarned)
		rows, err = userRepo.UpdateBalancesWithVersion(
			user.ID, user.Version,
			models.NewMoneyFromDecimal(newWallet),
			models.NewMoneyFromDecimal(newPoints),
		)
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("%w: user %d balances changed", ErrConcurrencyConflict, user.ID)
		}

		if err := s.writeBalanceTransactions(tx, plan); err != nil {
			return err
		}
		return s.writePayments(tx, plan)
	})
	if err == nil {
		return nil
	}
	if isSettlementSentinel(err) {
		return err
	}
	if repository.IsUniqueViolation(err) {
		// 流水幂等键冲突说明该订单已被另一请求结算
		return ErrOrderAlreadySettled
	}
	return s.wrapStoreError(ctx, "commit settlement", err)
}

// lockSettlementRows 事务内锁定订单与用户行，并确认与计算时的快照一致
func lockSettlementRows(orderRepo *repository.GormOrderRepository, userRepo *repository.GormUserRepository, order *models.Order, user *models.User) error {
	lockedOrder, err := orderRepo.GetByIDAndUserForUpdate(order.ID, order.UserID)
	if err != nil {
		return err
	}
	if lockedOrder == nil {
		return ErrOrderNotFound
	}
	if !lockedOrder.IsActive {
		return ErrOrderAlreadySettled
	}
	if lockedOrder.Version != order.Version {
		return fmt.Errorf("%w: order %d modified", ErrConcurrencyConflict, order.ID)
	}

	lockedUser, err := userRepo.GetByIDForUpdate(user.ID)
	if err != nil {
		return err
	}
	if lockedUser == nil {
		return ErrUserNotFound
	}
	if lockedUser.Version != user.Version {
		return fmt.Errorf("%w: user %d balances changed", ErrConcurrencyConflict, user.ID)
	}
	return nil
}

func resolveOrderConflict(orderRepo *repository.GormOrderRepository, orderID uint) error {
	current, err := orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrOrderNotFound
	}
	if !current.IsActive {
		return ErrOrderAlreadySettled
	}
	return fmt.Errorf("%w: order %d modified", ErrConcurrencyConflict, orderID)
}

func (s *CheckoutService) writeBalanceTransactions(tx *gorm.DB, plan *settlementPlan) error {
	repo := s.balanceRepo.WithTx(tx)
	orderID := plan.order.ID
	user := plan.user

	walletBefore := user.WalletBalance.Decimal
	pointsBefore := user.PointsBalance.Decimal
	pointsAfterRedeem := pointsBefore.Sub(plan.amount.PointsToUse)

	entries := make([]models.BalanceTransaction, 0, 3)
	if plan.split.WalletDeduction.IsPositive() {
		entries = append(entries, balanceEntry(user.ID, orderID, constants.BalanceAssetWallet, constants.BalanceTxnTypeOrderPay,
			constants.BalanceTxnDirectionOut, plan.split.WalletDeduction, walletBefore, walletBefore.Sub(plan.split.WalletDeduction), plan.settledAt))
	}
	if plan.amount.PointsToUse.IsPositive() {
		entries = append(entries, balanceEntry(user.ID, orderID, constants.BalanceAssetPoints, constants.BalanceTxnTypePointsRedeem,
			constants.BalanceTxnDirectionOut, plan.amount.PointsToUse, pointsBefore, pointsAfterRedeem, plan.settledAt))
	}
	if plan.points.PointsEarned.IsPositive() {
		entries = append(entries, balanceEntry(user.ID, orderID, constants.BalanceAssetPoints, constants.BalanceTxnTypePointsEarn,
			constants.BalanceTxnDirectionIn, plan.points.PointsEarned, pointsAfterRedeem, pointsAfterRedeem.Add(plan.points.PointsEarned), plan.settledAt))
	}
	for i := range entries {
		if err := repo.Create(&entries[i]); err != nil {
			return err
		}
	}
	return nil
}

func balanceEntry(userID, orderID uint, asset, txnType, direction string, amount, before, after decimal.Decimal, at time.Time) models.BalanceTransaction {
	id := orderID
	return models.BalanceTransaction{
		UserID:        userID,
		OrderID:       &id,
		Asset:         asset,
		Type:          txnType,
		Direction:     direction,
		Amount:        models.NewMoneyFromDecimal(amount),
		BalanceBefore: models.NewMoneyFromDecimal(before),
		BalanceAfter:  models.NewMoneyFromDecimal(after),
		Reference:     fmt.Sprintf("order:%d:%s", orderID, txnType),
		CreatedAt:     at,
	}
}

func (s *CheckoutService) writePayments(tx *gorm.DB, plan *settlementPlan) error {
	repo := s.paymentRepo.WithTx(tx)
	paidAt := plan.settledAt
	if plan.split.WalletDeduction.IsPositive() {
		if err := repo.Create(&models.Payment{
			OrderID:  plan.order.ID,
			UserID:   plan.user.ID,
			Provider: constants.PaymentProviderWallet,
			Amount:   models.NewMoneyFromDecimal(plan.split.WalletDeduction),
			Status:   constants.PaymentStatusSuccess,
			PaidAt:   &paidAt,
		}); err != nil {
			return err
		}
	}
	if plan.auth != nil {
		if err := repo.Create(&models.Payment{
			OrderID:     plan.order.ID,
			UserID:      plan.user.ID,
			Provider:    constants.PaymentProviderCard,
			Amount:      models.NewMoneyFromDecimal(plan.split.CardCharge),
			Status:      constants.PaymentStatusSuccess,
			ProviderRef: plan.auth.Reference,
			CardBrand:   plan.auth.Brand,
			CardLast4:   plan.auth.Last4,
			PaidAt:      &paidAt,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *CheckoutService) wrapStoreError(ctx context.Context, action string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %s: %v", ErrSettlementTimeout, action, ctxErr)
	}
	return fmt.Errorf("%w: %s: %v", ErrPersistenceFailure, action, err)
}

func (s *CheckoutService) enqueueNotification(ctx context.Context, user *models.User, result *SettlementResult) {
	if s.notifier == nil || user == nil || strings.TrimSpace(user.Email) == "" {
		return
	}
	payload := buildSettlementEmail(user.Email, result, s.options.EmailLocale)
	// 通知与请求生命周期解耦，结算已提交
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.notifier.EnqueueSettlementEmail(notifyCtx, payload); err != nil {
		metrics.RecordNotificationFailure(s.notifier.Driver())
		logger.Ctx(ctx).Warnw("checkout_enqueue_settlement_email_failed",
			"order_id", result.OrderID,
			"driver", s.notifier.Driver(),
			"error", err,
		)
	}
}

func buildSettlementResult(plan *settlementPlan) *SettlementResult {
	result := &SettlementResult{
		OrderID:         plan.order.ID,
		OrderNo:         plan.order.OrderNo,
		Payable:         models.NewMoneyFromDecimal(plan.amount.Payable),
		Discount:        models.NewMoneyFromDecimal(plan.amount.Discount),
		PointsUsed:      models.NewMoneyFromDecimal(plan.amount.PointsToUse),
		PointsEarned:    models.NewMoneyFromDecimal(plan.points.PointsEarned),
		CardCharge:      models.NewMoneyFromDecimal(plan.split.CardCharge),
		WalletDeduction: models.NewMoneyFromDecimal(plan.split.WalletDeduction),
		SettledAt:       plan.settledAt,
	}
	if plan.coupon != nil {
		result.CouponCode = plan.coupon.Code
	}
	if plan.auth != nil {
		result.AuthorizationRef = plan.auth.Reference
	}
	return result
}

func recordSettledAmounts(result *SettlementResult) {
	metrics.AddSettledAmount(constants.PaymentProviderWallet, result.WalletDeduction.InexactFloat64())
	metrics.AddSettledAmount(constants.PaymentProviderCard, result.CardCharge.InexactFloat64())
	metrics.AddSettledAmount(constants.BalanceAssetPoints, result.PointsUsed.InexactFloat64())
	metrics.AddSettledAmount("coupon", result.Discount.InexactFloat64())
}

func isSettlementSentinel(err error) bool {
	for _, target := range []error{
		ErrOrderNotFound,
		ErrOrderAlreadySettled,
		ErrUserNotFound,
		ErrCouponInvalidOrExpired,
		ErrPaymentInstrumentInvalid,
		ErrPaymentDeclined,
		ErrConcurrencyConflict,
		ErrPersistenceFailure,
		ErrSettlementTimeout,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func settlementOutcome(result *SettlementResult, err error) string {
	switch {
	case err == nil && result != nil && !result.CardCharge.IsPositive():
		return metrics.OutcomeNoPayment
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrConcurrencyConflict), errors.Is(err, ErrOrderAlreadySettled):
		return metrics.OutcomeConflict
	case errors.Is(err, ErrPaymentDeclined), errors.Is(err, ErrPaymentInstrumentInvalid):
		return metrics.OutcomeDeclined
	case errors.Is(err, ErrSettlementTimeout):
		return metrics.OutcomeTimeout
	case errors.Is(err, ErrPersistenceFailure):
		return metrics.OutcomeFailure
	default:
		return metrics.OutcomeRejected
	}
}
