package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/qpaydev/recharge/internal/core/clock"
	"github.com/qpaydev/recharge/internal/core/domain"
	"github.com/qpaydev/recharge/internal/core/port"
	"github.com/qpaydev/recharge/internal/core/sign"
	"github.com/qpaydev/recharge/internal/core/utils"
	"go.uber.org/zap"
)

type Service struct {
	repo         port.Repository
	tokenService port.TokenService
	gateway      port.PaymentGateway
	promotion    port.CommissionNotifier
	verifier     *sign.Verifier
	clock        clock.Clock
	logger       *zap.Logger
}

func NewService(repo port.Repository, tokenService port.TokenService,
	gateway port.PaymentGateway, promotion port.CommissionNotifier,
	verifier *sign.Verifier, clk clock.Clock, logger *zap.Logger) (*Service, error) {
	return &Service{
		repo:         repo,
		tokenService: tokenService,
		gateway:      gateway,
		promotion:    promotion,
		verifier:     verifier,
		clock:        clk,
		logger:       logger,
	}, nil
}

func (s *Service) RegisterUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	exUser, err := s.repo.GetUserByLogin(ctx, user.Login)
	if err != nil && !errors.Is(err, domain.ErrDataNotFound) {
		s.logger.Error("Get user", zap.Error(err))
		return nil, domain.ErrInternal
	}

	if exUser != nil {
		return nil, domain.ErrConflictingData
	}

	newUser, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		s.logger.Error("Create user", zap.Error(err))
		return nil, domain.ErrInternal
	}

	return newUser, nil
}

func (s *Service) LoginUser(ctx context.Context, login string, password string) (string, error) {
	user, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", domain.ErrInternal
	}

	err = utils.ComparePassword(password, user.Password)
	if err != nil {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokenService.CreateToken(user)
	if err != nil {
		s.logger.Error("Create token", zap.Error(err))
		return "", domain.ErrTokenCreation
	}

	return token, nil
}

func (s *Service) CreatePayment(ctx context.Context, userID uuid.UUID, amountYuan int64) (*port.PaymentIntent, error) {
	if amountYuan <= 0 {
		return nil, domain.ErrBadRequest
	}

	tradeNo, err := utils.NewTradeNo()
	if err != nil {
		s.logger.Error("Generate trade no", zap.Error(err))
		return nil, domain.ErrInternal
	}

	codeURL, err := s.gateway.NativePay(ctx, tradeNo, amountYuan*domain.PriceScale)
	if err != nil {
		s.logger.Error("Gateway native pay", zap.Error(err))
		return nil, domain.ErrInternal
	}

	order := &domain.Order{
		ID:        uuid.New(),
		UserID:    userID,
		TradeNo:   tradeNo,
		Price:     amountYuan * domain.PriceScale,
		Status:    domain.PaymentStatusNotPaid,
		CreatedAt: s.clock.Now(),
	}

	order, err = s.repo.CreateOrder(ctx, order)
	if err != nil {
		s.logger.Error("Create order", zap.Error(err))
		return nil, domain.ErrInternal
	}

	return &port.PaymentIntent{PaymentID: order.ID, CodeURL: codeURL}, nil
}

func (s *Service) CheckPayment(ctx context.Context, userID uuid.UUID, paymentID uuid.UUID) (*domain.Order, error) {
	order, err := s.repo.ReadOrder(ctx, paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	if order.UserID != userID {
		return nil, domain.ErrForbidden
	}

	if order.Status != domain.PaymentStatusSuccess {
		return nil, domain.ErrNotPaidYet
	}

	return order, nil
}

func (s *Service) ListPayments(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	list, err := s.repo.ListOrdersByUser(ctx, userID)
	if err != nil {
		s.logger.Error("List orders for user", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *Service) GetUserBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error("Get user balance", zap.Error(err))
		return 0, err
	}
	return user.Balance, nil
}

// HandleNotification reconciles one gateway callback with its order.
// Duplicates are absorbed: the store's conditional transition is the
// only idempotency primitive, so at most one delivery credits the
// balance no matter how many arrive concurrently.
func (s *Service) HandleNotification(ctx context.Context, n domain.PaymentNotification) error {
	if !s.verifier.Verify(n.SignedFields(), n.Sign) {
		return domain.ErrInvalidSignature
	}

	order, err := s.repo.ReadOrderByTradeNo(ctx, n.OutTradeNo)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return domain.ErrOrderNotFound
		}
		s.logger.Error("Read order by trade no", zap.Error(err))
		return domain.ErrInternal
	}

	// Terminal statuses absorb duplicate deliveries.
	if order.Status != domain.PaymentStatusNotPaid {
		return nil
	}

	if n.Code != domain.NotifyCodePaid {
		return s.closeStaleOrder(ctx, order)
	}

	// Load payer and inviter before mutating anything, so a missing
	// user aborts while the order is still retryable.
	user, err := s.repo.GetUserByID(ctx, order.UserID)
	if err != nil {
		s.logger.Error("Get paying user", zap.Error(err))
		return domain.ErrInternal
	}

	var inviter *domain.User
	if user.InviterID != nil {
		inviter, err = s.repo.GetUserByID(ctx, *user.InviterID)
		if err != nil && !errors.Is(err, domain.ErrDataNotFound) {
			s.logger.Error("Get inviter", zap.Error(err))
			return domain.ErrInternal
		}
	}

	applied, err := s.repo.TryTransitionOrder(ctx, order.ID,
		domain.PaymentStatusNotPaid, domain.PaymentStatusSuccess)
	if err != nil {
		s.logger.Error("Transition order", zap.Error(err))
		return domain.ErrInternal
	}
	if !applied {
		// Lost the race to a concurrent duplicate. The winner credits.
		s.logger.Info("Duplicate notification absorbed",
			zap.String("tradeNo", order.TradeNo))
		return nil
	}

	if err := s.repo.CreditBalance(ctx, order.UserID, order.Price); err != nil {
		s.logger.Error("Credit balance", zap.Error(err),
			zap.String("order", order.ID.String()))
		// Compensating revert, not a true rollback: reopen the order
		// so a retried notification can complete the credit.
		if _, rerr := s.repo.TryTransitionOrder(ctx, order.ID,
			domain.PaymentStatusSuccess, domain.PaymentStatusNotPaid); rerr != nil {
			s.logger.Error("Revert order after credit failure", zap.Error(rerr),
				zap.String("order", order.ID.String()))
		}
		return domain.ErrInternal
	}

	if inviter != nil {
		s.dispatchCommission(inviter, user, order)
	}

	return nil
}

// closeStaleOrder handles a failure-code notification: orders older
// than the staleness window are closed best-effort, fresh ones are
// left NOT_PAID because the gateway may still retry with a success.
func (s *Service) closeStaleOrder(ctx context.Context, order *domain.Order) error {
	if s.clock.Now().Sub(order.CreatedAt) <= domain.StalenessWindow {
		return domain.ErrPrematureNotification
	}

	applied, err := s.repo.TryTransitionOrder(ctx, order.ID,
		domain.PaymentStatusNotPaid, domain.PaymentStatusClosed)
	if err != nil {
		s.logger.Error("Close stale order", zap.Error(err),
			zap.String("order", order.ID.String()))
	} else if applied {
		s.logger.Info("Closed stale order", zap.String("tradeNo", order.TradeNo))
	}
	return nil
}

// dispatchCommission fires the promotion credit for the inviter.
// Failures are logged and swallowed: commission must never fail the
// payment acknowledgement.
func (s *Service) dispatchCommission(inviter *domain.User, payer *domain.User, order *domain.Order) {
	amount, err := commissionAmount(order.Price, inviter.PromotionRate)
	if err != nil {
		s.logger.Error("Compute commission", zap.Error(err))
		return
	}

	go func() {
		err := s.promotion.NotifyInviteCommission(context.Background(),
			inviter.ID, payer.ID, amount)
		if err != nil {
			s.logger.Error("Dispatch commission", zap.Error(err),
				zap.String("inviter", inviter.ID.String()))
		}
	}()
}

// commissionAmount converts the scaled price back to nominal units and
// applies the inviter's percentage rate.
func commissionAmount(price int64, rate int64) (decimal.Decimal, error) {
	nominal, err := decimal.NewFromInt64(price, 0, 0)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("price decimal: %w", err)
	}
	scale := decimal.MustNew(domain.PriceScale, 0)
	nominal, err = nominal.Quo(scale)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("price scaling: %w", err)
	}

	percent, err := decimal.NewFromInt64(rate, 0, 0)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("rate decimal: %w", err)
	}

	amount, err := nominal.Mul(percent)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("commission math: %w", err)
	}
	amount, err = amount.Quo(decimal.Hundred)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("commission math: %w", err)
	}

	return amount, nil
}
