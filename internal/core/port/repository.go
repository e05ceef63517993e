package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/qpaydev/recharge/internal/core/domain"
)

//go:generate mockgen -source=repository.go -destination=mock/repository.go -package=mock
type Repository interface {
	// User
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByLogin(ctx context.Context, login string) (*domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// Order
	CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	ReadOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ReadOrderByTradeNo(ctx context.Context, tradeNo string) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)

	// TryTransitionOrder atomically moves the order from the expected
	// status to the new one. It reports false when the order was not in
	// the expected status, in particular when a concurrent caller won
	// the same transition. At most one caller ever observes true for a
	// given (id, from, to).
	TryTransitionOrder(ctx context.Context, id uuid.UUID,
		from domain.PaymentStatus, to domain.PaymentStatus) (bool, error)

	// CreditBalance adds amount to the user's balance as a single
	// atomic increment. Safe under concurrent credits.
	CreditBalance(ctx context.Context, userID uuid.UUID, amount int64) error
}
