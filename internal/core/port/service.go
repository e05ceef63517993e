package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/qpaydev/recharge/internal/core/domain"
)

// PaymentIntent is what the client needs to complete a payment: the
// internal order id to poll and the QR code URL obtained from the
// gateway.
type PaymentIntent struct {
	PaymentID uuid.UUID
	CodeURL   string
}

//go:generate mockgen -source=service.go -destination=mock/service.go -package=mock
type Service interface {
	RegisterUser(ctx context.Context, user *domain.User) (*domain.User, error)
	LoginUser(ctx context.Context, login string, password string) (string, error)

	CreatePayment(ctx context.Context, userID uuid.UUID, amountYuan int64) (*PaymentIntent, error)
	CheckPayment(ctx context.Context, userID uuid.UUID, paymentID uuid.UUID) (*domain.Order, error)
	ListPayments(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	GetUserBalance(ctx context.Context, userID uuid.UUID) (int64, error)

	HandleNotification(ctx context.Context, n domain.PaymentNotification) error
}
