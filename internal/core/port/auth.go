package port

import (
	"github.com/google/uuid"
	"github.com/qpaydev/recharge/internal/core/domain"
)

type TokenPayload struct {
	UserID uuid.UUID
}

//go:generate mockgen -source=auth.go -destination=mock/auth.go -package=mock
type TokenService interface {
	CreateToken(user *domain.User) (string, error)
	VerifyToken(token string) (*TokenPayload, error)
}
