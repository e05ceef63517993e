package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
)

//go:generate mockgen -source=promotion.go -destination=mock/promotion.go -package=mock
type CommissionNotifier interface {
	// NotifyInviteCommission records a promotion credit of amount
	// (nominal currency units) for the inviter, caused by a payment of
	// the invited user. Best-effort: failures are logged by the caller
	// and never affect the payment itself.
	NotifyInviteCommission(ctx context.Context,
		inviterID uuid.UUID, payingUserID uuid.UUID, amount decimal.Decimal) error
}
