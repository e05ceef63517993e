package domain

import (
	"time"

	"github.com/google/uuid"
)

// User balance is kept in the same scaled unit as Order.Price and is
// mutated only through atomic increments. PromotionRate is the percent
// of an invited user's payment credited to this user as commission.
type User struct {
	ID            uuid.UUID
	Login         string
	Password      string
	Balance       int64
	InviterID     *uuid.UUID
	PromotionRate int64
	CreatedAt     time.Time
}
