package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusNotPaid PaymentStatus = "NOT_PAID"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusClosed  PaymentStatus = "CLOSED"
)

// PriceScale converts nominal currency units (yuan) to the integer
// unit stored in orders and balances: 1 yuan = 100 stored units.
const PriceScale = 100

// StalenessWindow is how long an unpaid order is protected from being
// closed by a failure-code notification. A retry from the gateway may
// still turn into a success inside this window.
const StalenessWindow = 24 * time.Hour

// Order tracks one recharge attempt. TradeNo is the external reference
// handed to the gateway at creation time; inbound notifications
// correlate back to the order through it. Status is monotonic: once
// SUCCESS or CLOSED it never changes again.
type Order struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TradeNo   string
	Price     int64
	Status    PaymentStatus
	CreatedAt time.Time
}
