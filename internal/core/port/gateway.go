package port

import (
	"context"
)

//go:generate mockgen -source=gateway.go -destination=mock/gateway.go -package=mock
type PaymentGateway interface {
	// NativePay registers a payment of amountFen (smallest currency
	// unit) under tradeNo with the gateway and returns an opaque QR
	// code URL for the client to scan.
	NativePay(ctx context.Context, tradeNo string, amountFen int64) (string, error)
}
