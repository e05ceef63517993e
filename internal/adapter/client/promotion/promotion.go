// Package promotion records invite commissions with the promotion
// ledger service. The engine calls it fire-and-forget: an unreachable
// ledger loses the commission record, never the payment.
package promotion

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/qpaydev/recharge/internal/adapter/config"
	"go.uber.org/zap"
)

type Client struct {
	client *resty.Client
	logger *zap.Logger
}

func NewClient(cfg *config.Promotion, log *zap.Logger) (*Client, error) {
	return &Client{
		client: resty.New().SetBaseURL(cfg.Address),
		logger: log,
	}, nil
}

type promotionRecord struct {
	UserID string `json:"userId"`
	ObjUID string `json:"objUId"`
	Type   string `json:"type"`
	Amount string `json:"amount"`
}

func (c *Client) NotifyInviteCommission(ctx context.Context,
	inviterID uuid.UUID, payingUserID uuid.UUID, amount decimal.Decimal) error {
	record := promotionRecord{
		UserID: inviterID.String(),
		ObjUID: payingUserID.String(),
		Type:   "invite",
		Amount: amount.String(),
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(record).
		Post("/api/promotion/records")
	if err != nil {
		return fmt.Errorf("promotion record request: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("promotion record: unexpected status %d", resp.StatusCode())
	}

	c.logger.Debug("Recorded invite commission",
		zap.String("inviter", inviterID.String()), zap.String("amount", amount.String()))

	return nil
}
