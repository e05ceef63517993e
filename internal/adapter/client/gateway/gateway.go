// Package gateway talks to the external payment gateway. The gateway
// accepts a native-pay registration and answers with a QR code URL the
// client scans to pay; reconciliation happens later through the notify
// callback, not here.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/govalues/decimal"
	"github.com/qpaydev/recharge/internal/adapter/config"
	"github.com/qpaydev/recharge/internal/core/sign"
	"go.uber.org/zap"
)

const payBody = "recharge"

type Client struct {
	client    *resty.Client
	signer    *sign.Verifier
	mchID     string
	notifyURL string
	logger    *zap.Logger
}

func NewClient(cfg *config.Pay, signer *sign.Verifier, log *zap.Logger) (*Client, error) {
	return &Client{
		client:    resty.New().SetBaseURL(cfg.GatewayAddress),
		signer:    signer,
		mchID:     cfg.MchID,
		notifyURL: cfg.NotifyURL,
		logger:    log,
	}, nil
}

type nativePayResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data string `json:"data"`
}

// NativePay registers the payment and returns the QR code URL. The
// gateway wants the amount in nominal units, so amountFen is scaled
// back before the request.
func (c *Client) NativePay(ctx context.Context, tradeNo string, amountFen int64) (string, error) {
	fen, err := decimal.NewFromInt64(amountFen, 0, 0)
	if err != nil {
		return "", fmt.Errorf("amount decimal: %w", err)
	}
	money, err := fen.Quo(decimal.Hundred)
	if err != nil {
		return "", fmt.Errorf("amount scaling: %w", err)
	}

	params := map[string]string{
		"mch_id":       c.mchID,
		"out_trade_no": tradeNo,
		"money":        money.String(),
		"body":         payBody,
		"notify_url":   c.notifyURL,
	}
	params["sign"] = c.signer.Sign(params)

	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(params).
		Post("/api/pay/wxpay/nativePay")
	if err != nil {
		return "", fmt.Errorf("native pay request: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("native pay: unexpected status %d", resp.StatusCode())
	}

	var result nativePayResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("native pay response decode: %w", err)
	}
	if result.Code != 0 {
		return "", fmt.Errorf("native pay rejected: %s", result.Msg)
	}

	c.logger.Debug("Registered native pay",
		zap.String("tradeNo", tradeNo), zap.String("money", money.String()))

	return result.Data, nil
}
