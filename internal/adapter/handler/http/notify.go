package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qpaydev/recharge/internal/core/domain"
	"github.com/qpaydev/recharge/internal/core/port"
	"go.uber.org/zap"
)

type NotifyHandler struct {
	Handler
	service port.Service
}

func NewNotifyHandler(service port.Service, logger *zap.Logger) (*NotifyHandler, error) {
	return &NotifyHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

// notifyRequest is the raw gateway callback. Every field is required;
// binding failures never reach the engine.
type notifyRequest struct {
	OrderNo    string `form:"orderNo" binding:"required"`
	OutTradeNo string `form:"outTradeNo" binding:"required"`
	PayNo      string `form:"payNo" binding:"required"`
	Money      string `form:"money" binding:"required"`
	MchID      string `form:"mchId" binding:"required"`
	Code       string `form:"code" binding:"required"`
	Sign       string `form:"sign" binding:"required"`
}

// HandleNotify is the gateway's callback endpoint. A bad signature
// gets 400; processing errors get 500 so the gateway redelivers;
// everything reconciled (including duplicates) gets a SUCCESS body.
func (nh *NotifyHandler) HandleNotify(ctx *gin.Context) {
	req := notifyRequest{}
	if err := ctx.ShouldBind(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid signature"})
		return
	}

	n := domain.PaymentNotification{
		OrderNo:    req.OrderNo,
		OutTradeNo: req.OutTradeNo,
		PayNo:      req.PayNo,
		Money:      req.Money,
		MchID:      req.MchID,
		Code:       req.Code,
		Sign:       req.Sign,
	}

	err := nh.service.HandleNotification(ctx, n)
	switch {
	case err == nil:
		ctx.JSON(http.StatusOK, gin.H{"message": "SUCCESS"})
	case errors.Is(err, domain.ErrInvalidSignature):
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid signature"})
	default:
		nh.logger.Error("notification processing failed",
			zap.String("tradeNo", req.OutTradeNo), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
