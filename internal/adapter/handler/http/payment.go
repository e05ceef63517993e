package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/qpaydev/recharge/internal/core/port"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	Handler
	service port.Service
}

func NewPaymentHandler(service port.Service, logger *zap.Logger) (*PaymentHandler, error) {
	return &PaymentHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type createPaymentRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type createPaymentResponse struct {
	PayID   string `json:"payId"`
	CodeURL string `json:"codeUrl"`
}

func (ph *PaymentHandler) CreatePayment(ctx *gin.Context) {
	req := createPaymentRequest{}
	err := ctx.ShouldBindBodyWithJSON(&req)
	if err != nil {
		ph.handleValidationError(ctx, err)
		return
	}

	userID := getAuthPayload(ctx).UserID

	intent, err := ph.service.CreatePayment(ctx, userID, req.Amount)
	if err != nil {
		ph.handleError(ctx, err)
		return
	}

	ph.handleSuccess(ctx, createPaymentResponse{
		PayID:   intent.PaymentID.String(),
		CodeURL: intent.CodeURL,
	})
}

func (ph *PaymentHandler) CheckPayment(ctx *gin.Context) {
	payID, err := uuid.Parse(ctx.Param("payId"))
	if err != nil {
		ph.handleValidationError(ctx, err)
		return
	}

	userID := getAuthPayload(ctx).UserID

	_, err = ph.service.CheckPayment(ctx, userID, payID)
	if err != nil {
		ph.handleError(ctx, err)
		return
	}

	ph.handleSuccess(ctx, gin.H{"message": "paid"})
}

type paymentResp struct {
	PayID     string    `json:"payId"`
	Price     int64     `json:"price"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (ph *PaymentHandler) ListPayments(ctx *gin.Context) {
	userID := getAuthPayload(ctx).UserID

	list, err := ph.service.ListPayments(ctx, userID)
	if err != nil {
		ph.handleError(ctx, err)
		return
	}

	result := make([]paymentResp, 0, len(list))
	for _, o := range list {
		result = append(result, paymentResp{
			PayID:     o.ID.String(),
			Price:     o.Price,
			Status:    string(o.Status),
			CreatedAt: o.CreatedAt,
		})
	}

	ph.handleSuccess(ctx, result)
}

type balanceResponse struct {
	Balance int64 `json:"balance"`
}

func (ph *PaymentHandler) UserBalance(ctx *gin.Context) {
	userID := getAuthPayload(ctx).UserID

	balance, err := ph.service.GetUserBalance(ctx, userID)
	if err != nil {
		ph.handleError(ctx, err)
		return
	}

	ph.handleSuccess(ctx, balanceResponse{Balance: balance})
}
