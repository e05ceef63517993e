package http

import (
	"github.com/gin-gonic/gin"
	"github.com/qpaydev/recharge/internal/adapter/config"
	"github.com/qpaydev/recharge/internal/core/port"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type Router struct {
	*gin.Engine
}

func NewRouter(
	conf *config.HTTP,
	tokenService port.TokenService,
	userHandler *UserHandler,
	paymentHandler *PaymentHandler,
	notifyHandler *NotifyHandler,
	logger *zap.Logger) (*Router, error) {

	router := gin.New()
	router.Use(gin.Recovery())

	// Swagger
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	{
		// The gateway calls back without our auth tokens.
		api.POST("/pay/notify", notifyHandler.HandleNotify)

		user := api.Group("/user")
		{
			user.POST("/register", userHandler.RegisterUser)
			user.POST("/login", userHandler.LoginUser)

			authorized := user.Group("")
			{
				authorized.Use(authCheck(tokenService, NewHandler(logger)))
				authorized.POST("/pay", paymentHandler.CreatePayment)
				authorized.GET("/pay/:payId", paymentHandler.CheckPayment)
				authorized.GET("/payments", paymentHandler.ListPayments)
				authorized.GET("/balance", paymentHandler.UserBalance)
			}
		}
	}

	return &Router{router}, nil
}

// Serve starts the HTTP server
func (r *Router) Serve(listenAddr string) error {
	return r.Run(listenAddr)
}
