package main

import (
	"context"
	"fmt"

	"github.com/qpaydev/recharge/internal/adapter/auth"
	"github.com/qpaydev/recharge/internal/adapter/client/gateway"
	"github.com/qpaydev/recharge/internal/adapter/client/promotion"
	"github.com/qpaydev/recharge/internal/adapter/config"
	"github.com/qpaydev/recharge/internal/adapter/handler/http"
	"github.com/qpaydev/recharge/internal/adapter/logger"
	"github.com/qpaydev/recharge/internal/adapter/storage"
	"github.com/qpaydev/recharge/internal/adapter/storage/repository"
	"github.com/qpaydev/recharge/internal/core/clock"
	"github.com/qpaydev/recharge/internal/core/service"
	"github.com/qpaydev/recharge/internal/core/sign"
	"go.uber.org/zap"
)

func main() {
	conf, err := config.NewConfig()
	if err != nil {
		fmt.Printf("config error:%s", err)
		return
	}

	log := logger.NewLogger(conf.App)
	if log == nil {
		fmt.Printf("error creating log")
		return
	}
	defer func() {
		err := log.Sync()
		if err != nil {
			fmt.Printf("log error: %s", err)
		}
	}()

	ctx := context.Background()

	db, err := storage.NewDBStorage(ctx, conf.Database)
	if err != nil {
		log.Error("database error", zap.Error(err))
		return
	}
	err = db.RunMigrations()
	if err != nil {
		log.Error("database migration error", zap.Error(err))
		return
	}

	repo, err := repository.NewRepository(db)
	if err != nil {
		log.Error("repository creating error", zap.Error(err))
		return
	}
	tokenService, err := auth.New()
	if err != nil {
		log.Error("token service creating error", zap.Error(err))
		return
	}

	verifier := sign.NewVerifier(conf.Pay.PayKey,
		"orderNo", "outTradeNo", "payNo", "money", "mchId", "code")

	payGateway, err := gateway.NewClient(conf.Pay, verifier, log.Named("Gateway"))
	if err != nil {
		log.Error("gateway client creating error", zap.Error(err))
		return
	}

	promotionClient, err := promotion.NewClient(conf.Promotion, log.Named("Promotion"))
	if err != nil {
		log.Error("promotion client creating error", zap.Error(err))
		return
	}

	svc, err := service.NewService(repo, tokenService, payGateway, promotionClient,
		verifier, clock.NewSystem(), log.Named("Service"))
	if err != nil {
		log.Error("service creating error", zap.Error(err))
		return
	}

	userHandler, err := http.NewUserHandler(svc, log.Named("User handler"))
	if err != nil {
		log.Error("user handler creating error", zap.Error(err))
		return
	}
	paymentHandler, err := http.NewPaymentHandler(svc, log.Named("Payment handler"))
	if err != nil {
		log.Error("payment handler creating error", zap.Error(err))
		return
	}
	notifyHandler, err := http.NewNotifyHandler(svc, log.Named("Notify handler"))
	if err != nil {
		log.Error("notify handler creating error", zap.Error(err))
		return
	}

	r, err := http.NewRouter(conf.HTTP, tokenService,
		userHandler, paymentHandler, notifyHandler, log.Named("Router"))
	if err != nil {
		log.Error("router creating error", zap.Error(err))
		return
	}

	err = r.Serve(conf.HTTP.HostString)
	if err != nil {
		log.Error("router serve error", zap.Error(err))
		return
	}
}
