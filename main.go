package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ticket_engine/config"
	"ticket_engine/database"
	"ticket_engine/ecpay"
	"ticket_engine/handler"
	"ticket_engine/helper"
	"ticket_engine/notify"
	"ticket_engine/router"
	"ticket_engine/service"
	"ticket_engine/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := utils.NewLogger(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	db, err := database.Connect(cfg.Database, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	if cfg.Server.Environment == "development" {
		database.SeedData(db, logger)
	}

	var bus notify.Bus = notify.NopBus{}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unavailable, events disabled", zap.Error(err))
		} else {
			bus = notify.NewRedisBus(rdb, logger)
			defer rdb.Close()
		}
	}

	loc := cfg.Engine.Location()
	gateway := ecpay.New(cfg.ECPay, loc)

	h := handler.New(handler.Services{
		Reservations: service.NewReservationService(db, bus, logger, cfg.Engine.HoldDuration),
		Checkouts:    service.NewCheckoutService(db, gateway, logger),
		Webhooks:     service.NewWebhookService(db, gateway, service.NewTicketIssuer(), bus, logger),
		Redemptions:  service.NewRedemptionService(db, logger, cfg.Engine.RedeemAdvanceWindow),
		Refunds:      service.NewRefundService(db, gateway, bus, logger),
		Orders:       service.NewOrderService(db),
	}, bus, logger)

	sweeper := helper.NewHoldSweeper(service.NewHoldReclaimer(db, bus, logger, cfg.Engine.HoldSweepGrace), logger)
	if err := sweeper.Start(cfg.Engine.HoldSweepInterval, loc); err != nil {
		logger.Fatal("hold sweeper", zap.Error(err))
	}

	app := fiber.New(fiber.Config{BodyLimit: cfg.Server.BodyLimit})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	router.SetupRoutes(app, h, cfg)

	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := sweeper.Stop(); err != nil {
		logger.Warn("stop hold sweeper", zap.Error(err))
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}
