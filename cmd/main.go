package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	handler "stock-notification-service/app/handler/api"
	"stock-notification-service/app/middleware"
	"stock-notification-service/app/repository/broker"
	"stock-notification-service/app/repository/db"
	"stock-notification-service/app/repository/mailer"
	"stock-notification-service/app/usecase"
	"stock-notification-service/config"
	"stock-notification-service/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	slogfiber "github.com/samber/slog-fiber"
)

func main() {
	// init logger
	logger.InitLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init config
	cfg, err := config.InitConfig(ctx)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		return
	}

	// init database
	dbConn, err := db.NewPostgres(ctx, cfg.Db)
	if err != nil {
		slog.Error("DB connection failed", "error", err)
		return
	}
	defer dbConn.Close()

	nc, err := nats.Connect(cfg.Nats.Url)
	if err != nil {
		slog.Error("Error connecting to NATS", "error", err)
		return
	}
	defer nc.Drain()

	js, err := jetstream.New(nc)
	if err != nil {
		slog.Error("Error creating JetStream context", "error", err)
		return
	}
	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:     strings.ToUpper(cfg.Nats.StreamName),
		Subjects: []string{fmt.Sprintf("%s.*", strings.ToLower(cfg.Nats.StreamName))},
		Storage:  jetstream.FileStorage,
	})
	if err != nil && !errors.Is(err, jetstream.ErrStreamNameAlreadyInUse) {
		slog.Error("create stream failed", "stream", cfg.Nats.StreamName, "error", err)
		return
	}

	reqValidator := validator.New()
	stockRepo := db.NewStockRepository(dbConn)
	productRepo := db.NewProductRepository(dbConn)
	userRepo := db.NewUserRepository(dbConn)
	notificationRepo := db.NewProductNotificationRepository(dbConn)
	stockBroker := broker.NewStockBrokerPublisher(js, cfg.Nats.StreamName)
	notifier := mailer.NewSmtpNotifier(cfg.Smtp)

	dispatchUsecase := usecase.NewDispatchUsecase(notificationRepo, productRepo, userRepo, notifier, cfg)
	stockUsecase := usecase.NewStockUsecase(stockRepo, dispatchUsecase, stockBroker, cfg)
	notificationUsecase := usecase.NewProductNotificationUsecase(notificationRepo, productRepo)

	stockLevelConsumer := broker.NewStockLevelConsumer(js, dispatchUsecase, reqValidator, cfg.Nats.StreamName)
	if err := stockLevelConsumer.Start(ctx); err != nil {
		slog.Error("start stock level consumer failed", "error", err)
		return
	}
	defer stockLevelConsumer.Stop()

	stockHandler := handler.NewStockHandler(stockUsecase, reqValidator)
	stockEventHandler := handler.NewStockEventHandler(dispatchUsecase, reqValidator)
	notificationHandler := handler.NewProductNotificationHandler(notificationUsecase, reqValidator)

	// Initialize HTTP web framework
	app := fiber.New()
	app.Use(healthcheck.New(healthcheck.Config{
		LivenessProbe: func(c *fiber.Ctx) bool {
			return true
		},
		LivenessEndpoint: "/live",
		ReadinessProbe: func(c *fiber.Ctx) bool {
			return dbConn.PingContext(c.Context()) == nil && nc.IsConnected()
		},
		ReadinessEndpoint: "/ready",
	}))
	app.Use(slogfiber.New(logger.New(os.Stdout, slog.LevelInfo)))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(middleware.RequestIDMiddleware())

	handler.SetupRouter(app, stockHandler, stockEventHandler, notificationHandler, cfg)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("Failed to listen", "port", cfg.Port, "error", err)
			return
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.Info("Gracefully shutdown")
	cancel()
	err = app.Shutdown()
	if err != nil {
		slog.Warn("Unfortunately the shutdown wasn't smooth", "err", err)
	}
}
