package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"roombooking-backend/config"
	"roombooking-backend/internal/api"
	"roombooking-backend/internal/auth"
	"roombooking-backend/internal/booking"
	"roombooking-backend/internal/clock"
	"roombooking-backend/internal/db"
	"roombooking-backend/internal/logging"
	"roombooking-backend/internal/notification"
	"roombooking-backend/internal/roomcache"
	"roombooking-backend/internal/store"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("configuration loaded", zap.String("path", configPath))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("roombookd stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	} else {
		logger.Warn("VAPID keys are not configured; web push is disabled")
	}

	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	appStore := store.NewGormStore(gormDB)

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := clock.NewSystem()

	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, clk)
	if err != nil {
		return fmt.Errorf("failed to configure tokens: %w", err)
	}

	workers := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, appStore, webpushOptions, logger.Named("push"))
	if cfg.Push.FCMCredentials != "" {
		fcm, err := notification.NewFCMClient(ctx, cfg.Push.FCMCredentials)
		if err != nil {
			return err
		}
		workers.SetMobileSender(fcm)
		logger.Info("mobile push enabled")
	}
	workers.Start(ctx)

	bookingSvc := booking.NewService(appStore, clk,
		booking.WithPendingBlocks(cfg.Reservations.PendingBlocks),
		booking.WithMaxDuration(cfg.Reservations.MaxDuration),
		booking.WithNotifier(workers),
		booking.WithLogger(logger.Named("booking")),
	)

	handler := api.NewHandler(api.Deps{
		Store:      appStore,
		Booking:    bookingSvc,
		Issuer:     issuer,
		Rooms:      roomcache.New(time.Duration(cfg.RoomCache.TTLSeconds)*time.Second, cfg.RoomCache.Capacity, clk),
		WebPush:    webpushOptions,
		Clock:      clk,
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger.Named("api"),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(handler, cfg.Server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutdown signal received, stopping services")
	case err := <-serverErr:
		return fmt.Errorf("HTTP server ListenAndServe: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server Shutdown: %w", err)
	}

	cancel()
	workers.Wait()

	logger.Info("server gracefully stopped")
	return nil
}
