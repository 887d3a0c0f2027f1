package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"globomart/internal/auth"
	"globomart/internal/config"
	"globomart/internal/database"
	"globomart/internal/events"
	"globomart/internal/handler"
	"globomart/internal/mailer"
	"globomart/internal/middleware"
	"globomart/internal/payment"
	"globomart/internal/repository"
	"globomart/internal/router"
	"globomart/internal/service"
	"globomart/internal/storage"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// envFiles are loaded, when present, before the configuration is read.
// Variables already set in the environment win.
var envFiles = []string{"config/config.env", ".env"}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("env", cfg.Server.Env).Msg("starting globomart API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	reviewRepo := repository.NewReviewRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	eventRepo := repository.NewProcessedEventRepository(pool, logger)

	// Image storage: S3 when enabled, local disk otherwise
	store, uploadsDir, err := newStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize image storage: %w", err)
	}

	// Order events
	var publisher events.Publisher
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	} else {
		publisher = events.NewNopPublisher(logger)
		logger.Info().Msg("order event publishing disabled")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	// Outgoing mail
	var m mailer.Mailer
	if cfg.Mail.Enabled {
		m, err = mailer.NewAMQPMailer(cfg.Mail.AMQPURL, cfg.Mail.Queue, cfg.Mail.From, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize mailer: %w", err)
		}
	} else {
		m = mailer.NewLogMailer(logger)
		logger.Info().Msg("mail delivery disabled, messages will be logged")
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close mailer")
		}
	}()

	gateway := payment.NewStripeGateway(cfg.Stripe, cfg.Server.FrontendURL, logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)

	// Initialize services
	productService := service.NewProductService(productRepo, reviewRepo, orderRepo, store, cfg.Catalog.PageSize, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, publisher, logger)
	userService := service.NewUserService(userRepo, tokens, store, m, cfg.Auth.ResetTokenTTL, logger)
	paymentService := service.NewPaymentService(gateway, orderRepo, productRepo, eventRepo, publisher, logger)
	salesService := service.NewSalesService(orderRepo, logger)

	// Initialize HTTP handlers
	dev := cfg.Server.IsDevelopment()
	cookieExpiry := time.Duration(cfg.Auth.CookieExpiryDays) * 24 * time.Hour
	handlers := router.Handlers{
		Product: handler.NewProductHandler(productService, dev, logger),
		Order:   handler.NewOrderHandler(orderService, dev, logger),
		User:    handler.NewUserHandler(userService, cookieExpiry, cfg.Server.FrontendURL, dev, logger),
		Payment: handler.NewPaymentHandler(paymentService, dev, logger),
		Sales:   handler.NewSalesHandler(salesService, dev, logger),
	}

	// Initialize router
	mux := router.New(
		handlers,
		middleware.NewAuth(userService, dev, logger),
		router.Options{AllowedOrigin: cfg.Server.FrontendURL, UploadsDir: uploadsDir},
		logger,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newStore picks the image store. When S3 is disabled images are written to
// cfg.S3.LocalDir, which is returned so the router can serve it.
func newStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.Store, string, error) {
	if cfg.S3.Enabled {
		store, err := storage.NewS3Store(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix, cfg.S3.PublicBaseURL, logger)
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	}

	baseURL := cfg.S3.PublicBaseURL
	if baseURL == "" {
		baseURL = router.UploadsPath
	}
	logger.Info().Str("dir", cfg.S3.LocalDir).Msg("using local file system for images (S3 disabled)")
	return storage.NewDiskStore(cfg.S3.LocalDir, baseURL, logger), cfg.S3.LocalDir, nil
}
