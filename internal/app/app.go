package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AnkitRegmi1/TruSwap/internal/adapter/client"
	"github.com/AnkitRegmi1/TruSwap/internal/adapter/email"
	memoryadapter "github.com/AnkitRegmi1/TruSwap/internal/adapter/memory"
	natsadapter "github.com/AnkitRegmi1/TruSwap/internal/adapter/nats"
	redisadapter "github.com/AnkitRegmi1/TruSwap/internal/adapter/redis"
	"github.com/AnkitRegmi1/TruSwap/internal/adapter/state"
	"github.com/AnkitRegmi1/TruSwap/internal/adapter/storage/s3"
	"github.com/AnkitRegmi1/TruSwap/internal/app/config"
	"github.com/AnkitRegmi1/TruSwap/internal/platform/logger"
	"github.com/AnkitRegmi1/TruSwap/internal/platform/metrics"
	"github.com/AnkitRegmi1/TruSwap/internal/platform/notifier"
	"github.com/AnkitRegmi1/TruSwap/internal/platform/tracer"
	httpserver "github.com/AnkitRegmi1/TruSwap/internal/port/http"
	"github.com/AnkitRegmi1/TruSwap/internal/repository"
	"github.com/AnkitRegmi1/TruSwap/internal/service"
	natsgo "github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type App struct {
	cfg    *config.Config
	log    logger.Logger
	server *httpserver.Server

	Listings service.ListingService
	Payments service.PaymentService
	Wishlist service.WishlistService
	Groups   service.GroupService
	Orders   service.OrderService
	Recovery service.AuthRecoveryService
	Inquiry  service.InquiryService

	redisClient    *redis.Client
	natsConn       *natsgo.Conn
	wishlistBridge *natsadapter.WishlistBridge
	tracerProvider *sdktrace.TracerProvider
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	logCfg := logger.ZapLoggerConfig{
		Level:      cfg.Logger.Level,
		Encoding:   cfg.Logger.Encoding,
		TimeFormat: cfg.Logger.TimeFormat,
	}
	appLogger, err := logger.NewZapLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	appLogger.Info("Logger initialized")
	appLogger.Infof("Configuration loaded: Env=%s, HTTP Port: %s", cfg.Env, cfg.HTTP.Port)

	var tp *sdktrace.TracerProvider
	if cfg.Tracer.Enabled {
		tp = tracer.InitTracer(cfg.Tracer.Endpoint)
		appLogger.Info("Tracer initialized")
	}

	// The profile state prefers Redis; without it a fresh in-memory
	// profile still gives a fully working single-run session.
	var stateRepo repository.ProfileStateRepository
	redisClient, err := redisadapter.NewClient(ctx, cfg.Redis)
	if err != nil {
		appLogger.Warnf("Redis unavailable (%v), falling back to in-memory profile state", err)
		redisClient = nil
		stateRepo = memoryadapter.NewProfileStateRepository()
	} else {
		appLogger.Info("Redis client initialized successfully")
		stateRepo = redisadapter.NewProfileStateRepository(redisClient)
	}

	wishlistNotifier := notifier.New()
	wishlistRepo := state.NewWishlistRepository(stateRepo, appLogger)

	var natsConn *natsgo.Conn
	var bridge *natsadapter.WishlistBridge
	natsConn, err = natsadapter.NewConnection(cfg.NATS, appLogger)
	if err != nil {
		appLogger.Warnf("NATS unavailable (%v), wishlist changes stay instance-local", err)
		natsConn = nil
	} else {
		bridge, err = natsadapter.NewWishlistBridge(natsConn, wishlistNotifier, appLogger)
		if err != nil {
			appLogger.Warnf("Failed to start wishlist bridge: %v", err)
			bridge = nil
		} else {
			appLogger.Info("Wishlist bridge initialized")
		}
	}

	apiClient := client.NewClient(cfg.API.BaseURL, cfg.API.Timeout, appLogger)
	appLogger.Infof("API client initialized for %s", cfg.API.BaseURL)

	var uploader service.ImageUploader
	s3Storage, err := s3.NewS3Storage(cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.Bucket, cfg.MinIO.UseSSL, appLogger)
	if err != nil {
		appLogger.Warnf("Image storage unavailable (%v), listings post without images", err)
	} else {
		uploader = s3Storage
	}

	var inquirySvc service.InquiryService
	emailSender, err := email.NewSMTPSender(cfg.SMTP, appLogger)
	if err != nil {
		appLogger.Warnf("SMTP not configured (%v), seller inquiries disabled", err)
	} else {
		inquirySvc = service.NewInquiryService(emailSender, appLogger)
	}

	metricsManager := metrics.NewManager("truswap")

	ledger := service.NewMemorySettlementLedger()
	paymentSvc := service.NewPaymentService(apiClient, ledger, stateRepo, nil, metricsManager, appLogger, service.PaymentServiceConfig{
		Origin:            cfg.Auth0.Origin,
		ConfirmationDelay: cfg.Payment.ConfirmationDelay,
	})
	listingSvc := service.NewListingService(apiClient, uploader, stateRepo, appLogger)
	groupSvc := service.NewGroupService(apiClient, appLogger)
	orderSvc := service.NewOrderService(apiClient, appLogger)
	recoverySvc := service.NewAuthRecoveryService(stateRepo, nil, metricsManager, appLogger, service.AuthRecoveryConfig{
		Domain:   cfg.Auth0.Domain,
		ClientID: cfg.Auth0.ClientID,
		Origin:   cfg.Auth0.Origin,
	})

	var broadcaster service.WishlistBroadcaster
	if bridge != nil {
		broadcaster = bridge
	}
	wishlistSvc := service.NewWishlistService(wishlistRepo, wishlistNotifier, broadcaster, appLogger)

	handler := httpserver.NewHandler(paymentSvc, recoverySvc, appLogger)
	router := httpserver.NewRouter(handler, metricsManager.Handler(), appLogger)
	srv := httpserver.NewServer(appLogger, cfg.HTTP, router)
	appLogger.Info("HTTP server instance created")

	return &App{
		cfg:            cfg,
		log:            appLogger,
		server:         srv,
		Listings:       listingSvc,
		Payments:       paymentSvc,
		Wishlist:       wishlistSvc,
		Groups:         groupSvc,
		Orders:         orderSvc,
		Recovery:       recoverySvc,
		Inquiry:        inquirySvc,
		redisClient:    redisClient,
		natsConn:       natsConn,
		wishlistBridge: bridge,
		tracerProvider: tp,
	}, nil
}

func (a *App) Run() {
	a.log.Info("Starting application components...")

	go func() {
		if err := a.server.Start(); err != nil {
			a.log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()
	a.log.Info("HTTP server started in a goroutine")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit
	a.log.Infof("Received shutdown signal: %v. Shutting down application...", receivedSignal)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.TimeoutGraceful+5*time.Second)
	defer cancel()

	if err := a.server.Stop(shutdownCtx); err != nil {
		a.log.Errorf("Error during HTTP server graceful shutdown: %v", err)
	} else {
		a.log.Info("HTTP server stopped successfully")
	}

	a.log.Info("Closing connections...")

	if a.wishlistBridge != nil {
		a.wishlistBridge.Close()
	}
	if a.natsConn != nil {
		a.natsConn.Close()
		a.log.Info("NATS connection closed")
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Errorf("Error closing Redis client: %v", err)
		} else {
			a.log.Info("Redis client closed successfully")
		}
	}
	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(shutdownCtx); err != nil {
			a.log.Errorf("Error shutting down tracer provider: %v", err)
		}
	}

	a.log.Info("Application shut down successfully")
}
