package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	awspkg "github.com/pheebyy/carelink/pkg/aws"
	"github.com/pheebyy/carelink/pkg/docstore"
	ddb "github.com/pheebyy/carelink/pkg/dynamodb"
	"github.com/pheebyy/carelink/services/common/auth"
	apperrors "github.com/pheebyy/carelink/services/common/errors"
	applog "github.com/pheebyy/carelink/services/common/logger"
	"github.com/pheebyy/carelink/services/common/middleware"
	"github.com/pheebyy/carelink/services/payment-service/config"
	"github.com/pheebyy/carelink/services/payment-service/controllers"
	"github.com/pheebyy/carelink/services/payment-service/providers"
	"github.com/pheebyy/carelink/services/payment-service/routes"
	"github.com/pheebyy/carelink/services/payment-service/services"
)

const serviceName = "payment-service"

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("[PaymentService] failed to load config: %v", err)
	}

	ctx := context.Background()

	// AWS is optional locally: without it SNS, metrics and Secrets Manager are disabled
	awsCfg, awsErr := awspkg.LoadAWSConfig(ctx)

	var cwWriter io.Writer
	if awsErr == nil {
		if cw, err := awspkg.NewCloudWatchLogsClient(ctx, awsCfg, serviceName); err != nil {
			log.Printf("[PaymentService] CloudWatch Logs disabled: %v", err)
		} else if cw.IsEnabled() {
			cwWriter = cw
		}
	}
	logger := applog.MustNew(cfg.AppEnv, cwWriter)
	defer logger.Sync() //nolint:errcheck

	if awsErr != nil {
		logger.Warn("AWS config unavailable, SNS/metrics/secrets disabled", zap.Error(awsErr))
	} else if err := cfg.ApplySecrets(ctx, awspkg.NewSecretsClient(awsCfg)); err != nil {
		logger.Warn("Secrets Manager lookup failed, using environment", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	rates, err := services.LookupRateSchedule(cfg.CommissionRateVersion)
	if err != nil {
		logger.Fatal("Invalid commission configuration", zap.Error(err))
	}

	storeOpts := docstore.Options{
		Backend:   cfg.StoreBackend,
		AWSConfig: awsCfg,
		Tables: ddb.Tables{
			Transactions:  cfg.DynamoTxTable,
			Users:         cfg.DynamoUsersTable,
			Conversations: cfg.DynamoConvTable,
		},
	}
	if cfg.StoreBackend != docstore.BackendDynamoDB {
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID})
		if err != nil {
			logger.Fatal("Failed to initialize Firebase app", zap.Error(err))
		}
		storeOpts.FirebaseApp = app
	}
	store, err := docstore.Open(ctx, storeOpts)
	if err != nil {
		logger.Fatal("Failed to open document store", zap.Error(err))
	}
	defer store.Close() //nolint:errcheck

	var (
		events        awspkg.EventPublisher
		metrics       awspkg.MetricsRecorder
		metricsClient *awspkg.MetricsClient
	)
	if awsErr == nil {
		events = awspkg.NewSNSClient(awsCfg)
		metricsClient = awspkg.NewMetricsClient(awsCfg)
		metrics = metricsClient
	}

	paystack := providers.NewPaystackProvider(cfg.PaystackSecretKey, cfg.PaystackBaseURL)
	paymentService := services.NewPaymentService(paystack, store, events, metrics, services.Options{
		Currency:         cfg.Currency,
		Channels:         cfg.Channels,
		FXRate:           cfg.DisplayFXRate,
		PremiumThreshold: cfg.PremiumThreshold,
		Rates:            rates,
		TopicArn:         cfg.PaymentSNSTopicARN,
	}, logger)
	paymentController := controllers.NewPaymentController(paymentService, paystack, logger)

	rootCtx, stop := context.WithCancel(ctx)
	defer stop()
	limiter := middleware.NewRateLimiter(middleware.PerMinute(cfg.RateLimitPerMinute), 50, 5*time.Minute)
	go limiter.Run(rootCtx)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.Timeout(30 * time.Second))
	if metricsClient != nil {
		r.Use(middleware.MetricsMiddleware(metricsClient, serviceName))
	}
	r.Use(limiter.Middleware())
	r.Use(apperrors.ErrorMiddleware())

	routes.RegisterPaymentRoutes(r, paymentController, auth.NewTokenValidator(cfg.JWTSecret))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Payment service started",
		zap.String("port", cfg.Port),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("commission_rate_version", rates.Version),
	)
	<-quit
	logger.Info("Shutting down payment service...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited cleanly")
}
