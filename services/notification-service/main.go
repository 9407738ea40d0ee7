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
	"gorm.io/gorm"

	awspkg "github.com/pheebyy/carelink/pkg/aws"
	"github.com/pheebyy/carelink/pkg/docstore"
	ddb "github.com/pheebyy/carelink/pkg/dynamodb"
	"github.com/pheebyy/carelink/services/common/auth"
	apperrors "github.com/pheebyy/carelink/services/common/errors"
	applog "github.com/pheebyy/carelink/services/common/logger"
	"github.com/pheebyy/carelink/services/common/middleware"
	"github.com/pheebyy/carelink/services/notification-service/config"
	"github.com/pheebyy/carelink/services/notification-service/consumer"
	"github.com/pheebyy/carelink/services/notification-service/controllers"
	"github.com/pheebyy/carelink/services/notification-service/database"
	"github.com/pheebyy/carelink/services/notification-service/models"
	"github.com/pheebyy/carelink/services/notification-service/repository"
	"github.com/pheebyy/carelink/services/notification-service/routes"
	"github.com/pheebyy/carelink/services/notification-service/sender"
	"github.com/pheebyy/carelink/services/notification-service/services"
)

const serviceName = "notification-service"

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("[NotificationService] failed to load config: %v", err)
	}

	ctx := context.Background()

	// AWS is optional locally: without it the queue consumer and metrics are disabled
	awsCfg, awsErr := awspkg.LoadAWSConfig(ctx)

	var cwWriter io.Writer
	if awsErr == nil {
		if cw, err := awspkg.NewCloudWatchLogsClient(ctx, awsCfg, serviceName); err != nil {
			log.Printf("[NotificationService] CloudWatch Logs disabled: %v", err)
		} else if cw.IsEnabled() {
			cwWriter = cw
		}
	}
	logger := applog.MustNew(cfg.AppEnv, cwWriter)
	defer logger.Sync() //nolint:errcheck

	if awsErr != nil {
		logger.Warn("AWS config unavailable, SQS/metrics disabled", zap.Error(awsErr))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	// FCM always needs the Firebase app; the document store may use it too
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID})
	if err != nil {
		logger.Fatal("Failed to initialize Firebase app", zap.Error(err))
	}
	push, err := sender.NewFCMSender(ctx, app, logger)
	if err != nil {
		logger.Fatal("Failed to initialize FCM sender", zap.Error(err))
	}

	store, err := docstore.Open(ctx, docstore.Options{
		Backend:     cfg.StoreBackend,
		FirebaseApp: app,
		AWSConfig:   awsCfg,
		Tables: ddb.Tables{
			Transactions:  cfg.DynamoTxTable,
			Users:         cfg.DynamoUsersTable,
			Conversations: cfg.DynamoConvTable,
		},
	})
	if err != nil {
		logger.Fatal("Failed to open document store", zap.Error(err))
	}
	defer store.Close() //nolint:errcheck

	var (
		repo repository.NotificationRepository
		db   *gorm.DB
	)
	if cfg.Postgres.Enabled() {
		db, err = database.ConnectPostgres(cfg.Postgres, logger, &models.NotificationLog{})
		if err != nil {
			logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer database.Close(db) //nolint:errcheck
		repo = repository.NewNotificationRepository(db)
	} else {
		logger.Info("POSTGRES_HOST not set, delivery log disabled")
	}

	var (
		metrics       awspkg.MetricsRecorder
		metricsClient *awspkg.MetricsClient
	)
	if awsErr == nil {
		metricsClient = awspkg.NewMetricsClient(awsCfg)
		metrics = metricsClient
	}

	notificationService := services.NewNotificationService(store, push, repo, metrics, logger)
	notificationController := controllers.NewNotificationController(notificationService, logger)

	rootCtx, stop := context.WithCancel(ctx)
	defer stop()

	if cfg.MessageEventsQueueURL != "" && awsErr == nil {
		handler := consumer.NewMessageHandler(notificationService, metrics, logger)
		sqsConsumer := awspkg.NewSQSConsumer(awsCfg, cfg.MessageEventsQueueURL, logger)
		go func() {
			if err := sqsConsumer.StartPolling(rootCtx, handler.Handle); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("SQS consumer stopped", zap.Error(err))
			}
		}()
	} else {
		logger.Info("MESSAGE_EVENTS_QUEUE_URL not set, queue consumer disabled")
	}

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

	routes.RegisterRoutes(r, notificationController, auth.NewTokenValidator(cfg.JWTSecret), cfg.TriggerSharedSecret)

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

	logger.Info("Notification service started",
		zap.String("port", cfg.Port),
		zap.String("store_backend", cfg.StoreBackend),
		zap.Bool("delivery_log", repo != nil),
	)
	<-quit
	logger.Info("Shutting down notification service...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited cleanly")
}
