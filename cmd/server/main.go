package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sparklean/service-booking/internal/adapter"
	"github.com/sparklean/service-booking/internal/application"
	"github.com/sparklean/service-booking/internal/config"
	bookingEvents "github.com/sparklean/service-booking/internal/events"
	"github.com/sparklean/service-booking/internal/handler"
	"github.com/sparklean/service-booking/internal/pkg/auth"
	"github.com/sparklean/service-booking/internal/pkg/cache"
	"github.com/sparklean/service-booking/internal/pkg/database"
	"github.com/sparklean/service-booking/internal/pkg/health"
	"github.com/sparklean/service-booking/internal/pkg/kafka"
	"github.com/sparklean/service-booking/internal/pkg/logger"
	"github.com/sparklean/service-booking/internal/pkg/middleware"
	"github.com/sparklean/service-booking/internal/repository"
	"github.com/sparklean/service-booking/internal/saga"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewNamed(cfg.AppEnv, "service-booking")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting service-booking",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.ServiceModel{},
			&repository.ExtraModel{},
			&repository.PromoCodeModel{},
			&repository.PromoClaimModel{},
			&repository.BookingModel{},
			&repository.PaymentModel{},
		); err != nil {
			zapLogger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		zapLogger.Info("database migration completed (dev auto-migrate)")
	}

	// Connect to Redis for the catalog cache
	redisClient, err := cache.Connect(cfg.RedisConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		cfg.JWTConfig.AccessDuration,
		cfg.JWTConfig.RefreshDuration,
	)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, zapLogger)
	defer kafkaProducer.Close()

	// Initialize payment gateway adapter (mock for development)
	gateway := adapter.NewMockGateway(zapLogger)

	// Initialize repositories
	catalogRepo := repository.NewCachedCatalogRepository(
		repository.NewGormCatalogRepository(db),
		redisClient,
		cfg.CatalogCacheTTL,
		zapLogger,
	)
	promoRepo := repository.NewGormPromoRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	// Initialize saga service
	checkoutSaga := saga.NewCheckoutSagaService(
		paymentRepo,
		bookingRepo,
		gateway,
		kafkaProducer,
		cfg.GatewayConfig.CallbackURL,
		zapLogger,
	)

	// Initialize application services
	catalogService := application.NewCatalogService(catalogRepo, zapLogger)
	pricingService := application.NewPricingService(catalogRepo, promoRepo, cfg.ServiceFeeRate, zapLogger)
	promoService := application.NewPromoService(promoRepo, kafkaProducer, zapLogger)
	bookingService := application.NewBookingService(
		bookingRepo,
		catalogRepo,
		promoRepo,
		promoService,
		kafkaProducer,
		cfg.ServiceFeeRate,
		zapLogger,
	)
	paymentService := application.NewPaymentService(paymentRepo, bookingRepo, checkoutSaga, zapLogger)

	// Initialize Kafka consumer for payment events
	consumerGroupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
	paymentConsumer := bookingEvents.NewPaymentEventConsumer(
		cfg.KafkaConfig.Brokers,
		consumerGroupID,
		bookingService,
		zapLogger,
	)
	defer paymentConsumer.Close()

	// Start Kafka consumer in a goroutine
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()

	go func() {
		zapLogger.Info("starting payment event consumer")
		if err := paymentConsumer.Start(consumerCtx); err != nil {
			if consumerCtx.Err() == nil {
				zapLogger.Error("payment event consumer failed", zap.Error(err))
			}
		}
	}()

	// Initialize HTTP handlers
	catalogHandler := handler.NewCatalogHandler(catalogService)
	pricingHandler := handler.NewPricingHandler(pricingService)
	promoHandler := handler.NewPromoHandler(promoService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	cleanerHandler := handler.NewCleanerHandler(bookingService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	adminHandler := handler.NewAdminHandler(catalogService, promoService, bookingService, paymentService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.LoggerMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-booking")
	healthHandler.RegisterRoutes(router)

	// Register API routes
	apiV1 := router.Group("/api/v1")
	catalogHandler.RegisterRoutes(apiV1)
	pricingHandler.RegisterRoutes(apiV1)
	promoHandler.RegisterRoutes(apiV1, jwtManager)
	bookingHandler.RegisterRoutes(apiV1, jwtManager)
	cleanerHandler.RegisterRoutes(apiV1, jwtManager)
	paymentHandler.RegisterRoutes(apiV1, jwtManager)
	adminHandler.RegisterRoutes(apiV1, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down service-booking...")

	// Cancel Kafka consumer
	consumerCancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("service-booking stopped")
}
