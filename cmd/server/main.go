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
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cetler74/dbcars-sub000/internal/application"
	"github.com/cetler74/dbcars-sub000/internal/config"
	bookingEvents "github.com/cetler74/dbcars-sub000/internal/events"
	"github.com/cetler74/dbcars-sub000/internal/handler"
	"github.com/cetler74/dbcars-sub000/internal/platform/database"
	"github.com/cetler74/dbcars-sub000/internal/platform/kafka"
	"github.com/cetler74/dbcars-sub000/internal/platform/lock"
	"github.com/cetler74/dbcars-sub000/internal/platform/logger"
	"github.com/cetler74/dbcars-sub000/internal/repository"
)

const serviceName = "booking-engine"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations. AutoMigrate does not create the overlap
	// exclusion constraint; only the SQL migrations do.
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(repository.Models()...); err != nil {
			zapLogger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		zapLogger.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), cfg.MigrationsDir, zapLogger); err != nil {
			zapLogger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize the per-vehicle advisory lock
	var locker lock.Locker = lock.NopLocker{}
	if cfg.RedisConfig.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Addr,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		defer redisClient.Close()
		locker = lock.NewRedisLocker(redisClient, "booking:lock:", cfg.BookingConfig.LockTTL, cfg.BookingConfig.LockWait)
		zapLogger.Info("redis advisory locks enabled", zap.String("addr", cfg.RedisConfig.Addr))
	}

	// Initialize Kafka producer
	var publisher application.EventPublisher = application.NopPublisher{}
	if cfg.KafkaConfig.Enabled {
		kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, zapLogger)
		defer kafkaProducer.Close()
		publisher = bookingEvents.NewBookingPublisher(kafkaProducer)
	}

	// Initialize repositories
	fleetRepo := repository.NewFleetRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	ruleRepo := repository.NewPricingRepository(db)
	extraRepo := repository.NewExtraRepository(db)
	couponRepo := repository.NewGormCouponRepository(db)

	// Initialize application services
	timeout := cfg.BookingConfig.StoreTimeout
	availabilityService := application.NewAvailabilityService(fleetRepo, bookingRepo, timeout, zapLogger)
	pricingService := application.NewPricingService(fleetRepo, ruleRepo, extraRepo, couponRepo, timeout, zapLogger)
	couponService := application.NewCouponService(couponRepo, timeout, zapLogger)
	fleetService := application.NewFleetService(fleetRepo, ruleRepo, extraRepo, timeout, zapLogger)
	bookingService := application.NewBookingService(
		fleetRepo,
		bookingRepo,
		availabilityService,
		pricingService,
		locker,
		publisher,
		timeout,
		zapLogger,
	)

	// Start Kafka consumer for payment events in a goroutine
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()

	if cfg.KafkaConfig.Enabled {
		consumerGroupID := cfg.KafkaConfig.GroupPrefix + serviceName
		paymentConsumer := bookingEvents.NewPaymentEventConsumer(
			cfg.KafkaConfig.Brokers,
			consumerGroupID,
			bookingService,
			zapLogger,
		)
		defer paymentConsumer.Close()

		go func() {
			zapLogger.Info("starting payment event consumer")
			if err := paymentConsumer.Start(consumerCtx); err != nil {
				if consumerCtx.Err() == nil {
					zapLogger.Error("payment event consumer failed", zap.Error(err))
				}
			}
		}()
	}

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(handler.RouterConfig{
		Logger:         zapLogger,
		AllowedOrigins: cfg.AllowedOrigins,
		AdminAPIKey:    cfg.AdminAPIKey,
		Health:         handler.NewHealthHandler(db, serviceName),
		Bookings:       handler.NewBookingHandler(availabilityService, pricingService, bookingService, couponService),
		Admin:          handler.NewAdminHandler(fleetService, couponService, bookingService),
	})
	if cfg.AdminAPIKey == "" {
		zapLogger.Warn("ADMIN_API_KEY is empty, admin routes are unprotected")
	}

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

	zapLogger.Info("shutting down " + serviceName + "...")

	// Cancel Kafka consumer
	consumerCancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info(serviceName + " stopped")
}
