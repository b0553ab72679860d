package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"disasterguardian/config"
	"disasterguardian/controllers"
	"disasterguardian/database"
	"disasterguardian/events"
	"disasterguardian/interfaces"
	"disasterguardian/repositories"
	"disasterguardian/routes"
	"disasterguardian/services"
	"disasterguardian/websocket"
	"disasterguardian/workers"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("Invalid configuration: ", err)
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize logger
	setupLogger(cfg)

	// Initialize database
	db, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logrus.Fatal("Failed to connect to database: ", err)
	}
	defer database.Disconnect()

	if cfg.SeedOnStart {
		if err := database.RunSeeders(context.Background(), db, database.SeedOptions{}); err != nil {
			logrus.Error("Seeding failed: ", err)
		}
	}

	// Initialize Redis (optional)
	rdb := connectRedis(cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	// Event bus, relayed across instances through Redis when available
	bus := events.NewBus()
	var relay *events.RedisRelay
	if rdb != nil && cfg.EventRelayEnabled {
		relay = events.NewRedisRelay(rdb, cfg.EventRelayChannel, bus)
		if err := relay.Start(context.Background()); err != nil {
			logrus.Warn("Event relay unavailable, events stay local: ", err)
			relay = nil
		}
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub(bus, websocket.DefaultPollInterval)
	hub.Run()

	// Initialize workers
	smsLogs := repositories.NewSmsLogRepository(db)
	smsSender := services.NewSMSSender(cfg.Notifications)
	smsPool := workers.NewNotificationWorker(smsSender, smsLogs, workers.NotificationWorkerConfigFrom(cfg.Notifications))
	if err := smsPool.Start(); err != nil {
		logrus.Fatal("Failed to start SMS workers: ", err)
	}

	otpStore, revocations, storePruners := authStores(rdb)

	health := controllers.NewHealthController(cfg.Version)
	health.AddCheck("mongodb", database.Ping)
	var redisCheck controllers.HealthCheck
	if rdb != nil {
		redisCheck = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	health.AddCheck("redis", redisCheck)
	health.AddStats("database", func(ctx context.Context) interface{} { return database.HealthCheck(ctx) })
	health.AddStats("websocket", func(context.Context) interface{} { return hub.GetStats() })
	health.AddStats("sms", func(context.Context) interface{} { return smsPool.GetStats() })

	// Setup routes
	router := routes.SetupRoutes(routes.Dependencies{
		Config:      cfg,
		DB:          db,
		Redis:       rdb,
		Hub:         hub,
		Publisher:   bus,
		Dispatcher:  smsPool,
		SMSSender:   smsSender,
		EmailSender: services.NewEmailSender(cfg.Notifications),
		OTPStore:    otpStore,
		Revocations: revocations,
		Health:      health,
	})

	pruners := storePruners
	for _, limiter := range router.Limiters {
		pruners = append(pruners, limiter)
	}
	cleanup := workers.NewCleanupWorker(smsLogs, workers.CleanupWorkerConfig{
		SMSLogRetention: cfg.Notifications.SMSLogTTL,
	}, pruners...)
	if err := cleanup.Start(); err != nil {
		logrus.Fatal("Failed to start cleanup worker: ", err)
	}
	health.AddStats("cleanup", func(context.Context) interface{} { return cleanup.GetStats() })

	// Create HTTP server
	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router.Engine,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Start server in goroutine
	go func() {
		logrus.Info("🚀 Disaster Guardian API starting on port ", cfg.Port)
		logrus.Info("📱 WebSocket endpoint: /ws")
		logrus.Info("💖 Health Check: /health")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal("Failed to start server: ", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Error("Server forced to shutdown: ", err)
	}

	// hijacked WebSocket connections are not covered by server.Shutdown
	hub.Shutdown()
	if relay != nil {
		relay.Stop()
	}
	bus.Close()

	if err := smsPool.Stop(ctx); err != nil {
		logrus.Warn("SMS queue not fully drained: ", err)
	}
	if err := cleanup.Stop(); err != nil {
		logrus.Warn("Cleanup worker stop: ", err)
	}

	logrus.Info("✅ Server shutdown complete")
}

func setupLogger(cfg *config.Config) {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	if cfg.IsDevelopment() {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// connectRedis returns nil when Redis is not configured or not reachable.
func connectRedis(cfg *config.Config) *redis.Client {
	rdb := config.InitRedis(cfg)
	if rdb == nil {
		logrus.Info("Redis not configured, using in-memory stores")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logrus.Warn("Redis unreachable, using in-memory stores: ", err)
		rdb.Close()
		return nil
	}

	logrus.Info("✅ Connected to Redis")
	return rdb
}

// authStores picks Redis-backed OTP and revocation stores, or in-memory
// ones (plus their pruners) for a single instance.
func authStores(rdb *redis.Client) (interfaces.OTPStore, interfaces.RevocationStore, []workers.Pruner) {
	if rdb != nil {
		return repositories.NewRedisOTPStore(rdb), repositories.NewRedisRevocationStore(rdb), nil
	}

	otps := repositories.NewMemoryOTPStore()
	revocations := repositories.NewMemoryRevocationStore()
	return otps, revocations, []workers.Pruner{otps, revocations}
}
