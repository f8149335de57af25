package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/bnpl-service/internal/clock"
	"github.com/Dan9191/bnpl-service/internal/config"
	"github.com/Dan9191/bnpl-service/internal/db"
	"github.com/Dan9191/bnpl-service/internal/handler"
	"github.com/Dan9191/bnpl-service/internal/idempotency"
	"github.com/Dan9191/bnpl-service/internal/jobs"
	"github.com/Dan9191/bnpl-service/internal/logging"
	"github.com/Dan9191/bnpl-service/internal/middleware"
	"github.com/Dan9191/bnpl-service/internal/repository"
	"github.com/Dan9191/bnpl-service/internal/service"
	"github.com/Dan9191/bnpl-service/internal/settlement"
	"github.com/Dan9191/bnpl-service/internal/utils/email"
	"github.com/justinas/alice"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	logger.WithField("config", cfg.Redact()).Debug("Configuration loaded")

	// Initialize database
	conn, err := db.Open(cfg.DBConn, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		logger.Fatalf("Failed to access database pool: %v", err)
	}
	defer sqlDB.Close()

	// Initialize layers
	clk := clock.NewSystem(cfg.Location)
	repo := repository.NewRepository(conn, cfg.LockTimeout)
	engine := settlement.NewEngine(repo, clk, logger)
	sender := email.NewSender(cfg, logger)
	svc := service.NewService(repo, engine, logger, cfg, clk, sender)
	h := handler.NewHandler(svc, logger)

	runner := jobs.NewRunner(repo, clk, logger, sender, jobs.Settings{
		RequestTTL:        cfg.RequestTTL,
		ReminderDaysAhead: cfg.ReminderDaysAhead,
		Location:          cfg.Location,
		OverdueSpec:       cfg.CronOverdue,
		ExpireSpec:        cfg.CronExpire,
		RemindersSpec:     cfg.CronReminders,
		ReconcileSpec:     cfg.CronReconcile,
	})
	scheduler, err := runner.Start()
	if err != nil {
		logger.Fatalf("Failed to start jobs: %v", err)
	}

	var retries alice.Constructor
	if cfg.RedisAddr != "" {
		store, err := idempotency.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Fatalf("Failed to connect to redis: %v", err)
		}
		defer store.Close()
		retries = idempotency.Middleware(store, cfg.IdempotencyTTL, func(r *http.Request) string {
			userID, _ := middleware.UserIDFromContext(r.Context())
			return userID.String()
		}, logger)
	} else {
		logger.Warn("REDIS_ADDR is not set, Idempotency-Key headers are ignored")
	}

	// Setup router
	router := handler.NewRouter(h, cfg, logger, retries)
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", idempotency.HeaderKey},
		ExposedHeaders: []string{idempotency.HeaderReplay, "Retry-After"},
		MaxAge:         600,
	}).Handler(router)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      corsHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
	}
	<-scheduler.Stop().Done()
}
