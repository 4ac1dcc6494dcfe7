package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "gymdesk/docs"
	"gymdesk/internal/caldate"
	"gymdesk/internal/config"
	"gymdesk/internal/db"
	"gymdesk/internal/deposit"
	"gymdesk/internal/email"
	"gymdesk/internal/logger"
	"gymdesk/internal/server"
)

// @title GymDesk API
// @version 1.0
// @description Gym membership, Pilates deposit and class booking system.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {

	logger.Init()
	logger.Info("Starting GymDesk application")
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, "migrations"); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	emailService := email.New(
		cfg.EmailFrom,
		cfg.EmailFromName,
		cfg.SMTPHost,
		cfg.SMTPPort,
		cfg.SMTPUser,
		cfg.SMTPPass,
		cfg.RedisAddr,
	)
	defer emailService.Close()
	logger.Info("Email service initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go emailService.Start(ctx)

	srv := server.New(database, cfg, emailService)

	// Repair rows whose stored flags went stale while the service was
	// down, then remind members about installments coming due.
	syncCtx, syncCancel := context.WithTimeout(ctx, time.Minute)
	today := caldate.Today(cfg.Location)
	if fixed, err := srv.Memberships.SyncStatuses(syncCtx, today); err != nil {
		logger.Errorf("Startup status sync failed: %v", err)
	} else if fixed > 0 {
		logger.Infof("Startup status sync repaired %d memberships", fixed)
	}
	if sent, err := srv.Installments.RemindDueInstallments(syncCtx, today); err != nil {
		logger.Errorf("Installment reminder sweep failed: %v", err)
	} else if sent > 0 {
		logger.Infof("Queued %d installment reminders", sent)
	}
	syncCancel()

	refillScheduler := deposit.NewScheduler(srv.Deposits, cfg.RefillCron, cfg.Location)
	if err := refillScheduler.Start(); err != nil {
		logger.Fatalf("Failed to start refill scheduler: %v", err)
	}
	defer refillScheduler.Stop()

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
