package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"gymshood/internal/config"
	"gymshood/internal/db"
	"gymshood/internal/email"
	"gymshood/internal/gym"
	"gymshood/internal/logger"
	"gymshood/internal/membership"
	"gymshood/internal/metrics"
	"gymshood/internal/occupancy"
	"gymshood/internal/payment"
	"gymshood/internal/server"
)

func main() {

	logger.Init()
	logger.Info("Starting GymsHood application")
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

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	gateway := payment.NewClient(cfg.PaymentBaseURL, cfg.PaymentKeyID, cfg.PaymentKeySecret)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go emailService.Start(ctx)
	go runSweeps(ctx, cfg.SweepInterval, membership.NewRepository(database), occupancy.NewService(occupancy.NewRepository(database), gym.NewRepository(database)))

	srv := server.New(database, cfg, emailService, rdb, gateway)

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

// runSweeps periodically expires overdue entitlements and force-closes
// visits whose computed check-out has passed. The admin sweep endpoints
// trigger the same work on demand.
func runSweeps(ctx context.Context, interval time.Duration, memberships membership.Repository, occupancySvc occupancy.Service) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Sweep worker stopped")
			return
		case <-ticker.C:
			now := time.Now().UTC()

			expired, err := memberships.SweepExpired(ctx, now)
			if err != nil {
				logger.Errorf("Entitlement sweep failed: %v", err)
			} else if expired > 0 {
				metrics.EntitlementsExpiredTotal.Add(float64(expired))
				logger.Infof("Entitlement sweep expired %d entitlements", expired)
			}

			closed, err := occupancySvc.SweepExpired(ctx, now)
			if err != nil {
				logger.Errorf("Visit sweep failed: %v", err)
			} else if closed > 0 {
				logger.Infof("Visit sweep closed %d stale visits", closed)
			}
		}
	}
}
