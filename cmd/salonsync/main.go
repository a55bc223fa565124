package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/example/corevo-scheduler/internal/application"
	"github.com/example/corevo-scheduler/internal/config"
	"github.com/example/corevo-scheduler/internal/gcal"
	httptransport "github.com/example/corevo-scheduler/internal/http"
	"github.com/example/corevo-scheduler/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	var tokenCipher *sqlite.TokenCipher
	if len(cfg.TokenCipherKey) > 0 {
		tokenCipher, err = sqlite.NewTokenCipher(cfg.TokenCipherKey)
		if err != nil {
			logger.Error("failed to initialise token cipher", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("token cipher key not configured, OAuth tokens are stored as plaintext")
	}

	now := time.Now

	connectionRepo := sqlite.NewConnectionRepository(pool, tokenCipher)
	appointmentRepo := sqlite.NewAppointmentRepository(pool)
	directory := sqlite.NewDirectoryRepository(pool)

	providerCfg := gcal.Config{ClientID: cfg.GoogleClientID, ClientSecret: cfg.GoogleClientSecret}
	if providerCfg.ClientID == "" || providerCfg.ClientSecret == "" {
		logger.Warn("Google client credentials not configured, calendar requests will fail until they are set")
	}
	credentials := gcal.NewCredentialProvider(providerCfg, connectionRepo, now)
	gateways := gcal.NewGatewayFactory(providerCfg, credentials)

	availabilityService := application.NewAvailabilityService(connectionRepo, appointmentRepo, directory, gateways, logger)
	appointmentSyncService := application.NewAppointmentSyncService(appointmentRepo, connectionRepo, directory, directory, directory, gateways, now, logger)
	shiftSyncService := application.NewShiftSyncService(connectionRepo, directory, gateways, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Availability: httptransport.NewAvailabilityHandler(availabilityService, logger),
		Sync:         httptransport.NewSyncHandler(appointmentSyncService, shiftSyncService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.ResolveTenant(cfg.DefaultTenant),
		},
	})

	var scheduler *cron.Cron
	if cfg.ShiftSyncCron != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.ShiftSyncCron, func() {
			jobLogger := logger.With("job", "shift_sync")
			results, err := shiftSyncService.SyncShifts(ctx, application.ShiftSyncParams{TenantID: cfg.DefaultTenant})
			if err != nil {
				jobLogger.Error("scheduled shift sync failed", "error", err)
				return
			}
			synced := 0
			for _, res := range results {
				synced += res.EventsSynced
			}
			jobLogger.Info("scheduled shift sync completed", "staff_count", len(results), "events_synced", synced)
		})
		if err != nil {
			logger.Error("invalid shift sync schedule", "cron", cfg.ShiftSyncCron, "error", err)
			os.Exit(1)
		}
		scheduler.Start()
		defer scheduler.Stop()
		logger.Info("shift sync scheduled", "cron", cfg.ShiftSyncCron)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("calendar sync API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
