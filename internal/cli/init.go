// Package cli provides common initialization for the budgettracker commands.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"budgettracker/internal/backend"
	"budgettracker/internal/config"
	"budgettracker/internal/log"
	"budgettracker/internal/profile"
	"budgettracker/internal/services"
)

// SetupLogger builds the application logger from cfg and installs it as the
// slog default. Logs go to stderr so they never mix with shell output.
func SetupLogger(cfg *config.Config) *log.Logger {
	lc := log.DefaultConfig()
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		lc.Level = level
	}
	lc.Format = cfg.LogFormat
	lc.Component = log.ComponentApp
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment, lets
// override adjust it (command-line flags) and validates the result.
func LoadAndValidateConfig(override func(*config.Config)) (*config.Config, error) {
	cfg := config.Load()
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App is a fully wired ledger service and the resources behind it.
type App struct {
	Service *services.LedgerService
	Config  *config.Config
	Logger  *log.Logger
	cleanup backend.CleanupFunc
}

// InitApp opens the configured backend and builds the ledger service on top.
func InitApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, bc)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize backend",
			log.FieldBackend, bc.Type.String(),
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypePersistence)
		return nil, err
	}

	manager := profile.NewManager(result.Store, profile.Options{
		CacheSize: cfg.ProfileCacheSize,
		CacheTTL:  cfg.ProfileCacheTTL,
		Logger:    logger,
	})
	return &App{
		Service: services.NewLedgerService(manager, result.Publisher, logger),
		Config:  cfg,
		Logger:  logger,
		cleanup: result.Cleanup,
	}, nil
}

// Close releases the backend.
func (a *App) Close() error {
	if a.cleanup == nil {
		return nil
	}
	err := a.cleanup()
	a.cleanup = nil
	if err != nil {
		a.Logger.Error("Cleanup failed", log.FieldOperation, log.OpShutdown, log.FieldError, err)
	}
	return err
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(ctx context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
	}()
	return ctx, cancel
}
