// Package cli provides common CLI initialization utilities for cmd/registros:
// environment loading, logger setup, config validation and signal handling.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"registros/internal/config"
	"registros/internal/log"
)

// SetupLogger initializes structured logging at the given level, writing to
// out. Returns the configured logger and sets it as the default logger.
func SetupLogger(level string, out io.Writer) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	logger := log.New(log.Config{
		Level:     lvl,
		Component: log.ComponentApp,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger, err
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as the file is optional.
func LoadEnvFile(filenames ...string) {
	_ = godotenv.Load(filenames...)
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WaitForSignal blocks until SIGINT/SIGTERM or ctx is done. A signal is
// reported as an error so an errgroup cancels its siblings.
func WaitForSignal(ctx context.Context, logger *log.Logger) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
		return fmt.Errorf("%w: %s", ErrSignal, sig)
	case <-ctx.Done():
		return nil
	}
}

// ErrSignal marks a shutdown caused by an OS signal.
var ErrSignal = errors.New("received signal")
