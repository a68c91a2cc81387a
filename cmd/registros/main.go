package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"registros/internal/backend"
	"registros/internal/cli"
	"registros/internal/core"
	"registros/internal/log"
	"registros/internal/records"
	"registros/internal/shell"
)

func main() {
	// Load .env file for local development
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		boot := log.New(log.DefaultConfig())
		boot.Error("Configuration validation failed", log.FieldErrorType, log.ErrorTypeConfiguration, log.FieldError, err)
		os.Exit(1)
	}

	logger, err := cli.SetupLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		logger.Warn("Falling back to info level", log.FieldError, err)
	}
	logger.Info("Starting registros", log.FieldOperation, log.OpStartup, log.FieldBackend, cfg.DataBackend)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldBackend, backendCfg.Type, log.FieldError, err)
		os.Exit(1)
	}

	filter := make([]core.Status, 0, len(cfg.DefaultFilter))
	for _, name := range cfg.DefaultFilter {
		if st, err := core.ParseStatus(name); err == nil {
			filter = append(filter, st)
		}
	}
	store := records.NewStore(result.Repository,
		records.WithLogger(logger),
		records.WithFilter(filter...),
	)

	sh := shell.New(store, os.Stdin, os.Stdout, shell.Config{
		UserName:      cfg.UserName,
		ConfirmDelete: cfg.ConfirmDelete,
		Logger:        logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Leaving the shell ends the signal watcher too.
		defer stop()
		return sh.Run(gctx)
	})
	g.Go(func() error {
		return cli.WaitForSignal(gctx, logger)
	})

	runErr := g.Wait()
	stats := sh.Metrics()
	logger.Info("Session stats", "commands", stats.TotalCommands, "failed", stats.FailedCommands)
	exitCode := 0
	if runErr != nil && !errors.Is(runErr, cli.ErrSignal) {
		logger.Error("Shell stopped with error", log.FieldError, runErr)
		exitCode = 1
	}

	shutdown(logger, result.Cleanup, cfg.ShutdownTimeout)
	os.Exit(exitCode)
}

// shutdown runs the backend cleanup, giving up after timeout.
func shutdown(logger *log.Logger, cleanup backend.CleanupFunc, timeout time.Duration) {
	if cleanup == nil {
		logger.Info("Shutdown complete", log.FieldOperation, log.OpShutdown)
		return
	}

	done := make(chan error, 1)
	go func() { done <- cleanup() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("Backend cleanup failed", log.FieldOperation, log.OpShutdown, log.FieldError, err)
			return
		}
		logger.Info("Shutdown complete", log.FieldOperation, log.OpShutdown)
	case <-time.After(timeout):
		logger.Warn("Shutdown timeout reached", log.FieldOperation, log.OpShutdown)
	}
}
