package shell

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"registros/internal/log"
)

// Metrics counts the commands run in a session.
type Metrics struct {
	TotalCommands  int64
	FailedCommands int64
	LastDuration   time.Duration
}

// tracer wraps commands with an id, timing and a per-command logger.
type tracer struct {
	total  atomic.Int64
	failed atomic.Int64
	last   atomic.Int64
}

func (t *tracer) wrap(name string, next command) command {
	return func(ctx context.Context, in *lineReader, args []string) (bool, error) {
		start := time.Now()
		id := generateCommandID()

		logger := log.FromContext(ctx).With(log.FieldCommandID, id, log.FieldCommand, name)
		ctx = log.NewContext(ctx, logger)
		logger.DebugContext(ctx, "Command started", "args", len(args))

		quit, err := next(ctx, in, args)

		duration := time.Since(start)
		t.total.Add(1)
		t.last.Store(int64(duration))

		level := slog.LevelDebug
		failed := err != nil && !errors.Is(err, errFormCancelled) && !isEndOfSession(ctx, err)
		if failed {
			t.failed.Add(1)
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "Command completed",
			log.FieldDurationMs, duration.Milliseconds(),
			log.FieldSuccess, !failed)

		return quit, err
	}
}

func (t *tracer) metrics() Metrics {
	return Metrics{
		TotalCommands:  t.total.Load(),
		FailedCommands: t.failed.Load(),
		LastDuration:   time.Duration(t.last.Load()),
	}
}

// generateCommandID creates a short random id for log correlation.
func generateCommandID() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("cmd_%d", time.Now().UnixNano())
	}
	return "cmd_" + hex.EncodeToString(b)
}
