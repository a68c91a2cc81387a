package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"registros/internal/storage"
)

type Config struct {
	// Backend selection
	DataBackend string

	// SQLite, in-memory databases only
	SQLiteDSN string

	// Logging
	LogLevel string

	// Shell
	UserName      string
	DefaultFilter []string
	ConfirmDelete bool

	ShutdownTimeout time.Duration
}

var validStatuses = []string{"open", "submitted", "closed"}

func Load() *Config {
	cfg := &Config{
		DataBackend: getEnv("DATA_BACKEND", "memory"),
		SQLiteDSN:   getEnv("SQLITE_DSN", "file:registros?mode=memory&cache=shared"),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		UserName:      getEnv("USER_NAME", "User"),
		DefaultFilter: getEnvList("DEFAULT_FILTER", []string{"open"}),
		ConfirmDelete: getEnvBool("CONFIRM_DELETE", true),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate data backend
	validBackends := []string{"memory", "sqlite"}
	if !contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDSN == "" {
			errors = append(errors, "SQLite DSN cannot be empty when using sqlite backend")
		} else if !storage.IsMemoryDSN(c.SQLiteDSN) {
			errors = append(errors, fmt.Sprintf("invalid SQLite DSN '%s': must be an in-memory database (':memory:' or 'file:<name>?mode=memory')", c.SQLiteDSN))
		}
	}

	// Validate log level
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	// Validate default filter
	for _, s := range c.DefaultFilter {
		if !contains(validStatuses, strings.ToLower(s)) {
			errors = append(errors, fmt.Sprintf("invalid status '%s' in default filter: must be one of %v", s, validStatuses))
		}
	}

	if strings.TrimSpace(c.UserName) == "" {
		errors = append(errors, "user name cannot be empty")
	}

	if c.ShutdownTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must not be negative", c.ShutdownTimeout))
	} else if c.ShutdownTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at most 1 minute", c.ShutdownTimeout))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
