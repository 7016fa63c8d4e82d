package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress         string
	DatabaseURI        string
	ServiceTokenSecret string
	AdminKeyHash       string
	BalanceCacheTTL    time.Duration
	ReconcileInterval  time.Duration
	ReconcileBatchSize int
	DisputeWindowDays  int
	ShutdownTimeout    time.Duration
	LogLevel           string
}

const (
	defaultRunAddress         = ":8080"
	defaultServiceTokenSecret = "change-me-in-production"
	defaultBalanceCacheTTL    = 30 * time.Second
	defaultReconcileInterval  = 10 * time.Minute
	defaultReconcileBatchSize = 200
	defaultDisputeWindowDays  = 90
	defaultShutdownTimeout    = 10 * time.Second
	defaultLogLevel           = "info"
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:         getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:        getString(lookup, "DATABASE_URI", ""),
		ServiceTokenSecret: getString(lookup, "SERVICE_TOKEN_SECRET", defaultServiceTokenSecret),
		AdminKeyHash:       getString(lookup, "ADMIN_KEY_HASH", ""),
		BalanceCacheTTL:    getDuration(lookup, "BALANCE_CACHE_TTL", defaultBalanceCacheTTL),
		ReconcileInterval:  getDuration(lookup, "RECONCILE_INTERVAL", defaultReconcileInterval),
		ReconcileBatchSize: getInt(lookup, "RECONCILE_BATCH_SIZE", defaultReconcileBatchSize),
		DisputeWindowDays:  getInt(lookup, "DISPUTE_WINDOW_DAYS", defaultDisputeWindowDays),
		ShutdownTimeout:    getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		LogLevel:           getString(lookup, "LOG_LEVEL", defaultLogLevel),
	}

	fs := flag.NewFlagSet("pointsledger", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		cacheTTLStr        = cfg.BalanceCacheTTL.String()
		reconcileStr       = cfg.ReconcileInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.ServiceTokenSecret, "service-secret", cfg.ServiceTokenSecret, "Secret for signing service tokens")
	fs.StringVar(&cfg.AdminKeyHash, "admin-key-hash", cfg.AdminKeyHash, "bcrypt hash of the admin API key")
	fs.StringVar(&cacheTTLStr, "cache-ttl", cacheTTLStr, "Balance cache TTL (0 disables the cache)")
	fs.StringVar(&reconcileStr, "reconcile-interval", reconcileStr, "Interval between reconciliation runs")
	fs.IntVar(&cfg.ReconcileBatchSize, "reconcile-batch", cfg.ReconcileBatchSize, "Users per reconciliation batch")
	fs.IntVar(&cfg.DisputeWindowDays, "dispute-window", cfg.DisputeWindowDays, "Default dispute window in days")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.BalanceCacheTTL, err = time.ParseDuration(cacheTTLStr); err != nil {
		return nil, fmt.Errorf("invalid cache ttl: %w", err)
	}

	if cfg.ReconcileInterval, err = time.ParseDuration(reconcileStr); err != nil {
		return nil, fmt.Errorf("invalid reconcile interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if secretFile, ok := lookup("SERVICE_TOKEN_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read service token secret file: %w", err)
		}
		cfg.ServiceTokenSecret = string(content)
	}

	if cfg.ReconcileBatchSize <= 0 {
		cfg.ReconcileBatchSize = defaultReconcileBatchSize
	}

	if cfg.DisputeWindowDays <= 0 {
		cfg.DisputeWindowDays = defaultDisputeWindowDays
	}

	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = defaultReconcileInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
