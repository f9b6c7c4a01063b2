package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

const (
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress       string
	StoreDriver      string
	DatabaseURI      string
	FirestoreProject string
	OrdersCollection string
	LocalStatePath   string
	NATSURL          string
	FeedMaxRetries   int
	FeedBackoffStep  time.Duration
	WriteConcurrency int
	ShutdownTimeout  time.Duration
	LogLevel         string
	TimeLayout       string
}

const (
	defaultRunAddress       = ":8080"
	defaultStoreDriver      = DriverPostgres
	defaultOrdersCollection = "orders"
	defaultLocalStatePath   = "tableboard.db"
	defaultFeedMaxRetries   = 3
	defaultFeedBackoffStep  = 2 * time.Second
	defaultWriteConcurrency = 8
	defaultShutdownTimeout  = 10 * time.Second
	defaultLogLevel         = "info"
	defaultTimeLayout       = "15:04"
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:       getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		StoreDriver:      getString(lookup, "ORDER_STORE", defaultStoreDriver),
		DatabaseURI:      getString(lookup, "DATABASE_URI", ""),
		FirestoreProject: getString(lookup, "FIRESTORE_PROJECT", ""),
		OrdersCollection: getString(lookup, "ORDERS_COLLECTION", defaultOrdersCollection),
		LocalStatePath:   getString(lookup, "LOCAL_STATE_PATH", defaultLocalStatePath),
		NATSURL:          getString(lookup, "NATS_URL", ""),
		FeedMaxRetries:   getInt(lookup, "FEED_MAX_RETRIES", defaultFeedMaxRetries),
		FeedBackoffStep:  getDuration(lookup, "FEED_BACKOFF_STEP", defaultFeedBackoffStep),
		WriteConcurrency: getInt(lookup, "WRITE_CONCURRENCY", defaultWriteConcurrency),
		ShutdownTimeout:  getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		LogLevel:         getString(lookup, "LOG_LEVEL", defaultLogLevel),
		TimeLayout:       getString(lookup, "ORDER_TIME_LAYOUT", defaultTimeLayout),
	}

	fs := flag.NewFlagSet("tableboard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		backoffStr         = cfg.FeedBackoffStep.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.StoreDriver, "store", cfg.StoreDriver, "Remote order store: postgres or firestore")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.FirestoreProject, "firestore-project", cfg.FirestoreProject, "Firestore project id")
	fs.StringVar(&cfg.OrdersCollection, "collection", cfg.OrdersCollection, "Order collection name")
	fs.StringVar(&cfg.LocalStatePath, "state", cfg.LocalStatePath, "Local state database file")
	fs.StringVar(&cfg.NATSURL, "nats", cfg.NATSURL, "NATS URL for roster broadcasts")
	fs.IntVar(&cfg.FeedMaxRetries, "feed-retries", cfg.FeedMaxRetries, "Change feed retries before giving up")
	fs.StringVar(&backoffStr, "feed-backoff", backoffStr, "Change feed backoff step")
	fs.IntVar(&cfg.WriteConcurrency, "write-concurrency", cfg.WriteConcurrency, "Concurrent remote writes per command")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.TimeLayout, "time-layout", cfg.TimeLayout, "Layout of the last order time label")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.FeedBackoffStep, err = time.ParseDuration(backoffStr); err != nil {
		return nil, fmt.Errorf("invalid feed backoff: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.FeedMaxRetries < 0 {
		cfg.FeedMaxRetries = defaultFeedMaxRetries
	}

	if cfg.FeedBackoffStep <= 0 {
		cfg.FeedBackoffStep = defaultFeedBackoffStep
	}

	if cfg.WriteConcurrency <= 0 {
		cfg.WriteConcurrency = defaultWriteConcurrency
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.TimeLayout == "" {
		cfg.TimeLayout = defaultTimeLayout
	}

	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DatabaseURI == "" {
			return nil, fmt.Errorf("database URI must be provided")
		}
	case DriverFirestore:
		if cfg.FirestoreProject == "" {
			return nil, fmt.Errorf("firestore project must be provided")
		}
	default:
		return nil, fmt.Errorf("unknown order store %q", cfg.StoreDriver)
	}

	if cfg.LocalStatePath == "" {
		return nil, fmt.Errorf("local state path must be provided")
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
