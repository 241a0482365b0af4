package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment, dotenv file and flags.
type Config struct {
	RunAddress      string
	LogLevel        slog.Level
	ShutdownTimeout time.Duration

	DatabaseURI           string
	MongoURI              string
	MongoDatabase         string
	RedisAddr             string
	RedisPrefix           string
	StorePriority         []string
	StoreTimeout          time.Duration
	StoreDegradedCooldown time.Duration
	MemoryCapacity        int

	OrderIDPrefix  string
	IdentitySecret string

	SendGridAPIKey    string
	EmailFrom         string
	OpsEmail          string
	WhatsAppAPIURL    string
	WhatsAppToken     string
	WhatsAppPhoneID   string
	WhatsAppOpsNumber string
	KafkaBrokers      []string
	KafkaTopic        string
	NotifyWorkers     int
	NotifyQueueSize   int
	NotifyTimeout     time.Duration
}

const (
	defaultRunAddress            = ":8080"
	defaultLogLevel              = "info"
	defaultEnvFile               = ".env"
	defaultShutdownTimeout       = 10 * time.Second
	defaultMongoDatabase         = "storefront"
	defaultRedisPrefix           = "storefront:"
	defaultStorePriority         = "postgres,mongodb,redis"
	defaultStoreTimeout          = 3 * time.Second
	defaultStoreDegradedCooldown = 30 * time.Second
	defaultMemoryCapacity        = 10000
	defaultOrderIDPrefix         = "ORD-"
	defaultIdentitySecret        = "change-me-in-production"
	defaultEmailFrom             = "orders@storefront.local"
	defaultWhatsAppAPIURL        = "https://graph.facebook.com/v19.0"
	defaultKafkaTopic            = "orders.created"
	defaultNotifyWorkers         = 4
	defaultNotifyQueueSize       = 128
	defaultNotifyTimeout         = 10 * time.Second
)

var knownTiers = map[string]struct{}{"postgres": {}, "mongodb": {}, "redis": {}}

// Load parses configuration from flags, environment variables and the dotenv file.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	lookup, err := withEnvFile(lookup)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		RunAddress:            getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		ShutdownTimeout:       getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		DatabaseURI:           getString(lookup, "DATABASE_URI", ""),
		MongoURI:              getString(lookup, "MONGO_URI", ""),
		MongoDatabase:         getString(lookup, "MONGO_DATABASE", defaultMongoDatabase),
		RedisAddr:             getString(lookup, "REDIS_ADDR", ""),
		RedisPrefix:           getString(lookup, "REDIS_PREFIX", defaultRedisPrefix),
		StoreTimeout:          getDuration(lookup, "STORE_TIMEOUT", defaultStoreTimeout),
		StoreDegradedCooldown: getDuration(lookup, "STORE_DEGRADED_COOLDOWN", defaultStoreDegradedCooldown),
		MemoryCapacity:        getInt(lookup, "MEMORY_CAPACITY", defaultMemoryCapacity),
		OrderIDPrefix:         getString(lookup, "ORDER_ID_PREFIX", defaultOrderIDPrefix),
		IdentitySecret:        getString(lookup, "IDENTITY_SECRET", defaultIdentitySecret),
		SendGridAPIKey:        getString(lookup, "SENDGRID_API_KEY", ""),
		EmailFrom:             getString(lookup, "EMAIL_FROM", defaultEmailFrom),
		OpsEmail:              getString(lookup, "OPS_EMAIL", ""),
		WhatsAppAPIURL:        getString(lookup, "WHATSAPP_API_URL", defaultWhatsAppAPIURL),
		WhatsAppToken:         getString(lookup, "WHATSAPP_TOKEN", ""),
		WhatsAppPhoneID:       getString(lookup, "WHATSAPP_PHONE_ID", ""),
		WhatsAppOpsNumber:     getString(lookup, "WHATSAPP_OPS_NUMBER", ""),
		KafkaTopic:            getString(lookup, "KAFKA_TOPIC", defaultKafkaTopic),
		NotifyWorkers:         getInt(lookup, "NOTIFY_WORKERS", defaultNotifyWorkers),
		NotifyQueueSize:       getInt(lookup, "NOTIFY_QUEUE_SIZE", defaultNotifyQueueSize),
		NotifyTimeout:         getDuration(lookup, "NOTIFY_TIMEOUT", defaultNotifyTimeout),
	}

	fset := flag.NewFlagSet("storefront", flag.ContinueOnError)
	fset.SetOutput(io.Discard)

	var (
		logLevelStr        = getString(lookup, "LOG_LEVEL", defaultLogLevel)
		priorityStr        = getString(lookup, "STORE_PRIORITY", defaultStorePriority)
		brokersStr         = getString(lookup, "KAFKA_BROKERS", "")
		storeTimeoutStr    = cfg.StoreTimeout.String()
		cooldownStr        = cfg.StoreDegradedCooldown.String()
		notifyTimeoutStr   = cfg.NotifyTimeout.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fset.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fset.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fset.StringVar(&cfg.MongoURI, "mongo-uri", cfg.MongoURI, "MongoDB connection URI")
	fset.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address")
	fset.StringVar(&priorityStr, "store-priority", priorityStr, "Comma separated storage tiers in priority order")
	fset.StringVar(&storeTimeoutStr, "store-timeout", storeTimeoutStr, "Timeout of a single storage tier call")
	fset.StringVar(&cooldownStr, "store-cooldown", cooldownStr, "How long a degraded tier is skipped, 0 for the process lifetime")
	fset.IntVar(&cfg.MemoryCapacity, "memory-capacity", cfg.MemoryCapacity, "Maximum orders held in memory, 0 for unbounded")
	fset.StringVar(&cfg.IdentitySecret, "identity-secret", cfg.IdentitySecret, "Secret verifying identity tokens")
	fset.IntVar(&cfg.NotifyWorkers, "notify-workers", cfg.NotifyWorkers, "Number of notification workers")
	fset.StringVar(&notifyTimeoutStr, "notify-timeout", notifyTimeoutStr, "Timeout of a single notification channel")
	fset.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fset.StringVar(&logLevelStr, "log-level", logLevelStr, "Log level: debug, info, warn or error")

	if err := fset.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if cfg.StoreTimeout, err = time.ParseDuration(storeTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid store timeout: %w", err)
	}
	if cfg.StoreDegradedCooldown, err = time.ParseDuration(cooldownStr); err != nil {
		return nil, fmt.Errorf("invalid store cooldown: %w", err)
	}
	if cfg.NotifyTimeout, err = time.ParseDuration(notifyTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid notify timeout: %w", err)
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(logLevelStr)); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	if secretFile, ok := lookup("IDENTITY_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read identity secret file: %w", err)
		}
		cfg.IdentitySecret = strings.TrimSpace(string(content))
	}

	cfg.StorePriority = splitList(priorityStr)
	for _, tier := range cfg.StorePriority {
		if _, ok := knownTiers[tier]; !ok {
			return nil, fmt.Errorf("unknown storage tier %q", tier)
		}
	}
	cfg.KafkaBrokers = splitList(brokersStr)

	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultStoreTimeout
	}

	if cfg.StoreDegradedCooldown < 0 {
		cfg.StoreDegradedCooldown = defaultStoreDegradedCooldown
	}

	if cfg.MemoryCapacity < 0 {
		cfg.MemoryCapacity = defaultMemoryCapacity
	}

	if cfg.NotifyWorkers <= 0 {
		cfg.NotifyWorkers = defaultNotifyWorkers
	}

	if cfg.NotifyQueueSize <= 0 {
		cfg.NotifyQueueSize = defaultNotifyQueueSize
	}

	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = defaultNotifyTimeout
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	return cfg, nil
}

// withEnvFile layers the dotenv file named by ENV_FILE under lookup; real environment wins.
// A missing default file is ignored, a missing explicit one is an error.
func withEnvFile(lookup envLookup) (envLookup, error) {
	path, explicit := lookup("ENV_FILE")
	if path == "" {
		path, explicit = defaultEnvFile, false
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return lookup, nil
		}
		return nil, fmt.Errorf("read env file: %w", err)
	}

	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	}, nil
}

func splitList(v string) []string {
	var result []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// DefaultIdentitySecret reports whether identity tokens are verified with the built-in secret.
func (c *Config) DefaultIdentitySecret() bool {
	return c.IdentitySecret == "" || c.IdentitySecret == defaultIdentitySecret
}

// PersistentStorage reports whether any durable order store is configured.
func (c *Config) PersistentStorage() bool {
	return c.DatabaseURI != "" || c.MongoURI != "" || c.RedisAddr != ""
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
