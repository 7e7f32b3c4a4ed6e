package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backends
const (
	BrokerRedis = "redis"
	BrokerSQS   = "sqs"

	LockRedis  = "redis"
	LockMemory = "memory"

	NotifyLog   = "log"
	NotifyKafka = "kafka"
)

// Config holds the whole process configuration
type Config struct {
	Port     string
	LogLevel string

	Mongo     MongoConfig
	Shopify   ShopifyConfig
	Broker    BrokerConfig
	Queue     QueueConfig
	Consumer  ConsumerConfig
	Scheduler SchedulerConfig
	Lock      LockConfig
	Notify    NotifyConfig

	TokenEncryptionKey string
}

type MongoConfig struct {
	URI      string
	Database string
}

type ShopifyConfig struct {
	APIVersion          string
	HTTPTimeout         time.Duration
	RateLimit           float64
	RateBurst           int
	RetryAttempts       int
	RetryInitialBackoff time.Duration
	// StrictDecrypt fails the request instead of falling back to the stored token
	StrictDecrypt bool
}

type BrokerConfig struct {
	Backend       string // redis, sqs
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AWSRegion     string
	SQSEndpoint   string
}

type QueueConfig struct {
	Prefix               string
	DeadLetterExchange   string
	DeadLetterRoutingKey string
	DeadLetterQueue      string
}

type ConsumerConfig struct {
	Enabled         bool
	Concurrency     int
	MaxConcurrency  int
	PollTimeout     time.Duration
	RefreshInterval time.Duration
}

type SchedulerConfig struct {
	Enabled      bool
	Mode         string
	Interval     time.Duration
	TargetTenant string
}

type LockConfig struct {
	Backend string // redis, memory
	TTL     time.Duration
}

type NotifyConfig struct {
	Backend      string // log, kafka
	KafkaBrokers []string
	KafkaTopic   string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "shopify_sync")

	v.SetDefault("SHOPIFY_API_VERSION", "2024-07")
	v.SetDefault("SHOPIFY_HTTP_TIMEOUT", 30*time.Second)
	v.SetDefault("SHOPIFY_RATE_LIMIT", 2.0)
	v.SetDefault("SHOPIFY_RATE_BURST", 40)
	v.SetDefault("SHOPIFY_RETRY_ATTEMPTS", 3)
	v.SetDefault("SHOPIFY_RETRY_INITIAL_BACKOFF", 2*time.Second)
	v.SetDefault("SHOPIFY_STRICT_DECRYPT", false)

	v.SetDefault("SYNC_BROKER", BrokerRedis)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("SQS_ENDPOINT", "")

	v.SetDefault("SYNC_QUEUE_PREFIX", "sync.jobs.")
	v.SetDefault("SYNC_DLX_EXCHANGE", "sync.dlx")
	v.SetDefault("SYNC_DLQ_ROUTING_KEY", "dlq")
	v.SetDefault("SYNC_DLQ_NAME", "sync.jobs.dlq")

	v.SetDefault("SYNC_CONSUMER_ENABLED", true)
	v.SetDefault("SYNC_CONSUMER_CONCURRENCY", 2)
	v.SetDefault("SYNC_CONSUMER_MAX_CONCURRENCY", 8)
	v.SetDefault("SYNC_CONSUMER_POLL_TIMEOUT", 2*time.Second)
	v.SetDefault("SYNC_CONSUMER_REFRESH_INTERVAL", 30*time.Second)

	v.SetDefault("SYNC_SCHEDULER_ENABLED", true)
	v.SetDefault("SYNC_SCHEDULER_MODE", "FULL")
	v.SetDefault("SYNC_SCHEDULER_INTERVAL", 30*time.Minute)
	v.SetDefault("SYNC_SCHEDULER_TARGET_TENANT", "ALL")

	v.SetDefault("SYNC_LOCK_BACKEND", LockRedis)
	v.SetDefault("SYNC_LOCK_TTL", time.Hour)

	v.SetDefault("NOTIFY_BACKEND", NotifyLog)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_FAILURE_TOPIC", "sync.failures")

	v.SetDefault("TOKEN_ENCRYPTION_KEY", "")
}

// Load reads configuration from the environment. Call godotenv.Load first to pick up a .env file.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Port:     v.GetString("PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),
		Mongo: MongoConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
		},
		Shopify: ShopifyConfig{
			APIVersion:          v.GetString("SHOPIFY_API_VERSION"),
			HTTPTimeout:         v.GetDuration("SHOPIFY_HTTP_TIMEOUT"),
			RateLimit:           v.GetFloat64("SHOPIFY_RATE_LIMIT"),
			RateBurst:           v.GetInt("SHOPIFY_RATE_BURST"),
			RetryAttempts:       v.GetInt("SHOPIFY_RETRY_ATTEMPTS"),
			RetryInitialBackoff: v.GetDuration("SHOPIFY_RETRY_INITIAL_BACKOFF"),
			StrictDecrypt:       v.GetBool("SHOPIFY_STRICT_DECRYPT"),
		},
		Broker: BrokerConfig{
			Backend:       strings.ToLower(v.GetString("SYNC_BROKER")),
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			AWSRegion:     v.GetString("AWS_REGION"),
			SQSEndpoint:   v.GetString("SQS_ENDPOINT"),
		},
		Queue: QueueConfig{
			Prefix:               v.GetString("SYNC_QUEUE_PREFIX"),
			DeadLetterExchange:   v.GetString("SYNC_DLX_EXCHANGE"),
			DeadLetterRoutingKey: v.GetString("SYNC_DLQ_ROUTING_KEY"),
			DeadLetterQueue:      v.GetString("SYNC_DLQ_NAME"),
		},
		Consumer: ConsumerConfig{
			Enabled:         v.GetBool("SYNC_CONSUMER_ENABLED"),
			Concurrency:     v.GetInt("SYNC_CONSUMER_CONCURRENCY"),
			MaxConcurrency:  v.GetInt("SYNC_CONSUMER_MAX_CONCURRENCY"),
			PollTimeout:     v.GetDuration("SYNC_CONSUMER_POLL_TIMEOUT"),
			RefreshInterval: v.GetDuration("SYNC_CONSUMER_REFRESH_INTERVAL"),
		},
		Scheduler: SchedulerConfig{
			Enabled:      v.GetBool("SYNC_SCHEDULER_ENABLED"),
			Mode:         strings.ToUpper(v.GetString("SYNC_SCHEDULER_MODE")),
			Interval:     v.GetDuration("SYNC_SCHEDULER_INTERVAL"),
			TargetTenant: v.GetString("SYNC_SCHEDULER_TARGET_TENANT"),
		},
		Lock: LockConfig{
			Backend: strings.ToLower(v.GetString("SYNC_LOCK_BACKEND")),
			TTL:     v.GetDuration("SYNC_LOCK_TTL"),
		},
		Notify: NotifyConfig{
			Backend:      strings.ToLower(v.GetString("NOTIFY_BACKEND")),
			KafkaBrokers: splitList(v.GetString("KAFKA_BROKERS")),
			KafkaTopic:   v.GetString("KAFKA_FAILURE_TOPIC"),
		},
		TokenEncryptionKey: v.GetString("TOKEN_ENCRYPTION_KEY"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the backend selections and the worker and interval bounds
func (c *Config) Validate() error {
	var errs []error

	if c.TokenEncryptionKey == "" {
		errs = append(errs, errors.New("TOKEN_ENCRYPTION_KEY is required"))
	}

	switch c.Broker.Backend {
	case BrokerRedis, BrokerSQS:
	default:
		errs = append(errs, fmt.Errorf("unknown SYNC_BROKER %q", c.Broker.Backend))
	}

	switch c.Lock.Backend {
	case LockRedis, LockMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown SYNC_LOCK_BACKEND %q", c.Lock.Backend))
	}
	if c.Lock.TTL <= 0 {
		errs = append(errs, errors.New("SYNC_LOCK_TTL must be positive"))
	}

	switch c.Notify.Backend {
	case NotifyLog:
	case NotifyKafka:
		if len(c.Notify.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required when NOTIFY_BACKEND is kafka"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown NOTIFY_BACKEND %q", c.Notify.Backend))
	}

	switch c.Scheduler.Mode {
	case "FULL", "INCREMENTAL":
	default:
		errs = append(errs, fmt.Errorf("SYNC_SCHEDULER_MODE must be FULL or INCREMENTAL, got %q", c.Scheduler.Mode))
	}
	if c.Scheduler.Interval <= 0 {
		errs = append(errs, errors.New("SYNC_SCHEDULER_INTERVAL must be positive"))
	}

	if c.Consumer.Concurrency <= 0 {
		errs = append(errs, errors.New("SYNC_CONSUMER_CONCURRENCY must be positive"))
	}
	if c.Consumer.Concurrency > c.Consumer.MaxConcurrency {
		errs = append(errs, fmt.Errorf("SYNC_CONSUMER_CONCURRENCY (%d) exceeds SYNC_CONSUMER_MAX_CONCURRENCY (%d)",
			c.Consumer.Concurrency, c.Consumer.MaxConcurrency))
	}
	if c.Consumer.PollTimeout <= 0 || c.Consumer.RefreshInterval <= 0 {
		errs = append(errs, errors.New("consumer poll timeout and refresh interval must be positive"))
	}

	if c.Shopify.RateLimit <= 0 || c.Shopify.RateBurst <= 0 {
		errs = append(errs, errors.New("SHOPIFY_RATE_LIMIT and SHOPIFY_RATE_BURST must be positive"))
	}
	if c.Shopify.RetryAttempts <= 0 {
		errs = append(errs, errors.New("SHOPIFY_RETRY_ATTEMPTS must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
