package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"archie-core-shopify-sync/internal/application"
	"archie-core-shopify-sync/internal/application/webhook_handlers"
	"archie-core-shopify-sync/internal/config"
	"archie-core-shopify-sync/internal/domain"
	"archie-core-shopify-sync/internal/infrastructure/api"
	"archie-core-shopify-sync/internal/infrastructure/encryption"
	"archie-core-shopify-sync/internal/infrastructure/metrics"
	"archie-core-shopify-sync/internal/infrastructure/notify"
	"archie-core-shopify-sync/internal/infrastructure/pubsub"
	"archie-core-shopify-sync/internal/infrastructure/queue"
	"archie-core-shopify-sync/internal/infrastructure/repository"
	shopifyinfra "archie-core-shopify-sync/internal/infrastructure/shopify"
	"archie-core-shopify-sync/internal/ports"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const shutdownTimeout = 30 * time.Second

// closableNotifier is a FailureNotifier that holds a connection
type closableNotifier interface {
	ports.FailureNotifier
	Close() error
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg(".env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	store := repository.NewMongoStore(client.Database(cfg.Mongo.Database))
	if err := store.EnsureIndexes(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create indexes")
	}

	encryptionService, err := encryption.NewService(cfg.TokenEncryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}

	collector := metrics.NewCollector()
	events := pubsub.NewSyncEventPubSub(logger)

	// Upstream fetcher with rate limiting and retry
	fetcher := shopifyinfra.NewCollectionFetcher(
		store.Tenants,
		shopifyinfra.NewTokenManager(encryptionService, cfg.Shopify.StrictDecrypt, logger),
		logger,
		shopifyinfra.WithAPIVersion(cfg.Shopify.APIVersion),
		shopifyinfra.WithHTTPClient(&http.Client{Timeout: cfg.Shopify.HTTPTimeout}),
		shopifyinfra.WithRateLimiter(shopifyinfra.NewRateLimiter(cfg.Shopify.RateLimit, cfg.Shopify.RateBurst, logger)),
		shopifyinfra.WithRetryConfig(shopifyinfra.RetryConfig{
			MaxAttempts:    cfg.Shopify.RetryAttempts,
			InitialBackoff: cfg.Shopify.RetryInitialBackoff,
			Multiplier:     2,
		}),
		shopifyinfra.WithMetrics(collector),
	)

	var redisClient *redis.Client
	if cfg.Broker.Backend == config.BrokerRedis || cfg.Lock.Backend == config.LockRedis {
		redisClient = queue.NewRedisClient(cfg.Broker.RedisAddr, cfg.Broker.RedisPassword, cfg.Broker.RedisDB)
	}

	broker, err := newBroker(ctx, cfg, redisClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize queue broker")
	}

	var locker ports.TenantLocker
	if cfg.Lock.Backend == config.LockRedis {
		locker = queue.NewRedisTenantLock(redisClient, cfg.Lock.TTL, logger)
	} else {
		locker = queue.NewMemoryTenantLock()
	}

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize failure notifier")
	}

	// Reconcilers and orchestrator
	customers := application.NewCustomerUpsertService(store.Customers, logger)
	products := application.NewProductUpsertService(store.Products, logger)
	orders := application.NewOrderUpsertService(store.Orders, store.Customers, store.Products, logger)

	syncService := application.NewSyncService(
		store.Tenants,
		fetcher,
		customers,
		products,
		orders,
		store.SyncRuns,
		locker,
		notifier,
		logger,
	).WithEvents(events).WithMetrics(collector)

	dataSyncService := application.NewDataSyncService(store.Tenants, syncService, store.SyncRuns, logger)

	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewCustomerHandler(customers, logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewProductHandler(products, logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewOrderHandler(orders, logger))

	// Queue pipeline
	registry := application.NewQueueRegistry(broker, store.Tenants, application.QueueTopology{
		Prefix:               cfg.Queue.Prefix,
		DeadLetterExchange:   cfg.Queue.DeadLetterExchange,
		DeadLetterRoutingKey: cfg.Queue.DeadLetterRoutingKey,
		DeadLetterQueue:      cfg.Queue.DeadLetterQueue,
	}, collector, logger)
	registry.Rebuild(ctx)

	producer := application.NewSyncJobProducer(store.Tenants, registry, broker, logger)

	var scheduler *application.SyncJobScheduler
	if cfg.Scheduler.Enabled {
		scheduler = application.NewSyncJobScheduler(producer, store.Tenants, application.SchedulerConfig{
			Type:         domain.SyncType(cfg.Scheduler.Mode),
			Interval:     cfg.Scheduler.Interval,
			TargetTenant: cfg.Scheduler.TargetTenant,
		}, logger)
		if err := scheduler.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start sync scheduler")
		}
	}

	var consumer *application.SyncJobConsumer
	if cfg.Consumer.Enabled {
		consumer = application.NewSyncJobConsumer(broker, registry, syncService, application.ConsumerConfig{
			Concurrency:     cfg.Consumer.Concurrency,
			MaxConcurrency:  cfg.Consumer.MaxConcurrency,
			PollTimeout:     cfg.Consumer.PollTimeout,
			RefreshInterval: cfg.Consumer.RefreshInterval,
		}, logger)
		if err := consumer.Start(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start sync consumer")
		}
	}

	// HTTP API
	handler := api.NewHandler(dataSyncService, producer, store.Tenants, webhookDispatcher, events, logger)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(handler, collector.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("Starting API server")
		logger.Info().Msg("Swagger documentation available at http://localhost:" + cfg.Port + "/swagger/index.html")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	if consumer != nil {
		if err := consumer.Stop(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Sync consumer did not drain in time")
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to shut down API server")
	}
	if err := broker.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to close queue broker")
	}
	if redisClient != nil && cfg.Broker.Backend != config.BrokerRedis {
		redisClient.Close()
	}
	if err := notifier.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to close failure notifier")
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to disconnect from MongoDB")
	}
	logger.Info().Msg("Shutdown complete")
}

func newBroker(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logger zerolog.Logger) (ports.QueueBroker, error) {
	if cfg.Broker.Backend == config.BrokerSQS {
		awsCfg, err := queue.LoadAWSConfig(ctx, cfg.Broker.AWSRegion)
		if err != nil {
			return nil, err
		}
		client := queue.NewSQSClient(awsCfg, cfg.Broker.SQSEndpoint)
		return queue.NewSQSBroker(client, cfg.Queue.Prefix, cfg.Queue.DeadLetterQueue, logger), nil
	}
	return queue.NewRedisBroker(redisClient, cfg.Queue.DeadLetterQueue, logger), nil
}

func newNotifier(cfg *config.Config, logger zerolog.Logger) (closableNotifier, error) {
	if cfg.Notify.Backend == config.NotifyKafka {
		return notify.NewKafkaNotifier(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic, logger)
	}
	return notify.NewLogNotifier(logger), nil
}
