package di

import (
	"context"
	"fmt"
	"time"

	"StoreMonitor/internal/domain/repository"
	"StoreMonitor/internal/handler/api"
	"StoreMonitor/internal/middleware"
	internalrepo "StoreMonitor/internal/repository"
	"StoreMonitor/internal/service/ratelimit"
	"StoreMonitor/internal/services/uptime"
	"StoreMonitor/internal/usecase"
	"StoreMonitor/pkg/cache"
	pkgch "StoreMonitor/pkg/clickhouse"
	"StoreMonitor/pkg/config"
	xhttp "StoreMonitor/pkg/http"
	pkgkafka "StoreMonitor/pkg/kafka"
	"StoreMonitor/pkg/logger"
	"StoreMonitor/pkg/metrics"
	"StoreMonitor/pkg/queue"
	"StoreMonitor/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// ProvideKafkaProducer creates the shared producer, or nil when nothing publishes.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Events.Enabled && !cfg.Log.Collector.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger builds the app logger and attaches the Kafka log collector when enabled.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, func(), error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Log.Collector.Enabled && producer != nil {
		l.AddCollector(&logger.CollectionConfig{
			TimeInterval:   cfg.Log.Collector.FlushInterval,
			CountThreshold: cfg.Log.Collector.CountThreshold,
			Topic:          cfg.Log.Collector.Topic,
			Service:        "storemonitor",
			Publisher:      producer,
		})
	}
	return l, l.RemoveCollector, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideClickHouseClient connects and creates the schema, or returns nil for memory storage.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if cfg.Storage.Type != "clickhouse" {
		return nil, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(cfg.ClickHouse.MaxOpenConns, cfg.ClickHouse.MaxIdleConns),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if err := client.InitSchema(ctx, internalrepo.StoreSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideRedisClient returns the shared Redis client, or nil when no component uses Redis.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.NeedsRedis() {
		return nil, func() {}, nil
	}
	client, err := cache.NewRedisClient(context.Background(),
		cache.WithRedisAddr(cfg.Redis.Host, cfg.Redis.Port),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, 2, 30*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideProfileCache selects the profile cache backend; nil disables caching.
func ProvideProfileCache(cfg *config.Config, rdb *redis.Client) (cache.Service, func()) {
	var svc cache.Service
	switch cfg.Cache.Type {
	case "memory":
		svc = cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MaxEntries),
			cache.WithMemoryTTL(cfg.Cache.ProfileTTL),
		)
	case "redis":
		svc = cache.NewRedisCache(rdb, cfg.Redis.Prefix)
	case "layered":
		svc = cache.NewLayeredCache(cache.NewRedisCache(rdb, cfg.Redis.Prefix),
			cache.WithLayeredMemory(cfg.Cache.MaxEntries, time.Minute))
	default:
		return nil, func() {}
	}
	// The Redis client is closed by its own cleanup.
	return svc, func() {
		if mc, ok := svc.(*cache.MemoryCache); ok {
			_ = mc.Close()
		}
	}
}

// ProvideStoreRepository selects the data store and wraps it with the profile cache.
func ProvideStoreRepository(cfg *config.Config, ch *pkgch.Client, c cache.Service) repository.StoreRepository {
	var store repository.StoreRepository
	if cfg.Storage.Type == "clickhouse" {
		store = internalrepo.NewClickHouseStoreData(ch)
	} else {
		store = internalrepo.NewMemoryStoreData()
	}
	if c == nil {
		return store
	}
	return internalrepo.NewCachedStoreData(store, c, cfg.Cache.ProfileTTL)
}

// ProvideProfileInvalidator returns the cache decorator when one is in place.
func ProvideProfileInvalidator(store repository.StoreRepository) repository.ProfileInvalidator {
	if inv, ok := store.(repository.ProfileInvalidator); ok {
		return inv
	}
	return nil
}

// ProvideCalculator creates the per-store uptime calculator.
func ProvideCalculator(cfg *config.Config, store repository.StoreRepository) (*uptime.Calculator, error) {
	resolver, err := uptime.NewResolver(cfg.Report.DefaultTimezone)
	if err != nil {
		return nil, err
	}
	return uptime.NewCalculator(store, resolver), nil
}

// ProvideReportRegistry selects the memory or Redis job registry.
func ProvideReportRegistry(cfg *config.Config, rdb *redis.Client) repository.ReportRegistry {
	if cfg.Report.Registry == "redis" {
		return internalrepo.NewRedisReportRegistry(rdb, cfg.Redis.Prefix, cfg.Report.RegistryTTL)
	}
	return internalrepo.NewMemoryReportRegistry()
}

// ProvideArtifactStore creates the report file store.
func ProvideArtifactStore(cfg *config.Config) (repository.ArtifactStore, error) {
	return internalrepo.NewFileArtifactStore(cfg.Report.OutputDir)
}

// ProvideReportEvents publishes lifecycle events to Kafka, or drops them when disabled.
func ProvideReportEvents(cfg *config.Config, producer *pkgkafka.Producer) repository.ReportEvents {
	if !cfg.Kafka.Events.Enabled || producer == nil {
		return internalrepo.NoopReportEvents{}
	}
	return internalrepo.NewKafkaReportEvents(producer, cfg.Kafka.Events.Topic)
}

// ProvideReportGenerator creates the report worker.
func ProvideReportGenerator(
	cfg *config.Config,
	store repository.StoreRepository,
	calc *uptime.Calculator,
	registry repository.ReportRegistry,
	artifacts repository.ArtifactStore,
	events repository.ReportEvents,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.ReportGenerator {
	return usecase.NewReportGenerator(store, calc, registry, artifacts, events, m, log, usecase.GeneratorOptions{
		BatchSize: cfg.Report.BatchSize,
		Workers:   cfg.Report.Workers,
		WallClock: cfg.Report.NowSource == "wall_clock",
	})
}

// ProvideReportQueue builds the Redis job queue for distributed dispatch, or nil.
func ProvideReportQueue(cfg *config.Config, log *logger.Logger, rdb *redis.Client, gen *usecase.ReportGenerator) *queue.RedisQueue {
	if cfg.Report.Dispatch != "redis" {
		return nil
	}
	q := queue.NewRedisQueue(log, queue.Config{
		Workers:    cfg.Report.QueueWorkers,
		RetryLimit: 3,
		RetryDelay: 10 * time.Second,
	}, rdb, queue.WithKeyPrefix(cfg.Redis.Prefix+":queue"))
	q.RegisterJob(usecase.NewReportQueueJob(gen))
	return q
}

// ProvideLocalDispatcher returns the in-process dispatcher, or nil when jobs go to the queue.
func ProvideLocalDispatcher(cfg *config.Config, gen *usecase.ReportGenerator, log *logger.Logger) *usecase.LocalDispatcher {
	if cfg.Report.Dispatch != "local" {
		return nil
	}
	return usecase.NewLocalDispatcher(gen, log)
}

// ProvideDispatcher prefers the Redis queue when it is configured.
func ProvideDispatcher(local *usecase.LocalDispatcher, q *queue.RedisQueue) usecase.Dispatcher {
	if q != nil {
		return usecase.NewQueueDispatcher(q)
	}
	return local
}

// ProvideReportService creates the trigger/query service.
func ProvideReportService(registry repository.ReportRegistry, artifacts repository.ArtifactStore, d usecase.Dispatcher, log *logger.Logger) *usecase.ReportService {
	return usecase.NewReportService(registry, artifacts, d, log)
}

// ProvideDataImporter creates the CSV importer.
func ProvideDataImporter(cfg *config.Config, store repository.StoreRepository, inv repository.ProfileInvalidator, m repository.Metrics, log *logger.Logger) *usecase.DataImporter {
	return usecase.NewDataImporter(cfg.Ingest.DataDir, cfg.Ingest.BatchSize, store, inv, m, log)
}

// ProvideDiagnostics creates the debug data reporter.
func ProvideDiagnostics(cfg *config.Config, store repository.StoreRepository) *usecase.Diagnostics {
	return usecase.NewDiagnostics(store, cfg.Report.DefaultTimezone)
}

// ProvideRateLimiter creates the trigger limiter; disabled when capacity is 0.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.TriggerCapacity, cfg.RateLimit.TriggerPerSecond)
}

// ProvideReportHandler creates the HTTP handler.
func ProvideReportHandler(
	log *logger.Logger,
	reports *usecase.ReportService,
	importer *usecase.DataImporter,
	diag *usecase.Diagnostics,
	store repository.StoreRepository,
	limiter *ratelimit.Limiter,
) *api.ReportEchoHandler {
	return api.NewReportEchoHandler(log, reports, importer, diag, store, limiter)
}

// ProvideHTTPServer creates the Echo server with the report routes.
func ProvideHTTPServer(cfg *config.Config, h *api.ReportEchoHandler, log *logger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h, log,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(metricsPath, cfg.Server.SlowRequest),
	)
}

// ProvideStatusConsumer creates the live poll consumer when enabled.
func ProvideStatusConsumer(cfg *config.Config, log *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.HookFuncs{
		Err: func(_ context.Context, topic string, km kafkago.Message, _ []byte, err error) {
			log.Debug("status poll rejected",
				logger.String("topic", topic),
				logger.Int("partition", km.Partition),
				logger.Int64("offset", km.Offset),
				logger.Error(err))
		},
	})
	return consumer, nil
}

// ProvidePollBuffer batches live polls ahead of the observation store.
func ProvidePollBuffer(cfg *config.Config, store repository.StoreRepository, m repository.Metrics, log *logger.Logger) *middleware.PollBuffer {
	if !cfg.Kafka.Consumer.Enabled {
		return nil
	}
	c := cfg.Kafka.Consumer
	return middleware.NewPollBuffer(store, m, log,
		middleware.WithBatchSize(c.FlushSize),
		middleware.WithFlushInterval(c.FlushInterval),
		middleware.WithCapacity(c.PendingMax),
	)
}

// ProvideStatusPollHandler creates the live poll handler when the consumer is enabled.
func ProvideStatusPollHandler(cfg *config.Config, buf *middleware.PollBuffer, m repository.Metrics) *usecase.StatusPollHandler {
	if buf == nil {
		return nil
	}
	return usecase.NewStatusPollHandler(cfg.Kafka.Consumer.Topic, buf, m)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	pollHandler *usecase.StatusPollHandler,
	pollBuffer *middleware.PollBuffer,
	q *queue.RedisQueue,
	local *usecase.LocalDispatcher,
) *server.App {
	return server.New(cfg, log, httpServer, consumer, pollHandler, pollBuffer, q, local)
}
