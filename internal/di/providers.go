package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"OptRisk/internal/domain/models"
	"OptRisk/internal/domain/repository"
	"OptRisk/internal/handler/api"
	mid "OptRisk/internal/middleware"
	internalrepo "OptRisk/internal/repository"
	icache "OptRisk/internal/service/cache"
	"OptRisk/internal/service/feed"
	"OptRisk/internal/service/flow"
	"OptRisk/internal/services/planner"
	"OptRisk/internal/usecase"
	pkgcache "OptRisk/pkg/cache"
	pkgch "OptRisk/pkg/clickhouse"
	"OptRisk/pkg/config"
	pkgkafka "OptRisk/pkg/kafka"
	applogger "OptRisk/pkg/logger"
	"OptRisk/pkg/metrics"
	"OptRisk/pkg/server"
)

// ProvideLogger creates the application logger. With a logs topic configured
// the aggregating collector ships deduplicated warn/error lines to Kafka.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	l, err := applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Kafka.LogsTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   time.Minute,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      logPublisher{producer},
		})
	}
	return l, nil
}

// logPublisher adapts the Kafka producer to the collector's Publisher.
type logPublisher struct {
	p *pkgkafka.Producer
}

func (lp logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return lp.p.Publish(ctx, topic, nil, payload)
}

// ProvideClickHouseClient creates a ClickHouse client. Table DDL is owned by
// the stores' Init methods, not here.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCandleStore creates the ClickHouse candle store and ensures its schema.
func ProvideCandleStore(chClient *pkgch.Client, l *applogger.Logger) (repository.CandleStore, error) {
	store := internalrepo.NewCHCandleStore(chClient)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("candle store schema: %w", err)
	}
	return store, nil
}

// ProvidePlanStore creates the ClickHouse plan store and ensures its schema.
func ProvidePlanStore(chClient *pkgch.Client) (repository.PlanStore, error) {
	store := internalrepo.NewCHPlanStore(chClient)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("plan store schema: %w", err)
	}
	return store, nil
}

// ProvidePlanPublisher creates the Kafka plan publisher.
func ProvidePlanPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPlanPublisher(producer, cfg.Kafka.PlansTopic)
}

// ProvideTickPublisher creates the Kafka raw-tick publisher.
func ProvideTickPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.TickPublisher {
	return internalrepo.NewKafkaTickPublisher(producer, cfg.Kafka.TicksTopic)
}

// ProvideFeedStream creates the WebSocket market stream.
func ProvideFeedStream(cfg *config.Config) repository.MarketStream {
	return feed.New(
		cfg.Feed.APIKey,
		cfg.Feed.WebSocketURL,
		cfg.Feed.Symbols,
		cfg.Feed.ReconnectDelay,
		cfg.Feed.PingInterval,
	)
}

// ProvideBytesCache picks a layered memory+Redis cache when Redis is
// configured, a plain in-process cache otherwise.
func ProvideBytesCache(cfg *config.Config) (icache.BytesCache, error) {
	if !cfg.Cache.Redis.Enabled {
		return icache.NewServiceCache(pkgcache.NewMemoryCache()), nil
	}

	host, port := splitAddr(cfg.Cache.Redis.Addr)
	redisCache, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
		pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return icache.NewServiceCache(pkgcache.NewLayeredCache(redisCache)), nil
}

func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvideFlowProvider creates the options-flow client, or nil when disabled.
func ProvideFlowProvider(cfg *config.Config, cache icache.BytesCache, l *applogger.Logger) repository.FlowProvider {
	if !cfg.Flow.Enabled {
		return nil
	}
	timeout := cfg.Flow.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return flow.New(cfg.Flow.BaseURL, cfg.Flow.APIKey, timeout,
		flow.WithCache(cache, cfg.Flow.CacheTTL),
		flow.WithLogger(l),
	)
}

// ProvideCandleAggregator creates the quote-to-candle aggregator. Closed bars
// feed the replan watcher when one is running.
func ProvideCandleAggregator(store repository.CandleStore, m repository.Metrics, watcher *usecase.ReplanWatcher) *usecase.CandleAggregator {
	agg := usecase.NewCandleAggregator(store, m, repository.DefaultTimeframe())
	if watcher != nil {
		agg.OnBarClose(watcher.OnBarClose)
	}
	return agg
}

// ProvideTickProcessor creates the tick router for the configured backend.
func ProvideTickProcessor(
	pub repository.TickPublisher,
	agg *usecase.CandleAggregator,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.TickProcessor {
	return usecase.NewTickProcessor(pub, agg, m, cfg.Ingest.Backend)
}

// ProvidePlanUseCase wires the full planning pipeline.
func ProvidePlanUseCase(
	candles repository.CandleStore,
	m repository.Metrics,
	fp repository.FlowProvider,
	plans repository.PlanStore,
	pub repository.Publisher,
	cache icache.BytesCache,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.PlanUseCase {
	opts := []usecase.PlanOption{
		usecase.WithPlanStore(plans),
		usecase.WithPublisher(pub),
		usecase.WithPlanCache(cache, cfg.Cache.PlanTTL),
		usecase.WithPlanLogger(l),
		usecase.WithRiskDefaults(riskDefaults(cfg)),
		usecase.WithKeyLevelConfig(keyLevelConfig(cfg)),
	}
	if fp != nil {
		opts = append(opts, usecase.WithFlowProvider(fp))
	}
	return usecase.NewPlanUseCase(candles, m, opts...)
}

func riskDefaults(cfg *config.Config) models.RiskDefaults {
	d := models.RiskDefaults{
		Mode:      cfg.Engine.Mode,
		TPPercent: cfg.Engine.TPPercent,
		SLPercent: cfg.Engine.SLPercent,
	}
	if d.Mode == "" {
		d.Mode = planner.ModeCalculated
	}
	if cfg.Engine.DTEPreset == "intraday" {
		th := planner.IntradayDTEThresholds
		d.DTEThresholds = &th
	}
	return d
}

func keyLevelConfig(cfg *config.Config) planner.KeyLevelConfig {
	kc := planner.DefaultKeyLevelConfig()
	if cfg.Engine.ORBMinutes > 0 {
		kc.ORBMinutes = cfg.Engine.ORBMinutes
	}
	if cfg.Engine.BollingerPeriod > 0 {
		kc.BollingerPeriod = cfg.Engine.BollingerPeriod
	}
	if cfg.Engine.BollingerK > 0 {
		kc.BollingerK = cfg.Engine.BollingerK
	}
	return kc
}

// ProvideReplanWatcher creates the drift watcher, or nil when replanning is
// disabled.
func ProvideReplanWatcher(plan *usecase.PlanUseCase, m repository.Metrics, l *applogger.Logger, cfg *config.Config) *usecase.ReplanWatcher {
	if !cfg.Engine.Replan.Enabled {
		return nil
	}
	return usecase.NewReplanWatcher(plan, m, usecase.ReplanPolicy{
		DriftPercent:   cfg.Engine.Replan.DriftPercent,
		ZeroDTEDrift:   cfg.Engine.Replan.ZeroDTEDrift,
		LevelTolerance: cfg.Engine.Replan.LevelTolerance,
		MinInterval:    cfg.Engine.Replan.MinInterval,
	}, l)
}

// ProvideQuoteCollector creates the collector with the tick pipeline between
// the WebSocket feed and the ingest backend.
func ProvideQuoteCollector(
	stream repository.MarketStream,
	proc *usecase.TickProcessor,
	watcher *usecase.ReplanWatcher,
	m repository.Metrics,
) *usecase.QuoteCollector {
	pipe := mid.NewTickPipeline(proc, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewQuoteCollector(stream, proc, watcher, m, pipe)
}

// ProvideKafkaTicksHandler registers the handler for the ticks topic.
func ProvideKafkaTicksHandler(agg *usecase.CandleAggregator, m repository.Metrics, cfg *config.Config) *usecase.KafkaTicksHandler {
	return usecase.NewKafkaTicksHandler(cfg.Kafka.TicksTopic, agg, m)
}

// ProvideCandlesUseCase creates the candle query use case.
func ProvideCandlesUseCase(store repository.CandleStore) *usecase.CandlesUseCase {
	return usecase.NewCandlesUseCase(store)
}

// ProvidePlanHandler creates the Echo planning handler.
func ProvidePlanHandler(
	l *applogger.Logger,
	plan *usecase.PlanUseCase,
	candles *usecase.CandlesUseCase,
	watcher *usecase.ReplanWatcher,
	cache icache.BytesCache,
	cfg *config.Config,
) *api.PlanHandler {
	h := api.NewPlanHandler(l, plan, candles)
	h.SetCache(cache, cfg.Cache.LevelsTTL)
	if watcher != nil {
		h.SetWatcher(watcher)
	}
	if cfg.RateLimit.Enabled {
		h.SetRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.QuoteCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaTicksHandler,
	chClient *pkgch.Client,
	handler *api.PlanHandler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, l, collector, consumer, kh, chClient)
	app.SetHTTPHandler(handler)
	if collector != nil {
		app.TickProc = collector.Processor()
	}
	return app
}
