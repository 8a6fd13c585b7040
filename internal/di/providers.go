package di

import (
	"context"
	"fmt"
	"time"

	"BDRScan/internal/domain/repository"
	"BDRScan/internal/handler/api"
	internalrepo "BDRScan/internal/repository"
	"BDRScan/internal/service/brapi"
	"BDRScan/internal/service/finnhub"
	"BDRScan/internal/service/polymarket"
	"BDRScan/internal/service/ratelimit"
	"BDRScan/internal/service/stream"
	"BDRScan/internal/service/yahoo"
	"BDRScan/internal/usecase"
	"BDRScan/pkg/cache"
	pkgch "BDRScan/pkg/clickhouse"
	"BDRScan/pkg/config"
	xhttp "BDRScan/pkg/http"
	pkgkafka "BDRScan/pkg/kafka"
	applogger "BDRScan/pkg/logger"
	"BDRScan/pkg/metrics"
	"BDRScan/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideCache builds the cache: in-memory L1, with a Redis L2 when
// enabled. A Redis connection failure degrades to memory-only.
func ProvideCache(cfg *config.Config, log *applogger.Logger) cache.Service {
	mem := cache.NewMemoryCache()
	if !cfg.Cache.Redis.Enabled {
		return mem
	}

	redis, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Cache.Redis.Host, cfg.Cache.Redis.Port),
		cache.WithRedisAuth(cfg.Cache.Redis.Password, cfg.Cache.Redis.DB),
		cache.WithKeyPrefix("bdrscan"),
	)
	if err != nil {
		log.Warn("redis unavailable, using memory cache only", applogger.Error(err))
		return mem
	}
	return cache.NewLayeredCache(mem, redis)
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideLimiter creates the shared provider rate limiter.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideHub creates the scan progress WebSocket hub.
func ProvideHub(log *applogger.Logger) *stream.Hub {
	return stream.NewHub(log)
}

// ProvideQuoteLister creates the brapi universe client.
func ProvideQuoteLister(cfg *config.Config, m repository.Metrics) repository.QuoteLister {
	return brapi.New(cfg.Providers.Brapi.BaseURL, cfg.Providers.Brapi.Token, cfg.Providers.Brapi.Timeout, m)
}

// ProvideNewsProvider creates the Finnhub news client.
func ProvideNewsProvider(cfg *config.Config, m repository.Metrics) repository.NewsProvider {
	return finnhub.New(cfg.Providers.Finnhub.BaseURL, cfg.Providers.Finnhub.APIKey, cfg.Providers.Finnhub.Timeout, m)
}

// ProvideFundamentalsProvider creates the Yahoo fundamentals client.
func ProvideFundamentalsProvider(cfg *config.Config, m repository.Metrics) repository.FundamentalsProvider {
	return yahoo.New(cfg.Providers.Yahoo.BaseURL, cfg.Providers.Yahoo.Timeout, m)
}

// ProvideMarketProvider creates the Polymarket client.
func ProvideMarketProvider(cfg *config.Config, m repository.Metrics) repository.MarketProvider {
	return polymarket.New(cfg.Providers.Polymarket.BaseURL, cfg.Providers.Polymarket.Timeout, m)
}

// ProvideSnapshotSink selects the snapshot sink from configuration:
// a Kafka publisher, a ClickHouse store, or a no-op.
func ProvideSnapshotSink(cfg *config.Config, log *applogger.Logger) (repository.SnapshotSink, error) {
	switch cfg.Sink.Backend {
	case "kafka":
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Sink.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Sink.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Sink.Kafka.RequiredAcks),
			pkgkafka.WithBatchSize(cfg.Sink.Kafka.BatchSize),
			pkgkafka.WithBatchBytes(cfg.Sink.Kafka.BatchBytes),
			pkgkafka.WithBatchTimeout(cfg.Sink.Kafka.Linger),
			pkgkafka.WithTimeouts(cfg.Sink.Kafka.WriteTimeout, cfg.Sink.Kafka.ReadTimeout),
			pkgkafka.WithMaxAttempts(cfg.Sink.Kafka.MaxAttempts),
			pkgkafka.WithAsync(cfg.Sink.Kafka.Async),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}

		// Ship aggregated error logs over the same producer.
		log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Sink.Kafka.Topic + ".logs",
			Publisher:      internalrepo.NewLogPublisher(producer),
		})

		return internalrepo.NewKafkaSnapshotPublisher(producer, cfg.Sink.Kafka.Topic, log), nil

	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.Sink.ClickHouse.Host),
			pkgch.WithPort(cfg.Sink.ClickHouse.Port),
			pkgch.WithDatabase(cfg.Sink.ClickHouse.Database),
			pkgch.WithCredentials(cfg.Sink.ClickHouse.User, cfg.Sink.ClickHouse.Password),
			pkgch.WithHTTP(cfg.Sink.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.Sink.ClickHouse.AsyncInsert, cfg.Sink.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.Sink.ClickHouse.DialTimeout, cfg.Sink.ClickHouse.ReadTimeout, cfg.Sink.ClickHouse.WriteTimeout),
			pkgch.WithMaxExecutionTime(cfg.Sink.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		store, err := internalrepo.NewClickHouseSnapshotStore(ctx, client, log)
		if err != nil {
			client.Close()
			return nil, err
		}
		return store, nil

	default:
		return internalrepo.NoopSink{}, nil
	}
}

// ProvideRegistry creates the universe registry usecase.
func ProvideRegistry(cfg *config.Config, quotes repository.QuoteLister, c cache.Service, log *applogger.Logger) *usecase.Registry {
	return usecase.NewRegistry(quotes, c, log,
		cfg.Cache.TTL.Registry, cfg.Scan.UniverseCap, cfg.Scan.MinRegistrySize)
}

// ProvideFundamentals creates the fundamentals usecase.
func ProvideFundamentals(cfg *config.Config, p repository.FundamentalsProvider, c cache.Service, m repository.Metrics, log *applogger.Logger) *usecase.Fundamentals {
	return usecase.NewFundamentals(p, c, m, log, cfg.Cache.TTL.Fundamentals)
}

// ProvideNews creates the news usecase.
func ProvideNews(cfg *config.Config, p repository.NewsProvider, c cache.Service, m repository.Metrics, log *applogger.Logger) *usecase.News {
	return usecase.NewNews(p, c, m, log, cfg.Cache.TTL.News, cfg.Providers.Finnhub.LookbackDays)
}

// ProvideMarkets creates the prediction-market usecase.
func ProvideMarkets(cfg *config.Config, p repository.MarketProvider, c cache.Service, m repository.Metrics, log *applogger.Logger) *usecase.Markets {
	return usecase.NewMarkets(p, c, m, log, cfg.Cache.TTL.Markets, cfg.Providers.Polymarket.PageLimit)
}

// ProvideHistory creates the bounded analysis log.
func ProvideHistory(cfg *config.Config) *usecase.History {
	return usecase.NewHistory(cfg.Scan.HistoryMax)
}

// ProvideScanner wires the scan orchestrator.
func ProvideScanner(
	cfg *config.Config,
	registry *usecase.Registry,
	fundamentals *usecase.Fundamentals,
	news *usecase.News,
	markets *usecase.Markets,
	history *usecase.History,
	c cache.Service,
	limiter *ratelimit.Limiter,
	m repository.Metrics,
	hub *stream.Hub,
	sink repository.SnapshotSink,
	log *applogger.Logger,
) *usecase.Scanner {
	return usecase.NewScanner(registry, fundamentals, news, markets, history, c, limiter, m, hub, sink, log,
		usecase.ScannerConfig{
			ProviderRPS:    cfg.Scan.ProviderRPS,
			InterCallDelay: cfg.Scan.InterCallDelay,
			NewsCap:        cfg.Scan.NewsCap,
			SinkBackend:    cfg.Sink.Backend,
		})
}

// ProvideHandler creates the HTTP API handler.
func ProvideHandler(
	registry *usecase.Registry,
	scanner *usecase.Scanner,
	fundamentals *usecase.Fundamentals,
	news *usecase.News,
	markets *usecase.Markets,
	history *usecase.History,
	hub *stream.Hub,
	log *applogger.Logger,
) xhttp.Handler {
	return api.NewAnalysisHandler(registry, scanner, fundamentals, news, markets, history, hub, log)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	c cache.Service,
	hub *stream.Hub,
	sink repository.SnapshotSink,
) *server.App {
	return server.New(cfg, log, handler, c, hub, sink)
}
