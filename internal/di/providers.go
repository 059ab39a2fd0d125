package di

import (
	"fmt"

	"BlueprintScan/internal/domain/repository"
	"BlueprintScan/internal/handler/api"
	internalrepo "BlueprintScan/internal/repository"
	"BlueprintScan/internal/service/binance"
	"BlueprintScan/internal/usecase"
	"BlueprintScan/pkg/cache"
	"BlueprintScan/pkg/config"
	xhttp "BlueprintScan/pkg/http"
	pkgkafka "BlueprintScan/pkg/kafka"
	"BlueprintScan/pkg/logger"
	"BlueprintScan/pkg/metrics"
	"BlueprintScan/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the baseline cache: Redis when enabled,
// otherwise an in-process cache that does not survive restarts.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(4096)), nil
	}
	c, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix("blueprintscan"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideKafkaProducer creates a Kafka producer when enabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithBatchSize(cfg.Kafka.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideFindingsPublisher creates the Kafka findings publisher, or nil
// when Kafka is disabled.
func ProvideFindingsPublisher(producer *pkgkafka.Producer, cfg *config.Config, log *logger.Logger) repository.FindingsPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaFindingsPublisher(producer, cfg.Kafka.Topic, log)
}

// ProvideTickerStream creates the aggregate ticker stream client.
func ProvideTickerStream(cfg *config.Config) repository.TickerStream {
	return binance.NewTickerStream(cfg.Exchange.WebSocketURL, cfg.Exchange.PingInterval)
}

// ProvideCandleStream creates the candle stream client.
func ProvideCandleStream(cfg *config.Config) repository.CandleStream {
	return binance.NewKlineStream(cfg.Exchange.WebSocketURL, cfg.Exchange.PingInterval, cfg.Screener.MaxStreams)
}

// ProvideMarketData creates the exchange REST client.
func ProvideMarketData(cfg *config.Config) repository.MarketData {
	return binance.NewRESTClient(cfg.Exchange.RESTURL, cfg.Exchange.APIKey, cfg.Exchange.APISecret, cfg.Exchange.QuoteAsset)
}

// ProvideSymbolStore creates the in-memory symbol state store.
func ProvideSymbolStore(cfg *config.Config, m repository.Metrics) *usecase.SymbolStore {
	return usecase.NewSymbolStore(cfg.Exchange.QuoteAsset, m)
}

// ProvideBaselineProvider creates the ADR baseline provider.
func ProvideBaselineProvider(source repository.MarketData, c cache.Service, cfg *config.Config, log *logger.Logger) *usecase.BaselineProvider {
	return usecase.NewBaselineProvider(source, c, cfg.Screener.BaselineWindow, cfg.Redis.TTL, log)
}

// ProvideHub creates the subscription hub.
func ProvideHub(store *usecase.SymbolStore, baseline *usecase.BaselineProvider, m repository.Metrics, log *logger.Logger, cfg *config.Config) *usecase.Hub {
	return usecase.NewHub(store, baseline, m, log, cfg.Screener.ThrottleWindow, cfg.Screener.WorkingSetSize)
}

// ProvideFeedCollector creates the feed collector.
func ProvideFeedCollector(
	ticker repository.TickerStream,
	candles repository.CandleStream,
	market repository.MarketData,
	store *usecase.SymbolStore,
	hub *usecase.Hub,
	baseline *usecase.BaselineProvider,
	m repository.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.FeedCollector {
	return usecase.NewFeedCollector(ticker, candles, market, store, hub, baseline, m, log, usecase.CollectorOptions{
		ReconnectBase:   cfg.Exchange.ReconnectBase,
		MaxReconnects:   cfg.Exchange.ReconnectAttempts,
		RefreshInterval: cfg.Screener.RefreshInterval,
		WorkingSetSize:  cfg.Screener.WorkingSetSize,
		Interval:        repository.NormalizeInterval(cfg.Screener.Interval),
	})
}

// ProvideAPIHandler creates the HTTP API handler.
func ProvideAPIHandler(hub *usecase.Hub, collector *usecase.FeedCollector, store *usecase.SymbolStore, log *logger.Logger) xhttp.Handler {
	return api.NewHandler(hub, collector, store, log)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	collector *usecase.FeedCollector,
	hub *usecase.Hub,
	publisher repository.FindingsPublisher,
	c cache.Service,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, log, collector, hub, publisher, c, handler)
}
