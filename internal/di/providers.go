package di

import (
	"context"
	"fmt"
	"time"

	"taometrics/internal/domain/repository"
	"taometrics/internal/handler/api"
	internalrepo "taometrics/internal/repository"
	"taometrics/internal/service/pricefeed"
	"taometrics/internal/service/ratelimit"
	"taometrics/internal/service/taostats"
	"taometrics/internal/usecase"
	pkgch "taometrics/pkg/clickhouse"
	"taometrics/pkg/config"
	xhttp "taometrics/pkg/http"
	pkgkafka "taometrics/pkg/kafka"
	"taometrics/pkg/kv"
	applogger "taometrics/pkg/logger"
	"taometrics/pkg/metrics"
	"taometrics/pkg/server"

	"github.com/labstack/echo/v4"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := cfg.Log.Level
	if level == "" {
		level = "info"
	}
	l, err := applogger.New(&applogger.Config{
		Level:  level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideKVStore creates the Redis-backed KV store.
func ProvideKVStore(cfg *config.Config) (kv.Store, error) {
	store, err := kv.NewRedisStore(
		kv.WithAddr(cfg.Redis.Host, cfg.Redis.Port),
		kv.WithPassword(cfg.Redis.Password),
		kv.WithDB(cfg.Redis.DB),
		kv.WithPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return store, nil
}

// ProvideMetricsRecorder creates the Prometheus metrics recorder.
func ProvideMetricsRecorder() *metrics.Recorder {
	return metrics.New()
}

// ProvideMetricStore wraps the KV store with JSON metric semantics.
func ProvideMetricStore(cfg *config.Config, store kv.Store, l *applogger.Logger, rec *metrics.Recorder) repository.MetricStore {
	return internalrepo.NewKVMetricStore(store, l, rec, cfg.History.MaxEntries)
}

// ProvideClickHouseClient creates a ClickHouse client, nil when the daily
// archive is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideArchiveStore creates the daily archive over ClickHouse and ensures
// its schema. Returns nil when ClickHouse is disabled.
func ProvideArchiveStore(chClient *pkgch.Client) (repository.ArchiveStore, error) {
	if chClient == nil {
		return nil, nil
	}
	archive := internalrepo.NewClickHouseArchive(chClient.DB(), "")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := archive.Init(ctx); err != nil {
		_ = chClient.Close()
		return nil, fmt.Errorf("archive schema: %w", err)
	}
	return archive, nil
}

// ProvideKafkaConsumer creates the snapshot consumer, nil when ingest is
// disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithGroupID(cfg.Kafka.GroupID),
		pkgkafka.WithWorkers(cfg.Kafka.Workers),
		pkgkafka.WithRetry(cfg.Kafka.RetryMax, cfg.Kafka.BackoffMin, cfg.Kafka.BackoffMax),
		pkgkafka.WithFetch(cfg.Kafka.MinBytes, cfg.Kafka.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideSnapshotIngest creates the Kafka message handler that lands
// snapshots into the KV store and the archive.
func ProvideSnapshotIngest(
	cfg *config.Config,
	store repository.MetricStore,
	archive repository.ArchiveStore,
	rec *metrics.Recorder,
	l *applogger.Logger,
) *usecase.SnapshotIngest {
	return usecase.NewSnapshotIngest(store, archive, rec, l, cfg.Kafka.Topic)
}

// ProvideTaostatsClient creates the upstream proxy client with key failover.
func ProvideTaostatsClient(cfg *config.Config, store repository.MetricStore, rec *metrics.Recorder, l *applogger.Logger) *taostats.Client {
	return taostats.New(taostats.Config{
		BaseURL:      cfg.Taostats.BaseURL,
		APIKey:       cfg.Taostats.APIKey,
		BackupAPIKey: cfg.Taostats.BackupAPIKey,
		Timeout:      cfg.Taostats.Timeout,
		CacheTTL:     cfg.Taostats.CacheTTL,
	}, store, rec, l)
}

// ProvidePriceFeed creates the streaming price feed, nil when disabled.
func ProvidePriceFeed(cfg *config.Config, store repository.MetricStore, rec *metrics.Recorder, l *applogger.Logger) *pricefeed.Service {
	if !cfg.PriceFeed.Enabled {
		return nil
	}
	return pricefeed.New(pricefeed.Config{
		WebSocketURL:   cfg.PriceFeed.WebSocketURL,
		RestURL:        cfg.PriceFeed.RestURL,
		Symbol:         cfg.PriceFeed.Symbol,
		ReconnectDelay: cfg.PriceFeed.ReconnectDelay,
		PingInterval:   cfg.PriceFeed.PingInterval,
	}, store, rec, l)
}

// apiRouter registers every handler group on the shared Echo instance.
type apiRouter struct {
	handlers []xhttp.Handler
}

func (r *apiRouter) RegisterRoutes(e *echo.Echo) {
	for _, h := range r.handlers {
		h.RegisterRoutes(e)
	}
}

// ProvideHTTPHandler builds the use cases and combines the metric and proxy
// handler groups into one route registrar.
func ProvideHTTPHandler(
	cfg *config.Config,
	store repository.MetricStore,
	archive repository.ArchiveStore,
	ts *taostats.Client,
	l *applogger.Logger,
) xhttp.Handler {
	metricsHandler := api.NewMetricsHandler(
		l,
		usecase.NewAlphaPressureUseCase(store, l),
		usecase.NewDecentralizationUseCase(store, l, usecase.CompositeWeights{
			Wallet:    cfg.Decentralization.WalletWeight,
			Validator: cfg.Decentralization.ValidatorWeight,
			Subnet:    cfg.Decentralization.SubnetWeight,
		}),
		usecase.NewHalvingUseCase(store, l, cfg.Halving.MaxSupply, cfg.Halving.MaxEvents),
		usecase.NewHistoryUseCase(store, archive, l),
		cfg.History.WriteToken,
	)
	proxyHandler := api.NewProxyHandler(l, store, ts, ratelimit.New())

	return &apiRouter{handlers: []xhttp.Handler{metricsHandler, proxyHandler}}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	ingest *usecase.SnapshotIngest,
	feed *pricefeed.Service,
	chClient *pkgch.Client,
	store kv.Store,
) *server.App {
	var mh pkgkafka.MessageHandler
	if consumer != nil {
		mh = ingest
	}
	return server.New(cfg, l, handler, consumer, mh, feed, chClient, store)
}
