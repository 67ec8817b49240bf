package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"taometrics/internal/service/pricefeed"
	pkgch "taometrics/pkg/clickhouse"
	"taometrics/pkg/config"
	xhttp "taometrics/pkg/http"
	pkgkafka "taometrics/pkg/kafka"
	"taometrics/pkg/kv"
	applogger "taometrics/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	handler    xhttp.Handler
	consumer   *pkgkafka.Consumer
	ingest     pkgkafka.MessageHandler
	pricefeed  *pricefeed.Service
	chClient   *pkgch.Client
	store      kv.Store
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies. Consumer, pricefeed
// and ClickHouse client may be nil when the corresponding feature is disabled.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	handler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	ingest pkgkafka.MessageHandler,
	feed *pricefeed.Service,
	chClient *pkgch.Client,
	store kv.Store,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		handler:   handler,
		consumer:  consumer,
		ingest:    ingest,
		pricefeed: feed,
		chClient:  chClient,
		store:     store,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.logger),
	)

	if a.consumer != nil && a.ingest != nil {
		a.consumer.RegisterHandler(a.ingest)
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				a.logger.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.logger.Info("snapshot consumer started", applogger.String("topic", a.ingest.Topic()))
	}

	if a.pricefeed != nil {
		go func() {
			if err := a.pricefeed.Run(ctx); err != nil {
				a.logger.Error("price feed error", applogger.Error(err))
			}
		}()
		a.logger.Info("price feed started", applogger.String("symbol", a.cfg.PriceFeed.Symbol))
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.pricefeed != nil {
		if err := a.pricefeed.Close(); err != nil {
			a.logger.Warn("price feed close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("kv store close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
