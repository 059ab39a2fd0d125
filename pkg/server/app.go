package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"BlueprintScan/internal/domain/models"
	drepo "BlueprintScan/internal/domain/repository"
	"BlueprintScan/internal/usecase"
	"BlueprintScan/pkg/cache"
	"BlueprintScan/pkg/config"
	xhttp "BlueprintScan/pkg/http"
	"BlueprintScan/pkg/logger"
)

// App encapsulates the application lifecycle: feed collector, hub,
// optional findings publisher, and the HTTP server.
type App struct {
	cfg        *config.Config
	log        *logger.Logger
	collector  *usecase.FeedCollector
	hub        *usecase.Hub
	publisher  drepo.FindingsPublisher // nil when kafka is disabled
	cacheSvc   cache.Service           // nil when redis is disabled
	handler    xhttp.Handler
	httpServer *xhttp.Server
	pubSubID   string
}

// New creates the application with all dependencies.
func New(
	cfg *config.Config,
	log *logger.Logger,
	collector *usecase.FeedCollector,
	hub *usecase.Hub,
	publisher drepo.FindingsPublisher,
	cacheSvc cache.Service,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		collector: collector,
		hub:       hub,
		publisher: publisher,
		cacheSvc:  cacheSvc,
		handler:   handler,
	}
}

// Run starts everything and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.collector.Start(ctx)
	a.log.Info("feed collector started",
		logger.String("quote_asset", a.cfg.Exchange.QuoteAsset),
		logger.String("interval", a.cfg.Screener.Interval),
		logger.Int("working_set", a.cfg.Screener.WorkingSetSize))

	if a.publisher != nil {
		a.pubSubID = a.hub.Subscribe(models.SubscriptionConfig{}, func(res models.ScanResult) {
			pubCtx, pubCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer pubCancel()
			if err := a.publisher.Publish(pubCtx, res); err != nil {
				a.log.Warn("findings publish failed", logger.Error(err))
			}
		})
		a.log.Info("findings publisher attached", logger.String("topic", a.cfg.Kafka.Topic))
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", logger.Error(err))
		return err
	}
	a.log.Info("http server started", logger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown stops services in dependency order.
func (a *App) shutdown(ctx context.Context) error {
	if a.pubSubID != "" {
		a.hub.Unsubscribe(a.pubSubID)
	}

	a.collector.Stop()
	a.hub.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", logger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", logger.Error(err))
		}
	}
	if a.cacheSvc != nil {
		if err := a.cacheSvc.Close(); err != nil {
			a.log.Warn("cache close error", logger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
