package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	drepo "BDRScan/internal/domain/repository"
	"BDRScan/internal/service/stream"
	"BDRScan/pkg/cache"
	"BDRScan/pkg/config"
	xhttp "BDRScan/pkg/http"
	applogger "BDRScan/pkg/logger"
)

// App encapsulates the application lifecycle: the HTTP server plus the
// shared resources that need an orderly shutdown.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	handler    xhttp.Handler
	cache      cache.Service
	hub        *stream.Hub
	sink       drepo.SnapshotSink
}

// New creates the App.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	c cache.Service,
	hub *stream.Hub,
	sink drepo.SnapshotSink,
) *App {
	return &App{
		cfg:     cfg,
		log:     log,
		handler: handler,
		cache:   c,
		hub:     hub,
		sink:    sink,
	}
}

// Run starts the HTTP server and blocks until interrupted.
func (a *App) Run() error {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	}
	if a.cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithRequestMetrics(a.log, time.Second))
	}
	a.httpServer = xhttp.NewServer(a.handler, opts...)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("sink", a.cfg.Sink.Backend))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.hub != nil {
		if err := a.hub.Close(); err != nil {
			a.log.Warn("progress hub close error", applogger.Error(err))
		}
	}

	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			a.log.Warn("sink close error", applogger.Error(err))
		}
	}

	if err := a.cache.Close(); err != nil {
		a.log.Warn("cache close error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
