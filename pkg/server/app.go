package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	drepo "github.com/BurhanCantCode/BaqiAI/internal/domain/repository"
	"github.com/BurhanCantCode/BaqiAI/pkg/cache"
	pkgch "github.com/BurhanCantCode/BaqiAI/pkg/clickhouse"
	"github.com/BurhanCantCode/BaqiAI/pkg/config"
	xhttp "github.com/BurhanCantCode/BaqiAI/pkg/http"
	applogger "github.com/BurhanCantCode/BaqiAI/pkg/logger"

	"github.com/labstack/echo/v4"
)

// App encapsulates the application lifecycle: the HTTP surface plus the
// infrastructure clients that need orderly shutdown.
type App struct {
	cfg    *config.Config
	logger *applogger.Logger

	handlers []xhttp.Handler
	server   *xhttp.Server

	backend  cache.Service
	chClient *pkgch.Client
	events   drepo.EventPublisher
	archive  drepo.HistoryArchive
}

// New creates an App. Handlers register their own routes; nil infra
// clients are simply skipped at startup and shutdown.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	backend cache.Service,
	chClient *pkgch.Client,
	events drepo.EventPublisher,
	archive drepo.HistoryArchive,
	handlers ...xhttp.Handler,
) *App {
	return &App{
		cfg:      cfg,
		logger:   logger,
		handlers: handlers,
		backend:  backend,
		chClient: chClient,
		events:   events,
		archive:  archive,
	}
}

// multiHandler fans RegisterRoutes out to every handler.
type multiHandler []xhttp.Handler

func (m multiHandler) RegisterRoutes(e *echo.Echo) {
	for _, h := range m {
		if h != nil {
			h.RegisterRoutes(e)
		}
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	if a.archive != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := a.archive.Init(ctx); err != nil {
			// Archival is best-effort analytics storage; the pipeline
			// runs without it.
			a.logger.Warn("history archive init failed", applogger.Error(err))
		}
		cancel()
	}

	a.server = xhttp.NewServer(multiHandler(a.handlers),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if err := a.server.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("environment", a.cfg.Environment),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops the HTTP server first, then closes infra clients.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Warn("event publisher close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Warn("cache backend close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
