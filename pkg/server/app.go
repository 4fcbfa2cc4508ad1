package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StoreMonitor/internal/middleware"
	"StoreMonitor/internal/usecase"
	"StoreMonitor/pkg/config"
	xhttp "StoreMonitor/pkg/http"
	pkgkafka "StoreMonitor/pkg/kafka"
	applogger "StoreMonitor/pkg/logger"
	"StoreMonitor/pkg/queue"
)

// App encapsulates the application lifecycle. Optional components are nil
// when their feature is disabled in config.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	httpServer  *xhttp.Server
	consumer    *pkgkafka.Consumer
	pollHandler pkgkafka.MessageHandler
	pollBuffer  *middleware.PollBuffer
	queue       *queue.RedisQueue
	local       *usecase.LocalDispatcher
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	pollHandler *usecase.StatusPollHandler,
	pollBuffer *middleware.PollBuffer,
	q *queue.RedisQueue,
	local *usecase.LocalDispatcher,
) *App {
	a := &App{
		cfg:        cfg,
		log:        log,
		httpServer: httpServer,
		consumer:   consumer,
		pollBuffer: pollBuffer,
		queue:      q,
		local:      local,
	}
	if pollHandler != nil {
		a.pollHandler = pollHandler
	}
	return a
}

// Run starts every component and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.start(ctx); err != nil {
		_ = a.shutdown()
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) start(ctx context.Context) error {
	if a.queue != nil {
		if err := a.queue.Start(ctx); err != nil {
			return fmt.Errorf("start report queue: %w", err)
		}
	}

	if a.consumer != nil && a.pollHandler != nil {
		if a.pollBuffer != nil {
			a.pollBuffer.Start(ctx)
		}
		a.consumer.RegisterHandler(a.pollHandler)
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("start kafka consumer: %w", err)
		}
		a.log.Info("status poll consumer started", applogger.String("topic", a.pollHandler.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}
	a.log.Info("store monitor started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("storage", a.cfg.Storage.Type),
		applogger.String("dispatch", a.cfg.Report.Dispatch))
	return nil
}

// shutdown stops intake first, then lets running work drain. Client
// connections are closed by the injector cleanup afterwards.
func (a *App) shutdown() error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		keep(err)
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			keep(err)
		}
	}
	if a.pollBuffer != nil {
		if err := a.pollBuffer.Stop(ctx); err != nil {
			a.log.Warn("poll buffer flush incomplete", applogger.Error(err))
			keep(err)
		}
	}
	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			a.log.Warn("report queue stop error", applogger.Error(err))
			keep(err)
		}
	}
	if a.local != nil {
		if err := a.local.Wait(ctx); err != nil {
			// Unfinished jobs stay Running in a memory registry; nothing survives the process.
			a.log.Warn("report jobs still running at shutdown", applogger.Error(err))
			keep(err)
		}
	}

	a.log.Info("shutdown complete")
	return firstErr
}
