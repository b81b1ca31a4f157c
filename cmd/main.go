package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"heat_controller/internal/cache"
	"heat_controller/internal/chart"
	"heat_controller/internal/config"
	"heat_controller/internal/device"
	"heat_controller/internal/handlers"
	"heat_controller/internal/loader"
	"heat_controller/internal/logger"
	"heat_controller/internal/metrics"
	"heat_controller/internal/publisher"
	"heat_controller/internal/repository"
	"heat_controller/internal/repository/db"
	"heat_controller/internal/server"
	"heat_controller/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// load configs/config.yml + HEATCTL_* env
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	// open DB
	conn, err := openDB(cfg.DBPath, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// context for startup and background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repos := repository.NewRepository(conn)
	m := metrics.New()

	// durable state
	localCache := cache.New(repos.KV, cfg.Storage.CacheKey, repos.NoticeRepo, log)
	if err := localCache.Hydrate(ctx); err != nil {
		log.Fatalw("failed to hydrate cache", "err", err)
	}
	chartCtl := chart.NewController(repos.KV, cfg.Storage.PrefsKey, repos.NoticeRepo, log)
	if err := chartCtl.Hydrate(ctx); err != nil {
		log.Fatalw("failed to hydrate chart preferences", "err", err)
	}
	chartCtl.SetDataRange(localCache.Earliest()*1000, localCache.Latest()*1000)
	m.CacheState(localCache.Len(), localCache.Latest())

	// device side
	client, err := device.NewClient(device.Config{
		BaseURL:  cfg.Device.Address,
		Timeout:  cfg.Device.Timeout,
		Observer: m,
	}, log)
	if err != nil {
		log.Fatalw("invalid device address", "err", err, "address", cfg.Device.Address)
	}
	ld := loader.New(client, client, localCache, m, log)

	pub := publisher.New(publisher.Config{
		Brokers:      cfg.Kafka.Brokers,
		ReadingTopic: cfg.Kafka.ReadingTopic,
		EventTopic:   cfg.Kafka.EventTopic,
		DeviceID:     cfg.Kafka.DeviceID,
	}, log)
	defer func() {
		if cerr := pub.Close(); cerr != nil {
			log.Warnw("failed to close kafka writers", "err", cerr)
		}
	}()

	// wire dependencies
	services := service.NewService(service.Deps{
		Repos:     repos,
		Device:    client,
		Loader:    ld,
		Cache:     localCache,
		Chart:     chartCtl,
		Publisher: pub,
		Metrics:   m,
		Refresh: service.RefreshBounds{
			Min:     cfg.Refresh.Min,
			Default: cfg.Refresh.Default,
			Max:     cfg.Refresh.Max,
		},
		Log: log,
	})
	apiHandler := handlers.NewHandler(services, m, log)

	log.Infow("starting",
		"port", cfg.Port,
		"device", cfg.Device.Address,
		"cached_lines", localCache.Len(),
		"watermark", localCache.Latest(),
		"kafka", pub.Enabled(),
	)

	// start poller (via composed service)
	go services.Ingestion.Run(ctx)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

// openDB initializes the SQLite database.
func openDB(path string, log *logger.Logger) (*sql.DB, error) {
	if path == "" {
		log.Infow("db.path not set in config; using default file", "default", "app.db")
		path = "app.db"
	}
	return db.InitDB(path)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop the poller; in-flight device fetches see the cancellation
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
