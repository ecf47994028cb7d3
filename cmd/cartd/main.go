package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codewandler/cart-go/adapters/httpapi"
	"github.com/codewandler/cart-go/adapters/nats"
	promadapter "github.com/codewandler/cart-go/adapters/prometheus"
	"github.com/codewandler/cart-go/cart"
	"github.com/codewandler/cart-go/core/es"
	"github.com/codewandler/cart-go/internal/config"
	"github.com/codewandler/cart-go/ports/pricing"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.LoadFromPath(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	log := newLogger(cfg.Log)
	slog.SetDefault(log)

	if err := run(log, cfg); err != nil {
		log.Error("cartd failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(log *slog.Logger, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store, closeStore, err := newStore(log, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	repo := cart.NewRepository(log, store, es.WithMetrics(promadapter.NewESMetrics(reg)))

	// TODO: replace the static catalog once the pricing service exists
	catalog := pricing.NewStatic(
		pricing.Price{ProductID: "shoes", UnitPrice: 10000, Currency: "USD"},
		pricing.Price{ProductID: "t-shirt", UnitPrice: 2500, Currency: "USD"},
		pricing.Price{ProductID: "hat", UnitPrice: 900, Currency: "USD"},
	)
	pricer := pricing.NewCached(catalog, pricing.CachedPricerOpts{})

	svc := cart.NewService(log, repo, pricer, cart.WithPerCartSerialization())
	defer svc.Close()

	srv := httpapi.NewServer(httpapi.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, log)
	httpapi.NewHandler(log, svc).Register(srv.Echo())
	srv.Echo().GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	return srv.Shutdown(context.Background())
}

func newStore(log *slog.Logger, cfg *config.Config) (es.EventStore, func(), error) {
	switch cfg.Store.Mode {
	case config.StoreModeNATS:
		connect := nats.ConnectDefault()
		if cfg.NATS.URL != "" {
			connect = nats.ConnectURL(cfg.NATS.URL)
		}
		store, err := nats.NewEventStore(nats.EventStoreConfig{
			Connect:       connect,
			Log:           log,
			StreamName:    cfg.NATS.StreamName,
			SubjectPrefix: cfg.NATS.SubjectPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		log.Warn("using in-memory event store, streams are not persisted")
		return es.NewInMemoryStore(), func() {}, nil
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
