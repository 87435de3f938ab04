// Command easel runs the canvas command service: an HTTP gateway that turns
// natural-language editing requests into executed canvas operations via LLM
// tool calling.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"easel-ai/internal/adapter/llm"
	"easel-ai/internal/adapter/realtime"
	"easel-ai/internal/adapter/store/sqlite"
	"easel-ai/internal/domain"
	"easel-ai/internal/executor"
	"easel-ai/internal/gateway"
	"easel-ai/internal/infra/config"
	"easel-ai/internal/infra/logger"
	"easel-ai/internal/infra/tracer"
	"easel-ai/internal/orchestrator"
	"easel-ai/internal/resilience"
	"easel-ai/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "easel:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "easel.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return err
	}
	defer shutdownTracer(context.Background())

	store, err := sqlite.New(cfg.Store.Path)
	if err != nil {
		return domain.WrapOp("open object store", err)
	}
	defer store.Close()

	var publisher domain.Publisher
	if cfg.Realtime.Enabled {
		rt, err := realtime.New(cfg.Realtime, log)
		if err != nil {
			return domain.WrapOp("connect realtime broker", err)
		}
		defer rt.Close()
		publisher = rt
	}

	registry, err := llm.NewRegistryFromConfig(cfg.Providers, log)
	if err != nil {
		return err
	}

	bus := telemetry.New(log)
	defer bus.Close()

	metrics := gateway.NewMetrics(prometheus.DefaultRegisterer)
	detach := metrics.Attach(bus)
	defer detach()

	limiter := resilience.NewRateLimiter(cfg.RateLimit)
	go limiter.Start(ctx)

	breaker := resilience.NewBreaker(cfg.Breaker, log, bus)

	var health *resilience.HealthMonitor
	if cfg.Health.Enabled {
		var providers []domain.ToolCallProvider
		for _, name := range registry.List() {
			p, err := registry.Get(name)
			if err != nil {
				return err
			}
			providers = append(providers, p)
		}
		health = resilience.NewHealthMonitor(cfg.Health, providers, log, bus)
		go health.Start(ctx)
	}

	exec := executor.New(store, publisher, log)
	orch := orchestrator.New(registry, limiter, breaker, store, exec, bus, cfg.Routing, log)

	server := gateway.NewServer(cfg.Gateway, orch, store, health, log)
	log.Info("gateway listening", "addr", cfg.Gateway.Addr)
	return server.ListenAndServe(ctx)
}
