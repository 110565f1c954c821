package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"riskwatch/internal/analyzer"
	"riskwatch/internal/client"
	"riskwatch/internal/coordinator"
	"riskwatch/internal/detect"
	"riskwatch/internal/downloads"
	"riskwatch/internal/event"
	"riskwatch/internal/monitor"
	"riskwatch/internal/page"
	"riskwatch/internal/platform/config"
	"riskwatch/internal/platform/httpserver"
	"riskwatch/internal/platform/logger"
	"riskwatch/internal/platform/metrics"
	platformredis "riskwatch/internal/platform/redis"
	"riskwatch/internal/store"
	httptransport "riskwatch/internal/transport/http"
)

// main wires the detector context (submission client), the coordinator
// context (pipeline, download watcher, navigation watcher) and the HTTP
// surface. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	var st store.Store
	if cfg.Redis.URL != "" {
		redisClient, err := platformredis.New(cfg.Redis)
		if err != nil {
			log.Error("redis unavailable", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		st = store.NewRedis(redisClient.Client)
		log.Info("using redis store", "url", cfg.Redis.URL)
	} else {
		st = store.NewMemory()
		log.Info("using in-memory store")
	}

	// Each execution context holds its own cached copy of the monitoring
	// state, refreshed from store change notifications.
	detectorState := monitor.NewCache(monitor.WithLogger(log))
	coordinatorState := monitor.NewCache(monitor.WithLogger(log))
	authority := monitor.NewAuthority(st)

	remote := analyzer.New(cfg.APIBase)
	history := coordinator.NewHistory(st,
		coordinator.WithMirror(remote),
		coordinator.WithHistoryLogger(log),
		coordinator.WithHistoryMetrics(m),
	)
	pipeline := coordinator.NewPipeline(coordinatorState, remote, history,
		coordinator.WithPipelineLogger(log),
		coordinator.WithPipelineMetrics(m),
	)
	navigation := coordinator.NewNavigation(coordinatorState, history, log)
	watcher := downloads.NewWatcher(coordinatorState, history,
		downloads.WithLogger(log),
		downloads.WithMetrics(m),
	)

	envelopes := make(chan event.Envelope, cfg.DispatchBuffer)
	interactions := make(chan page.Interaction, cfg.DispatchBuffer)
	navigations := make(chan string, 16)
	deltas := make(chan downloads.Delta, 16)

	gate := detect.NewGate(detect.CooldownWindow)
	submitter := client.New(detectorState, gate, envelopes,
		client.WithLogger(log),
		client.WithMetrics(m),
	)

	handler := httptransport.NewHandler(authority, coordinatorState, history,
		interactions, navigations, deltas, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return detectorState.Run(ctx, st) })
	g.Go(func() error { return coordinatorState.Run(ctx, st) })
	g.Go(func() error { return submitter.Run(ctx, interactions) })
	g.Go(func() error { return pipeline.Run(ctx, envelopes) })
	g.Go(func() error { return navigation.Run(ctx, navigations) })
	g.Go(func() error { return watcher.Run(ctx, deltas) })
	g.Go(func() error { return httpserver.Run(ctx, srv) })

	log.Info("riskwatch started", "addr", cfg.Addr, "api_base", cfg.APIBase)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("riskwatch exited", "error", err)
		os.Exit(1)
	}
	log.Info("riskwatch stopped")
}
