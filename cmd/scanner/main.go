package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"market-scannerv1/config"
	"market-scannerv1/internal/api"
	"market-scannerv1/internal/exchange"
	"market-scannerv1/internal/gateway"
	"market-scannerv1/internal/indicator"
	"market-scannerv1/internal/logger"
	"market-scannerv1/internal/metrics"
	"market-scannerv1/internal/pattern"
	"market-scannerv1/internal/scan"
	"market-scannerv1/internal/scheduler"
)

func main() {
	cfg := config.Load()
	log := logger.Init("scanner", slog.LevelInfo)
	log.Info("starting", "base_url", cfg.BaseURL, "workers", cfg.Workers)

	prom := metrics.NewDefault()

	client := exchange.NewClient(
		cfg.BaseURL,
		time.Duration(cfg.HTTPTimeoutMS)*time.Millisecond,
		cfg.Workers,
		log,
	)

	spans := indicator.Spans{
		Fast:  cfg.EMAFast,
		Mid:   cfg.EMAMid,
		Slow:  cfg.EMASlow,
		Trend: cfg.MATrend,
	}

	policy := pattern.DefaultPolicy()
	policy.SupportBufferPct = cfg.SupportBufferPct
	policy.QuoteSuffix = cfg.QuoteSuffix
	policy.BatteryOnPrevious = cfg.BatteryRef == "previous"
	policy.SupportIncludesCurrent = cfg.SupportWindow == "inclusive"
	classifier := pattern.NewClassifier(policy)

	orch := scan.New(scan.Config{
		Timeframes:  cfg.ParseTimeframes(),
		TopByVolume: cfg.TopByVolume,
		Workers:     cfg.Workers,
		KlineLimit:  cfg.KlineLimit,
		QuoteSuffix: cfg.QuoteSuffix,
		Strategy:    scan.Strategy(cfg.ScanStrategy),
	}, client, spans, classifier, prom, log)

	hub := gateway.NewHub(log)

	var sched *scheduler.Scheduler
	if cfg.ScanInterval != "" {
		var err error
		sched, err = scheduler.New(cfg.ScanInterval, orch, hub, log)
		if err != nil {
			log.Error("scheduler setup failed", "err", err.Error())
			os.Exit(1)
		}
		sched.Start()
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.NewRouter(orch, hub),
	}

	go func() {
		log.Info("http server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server failed", "err", err.Error())
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down")

	if sched != nil {
		sched.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
	log.Info("bye")
}
