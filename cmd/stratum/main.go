package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stratum/config"
	"stratum/engine"
	"stratum/exchange"
	"stratum/executor"
	"stratum/logger"
	"stratum/strategy"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration")
	dryRun := flag.Bool("dry-run", false, "force paper trading regardless of config")
	metricsAddr := flag.String("metrics-addr", ":9090", "prometheus listen address, empty to disable")
	flag.Parse()

	log, err := logger.NewZapLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("config_load_failed", logger.Err(err))
		os.Exit(1)
	}
	if *dryRun {
		cfg.DryRun = true
	}
	if err := cfg.Validate(strategy.Exists); err != nil {
		log.Error("config_invalid", logger.Err(err))
		os.Exit(1)
	}

	var ex executor.Exchange
	if cfg.DryRun {
		ex = executor.NewSimulatedExchange(10_000)
		log.Info("paper_trading_enabled", logger.Float64("start_equity", 10_000))
	} else {
		ex = exchange.NewBinance(cfg.Exchange, log)
	}

	eng, err := engine.New(cfg, ex, log)
	if err != nil {
		log.Error("engine_build_failed", logger.Err(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := eng.Start(ctx); err != nil {
		log.Error("engine_start_failed", logger.Err(err))
		os.Exit(1)
	}
	log.Info("engine_started",
		logger.String("strategy", cfg.Strategy),
		logger.String("interval", string(cfg.Interval)),
		logger.Int("symbols", len(cfg.Symbols)),
		logger.Bool("dry_run", cfg.DryRun),
	)

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Warn("metrics_server_stopped", logger.Err(err))
			}
		}()
	}

	// Both live and paper trading consume the real market stream; only the
	// order path differs.
	ticks := make(chan exchange.Tick, 1024)
	exchange.StreamTicks(ctx, cfg.Symbols, ticks, log)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting_down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := eng.Shutdown(shutdownCtx); err != nil {
				log.Error("shutdown_incomplete", logger.Err(err))
				os.Exit(1)
			}
			log.Info("shutdown_complete")
			return
		case t := <-ticks:
			eng.OnTick(t.Symbol, t.Price, t.Qty, t.Time)
		}
	}
}
