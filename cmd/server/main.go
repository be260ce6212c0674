// Package main - Entry point for the warehouse cost estimation server
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"warehouse-cost/api"
	"warehouse-cost/internal/config"
	"warehouse-cost/internal/logging"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", config.DefaultPath(), "Config file")
	addr := flag.String("addr", "", "Server address (overrides server.addr)")
	flag.Parse()

	if err := run(*configPath, *addr); err != nil {
		fmt.Fprintf(os.Stderr, "warehouse-cost-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, addr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	config.Set(cfg)

	// Access logs are info, so that is the server default
	if err := logging.Initialize(cfg.Logging.WithDefaultLevel("info")); err != nil {
		return err
	}
	defer logging.Sync()

	registry, err := cfg.Registry()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if addr == "" {
		addr = cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info("starting warehouse cost server",
		zap.String("version", version),
		zap.String("addr", addr),
		zap.Strings("catalogs", registry.Names()),
		zap.String("metrics_path", cfg.Server.MetricsPath))

	server := api.NewServer(version, cfg, registry, reg)
	if err := server.ListenAndServe(ctx, addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
