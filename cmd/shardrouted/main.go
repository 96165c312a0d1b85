package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/shardroute-io/shardroute/internal/config"
	"github.com/shardroute-io/shardroute/internal/logging"
)

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	// Handle version flag before subcommand parsing
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-version") {
		fmt.Printf("shardrouted version %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	subcommand := os.Args[1]
	switch subcommand {
	case "run":
		runDaemon(os.Args[2:])
	case "shards":
		runShards(os.Args[2:])
	case "version":
		fmt.Printf("shardrouted version %s (built %s, commit %s)\n", version, buildTime, gitCommit)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: shardrouted <command> [options]

Commands:
  run         Start the router daemon
  shards      Manage the shard placement table (list, assign, unassign, publish)
  version     Print version information

Run 'shardrouted <command> --help' for more information on a command.`)
}

func runDaemon(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	clusterID := fs.String("cluster-id", "", "Override cluster ID (default: from config)")
	nodeAddr := fs.String("node-addr", "", "Override local node address used for routee registration")
	routeeID := fs.String("routee-id", "", "Override routee ID (default: auto-generated UUID)")
	metricsAddr := fs.String("metrics-addr", "", "Override metrics endpoint address (e.g., :9090)")
	healthAddr := fs.String("health-addr", "", "Override health endpoint address (e.g., :8080)")

	fs.Usage = func() {
		fmt.Println(`Usage: shardrouted run [options]

Start the router daemon. The daemon keeps the location directory and routee
set refreshed from the configured backend and serves health and metrics
endpoints.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	// Load configuration
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromPath(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Apply CLI overrides
	if *clusterID != "" {
		cfg.Cluster.ClusterID = *clusterID
	}
	if *nodeAddr != "" {
		cfg.Cluster.NodeAddr = *nodeAddr
	}
	if *metricsAddr != "" {
		cfg.Observability.MetricsAddr = *metricsAddr
	}
	if *healthAddr != "" {
		cfg.Observability.HealthAddr = *healthAddr
	}

	// Set up logger
	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Observability.LogLevel),
		Format: logging.ParseFormat(cfg.Observability.LogFormat),
	})

	opts := DaemonOptions{
		Config:    cfg,
		Logger:    logger,
		Version:   version,
		GitCommit: gitCommit,
		BuildTime: buildTime,
	}

	if *routeeID != "" {
		opts.RouteeID = *routeeID
	} else {
		opts.RouteeID = uuid.New().String()
	}

	daemon, err := NewDaemon(opts)
	if err != nil {
		logger.Errorf("failed to create daemon", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- daemon.Start(ctx)
	}()

	select {
	case sig := <-sigCh:
		logger.Infof("received shutdown signal", map[string]any{"signal": sig.String()})
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			logger.Errorf("daemon error", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
	}

	// Graceful shutdown
	logger.Info("initiating graceful shutdown")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := daemon.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	logger.Info("daemon shutdown complete")
}
