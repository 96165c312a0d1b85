package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/shardroute-io/shardroute/internal/cluster"
	"github.com/shardroute-io/shardroute/internal/config"
	"github.com/shardroute-io/shardroute/internal/logging"
	"github.com/shardroute-io/shardroute/internal/metadata"
	"github.com/shardroute-io/shardroute/internal/metadata/keys"
	oxiastore "github.com/shardroute-io/shardroute/internal/metadata/oxia"
	"github.com/shardroute-io/shardroute/internal/metrics"
	"github.com/shardroute-io/shardroute/internal/routing"
	"github.com/shardroute-io/shardroute/internal/server"
)

// DaemonOptions contains the configuration for creating a router daemon.
type DaemonOptions struct {
	Config    *config.Config
	Logger    *logging.Logger
	RouteeID  string
	Version   string
	GitCommit string
	BuildTime string
}

// Daemon is a running router process. It keeps the routing caches refreshed
// from the configured backend, optionally registers the local node as a
// routee, and serves health and metrics endpoints.
type Daemon struct {
	opts   DaemonOptions
	logger *logging.Logger

	metaStore     metadata.MetadataStore
	zkDiscovery   *cluster.ZKDiscovery
	registry      *cluster.Registry
	router        *routing.Router
	healthServer  *server.HealthServer
	metricsServer *metrics.Server

	mu      sync.Mutex
	started bool
}

// NewDaemon creates a new Daemon instance but does not start it.
func NewDaemon(opts DaemonOptions) (*Daemon, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.DefaultLogger()
	}

	return &Daemon{
		opts:   opts,
		logger: opts.Logger,
	}, nil
}

// Start initializes all components and blocks until the context is
// cancelled or startup fails.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return fmt.Errorf("daemon already started")
	}
	d.started = true
	d.mu.Unlock()

	cfg := d.opts.Config

	d.logger.Infof("starting router daemon", map[string]any{
		"clusterId": cfg.Cluster.ClusterID,
		"routeeId":  d.opts.RouteeID,
		"backend":   cfg.Metadata.Backend,
		"version":   d.opts.Version,
	})

	locations, discovery, err := d.connectBackend(ctx, cfg)
	if err != nil {
		return err
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	routerMetrics := metrics.NewRouterMetricsWithRegistry(promRegistry)
	refreshMetrics := metrics.NewRefreshMetricsWithRegistry(promRegistry)

	d.router, err = routing.New(routing.Config{
		ExtractShardID:  routing.ExtractShardKeyed,
		Locations:       locations,
		Routees:         discovery,
		RefreshInterval: time.Duration(cfg.Router.RefreshIntervalMs) * time.Millisecond,
		RefreshTimeout:  time.Duration(cfg.Router.RefreshTimeoutMs) * time.Millisecond,
		LocalPolicy:     routing.PolicyByName(cfg.Router.LocalPolicy),
		Logger:          d.logger,
		RouterMetrics:   routerMetrics,
		RefreshMetrics:  refreshMetrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create router: %w", err)
	}

	// Register the local node as a routee when it hosts workers itself.
	if cfg.Cluster.NodeAddr != "" && d.metaStore != nil {
		d.registry = cluster.NewRegistry(d.metaStore, cluster.RegistryConfig{
			ClusterID: cfg.Cluster.ClusterID,
			RouteeID:  d.opts.RouteeID,
			NodeAddr:  cfg.Cluster.NodeAddr,
			BuildInfo: cluster.BuildInfo{
				Version:   d.opts.Version,
				GitCommit: d.opts.GitCommit,
				BuildTime: d.opts.BuildTime,
			},
			Logger: d.logger,
		})
		if err := d.registry.Register(ctx); err != nil {
			return fmt.Errorf("failed to register routee: %w", err)
		}
	}

	d.healthServer = server.NewHealthServer(cfg.Observability.HealthAddr, d.logger)
	d.healthServer.RegisterReadinessCheck(d.router)
	if d.metaStore != nil {
		d.healthServer.RegisterReadinessCheck(server.CheckerFunc{
			ComponentName: "metadata",
			Check: func(ctx context.Context) error {
				_, err := d.metaStore.Get(ctx, keys.ClusterPrefix(cfg.Cluster.ClusterID))
				return err
			},
		})
	}
	if err := d.healthServer.Start(); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	d.metricsServer = metrics.NewServerWithRegistry(cfg.Observability.MetricsAddr, promRegistry)
	if err := d.metricsServer.Start(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	d.router.Start(ctx)

	d.logger.Infof("router daemon started", map[string]any{
		"healthAddr":  d.healthServer.Addr(),
		"metricsAddr": d.metricsServer.Addr(),
	})

	<-ctx.Done()
	return ctx.Err()
}

// connectBackend builds the location source and routee discovery for the
// configured backend.
func (d *Daemon) connectBackend(ctx context.Context, cfg *config.Config) (routing.LocationSource, routing.RouteeDiscovery, error) {
	switch cfg.Metadata.Backend {
	case "oxia":
		store, err := oxiastore.New(ctx, oxiastore.Config{
			ServiceAddress: cfg.Metadata.OxiaEndpoint,
			Namespace:      cfg.Metadata.Namespace,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to oxia: %w", err)
		}
		d.metaStore = store

		locations := cluster.NewShardTable(store, cfg.Cluster.ClusterID, d.logger)
		discovery := cluster.NewStoreDiscovery(store, cfg.Cluster.ClusterID, d.logger)
		return locations, discovery, nil

	case "zookeeper":
		zkd, err := cluster.NewZKDiscovery(cluster.ZKConfig{
			Servers:        cfg.ZooKeeper.ServerList(),
			RootPath:       cfg.ZooKeeper.RootPath,
			SessionTimeout: time.Duration(cfg.ZooKeeper.SessionTimeoutMs) * time.Millisecond,
			Logger:         d.logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to zookeeper: %w", err)
		}
		d.zkDiscovery = zkd

		if cfg.Cluster.NodeAddr != "" {
			err := zkd.RegisterRoutee(ctx, cluster.RouteeInfo{
				RouteeID:  d.opts.RouteeID,
				NodeAddr:  cfg.Cluster.NodeAddr,
				StartedAt: time.Now().UnixMilli(),
				BuildInfo: cluster.BuildInfo{
					Version:   d.opts.Version,
					GitCommit: d.opts.GitCommit,
					BuildTime: d.opts.BuildTime,
				},
			})
			if err != nil {
				zkd.Close()
				return nil, nil, err
			}
		}
		return zkd, zkd, nil

	default:
		return nil, nil, fmt.Errorf("unknown metadata backend %q", cfg.Metadata.Backend)
	}
}

// Shutdown stops all components in reverse startup order.
func (d *Daemon) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return nil
	}
	d.started = false

	if d.healthServer != nil {
		d.healthServer.SetShuttingDown()
	}

	if d.router != nil {
		d.router.Stop()
	}

	var errs []error

	if d.registry != nil {
		if err := d.registry.Deregister(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if d.metricsServer != nil {
		if err := d.metricsServer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.healthServer != nil {
		if err := d.healthServer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.zkDiscovery != nil {
		if err := d.zkDiscovery.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.metaStore != nil {
		if err := d.metaStore.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
