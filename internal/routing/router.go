package routing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shardroute-io/shardroute/internal/logging"
	"github.com/shardroute-io/shardroute/internal/metrics"
)

// Defaults for refresh tuning. Exact numbers are configuration knobs, not
// correctness requirements.
const (
	DefaultRefreshInterval = 5 * time.Second
	DefaultRefreshTimeout  = 2 * time.Second
)

// Config configures a Router.
type Config struct {
	// ExtractShardID derives the shard from a message. Required.
	ExtractShardID ExtractShardID

	// Locations is the authoritative shard ownership source. Required.
	Locations LocationSource

	// Routees is the authoritative routee discovery source. Required.
	Routees RouteeDiscovery

	// RefreshInterval is the cadence of background refreshes.
	// Defaults to DefaultRefreshInterval.
	RefreshInterval time.Duration

	// RefreshTimeout bounds each query to an external source.
	// Defaults to DefaultRefreshTimeout.
	RefreshTimeout time.Duration

	// LocalPolicy picks among colocated candidates on a locality hit.
	// Defaults to round robin.
	LocalPolicy Policy

	// Logger for refresh events. Defaults to the package default logger.
	Logger *logging.Logger

	// RouterMetrics and RefreshMetrics are optional; nil disables them.
	RouterMetrics  *metrics.RouterMetrics
	RefreshMetrics *metrics.RefreshMetrics
}

// Router ties the routing engine to its caches and refresh loop. Create
// one per message stream, Start it, Route messages from any number of
// goroutines, and Stop it on shutdown.
type Router struct {
	engine    *Engine
	refresher *Refresher
	directory *LocationDirectory
	routees   *RouteeSet
	logger    *logging.Logger

	mu      sync.Mutex
	started bool
}

// New creates a Router from the given configuration.
func New(cfg Config) (*Router, error) {
	if cfg.ExtractShardID == nil {
		return nil, errors.New("routing: ExtractShardID is required")
	}
	if cfg.Locations == nil {
		return nil, errors.New("routing: Locations source is required")
	}
	if cfg.Routees == nil {
		return nil, errors.New("routing: Routees discovery is required")
	}

	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = DefaultRefreshTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	directory := NewLocationDirectory()
	routees := NewRouteeSet()

	return &Router{
		engine:    NewEngine(cfg.ExtractShardID, directory, routees, cfg.LocalPolicy, cfg.RouterMetrics),
		refresher: NewRefresher(cfg.Locations, cfg.Routees, directory, routees, cfg.RefreshInterval, cfg.RefreshTimeout, logger, cfg.RefreshMetrics, cfg.RouterMetrics),
		directory: directory,
		routees:   routees,
		logger:    logger,
	}, nil
}

// Start launches the background refresh scheduler. Routing is usable
// immediately but degrades to fallback picks (or ErrNoRoutees) until the
// first successful refresh installs real snapshots.
func (r *Router) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	r.refresher.Start(ctx)
}

// Stop halts the refresh scheduler. In-flight Route calls are synchronous
// and complete on their own; they keep using the last installed snapshots.
func (r *Router) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return
	}
	r.started = false
	r.refresher.Stop()
}

// Route selects a routee for the message. See Engine.Route.
func (r *Router) Route(msg any) (RouteeRef, error) {
	return r.engine.Route(msg)
}

// Decide selects a routee and reports the decision detail. See Engine.Decide.
func (r *Router) Decide(msg any) (Decision, error) {
	return r.engine.Decide(msg)
}

// RefreshNow forces one synchronous refresh cycle. Intended for startup
// priming in tests and admin tooling; production refreshes run on the
// background cadence.
func (r *Router) RefreshNow(ctx context.Context) error {
	return r.refresher.RefreshNow(ctx)
}

// Name implements the health server's ReadinessChecker.
func (r *Router) Name() string {
	return "router"
}

// CheckReady reports readiness: the router is ready once one full refresh
// cycle has installed both snapshots.
func (r *Router) CheckReady(_ context.Context) error {
	if !r.refresher.IsPrimed() {
		return errors.New("router: no successful refresh cycle yet")
	}
	return nil
}
