package routing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shardroute-io/shardroute/internal/logging"
	"github.com/shardroute-io/shardroute/internal/metrics"
)

// Refresher periodically pulls fresh location and membership data and
// swaps it into the caches without blocking routing. Query failures keep
// the previous snapshot in place; the caches are never cleared on
// failure, and nothing propagates to the routing hot path.
type Refresher struct {
	source    LocationSource
	discovery RouteeDiscovery
	directory *LocationDirectory
	routees   *RouteeSet

	interval time.Duration
	timeout  time.Duration

	logger         *logging.Logger
	refreshMetrics *metrics.RefreshMetrics
	routerMetrics  *metrics.RouterMetrics

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool

	// primed is closed after the first cycle in which both queries
	// succeeded; readiness checks block on it.
	primedOnce sync.Once
	primed     chan struct{}
}

// NewRefresher creates a refresher over the given caches and sources.
func NewRefresher(source LocationSource, discovery RouteeDiscovery, directory *LocationDirectory, routees *RouteeSet, interval, timeout time.Duration, logger *logging.Logger, rm *metrics.RefreshMetrics, rtm *metrics.RouterMetrics) *Refresher {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Refresher{
		source:         source,
		discovery:      discovery,
		directory:      directory,
		routees:        routees,
		interval:       interval,
		timeout:        timeout,
		logger:         logger,
		refreshMetrics: rm,
		routerMetrics:  rtm,
		primed:         make(chan struct{}),
	}
}

// Start launches the background refresh loop. It runs one immediate cycle
// so a reachable source primes the caches before the first tick; a failed
// first cycle is logged and retried on the normal cadence.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return
	}
	r.running = true

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.loop(loopCtx)
}

// Stop halts the refresh loop and waits for it to exit. The caches keep
// their last installed snapshots until the router is discarded.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	cancel := r.cancel
	done := r.done
	r.mu.Unlock()

	cancel()
	<-done
}

// Primed returns a channel closed after the first fully successful
// refresh cycle.
func (r *Refresher) Primed() <-chan struct{} {
	return r.primed
}

// IsPrimed reports whether at least one fully successful refresh cycle
// has been installed.
func (r *Refresher) IsPrimed() bool {
	select {
	case <-r.primed:
		return true
	default:
		return false
	}
}

func (r *Refresher) loop(ctx context.Context) {
	defer close(r.done)

	if err := r.RefreshNow(ctx); err != nil {
		r.logger.Warnf("initial refresh failed, routing degraded until next cycle", map[string]any{
			"error": err.Error(),
		})
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.RefreshNow(ctx); err != nil {
				r.logger.Warnf("refresh cycle failed, keeping previous snapshots", map[string]any{
					"error": err.Error(),
				})
			}
		}
	}
}

// RefreshNow runs one refresh cycle synchronously: query the location
// source, then discovery, installing each result that arrives. Partial
// success installs the successful half; the error reports the rest.
func (r *Refresher) RefreshNow(ctx context.Context) error {
	locErr := r.refreshLocations(ctx)
	routeeErr := r.refreshRoutees(ctx)

	r.routerMetrics.SetCacheSizes(r.directory.Len(), r.routees.Len())

	if locErr == nil && routeeErr == nil {
		r.primedOnce.Do(func() { close(r.primed) })
		return nil
	}
	return errors.Join(locErr, routeeErr)
}

func (r *Refresher) refreshLocations(ctx context.Context) error {
	queryCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	locations, err := r.source.CurrentLocations(queryCtx)
	r.refreshMetrics.RecordCycle(metrics.TargetLocations, time.Since(start).Seconds(), err == nil)
	if err != nil {
		return fmt.Errorf("refresh locations: %w", err)
	}

	r.directory.Replace(locations)
	return nil
}

func (r *Refresher) refreshRoutees(ctx context.Context) error {
	queryCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	routees, err := r.discovery.CurrentRoutees(queryCtx)
	r.refreshMetrics.RecordCycle(metrics.TargetRoutees, time.Since(start).Seconds(), err == nil)
	if err != nil {
		return fmt.Errorf("refresh routees: %w", err)
	}

	r.routees.Replace(routees)
	return nil
}
