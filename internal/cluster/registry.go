package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shardroute-io/shardroute/internal/logging"
	"github.com/shardroute-io/shardroute/internal/metadata"
	"github.com/shardroute-io/shardroute/internal/metadata/keys"
	"github.com/shardroute-io/shardroute/internal/routing"
)

// RouteeInfo holds information about a registered routee.
type RouteeInfo struct {
	// RouteeID is the unique identifier for this routee.
	RouteeID string `json:"routeeId"`

	// NodeAddr is the address of the node hosting this routee.
	NodeAddr string `json:"nodeAddr"`

	// StartedAt is the Unix timestamp (milliseconds) when the routee started.
	StartedAt int64 `json:"startedAt"`

	// BuildInfo contains version and build metadata.
	BuildInfo BuildInfo `json:"buildInfo"`
}

// BuildInfo contains routee version and build metadata.
type BuildInfo struct {
	// Version is the shardroute version string.
	Version string `json:"version"`

	// GitCommit is the git commit hash at build time.
	GitCommit string `json:"gitCommit"`

	// BuildTime is when the binary was built.
	BuildTime string `json:"buildTime"`
}

// Entry converts the registration record into a routee set entry.
func (i RouteeInfo) Entry() routing.RouteeEntry {
	return routing.RouteeEntry{
		Ref:  routing.RouteeRef(i.RouteeID),
		Addr: routing.NodeAddress(i.NodeAddr),
	}
}

// RegistryConfig configures the routee registry.
type RegistryConfig struct {
	// ClusterID is the identifier for this cluster.
	ClusterID string

	// RouteeID is the unique identifier for this routee.
	RouteeID string

	// NodeAddr is the address of the node hosting this routee.
	NodeAddr string

	// BuildInfo contains version and build metadata.
	BuildInfo BuildInfo

	// Logger for registration events.
	Logger *logging.Logger
}

// Registry manages routee registration using ephemeral metadata-store keys.
// Routees register themselves on startup, and the registration is
// automatically cleaned up when the session expires (e.g. due to crash or
// shutdown).
type Registry struct {
	store  metadata.MetadataStore
	config RegistryConfig
	logger *logging.Logger

	mu         sync.RWMutex
	registered bool
	startedAt  int64
}

// NewRegistry creates a new routee registry.
func NewRegistry(store metadata.MetadataStore, config RegistryConfig) *Registry {
	logger := config.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	return &Registry{
		store:     store,
		config:    config,
		logger:    logger,
		startedAt: time.Now().UnixMilli(),
	}
}

// Register registers this routee with an ephemeral key.
// The key will be automatically deleted when the session ends.
func (r *Registry) Register(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := RouteeInfo{
		RouteeID:  r.config.RouteeID,
		NodeAddr:  r.config.NodeAddr,
		StartedAt: r.startedAt,
		BuildInfo: r.config.BuildInfo,
	}

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal routee info: %w", err)
	}

	key := keys.RouteeKeyPath(r.config.ClusterID, r.config.RouteeID)

	_, err = r.store.PutEphemeral(ctx, key, data)
	if err != nil {
		return fmt.Errorf("failed to register routee: %w", err)
	}

	r.registered = true
	r.logger.Infof("routee registered", map[string]any{
		"routeeId": r.config.RouteeID,
		"nodeAddr": r.config.NodeAddr,
		"key":      key,
	})

	return nil
}

// Deregister explicitly removes the routee registration.
// This is optional since ephemeral keys are automatically cleaned up on
// session end.
func (r *Registry) Deregister(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.registered {
		return nil
	}

	key := keys.RouteeKeyPath(r.config.ClusterID, r.config.RouteeID)

	if err := r.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to deregister routee: %w", err)
	}

	r.registered = false
	r.logger.Infof("routee deregistered", map[string]any{
		"routeeId": r.config.RouteeID,
		"key":      key,
	})

	return nil
}

// GetRoutee retrieves information about a specific routee.
func (r *Registry) GetRoutee(ctx context.Context, routeeID string) (RouteeInfo, bool, error) {
	key := keys.RouteeKeyPath(r.config.ClusterID, routeeID)

	result, err := r.store.Get(ctx, key)
	if err != nil {
		return RouteeInfo{}, false, fmt.Errorf("failed to get routee: %w", err)
	}

	if !result.Exists {
		return RouteeInfo{}, false, nil
	}

	var info RouteeInfo
	if err := json.Unmarshal(result.Value, &info); err != nil {
		return RouteeInfo{}, false, fmt.Errorf("failed to unmarshal routee info: %w", err)
	}

	return info, true, nil
}

// IsRegistered returns whether this routee is currently registered.
func (r *Registry) IsRegistered() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.registered
}

// LocalRouteeID returns this routee's ID.
func (r *Registry) LocalRouteeID() string {
	return r.config.RouteeID
}

// ClusterID returns the cluster ID this registry is associated with.
func (r *Registry) ClusterID() string {
	return r.config.ClusterID
}
