package routing

import (
	"context"
	"sync"
)

// ExtractShardID derives the shard for a message. Implementations must be
// deterministic: the same logical entity always maps to the same shard.
// Returning an error marks the message as unroutable, which the engine
// treats as a caller/configuration defect rather than a transient fault.
type ExtractShardID func(msg any) (ShardID, error)

// LocationSource is the authoritative source of shard ownership, owned by
// the external shard-management subsystem. The router only consumes it.
type LocationSource interface {
	// CurrentLocations returns the current full shard-to-owner mapping.
	CurrentLocations(ctx context.Context) (map[ShardID]NodeAddress, error)
}

// RouteeDiscovery is the authoritative source of live worker endpoints
// reachable from this router instance, owned by the external membership
// subsystem.
type RouteeDiscovery interface {
	// CurrentRoutees returns the currently known routees.
	CurrentRoutees(ctx context.Context) ([]RouteeEntry, error)
}

// StaticLocationSource is a LocationSource backed by an in-memory table.
// Useful for tests and for embedders that compute ownership themselves.
type StaticLocationSource struct {
	mu        sync.RWMutex
	locations map[ShardID]NodeAddress
}

// NewStaticLocationSource creates a static source with the given table.
// The table is copied.
func NewStaticLocationSource(locations map[ShardID]NodeAddress) *StaticLocationSource {
	s := &StaticLocationSource{}
	s.Set(locations)
	return s
}

// Set replaces the table served by this source. The table is copied.
func (s *StaticLocationSource) Set(locations map[ShardID]NodeAddress) {
	copied := make(map[ShardID]NodeAddress, len(locations))
	for shard, addr := range locations {
		copied[shard] = addr
	}
	s.mu.Lock()
	s.locations = copied
	s.mu.Unlock()
}

// CurrentLocations implements LocationSource.
func (s *StaticLocationSource) CurrentLocations(_ context.Context) (map[ShardID]NodeAddress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make(map[ShardID]NodeAddress, len(s.locations))
	for shard, addr := range s.locations {
		copied[shard] = addr
	}
	return copied, nil
}

// StaticRouteeDiscovery is a RouteeDiscovery backed by a fixed slice.
// Useful for tests and single-process deployments.
type StaticRouteeDiscovery struct {
	mu      sync.RWMutex
	routees []RouteeEntry
}

// NewStaticRouteeDiscovery creates a static discovery with the given
// routees. The slice is copied.
func NewStaticRouteeDiscovery(routees []RouteeEntry) *StaticRouteeDiscovery {
	d := &StaticRouteeDiscovery{}
	d.Set(routees)
	return d
}

// Set replaces the routees served by this discovery. The slice is copied.
func (d *StaticRouteeDiscovery) Set(routees []RouteeEntry) {
	copied := make([]RouteeEntry, len(routees))
	copy(copied, routees)
	d.mu.Lock()
	d.routees = copied
	d.mu.Unlock()
}

// CurrentRoutees implements RouteeDiscovery.
func (d *StaticRouteeDiscovery) CurrentRoutees(_ context.Context) ([]RouteeEntry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	copied := make([]RouteeEntry, len(d.routees))
	copy(copied, d.routees)
	return copied, nil
}

// Ensure static implementations satisfy the collaborator interfaces.
var (
	_ LocationSource  = (*StaticLocationSource)(nil)
	_ RouteeDiscovery = (*StaticRouteeDiscovery)(nil)
)
