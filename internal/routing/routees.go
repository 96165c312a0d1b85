package routing

import "sync/atomic"

// routeeSnapshot is an immutable point-in-time view of the routee set.
// The per-address index is built once at Replace time so the route path
// does no filtering work.
type routeeSnapshot struct {
	all    []RouteeEntry
	byAddr map[NodeAddress][]RouteeEntry
}

// RouteeSet is the currently known set of worker endpoints, each tagged
// with the node address it runs on. Like the LocationDirectory it is
// refreshed by snapshot swaps and lock-free on the read path.
//
// The set may be empty transiently at startup; routing degrades to
// ErrNoRoutees for individual calls until discovery fills it.
type RouteeSet struct {
	snapshot atomic.Pointer[routeeSnapshot]
}

// NewRouteeSet creates an empty routee set.
func NewRouteeSet() *RouteeSet {
	s := &RouteeSet{}
	s.snapshot.Store(&routeeSnapshot{byAddr: make(map[NodeAddress][]RouteeEntry)})
	return s
}

// All returns every known routee. The returned slice is shared snapshot
// state and must not be mutated.
func (s *RouteeSet) All() []RouteeEntry {
	return s.snapshot.Load().all
}

// At returns the routees running on the given node, or an empty slice if
// none are known there. The returned slice must not be mutated.
func (s *RouteeSet) At(addr NodeAddress) []RouteeEntry {
	return s.snapshot.Load().byAddr[addr]
}

// Len returns the number of routees in the current snapshot.
func (s *RouteeSet) Len() int {
	return len(s.snapshot.Load().all)
}

// Replace atomically installs a new view of the routee set. Entries are
// deduplicated by Ref, first occurrence wins. The input slice is copied.
func (s *RouteeSet) Replace(entries []RouteeEntry) {
	next := &routeeSnapshot{
		all:    make([]RouteeEntry, 0, len(entries)),
		byAddr: make(map[NodeAddress][]RouteeEntry),
	}

	seen := make(map[RouteeRef]struct{}, len(entries))
	for _, entry := range entries {
		if _, dup := seen[entry.Ref]; dup {
			continue
		}
		seen[entry.Ref] = struct{}{}
		next.all = append(next.all, entry)
		next.byAddr[entry.Addr] = append(next.byAddr[entry.Addr], entry)
	}

	s.snapshot.Store(next)
}
