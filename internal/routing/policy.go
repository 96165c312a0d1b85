package routing

import (
	"sync/atomic"

	"github.com/zhangyunhao116/fastrand"
)

// Policy selects one routee among equally eligible candidates.
// Implementations must treat all candidates symmetrically; any fair
// strategy (round robin, uniform random) is acceptable. Pick is called
// concurrently and must not block. Candidates are never empty.
type Policy interface {
	Pick(candidates []RouteeEntry) RouteeEntry
}

// RoundRobinPolicy cycles through candidates with a shared counter.
// Deterministic given a fixed candidate order, which keeps single-routee
// locality hits stable and spreads load when a node hosts several routees.
type RoundRobinPolicy struct {
	next atomic.Uint64
}

// NewRoundRobinPolicy creates a round-robin policy.
func NewRoundRobinPolicy() *RoundRobinPolicy {
	return &RoundRobinPolicy{}
}

// Pick implements Policy.
func (p *RoundRobinPolicy) Pick(candidates []RouteeEntry) RouteeEntry {
	if len(candidates) == 1 {
		return candidates[0]
	}
	n := p.next.Add(1) - 1
	return candidates[n%uint64(len(candidates))]
}

// RandomPolicy picks uniformly at random.
type RandomPolicy struct{}

// NewRandomPolicy creates a uniform random policy.
func NewRandomPolicy() *RandomPolicy {
	return &RandomPolicy{}
}

// Pick implements Policy.
func (p *RandomPolicy) Pick(candidates []RouteeEntry) RouteeEntry {
	if len(candidates) == 1 {
		return candidates[0]
	}
	return candidates[fastrand.Intn(len(candidates))]
}

// PolicyByName returns the selection policy for a config value.
// Unknown names map to round robin.
func PolicyByName(name string) Policy {
	switch name {
	case "random":
		return NewRandomPolicy()
	case "round_robin", "":
		return NewRoundRobinPolicy()
	default:
		return NewRoundRobinPolicy()
	}
}

var (
	_ Policy = (*RoundRobinPolicy)(nil)
	_ Policy = (*RandomPolicy)(nil)
)
