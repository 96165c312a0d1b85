package routing

import (
	"errors"
	"fmt"

	"github.com/shardroute-io/shardroute/internal/metrics"
)

// Errors returned by Engine.Route.
var (
	// ErrNoRoutees is returned when the routee set is empty at route time.
	// It is local to the single call; the caller decides whether to
	// buffer, drop, or retry. The router itself never queues messages.
	ErrNoRoutees = errors.New("routing: no routees available")

	// ErrUnroutableMessage is returned when the shard extractor cannot
	// classify a message. This indicates a caller or configuration
	// defect, not a transient runtime fault, and is never retried here.
	ErrUnroutableMessage = errors.New("routing: message not recognized by shard extractor")
)

// Decision describes one routing decision.
type Decision struct {
	// Routee is the selected worker endpoint.
	Routee RouteeEntry

	// Shard is the shard extracted from the message.
	Shard ShardID

	// Owner is the cached owner address for the shard, if known.
	Owner NodeAddress

	// OwnerKnown reports whether the directory had an entry for the shard.
	OwnerKnown bool

	// LocalityHit reports whether the selected routee is colocated with
	// the cached owner.
	LocalityHit bool
}

// Engine selects a routee for each incoming message. It is safe for
// concurrent use: the only shared state is the two snapshot caches, which
// are read-only from this path.
type Engine struct {
	extract   ExtractShardID
	directory *LocationDirectory
	routees   *RouteeSet
	local     Policy
	fallback  Policy
	metrics   *metrics.RouterMetrics
}

// NewEngine creates a routing engine over the given caches. The local
// policy picks among colocated candidates; the fallback across all
// routees is always uniform random.
func NewEngine(extract ExtractShardID, directory *LocationDirectory, routees *RouteeSet, local Policy, m *metrics.RouterMetrics) *Engine {
	if local == nil {
		local = NewRoundRobinPolicy()
	}
	return &Engine{
		extract:   extract,
		directory: directory,
		routees:   routees,
		local:     local,
		fallback:  NewRandomPolicy(),
		metrics:   m,
	}
}

// Route selects a routee for the message and returns its ref. The caller
// dispatches the message unchanged; the router never rewrites, defers, or
// buffers it.
func (e *Engine) Route(msg any) (RouteeRef, error) {
	decision, err := e.Decide(msg)
	if err != nil {
		return "", err
	}
	return decision.Routee.Ref, nil
}

// Decide selects a routee for the message and reports how the choice was
// made. Correctness of final delivery never depends on the decision being
// optimal: a locality miss only costs an extra network hop.
func (e *Engine) Decide(msg any) (Decision, error) {
	shard, err := e.extract(msg)
	if err != nil {
		e.metrics.RecordDecision(metrics.OutcomeUnroutable)
		return Decision{}, fmt.Errorf("%w: %w", ErrUnroutableMessage, err)
	}

	decision := Decision{Shard: shard}
	decision.Owner, decision.OwnerKnown = e.directory.Lookup(shard)

	if decision.OwnerKnown {
		if candidates := e.routees.At(decision.Owner); len(candidates) > 0 {
			decision.Routee = e.local.Pick(candidates)
			decision.LocalityHit = true
			e.metrics.RecordDecision(metrics.OutcomeHit)
			return decision, nil
		}
	}

	// Fallback: owner unknown, or known with no local routee (e.g.
	// mid-rebalance before discovery catches up). Uniform random over
	// everything we know. Expected degraded operation, not an error.
	all := e.routees.All()
	if len(all) == 0 {
		e.metrics.RecordDecision(metrics.OutcomeNoRoutees)
		return Decision{}, ErrNoRoutees
	}

	decision.Routee = e.fallback.Pick(all)
	if decision.OwnerKnown {
		e.metrics.RecordDecision(metrics.OutcomeMissNoLocal)
	} else {
		e.metrics.RecordDecision(metrics.OutcomeMissUnknownShard)
	}
	return decision, nil
}
