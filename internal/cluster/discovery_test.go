package cluster

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/shardroute-io/shardroute/internal/metadata"
	"github.com/shardroute-io/shardroute/internal/metadata/keys"
	"github.com/shardroute-io/shardroute/internal/routing"
)

func registerWorker(t *testing.T, store metadata.MetadataStore, clusterID, routeeID, nodeAddr string) {
	t.Helper()
	registry := NewRegistry(store, RegistryConfig{
		ClusterID: clusterID,
		RouteeID:  routeeID,
		NodeAddr:  nodeAddr,
	})
	if err := registry.Register(context.Background()); err != nil {
		t.Fatalf("Register %s failed: %v", routeeID, err)
	}
}

func TestStoreDiscovery_Empty(t *testing.T) {
	store := metadata.NewMockStore()
	defer store.Close()

	discovery := NewStoreDiscovery(store, "cluster-1", nil)

	routees, err := discovery.CurrentRoutees(context.Background())
	if err != nil {
		t.Fatalf("CurrentRoutees failed: %v", err)
	}
	if len(routees) != 0 {
		t.Errorf("expected no routees, got %v", routees)
	}
}

func TestStoreDiscovery_ListsRegisteredRoutees(t *testing.T) {
	store := metadata.NewMockStore()
	defer store.Close()

	registerWorker(t, store, "cluster-1", "worker-1", "node-1:7000")
	registerWorker(t, store, "cluster-1", "worker-2", "node-2:7000")
	registerWorker(t, store, "cluster-1", "worker-3", "node-1:7000")

	// Routees in other clusters must not leak in.
	registerWorker(t, store, "cluster-2", "worker-9", "node-9:7000")

	discovery := NewStoreDiscovery(store, "cluster-1", nil)

	routees, err := discovery.CurrentRoutees(context.Background())
	if err != nil {
		t.Fatalf("CurrentRoutees failed: %v", err)
	}
	if len(routees) != 3 {
		t.Fatalf("expected 3 routees, got %d", len(routees))
	}

	refs := make([]string, 0, len(routees))
	for _, r := range routees {
		refs = append(refs, string(r.Ref))
	}
	sort.Strings(refs)

	want := []string{"worker-1", "worker-2", "worker-3"}
	for i, ref := range want {
		if refs[i] != ref {
			t.Errorf("routee %d mismatch: got %q, want %q", i, refs[i], ref)
		}
	}
}

func TestStoreDiscovery_SkipsMalformedRegistrations(t *testing.T) {
	store := metadata.NewMockStore()
	defer store.Close()
	ctx := context.Background()

	registerWorker(t, store, "cluster-1", "worker-1", "node-1:7000")

	badKey := keys.RouteeKeyPath("cluster-1", "worker-bad")
	if _, err := store.Put(ctx, badKey, []byte("not json")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	discovery := NewStoreDiscovery(store, "cluster-1", nil)

	routees, err := discovery.CurrentRoutees(ctx)
	if err != nil {
		t.Fatalf("CurrentRoutees failed: %v", err)
	}
	if len(routees) != 1 {
		t.Fatalf("expected 1 routee, got %d", len(routees))
	}
	if routees[0].Ref != "worker-1" {
		t.Errorf("Ref mismatch: got %q", routees[0].Ref)
	}
}

func TestStoreDiscovery_StoreError(t *testing.T) {
	store := metadata.NewMockStore()
	defer store.Close()

	boom := errors.New("store unreachable")
	store.SetError(boom)

	discovery := NewStoreDiscovery(store, "cluster-1", nil)

	_, err := discovery.CurrentRoutees(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestStoreDiscovery_ReflectsSessionExpiry(t *testing.T) {
	store := metadata.NewMockStore()
	defer store.Close()

	registerWorker(t, store, "cluster-1", "worker-1", "node-1:7000")
	registerWorker(t, store, "cluster-1", "worker-2", "node-2:7000")

	discovery := NewStoreDiscovery(store, "cluster-1", nil)
	ctx := context.Background()

	routees, err := discovery.CurrentRoutees(ctx)
	if err != nil {
		t.Fatalf("CurrentRoutees failed: %v", err)
	}
	if len(routees) != 2 {
		t.Fatalf("expected 2 routees, got %d", len(routees))
	}

	store.ExpireSession()

	routees, err = discovery.CurrentRoutees(ctx)
	if err != nil {
		t.Fatalf("CurrentRoutees failed: %v", err)
	}
	if len(routees) != 0 {
		t.Errorf("expected no routees after session expiry, got %v", routees)
	}
}

func TestStoreDiscovery_EntriesCarryNodeAddress(t *testing.T) {
	store := metadata.NewMockStore()
	defer store.Close()

	registerWorker(t, store, "cluster-1", "worker-1", "node-1:7000")

	discovery := NewStoreDiscovery(store, "cluster-1", nil)

	routees, err := discovery.CurrentRoutees(context.Background())
	if err != nil {
		t.Fatalf("CurrentRoutees failed: %v", err)
	}
	if len(routees) != 1 {
		t.Fatalf("expected 1 routee, got %d", len(routees))
	}
	want := routing.RouteeEntry{Ref: "worker-1", Addr: "node-1:7000"}
	if routees[0] != want {
		t.Errorf("entry mismatch: got %+v, want %+v", routees[0], want)
	}
}
