package cluster

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/shardroute-io/shardroute/internal/metadata"
	"github.com/shardroute-io/shardroute/internal/metadata/keys"
	"github.com/shardroute-io/shardroute/internal/routing"
)

func TestShardTable_Empty(t *testing.T) {
	store := metadata.NewMockStore()
	defer store.Close()

	table := NewShardTable(store, "cluster-1", nil)

	locations, err := table.CurrentLocations(context.Background())
	if err != nil {
		t.Fatalf("CurrentLocations failed: %v", err)
	}
	if len(locations) != 0 {
		t.Errorf("expected empty table, got %v", locations)
	}
}

func TestShardTable_AssignThenRead(t *testing.T) {
	store := metadata.NewMockStore()
	defer store.Close()
	ctx := context.Background()

	publisher := NewShardTablePublisher(store, "cluster-1", nil)
	if err := publisher.Assign(ctx, "shard-1", "node-1:7000"); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if err := publisher.Assign(ctx, "shard-2", "node-2:7000"); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	table := NewShardTable(store, "cluster-1", nil)
	locations, err := table.CurrentLocations(ctx)
	if err != nil {
		t.Fatalf("CurrentLocations failed: %v", err)
	}

	want := map[routing.ShardID]routing.NodeAddress{
		"shard-1": "node-1:7000",
		"shard-2": "node-2:7000",
	}
	if !reflect.DeepEqual(locations, want) {
		t.Errorf("locations mismatch: got %v, want %v", locations, want)
	}
}

func TestShardTable_Reassign(t *testing.T) {
	store := metadata.NewMockStore()
	defer store.Close()
	ctx := context.Background()

	publisher := NewShardTablePublisher(store, "cluster-1", nil)
	if err := publisher.Assign(ctx, "shard-1", "node-1:7000"); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if err := publisher.Assign(ctx, "shard-1", "node-2:7000"); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	table := NewShardTable(store, "cluster-1", nil)
	locations, err := table.CurrentLocations(ctx)
	if err != nil {
		t.Fatalf("CurrentLocations failed: %v", err)
	}
	if locations["shard-1"] != "node-2:7000" {
		t.Errorf("shard-1 owner mismatch: got %q", locations["shard-1"])
	}
}

func TestShardTable_Unassign(t *testing.T) {
	store := metadata.NewMockStore()
	defer store.Close()
	ctx := context.Background()

	publisher := NewShardTablePublisher(store, "cluster-1", nil)
	if err := publisher.Assign(ctx, "shard-1", "node-1:7000"); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if err := publisher.Unassign(ctx, "shard-1"); err != nil {
		t.Fatalf("Unassign failed: %v", err)
	}

	table := NewShardTable(store, "cluster-1", nil)
	locations, err := table.CurrentLocations(ctx)
	if err != nil {
		t.Fatalf("CurrentLocations failed: %v", err)
	}
	if len(locations) != 0 {
		t.Errorf("expected empty table after unassign, got %v", locations)
	}
}

func TestShardTablePublisher_PublishReplacesTable(t *testing.T) {
	store := metadata.NewMockStore()
	defer store.Close()
	ctx := context.Background()

	publisher := NewShardTablePublisher(store, "cluster-1", nil)
	initial := map[routing.ShardID]routing.NodeAddress{
		"shard-1": "node-1:7000",
		"shard-2": "node-1:7000",
		"shard-3": "node-2:7000",
	}
	if err := publisher.Publish(ctx, initial); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	// Reallocation: shard-3 moves, shard-2 disappears, shard-4 appears.
	next := map[routing.ShardID]routing.NodeAddress{
		"shard-1": "node-1:7000",
		"shard-3": "node-1:7000",
		"shard-4": "node-2:7000",
	}
	if err := publisher.Publish(ctx, next); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	table := NewShardTable(store, "cluster-1", nil)
	locations, err := table.CurrentLocations(ctx)
	if err != nil {
		t.Fatalf("CurrentLocations failed: %v", err)
	}
	if !reflect.DeepEqual(locations, next) {
		t.Errorf("locations mismatch: got %v, want %v", locations, next)
	}
}

func TestShardTablePublisher_RejectsInvalidShardID(t *testing.T) {
	store := metadata.NewMockStore()
	defer store.Close()
	ctx := context.Background()

	publisher := NewShardTablePublisher(store, "cluster-1", nil)

	if err := publisher.Assign(ctx, "bad/shard", "node-1:7000"); err == nil {
		t.Error("expected Assign to reject shard id containing a slash")
	}
	if err := publisher.Assign(ctx, "", "node-1:7000"); err == nil {
		t.Error("expected Assign to reject empty shard id")
	}

	err := publisher.Publish(ctx, map[routing.ShardID]routing.NodeAddress{
		"shard-1":   "node-1:7000",
		"bad/shard": "node-1:7000",
	})
	if err == nil {
		t.Error("expected Publish to reject table containing an invalid shard id")
	}

	table := NewShardTable(store, "cluster-1", nil)
	locations, err := table.CurrentLocations(ctx)
	if err != nil {
		t.Fatalf("CurrentLocations failed: %v", err)
	}
	if len(locations) != 0 {
		t.Errorf("rejected publish should not write rows, got %v", locations)
	}
}

func TestShardTable_StoreError(t *testing.T) {
	store := metadata.NewMockStore()
	defer store.Close()

	boom := errors.New("store unreachable")
	store.SetError(boom)

	table := NewShardTable(store, "cluster-1", nil)
	_, err := table.CurrentLocations(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestShardTable_SkipsForeignRows(t *testing.T) {
	store := metadata.NewMockStore()
	defer store.Close()
	ctx := context.Background()

	publisher := NewShardTablePublisher(store, "cluster-1", nil)
	if err := publisher.Assign(ctx, "shard-1", "node-1:7000"); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	// A nested key under the shards prefix does not parse as a shard row.
	nested := keys.ShardsPrefix("cluster-1") + "shard-2/extra"
	if _, err := store.Put(ctx, nested, []byte("node-9:7000")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	table := NewShardTable(store, "cluster-1", nil)
	locations, err := table.CurrentLocations(ctx)
	if err != nil {
		t.Fatalf("CurrentLocations failed: %v", err)
	}
	want := map[routing.ShardID]routing.NodeAddress{"shard-1": "node-1:7000"}
	if !reflect.DeepEqual(locations, want) {
		t.Errorf("locations mismatch: got %v, want %v", locations, want)
	}
}
