package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/shardroute-io/shardroute/internal/routing"
)

func TestLoadShardTableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.yaml")

	content := `
shard-1: node-1:7000
shard-2: node-1:7000
shard-3: node-2:7000
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write table file: %v", err)
	}

	table, err := loadShardTableFile(path)
	if err != nil {
		t.Fatalf("loadShardTableFile failed: %v", err)
	}

	want := map[routing.ShardID]routing.NodeAddress{
		"shard-1": "node-1:7000",
		"shard-2": "node-1:7000",
		"shard-3": "node-2:7000",
	}
	if !reflect.DeepEqual(table, want) {
		t.Errorf("table mismatch: got %v, want %v", table, want)
	}
}

func TestLoadShardTableFile_MissingFile(t *testing.T) {
	_, err := loadShardTableFile("/does/not/exist.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadShardTableFile_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.yaml")

	if err := os.WriteFile(path, []byte("- not\n- a\n- mapping\n"), 0o644); err != nil {
		t.Fatalf("failed to write table file: %v", err)
	}

	if _, err := loadShardTableFile(path); err == nil {
		t.Fatal("expected error for non-mapping table file")
	}
}
