package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Cluster.ClusterID != "default" {
		t.Errorf("expected default cluster id, got %s", cfg.Cluster.ClusterID)
	}

	if cfg.Router.RefreshIntervalMs != 5000 {
		t.Errorf("expected default refresh interval 5000ms, got %d", cfg.Router.RefreshIntervalMs)
	}

	if cfg.Metadata.Backend != "oxia" {
		t.Errorf("expected default backend oxia, got %s", cfg.Metadata.Backend)
	}

	if cfg.Metadata.OxiaEndpoint != "localhost:6648" {
		t.Errorf("expected default oxia endpoint localhost:6648, got %s", cfg.Metadata.OxiaEndpoint)
	}

	if cfg.Observability.LogFormat != "json" {
		t.Errorf("expected default log format json, got %s", cfg.Observability.LogFormat)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
cluster:
  clusterId: prod
  nodeAddr: node-1:7000
router:
  refreshIntervalMs: 1000
  localPolicy: random
metadata:
  oxiaEndpoint: oxia.prod:6648
observability:
  logLevel: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Cluster.ClusterID != "prod" {
		t.Errorf("ClusterID mismatch: got %q", cfg.Cluster.ClusterID)
	}
	if cfg.Router.RefreshIntervalMs != 1000 {
		t.Errorf("RefreshIntervalMs mismatch: got %d", cfg.Router.RefreshIntervalMs)
	}
	if cfg.Router.LocalPolicy != "random" {
		t.Errorf("LocalPolicy mismatch: got %q", cfg.Router.LocalPolicy)
	}
	if cfg.Metadata.OxiaEndpoint != "oxia.prod:6648" {
		t.Errorf("OxiaEndpoint mismatch: got %q", cfg.Metadata.OxiaEndpoint)
	}

	// Unset fields keep their defaults.
	if cfg.Router.RefreshTimeoutMs != 2000 {
		t.Errorf("RefreshTimeoutMs should be default 2000, got %d", cfg.Router.RefreshTimeoutMs)
	}
	if cfg.Observability.MetricsAddr != ":9090" {
		t.Errorf("MetricsAddr should be default :9090, got %q", cfg.Observability.MetricsAddr)
	}
}

func TestLoadFromPath_MissingFile(t *testing.T) {
	_, err := LoadFromPath("/does/not/exist.yaml")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadFromPath_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath("")
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("empty path should yield defaults, got %+v", cfg)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SHARDROUTE_CLUSTER_ID", "staging")
	t.Setenv("SHARDROUTE_REFRESH_INTERVAL_MS", "250")
	t.Setenv("SHARDROUTE_LOG_LEVEL", "debug")

	cfg, err := LoadFromPath("")
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Cluster.ClusterID != "staging" {
		t.Errorf("ClusterID override not applied: got %q", cfg.Cluster.ClusterID)
	}
	if cfg.Router.RefreshIntervalMs != 250 {
		t.Errorf("RefreshIntervalMs override not applied: got %d", cfg.Router.RefreshIntervalMs)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("LogLevel override not applied: got %q", cfg.Observability.LogLevel)
	}
}

func TestEnvOverrides_InvalidInt(t *testing.T) {
	t.Setenv("SHARDROUTE_REFRESH_INTERVAL_MS", "not-a-number")

	_, err := LoadFromPath("")
	if err == nil {
		t.Fatal("expected error for non-numeric interval override")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"empty cluster id", func(c *Config) { c.Cluster.ClusterID = "" }, true},
		{"zero interval", func(c *Config) { c.Router.RefreshIntervalMs = 0 }, true},
		{"negative timeout", func(c *Config) { c.Router.RefreshTimeoutMs = -1 }, true},
		{"unknown policy", func(c *Config) { c.Router.LocalPolicy = "sticky" }, true},
		{"unknown backend", func(c *Config) { c.Metadata.Backend = "etcd" }, true},
		{"oxia without endpoint", func(c *Config) { c.Metadata.OxiaEndpoint = "" }, true},
		{
			"zookeeper backend needs servers",
			func(c *Config) { c.Metadata.Backend = "zookeeper" },
			true,
		},
		{
			"zookeeper backend with servers",
			func(c *Config) {
				c.Metadata.Backend = "zookeeper"
				c.ZooKeeper.Servers = "zk1:2181, zk2:2181"
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestZooKeeperServerList(t *testing.T) {
	z := ZooKeeperConfig{Servers: "zk1:2181, zk2:2181,,zk3:2181 "}
	got := z.ServerList()
	want := []string{"zk1:2181", "zk2:2181", "zk3:2181"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ServerList mismatch: got %v, want %v", got, want)
	}

	if list := (ZooKeeperConfig{}).ServerList(); list != nil {
		t.Errorf("empty servers should yield nil, got %v", list)
	}
}
