// Package config provides configuration loading and validation for shardroute.
// Supports YAML files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPathEnv names the environment variable that points at the config
// file when no path is given explicitly.
const DefaultPathEnv = "SHARDROUTE_CONFIG"

// Config holds all configuration for a shardroute router process.
type Config struct {
	Cluster       ClusterConfig       `yaml:"cluster"`
	Router        RouterConfig        `yaml:"router"`
	Metadata      MetadataConfig      `yaml:"metadata"`
	ZooKeeper     ZooKeeperConfig     `yaml:"zookeeper"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type ClusterConfig struct {
	ClusterID string `yaml:"clusterId" env:"SHARDROUTE_CLUSTER_ID"`
	NodeAddr  string `yaml:"nodeAddr" env:"SHARDROUTE_NODE_ADDR"`
}

type RouterConfig struct {
	RefreshIntervalMs int64  `yaml:"refreshIntervalMs" env:"SHARDROUTE_REFRESH_INTERVAL_MS"`
	RefreshTimeoutMs  int64  `yaml:"refreshTimeoutMs" env:"SHARDROUTE_REFRESH_TIMEOUT_MS"`
	LocalPolicy       string `yaml:"localPolicy" env:"SHARDROUTE_LOCAL_POLICY"`
}

type MetadataConfig struct {
	// Backend selects where routees and the shard table live,
	// either "oxia" or "zookeeper".
	Backend      string `yaml:"backend" env:"SHARDROUTE_METADATA_BACKEND"`
	OxiaEndpoint string `yaml:"oxiaEndpoint" env:"SHARDROUTE_OXIA_ENDPOINT"`
	Namespace    string `yaml:"namespace" env:"SHARDROUTE_OXIA_NAMESPACE"`
}

type ZooKeeperConfig struct {
	// Servers is a comma-separated list of ensemble addresses.
	Servers          string `yaml:"servers" env:"SHARDROUTE_ZK_SERVERS"`
	RootPath         string `yaml:"rootPath" env:"SHARDROUTE_ZK_ROOT_PATH"`
	SessionTimeoutMs int64  `yaml:"sessionTimeoutMs" env:"SHARDROUTE_ZK_SESSION_TIMEOUT_MS"`
}

type ObservabilityConfig struct {
	MetricsAddr string `yaml:"metricsAddr" env:"SHARDROUTE_METRICS_ADDR"`
	HealthAddr  string `yaml:"healthAddr" env:"SHARDROUTE_HEALTH_ADDR"`
	LogLevel    string `yaml:"logLevel" env:"SHARDROUTE_LOG_LEVEL"`
	LogFormat   string `yaml:"logFormat" env:"SHARDROUTE_LOG_FORMAT"`
}

// ServerList splits the comma-separated ensemble addresses.
func (z ZooKeeperConfig) ServerList() []string {
	var servers []string
	for _, s := range strings.Split(z.Servers, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			servers = append(servers, s)
		}
	}
	return servers
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Cluster: ClusterConfig{
			ClusterID: "default",
		},
		Router: RouterConfig{
			RefreshIntervalMs: 5000,
			RefreshTimeoutMs:  2000,
			LocalPolicy:       "round_robin",
		},
		Metadata: MetadataConfig{
			Backend:      "oxia",
			OxiaEndpoint: "localhost:6648",
			Namespace:    "shardroute",
		},
		ZooKeeper: ZooKeeperConfig{
			RootPath:         "/shardroute",
			SessionTimeoutMs: 5000,
		},
		Observability: ObservabilityConfig{
			MetricsAddr: ":9090",
			HealthAddr:  ":8080",
			LogLevel:    "info",
			LogFormat:   "json",
		},
	}
}

// Load returns the configuration from the path named by SHARDROUTE_CONFIG,
// or the defaults with environment overrides applied when it is unset.
func Load() (*Config, error) {
	return LoadFromPath(os.Getenv(DefaultPathEnv))
}

// LoadFromPath reads a YAML config file, applies environment variable
// overrides, and validates the result. An empty path skips the file and
// uses the defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
		}
	}

	if err := applyEnvOverrides(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Cluster.ClusterID == "" {
		return fmt.Errorf("cluster.clusterId must not be empty")
	}
	if c.Router.RefreshIntervalMs <= 0 {
		return fmt.Errorf("router.refreshIntervalMs must be positive, got %d", c.Router.RefreshIntervalMs)
	}
	if c.Router.RefreshTimeoutMs <= 0 {
		return fmt.Errorf("router.refreshTimeoutMs must be positive, got %d", c.Router.RefreshTimeoutMs)
	}

	switch c.Router.LocalPolicy {
	case "", "round_robin", "random":
	default:
		return fmt.Errorf("router.localPolicy must be round_robin or random, got %q", c.Router.LocalPolicy)
	}

	switch c.Metadata.Backend {
	case "oxia":
		if c.Metadata.OxiaEndpoint == "" {
			return fmt.Errorf("metadata.oxiaEndpoint must not be empty")
		}
	case "zookeeper":
		if len(c.ZooKeeper.ServerList()) == 0 {
			return fmt.Errorf("zookeeper.servers must not be empty")
		}
	default:
		return fmt.Errorf("metadata.backend must be oxia or zookeeper, got %q", c.Metadata.Backend)
	}

	return nil
}

// applyEnvOverrides walks the config struct and overwrites any field whose
// env-tagged variable is set.
func applyEnvOverrides(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() == reflect.Struct {
			if err := applyEnvOverrides(field); err != nil {
				return err
			}
			continue
		}

		envName := t.Field(i).Tag.Get("env")
		if envName == "" {
			continue
		}
		raw, ok := os.LookupEnv(envName)
		if !ok {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(raw)
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", envName, err)
			}
			field.SetInt(n)
		case reflect.Bool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", envName, err)
			}
			field.SetBool(b)
		default:
			return fmt.Errorf("unsupported config field kind %s for %s", field.Kind(), envName)
		}
	}
	return nil
}
