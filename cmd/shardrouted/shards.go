package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shardroute-io/shardroute/internal/cluster"
	"github.com/shardroute-io/shardroute/internal/config"
	"github.com/shardroute-io/shardroute/internal/logging"
	oxiastore "github.com/shardroute-io/shardroute/internal/metadata/oxia"
	"github.com/shardroute-io/shardroute/internal/routing"
)

// runShards implements the shard table admin subcommand. It writes the
// placement table that running routers pick up on their next refresh.
func runShards(args []string) {
	fs := flag.NewFlagSet("shards", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	clusterID := fs.String("cluster-id", "", "Override cluster ID (default: from config)")
	timeout := fs.Duration("timeout", 10*time.Second, "Timeout for the operation")

	fs.Usage = func() {
		fmt.Println(`Usage: shardrouted shards [options] <action> [arguments]

Actions:
  list                      Print the current shard placement table
  assign <shard> <node>     Assign a shard to a node
  unassign <shard>          Remove a shard from the table
  publish <file>            Replace the whole table from a YAML file
                            (a mapping of shard id to node address)

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromPath(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *clusterID != "" {
		cfg.Cluster.ClusterID = *clusterID
	}
	if cfg.Metadata.Backend != "oxia" {
		fmt.Fprintf(os.Stderr, "shard table administration requires the oxia backend, got %q\n", cfg.Metadata.Backend)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Observability.LogLevel),
		Format: logging.FormatText,
	})

	store, err := oxiastore.New(ctx, oxiastore.Config{
		ServiceAddress: cfg.Metadata.OxiaEndpoint,
		Namespace:      cfg.Metadata.Namespace,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to oxia: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	action := fs.Arg(0)
	switch action {
	case "list":
		table := cluster.NewShardTable(store, cfg.Cluster.ClusterID, logger)
		locations, err := table.CurrentLocations(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read shard table: %v\n", err)
			os.Exit(1)
		}
		printShardTable(locations)

	case "assign":
		if fs.NArg() != 3 {
			fmt.Fprintln(os.Stderr, "usage: shardrouted shards assign <shard> <node>")
			os.Exit(1)
		}
		publisher := cluster.NewShardTablePublisher(store, cfg.Cluster.ClusterID, logger)
		shard := routing.ShardID(fs.Arg(1))
		addr := routing.NodeAddress(fs.Arg(2))
		if err := publisher.Assign(ctx, shard, addr); err != nil {
			fmt.Fprintf(os.Stderr, "failed to assign shard: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("assigned %s -> %s\n", shard, addr)

	case "unassign":
		if fs.NArg() != 2 {
			fmt.Fprintln(os.Stderr, "usage: shardrouted shards unassign <shard>")
			os.Exit(1)
		}
		publisher := cluster.NewShardTablePublisher(store, cfg.Cluster.ClusterID, logger)
		shard := routing.ShardID(fs.Arg(1))
		if err := publisher.Unassign(ctx, shard); err != nil {
			fmt.Fprintf(os.Stderr, "failed to unassign shard: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("unassigned %s\n", shard)

	case "publish":
		if fs.NArg() != 2 {
			fmt.Fprintln(os.Stderr, "usage: shardrouted shards publish <file>")
			os.Exit(1)
		}
		table, err := loadShardTableFile(fs.Arg(1))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		publisher := cluster.NewShardTablePublisher(store, cfg.Cluster.ClusterID, logger)
		if err := publisher.Publish(ctx, table); err != nil {
			fmt.Fprintf(os.Stderr, "failed to publish shard table: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("published %d shard placements\n", len(table))

	default:
		fmt.Fprintf(os.Stderr, "unknown action: %s\n\n", action)
		fs.Usage()
		os.Exit(1)
	}
}

// loadShardTableFile reads a YAML mapping of shard id to node address.
func loadShardTableFile(path string) (map[routing.ShardID]routing.NodeAddress, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shard table file %q: %w", path, err)
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse shard table file %q: %w", path, err)
	}

	table := make(map[routing.ShardID]routing.NodeAddress, len(raw))
	for shard, addr := range raw {
		table[routing.ShardID(shard)] = routing.NodeAddress(addr)
	}
	return table, nil
}

func printShardTable(locations map[routing.ShardID]routing.NodeAddress) {
	shards := make([]string, 0, len(locations))
	for shard := range locations {
		shards = append(shards, string(shard))
	}
	sort.Strings(shards)

	for _, shard := range shards {
		fmt.Printf("%s\t%s\n", shard, locations[routing.ShardID(shard)])
	}
	fmt.Printf("%d shards\n", len(shards))
}
