package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"

	"github.com/shardroute-io/shardroute/internal/logging"
	"github.com/shardroute-io/shardroute/internal/routing"
)

const (
	zkRouteesNode = "routees"
	zkShardsNode  = "shards"

	zkConnectTimeout = 10 * time.Second
)

// ZKConfig configures the ZooKeeper-backed discovery.
type ZKConfig struct {
	// Servers is the list of ZooKeeper ensemble addresses, e.g. "zk1:2181".
	Servers []string

	// RootPath is the chroot under which routee and shard znodes live,
	// e.g. "/shardroute/my-cluster".
	RootPath string

	// SessionTimeout is the ZooKeeper session timeout. Ephemeral routee
	// znodes disappear this long after the owning process dies.
	SessionTimeout time.Duration

	// Logger for connection and registration events.
	Logger *logging.Logger
}

// ZKDiscovery provides routee discovery and shard table reads from a
// ZooKeeper ensemble, for deployments that run ZooKeeper instead of a
// metadata store. Routees register as ephemeral znodes under
// <root>/routees, and shard placements are plain znodes under
// <root>/shards whose data is the owning node's address.
//
// It implements both routing.RouteeDiscovery and routing.LocationSource.
type ZKDiscovery struct {
	conn   *zk.Conn
	root   string
	logger *logging.Logger
}

// NewZKDiscovery connects to the ensemble and waits for the session to be
// established.
func NewZKDiscovery(config ZKConfig) (*ZKDiscovery, error) {
	logger := config.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	timeout := config.SessionTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	conn, _, err := zk.Connect(config.Servers, timeout, zk.WithLogInfo(false))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to zookeeper: %w", err)
	}

	d := &ZKDiscovery{
		conn:   conn,
		root:   strings.TrimSuffix(config.RootPath, "/"),
		logger: logger,
	}

	if err := d.waitConnected(zkConnectTimeout); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Infof("connected to zookeeper", map[string]any{
		"servers": config.Servers,
		"root":    d.root,
	})

	return d, nil
}

// Close closes the ZooKeeper connection, expiring any ephemeral znodes this
// process created.
func (d *ZKDiscovery) Close() error {
	d.conn.Close()
	return nil
}

// RegisterRoutee creates an ephemeral znode for the given routee. The znode
// is removed automatically when this process's session expires.
func (d *ZKDiscovery) RegisterRoutee(ctx context.Context, info RouteeInfo) error {
	if err := d.ensurePath(d.routeesPath()); err != nil {
		return fmt.Errorf("failed to ensure routees path: %w", err)
	}

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal routee info: %w", err)
	}

	nodePath := path.Join(d.routeesPath(), info.RouteeID)
	_, err = d.conn.Create(nodePath, data, zk.FlagEphemeral, zk.WorldACL(zk.PermAll))
	if err != nil && err != zk.ErrNodeExists {
		return fmt.Errorf("failed to create ephemeral routee znode: %w", err)
	}

	d.logger.Infof("routee registered", map[string]any{
		"routeeId": info.RouteeID,
		"path":     nodePath,
	})

	return nil
}

// CurrentRoutees lists the ephemeral routee znodes and decodes them.
// Malformed znodes are skipped rather than failing the whole listing.
func (d *ZKDiscovery) CurrentRoutees(ctx context.Context) ([]routing.RouteeEntry, error) {
	children, _, err := d.conn.Children(d.routeesPath())
	if err != nil {
		if err == zk.ErrNoNode {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list routee znodes: %w", err)
	}

	var routees []routing.RouteeEntry
	for _, child := range children {
		nodePath := path.Join(d.routeesPath(), child)
		data, _, err := d.conn.Get(nodePath)
		if err != nil {
			if err == zk.ErrNoNode {
				// Expired between Children and Get.
				continue
			}
			return nil, fmt.Errorf("failed to read routee znode %q: %w", nodePath, err)
		}

		var info RouteeInfo
		if err := json.Unmarshal(data, &info); err != nil {
			d.logger.Warnf("failed to unmarshal routee znode", map[string]any{
				"path":  nodePath,
				"error": err.Error(),
			})
			continue
		}
		routees = append(routees, info.Entry())
	}

	return routees, nil
}

// CurrentLocations reads the shard placement znodes.
func (d *ZKDiscovery) CurrentLocations(ctx context.Context) (map[routing.ShardID]routing.NodeAddress, error) {
	children, _, err := d.conn.Children(d.shardsPath())
	if err != nil {
		if err == zk.ErrNoNode {
			return map[routing.ShardID]routing.NodeAddress{}, nil
		}
		return nil, fmt.Errorf("failed to list shard znodes: %w", err)
	}

	locations := make(map[routing.ShardID]routing.NodeAddress, len(children))
	for _, child := range children {
		nodePath := path.Join(d.shardsPath(), child)
		data, _, err := d.conn.Get(nodePath)
		if err != nil {
			if err == zk.ErrNoNode {
				continue
			}
			return nil, fmt.Errorf("failed to read shard znode %q: %w", nodePath, err)
		}
		locations[routing.ShardID(child)] = routing.NodeAddress(data)
	}

	return locations, nil
}

func (d *ZKDiscovery) routeesPath() string {
	return path.Join(d.root, zkRouteesNode)
}

func (d *ZKDiscovery) shardsPath() string {
	return path.Join(d.root, zkShardsNode)
}

func (d *ZKDiscovery) ensurePath(p string) error {
	cur := ""
	for _, part := range strings.Split(p, "/") {
		if part == "" {
			continue
		}
		cur = cur + "/" + part
		exists, _, err := d.conn.Exists(cur)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		_, err = d.conn.Create(cur, nil, 0, zk.WorldACL(zk.PermAll))
		if err != nil && err != zk.ErrNodeExists {
			return err
		}
	}
	return nil
}

func (d *ZKDiscovery) waitConnected(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		state := d.conn.State()
		if state == zk.StateConnected || state == zk.StateHasSession {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("zookeeper not connected after %s, state=%v", timeout, state)
		}
		time.Sleep(200 * time.Millisecond)
	}
}
