package keys

import (
	"errors"
	"testing"
)

func TestRouteeKeyRoundTrip(t *testing.T) {
	key := RouteeKeyPath("prod", "routee-42")
	if want := "/shardroute/v1/cluster/prod/routees/routee-42"; key != want {
		t.Errorf("RouteeKeyPath = %q, want %q", key, want)
	}

	id, err := ParseRouteeKey("prod", key)
	if err != nil {
		t.Fatalf("ParseRouteeKey() error = %v", err)
	}
	if id != "routee-42" {
		t.Errorf("ParseRouteeKey() = %q, want routee-42", id)
	}
}

func TestShardKeyRoundTrip(t *testing.T) {
	key := ShardKeyPath("prod", "shard-7")
	if want := "/shardroute/v1/cluster/prod/shards/shard-7"; key != want {
		t.Errorf("ShardKeyPath = %q, want %q", key, want)
	}

	id, err := ParseShardKey("prod", key)
	if err != nil {
		t.Fatalf("ParseShardKey() error = %v", err)
	}
	if id != "shard-7" {
		t.Errorf("ParseShardKey() = %q, want shard-7", id)
	}
}

func TestParseRejectsMalformedKeys(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"wrong prefix", "/other/v1/cluster/prod/routees/r1"},
		{"wrong cluster", RouteeKeyPath("staging", "r1")},
		{"empty id", RouteesPrefix("prod")},
		{"nested id", RouteesPrefix("prod") + "a/b"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseRouteeKey("prod", tc.key); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("ParseRouteeKey(%q) error = %v, want ErrInvalidKey", tc.key, err)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	if err := ValidateID("routee-1"); err != nil {
		t.Errorf("ValidateID(routee-1) = %v, want nil", err)
	}
	if err := ValidateID(""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("ValidateID(\"\") = %v, want ErrInvalidKey", err)
	}
	if err := ValidateID("a/b"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("ValidateID(a/b) = %v, want ErrInvalidKey", err)
	}
}
