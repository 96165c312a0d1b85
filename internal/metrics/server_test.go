package metrics

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestServer_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRouterMetricsWithRegistry(reg)
	m.RecordDecision(OutcomeHit)

	s := NewServerWithRegistry("127.0.0.1:0", reg)
	if err := s.Start(); err != nil {
		t.Fatalf("failed to start metrics server: %v", err)
	}
	defer s.Close()

	resp, err := http.Get(fmt.Sprintf("http://%s/metrics", s.Addr()))
	if err != nil {
		t.Fatalf("failed to scrape metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if !strings.Contains(string(body), "shardroute_router_decisions_total") {
		t.Error("scrape output missing router decision counter")
	}
}

func TestServer_AddrBeforeStart(t *testing.T) {
	s := NewServer(":9090")
	if got := s.Addr(); got != ":9090" {
		t.Errorf("Addr() = %q, want configured address before start", got)
	}
}

func TestServer_CloseWithoutStart(t *testing.T) {
	s := NewServer(":9090")
	if err := s.Close(); err != nil {
		t.Errorf("Close() on unstarted server = %v, want nil", err)
	}
}
