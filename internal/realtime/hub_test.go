package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"photo-triage/internal/analysis"
	"photo-triage/internal/metrics"
	"photo-triage/internal/triage"
)

func metricValue(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("Failed to read metric: %v", err)
	}
	if out.Gauge != nil {
		return out.Gauge.GetValue()
	}
	return out.Counter.GetValue()
}

func startHub(t *testing.T, allowedOrigins ...string) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()
	hub := NewHub(allowedOrigins...)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, srv, cancel
}

func dial(t *testing.T, hub *Hub, srv *httptest.Server, want int) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(5 * time.Second)
	for hub.Clients() != want {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients, have %d", want, hub.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("Invalid event %s: %v", data, err)
	}
	return e
}

func TestHubDeliversSurfaceEvents(t *testing.T) {
	hub, srv, _ := startHub(t)
	a := dial(t, hub, srv, 1)
	b := dial(t, hub, srv, 2)

	hub.BatchFound([]string{"/p/a.jpg", "/p/b.jpg"})
	hub.ResultReady(triage.ImageRecord{Path: "/p/a.jpg", Score: 72, Status: triage.StatusKeep})
	hub.Progress(3, 10, 7*time.Second)
	hub.ScanFinished(errors.New("permission denied"))
	hub.AnalysisFinished(analysis.Summary{Total: 10, Completed: 8, Failed: 1, NotStarted: []string{"/p/z.jpg"}, Cancelled: true, Duration: 2 * time.Second})

	for _, conn := range []*websocket.Conn{a, b} {
		if e := readEvent(t, conn); e.Type != TypeBatch || len(e.Paths) != 2 {
			t.Errorf("Unexpected batch event %+v", e)
		}
		if e := readEvent(t, conn); e.Type != TypeResult || e.Record == nil || e.Record.Score != 72 || e.Record.Status != triage.StatusKeep {
			t.Errorf("Unexpected result event %+v", e)
		}
		if e := readEvent(t, conn); e.Type != TypeProgress || e.Completed != 3 || e.Total != 10 || e.ETA != 7 {
			t.Errorf("Unexpected progress event %+v", e)
		}
		if e := readEvent(t, conn); e.Type != TypeScanFinished || e.Error != "permission denied" {
			t.Errorf("Unexpected scan event %+v", e)
		}
		e := readEvent(t, conn)
		if e.Type != TypeAnalysisFinished || e.Summary == nil {
			t.Fatalf("Unexpected analysis event %+v", e)
		}
		if s := e.Summary; s.Completed != 8 || s.Failed != 1 || !s.Cancelled || s.Seconds != 2 || len(s.NotStarted) != 1 {
			t.Errorf("Unexpected summary %+v", s)
		}
		if e.Timestamp == 0 {
			t.Error("Expected timestamp to be set")
		}
	}
}

func TestHubOriginCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		origin func(srv *httptest.Server) string
		want   int
	}{
		{"no origin", func(*httptest.Server) string { return "" }, http.StatusSwitchingProtocols},
		{"same origin", func(srv *httptest.Server) string { return srv.URL }, http.StatusSwitchingProtocols},
		{"allowed origin", func(*httptest.Server) string { return "HTTPS://Viewer.example:8443" }, http.StatusSwitchingProtocols},
		{"foreign origin", func(*httptest.Server) string { return "https://evil.example" }, http.StatusForbidden},
		{"foreign port", func(srv *httptest.Server) string { return srv.URL + "1" }, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, srv, _ := startHub(t, "https://viewer.example:8443/")

			header := http.Header{}
			if o := tt.origin(srv); o != "" {
				header.Set("Origin", o)
			}
			url := "ws" + strings.TrimPrefix(srv.URL, "http")
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if conn != nil {
				conn.Close()
			}
			if resp == nil {
				t.Fatalf("Expected a handshake response, got error %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("Expected status %d, got %d (err %v)", tt.want, resp.StatusCode, err)
			}
		})
	}
}

func TestHubUnregistersClosedClients(t *testing.T) {
	hub, srv, _ := startHub(t)
	conn := dial(t, hub, srv, 1)

	conn.Close()
	deadline := time.Now().Add(5 * time.Second)
	for hub.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("Closed client was not unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := metricValue(t, metrics.RealtimeClients); got != 0 {
		t.Errorf("Expected client gauge 0, got %v", got)
	}
}

func TestHubStopDisconnectsClients(t *testing.T) {
	hub, srv, cancel := startHub(t)
	conn := dial(t, hub, srv, 1)

	cancel()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected the connection to close when the hub stops")
	}
}

func TestBroadcastNeverBlocks(t *testing.T) {
	t.Parallel()

	// Not running: nothing drains the queue.
	hub := NewHub()
	before := metricValue(t, metrics.RealtimeDropped)

	done := make(chan struct{})
	go func() {
		for range sendBuffer + 5 {
			hub.Progress(1, 2, 0)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Broadcast blocked on a full queue")
	}
	if dropped := metricValue(t, metrics.RealtimeDropped) - before; dropped < 5 {
		t.Errorf("Expected at least 5 dropped events, got %v", dropped)
	}
}
