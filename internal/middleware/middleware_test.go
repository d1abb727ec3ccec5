package middleware

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"photo-triage/internal/metrics"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var out dto.Metric
	if err := c.Write(&out); err != nil {
		t.Fatalf("Failed to read metric: %v", err)
	}
	return out.Counter.GetValue()
}

func TestResponseWriter(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	rw := newResponseWriter(w)
	if rw.statusCode != http.StatusOK || rw.wroteHeader {
		t.Fatalf("Unexpected initial state %+v", rw)
	}

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusInternalServerError)
	if rw.statusCode != http.StatusNotFound {
		t.Errorf("Status code should not change after first WriteHeader, got %d", rw.statusCode)
	}

	n, err := rw.Write([]byte("test data"))
	if err != nil || n != 9 || rw.bytesWritten != 9 {
		t.Errorf("Expected 9 bytes written, got %d (%v), counted %d", n, err, rw.bytesWritten)
	}
}

func TestResponseWriterHijackUnsupported(t *testing.T) {
	t.Parallel()

	rw := newResponseWriter(httptest.NewRecorder())
	if _, _, err := rw.Hijack(); err != http.ErrNotSupported {
		t.Errorf("Expected ErrNotSupported, got %v", err)
	}
}

func TestLoggerMiddleware(t *testing.T) {
	var (
		mu    sync.Mutex
		lines []string
	)
	orig := printf
	printf = func(format string, args ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, fmt.Sprintf(format, args...))
	}
	t.Cleanup(func() { printf = orig })

	handler := Logger(DefaultLoggingConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hello"))
	}))

	tests := []struct {
		path   string
		logged bool
	}{
		{"/api/state?x=1", true},
		{"/healthz", false},
		{"/metrics", false},
	}
	for _, tt := range tests {
		lines = nil
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		req.Header.Set("User-Agent", "curl test")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if got := len(lines) == 1; got != tt.logged {
			t.Errorf("%s: logged=%v, want %v", tt.path, got, tt.logged)
			continue
		}
		if tt.logged {
			fields := strings.Fields(lines[0])
			if fields[4] != "/api/state" || fields[5] != "x=1" || fields[6] != "418" || fields[7] != "5" {
				t.Errorf("Unexpected log line %q", lines[0])
			}
			if !strings.HasSuffix(lines[0], `"curl test"`) {
				t.Errorf("Expected quoted user agent in %q", lines[0])
			}
		}
	}
}

func TestSanitizeLogField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"line\nbreak", "line break"},
		{"a\r\nb", "a  b"},
		{"\x1b[31mred", "[31mred"},
		{"nul\x00byte", "nulbyte"},
		{"tab\tok", "tab\tok"},
	}
	for _, tt := range tests {
		if got := sanitizeLogField(tt.in); got != tt.want {
			t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "1.2.3.4:5", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.9"}, "1.2.3.4:5", "10.0.0.9"},
		{"remote", nil, "1.2.3.4:5678", "1.2.3.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatW3C(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/api/undo", nil)
	req.RemoteAddr = "127.0.0.1:9999"
	rw := newResponseWriter(httptest.NewRecorder())
	rw.statusCode = http.StatusConflict

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	got := formatW3C(req, rw, 1500*time.Millisecond, now)
	want := "2024-05-01 10:00:00 127.0.0.1 POST /api/undo - 409 0 1500 -"
	if got != want {
		t.Errorf("formatW3C = %q, want %q", got, want)
	}
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	t.Parallel()

	r := mux.NewRouter()
	r.Use(Metrics(DefaultMetricsConfig()))
	r.HandleFunc("/api/test-metrics/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}).Methods(http.MethodPost)

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/api/test-metrics/{id}", "202")
	before := counterValue(t, counter)

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/test-metrics/"+id, nil))
	}
	if got := counterValue(t, counter) - before; got != 3 {
		t.Errorf("Expected 3 requests under one route label, got %v", got)
	}
}

func TestMetricsMiddlewareSkipPaths(t *testing.T) {
	t.Parallel()

	called := false
	handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "200")
	before := counterValue(t, counter)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ws", nil))
	if !called {
		t.Fatal("Skipped path must still reach the handler")
	}
	if counterValue(t, counter) != before {
		t.Error("Skipped path was recorded")
	}
}

func TestCompressionMiddleware(t *testing.T) {
	t.Parallel()

	large := strings.Repeat(`{"path":"/photos/IMG_0001.jpg"},`, 100)
	tests := []struct {
		name           string
		contentType    string
		body           string
		acceptEncoding string
		upgrade        bool
		wantGzip       bool
	}{
		{"large json", "application/json", large, "gzip, deflate", false, true},
		{"small json", "application/json", `{"ok":true}`, "gzip", false, false},
		{"jpeg", "image/jpeg", large, "gzip", false, false},
		{"client without gzip", "application/json", large, "", false, false},
		{"websocket upgrade", "application/json", large, "gzip", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(http.StatusCreated)
				// Several writes exercise the buffering path.
				for chunk := range strings.SplitSeq(tt.body, ",") {
					_, _ = io.WriteString(w, chunk+",")
				}
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			if tt.upgrade {
				req.Header.Set("Upgrade", "websocket")
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusCreated {
				t.Errorf("Expected status 201, got %d", rec.Code)
			}
			gzipped := rec.Header().Get("Content-Encoding") == "gzip"
			if gzipped != tt.wantGzip {
				t.Fatalf("gzip=%v, want %v", gzipped, tt.wantGzip)
			}

			body := rec.Body.Bytes()
			if gzipped {
				zr, err := gzip.NewReader(bytes.NewReader(body))
				if err != nil {
					t.Fatalf("Invalid gzip body: %v", err)
				}
				if body, err = io.ReadAll(zr); err != nil {
					t.Fatalf("Failed to decompress: %v", err)
				}
			}
			want := tt.body + ","
			if string(body) != want {
				t.Errorf("Body mismatch: got %d bytes, want %d", len(body), len(want))
			}
		})
	}
}
