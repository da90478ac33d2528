package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dutchbamin/together/internal/proxy"
	"github.com/dutchbamin/together/pkg/config"
	"github.com/dutchbamin/together/pkg/logger"
	"github.com/dutchbamin/together/pkg/metrics"
)

func newTestRouter(t *testing.T, upstreamURL string) http.Handler {
	t.Helper()

	cfg := &config.Config{
		App:      config.AppConfig{Env: "test"},
		Upstream: config.UpstreamConfig{BaseURL: upstreamURL, CallTimeout: 5 * time.Second},
		CORS:     config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	handler, err := proxy.NewHandler(cfg.Upstream, logg)
	if err != nil {
		t.Fatalf("proxy.NewHandler: %v", err)
	}

	registry := prometheus.NewRegistry()
	return NewRouter(cfg, logg, registry, metrics.NewHTTPMetrics(registry), handler)
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t, "http://127.0.0.1:1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("X-DutchBamin-Env"); got != "test" {
		t.Fatalf("env header = %q", got)
	}
}

func TestHealthReadyFailsWhenUpstreamDown(t *testing.T) {
	router := newTestRouter(t, "http://127.0.0.1:1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := newTestRouter(t, "http://127.0.0.1:1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestProxyMountedUnderAPIPrefix(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stores" {
			t.Errorf("upstream path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"stores":[]}`)
	}))
	defer upstream.Close()

	router := newTestRouter(t, upstream.URL)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/baemin/stores", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body["stores"]; !ok {
		t.Fatalf("body = %+v", body)
	}
}

func TestProxyRejectsUnsupportedMethods(t *testing.T) {
	router := newTestRouter(t, "http://127.0.0.1:1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/baemin/stores", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
