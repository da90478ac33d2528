package proxy

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dutchbamin/together/pkg/config"
	"github.com/dutchbamin/together/pkg/logger"
)

func newProxyServer(t *testing.T, upstreamURL string) *httptest.Server {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	handler, err := NewHandler(config.UpstreamConfig{BaseURL: upstreamURL, CallTimeout: 5 * time.Second}, logg)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	r := chi.NewRouter()
	r.Handle("/api/baemin/*", handler)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestProxyForwardsPathQueryAndBody(t *testing.T) {
	var gotPath, gotQuery, gotBody, gotAuth, gotCookie string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		gotAuth = r.Header.Get("Authorization")
		gotCookie = r.Header.Get("Cookie")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"roomId":"room-1"}`)
	}))
	defer upstream.Close()

	srv := newProxyServer(t, upstream.URL)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/baemin/rooms?sortBy=rating", strings.NewReader(`{"hostId":"u1"}`))
	req.Header.Set("Authorization", "Bearer tok-1")
	req.Header.Set("Cookie", "secret=1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("proxy request: %v", err)
	}
	defer resp.Body.Close()

	if gotPath != "/api/rooms" {
		t.Fatalf("upstream path = %q", gotPath)
	}
	if gotQuery != "sortBy=rating" {
		t.Fatalf("upstream query = %q", gotQuery)
	}
	if gotBody != `{"hostId":"u1"}` {
		t.Fatalf("upstream body = %q", gotBody)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotCookie != "" {
		t.Fatalf("cookie header leaked: %q", gotCookie)
	}

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["roomId"] != "room-1" {
		t.Fatalf("body = %+v", out)
	}
}

func TestProxyEncodesTextResponsesAsJSONString(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "pong")
	}))
	defer upstream.Close()

	srv := newProxyServer(t, upstream.URL)

	resp, err := http.Get(srv.URL + "/api/baemin/health")
	if err != nil {
		t.Fatalf("proxy request: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content type = %q", ct)
	}
	raw, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(raw)) != `"pong"` {
		t.Fatalf("body = %q, want JSON-encoded string", raw)
	}
}

func TestProxyStatusPassthrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"room not found"}`)
	}))
	defer upstream.Close()

	srv := newProxyServer(t, upstream.URL)

	resp, err := http.Get(srv.URL + "/api/baemin/rooms/missing")
	if err != nil {
		t.Fatalf("proxy request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestProxyFailureShape(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{not json`)
	}))
	defer upstream.Close()

	cases := []struct {
		name string
		url  func() string
	}{
		{name: "unreachable upstream", url: func() string {
			return "http://127.0.0.1:1"
		}},
		{name: "malformed upstream json", url: func() string {
			return upstream.URL
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newProxyServer(t, tc.url())

			resp, err := http.Get(srv.URL + "/api/baemin/stores")
			if err != nil {
				t.Fatalf("proxy request: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", resp.StatusCode)
			}

			var body map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if _, ok := body["error"]; !ok {
				t.Fatalf("missing error field: %+v", body)
			}
			if _, ok := body["details"]; !ok {
				t.Fatalf("missing details field: %+v", body)
			}
			if len(body) != 2 {
				t.Fatalf("failure body must have exactly error and details, got %+v", body)
			}
			if body["error"] != failureMessage {
				t.Fatalf("error message = %v", body["error"])
			}
		})
	}
}
