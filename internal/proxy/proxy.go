package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dutchbamin/together/pkg/config"
	"github.com/dutchbamin/together/pkg/logger"
	"github.com/dutchbamin/together/pkg/types"
)

const failureMessage = "Failed to fetch from backend API"

// Handler forwards /api/baemin/* requests to the remote backend. Method,
// remaining path, query string, and body travel verbatim; the only
// request header copied is Authorization. Responses always come back as
// JSON: JSON upstream bodies are decoded and re-encoded, anything else
// is re-encoded as a JSON string. Any proxy-level failure produces a
// fixed 500 body of the shape { error, details }; downstream has no
// fallback for anything else.
type Handler struct {
	upstream *url.URL
	httpc    *http.Client
	logg     *logger.Logger
}

func NewHandler(cfg config.UpstreamConfig, logg *logger.Logger) (*Handler, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	upstream, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing upstream url: %w", err)
	}
	if upstream.Scheme != "http" && upstream.Scheme != "https" {
		return nil, fmt.Errorf("upstream url must be http or https")
	}
	return &Handler{
		upstream: upstream,
		httpc:    &http.Client{Timeout: cfg.CallTimeout},
		logg:     logg,
	}, nil
}

// Ping checks that the upstream backend answers at all. Any HTTP
// response counts; readiness only cares about reachability.
func (h *Handler) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.upstream.String(), nil)
	if err != nil {
		return err
	}
	resp, err := h.httpc.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := chi.URLParam(r, "*")

	target := *h.upstream
	target.Path = strings.TrimSuffix(h.upstream.Path, "/") + "/api/" + rest
	target.RawQuery = r.URL.RawQuery

	var body io.Reader
	if r.Method != http.MethodGet && r.Method != http.MethodDelete {
		body = r.Body
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if auth := r.Header.Get("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := h.httpc.Do(req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var payload any
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &payload); err != nil {
			h.fail(w, r, err)
			return
		}
	} else {
		payload = string(raw)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logg.Error(r.Context(), "writing proxy response", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logg.Error(r.Context(), "proxy request failed", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(types.ProxyError{
		Error:   failureMessage,
		Details: err.Error(),
	})
}
