package controllers

import (
	"context"
	"net/http"

	"github.com/dutchbamin/together/api/responses"
	"github.com/dutchbamin/together/pkg/config"
	pkgerrors "github.com/dutchbamin/together/pkg/errors"
	"github.com/dutchbamin/together/pkg/logger"
)

// UpstreamPinger reports whether the remote backend is reachable.
type UpstreamPinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-DutchBamin-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, upstream UpstreamPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-DutchBamin-Env", cfg.App.Env)

		if upstream != nil {
			if err := upstream.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upstream unreachable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
