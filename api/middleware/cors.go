package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/dutchbamin/together/pkg/config"
)

// CORS applies the gateway's allowed origin policy. Origins come from
// configuration so deployments can add their frontend domains without a
// rebuild.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
