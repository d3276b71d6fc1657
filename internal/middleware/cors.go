package middleware

import (
	"net/http"

	"property-backend/internal/config"

	"github.com/rs/cors"
)

func NewCORS(cfg *config.Config) func(http.Handler) http.Handler {
	origins := cfg.Server.CorsAllowedOrigins
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: cfg.Server.CorsAllowedMethods,
		AllowedHeaders: cfg.Server.CorsAllowedHeaders,
		// credentials with a wildcard origin are rejected by browsers
		AllowCredentials: !(len(origins) == 1 && origins[0] == "*"),
		MaxAge:           300,
	})

	return c.Handler
}
