package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8080",
}

// CORS applies the storefront's allowed origin policy; an empty list falls back to local
// development origins.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", SessionHeader, IdempotencyHeader, "X-Requested-With", RequestIDHeader},
		ExposedHeaders:   []string{SessionHeader, RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
