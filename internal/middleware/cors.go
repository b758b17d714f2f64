package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// ParseOrigins splits a comma separated origin list. An empty list allows
// every origin.
func ParseOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// CORS lets the map widget, served from the host application, call the API.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Content-Type", "Origin", "X-Requested-With"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	})
	return c.Handler
}
