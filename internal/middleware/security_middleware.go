package middleware

import "net/http"

// SecurityHeaders adds a fixed set of security headers to every response.
// Responses are JSON or metrics text and are never meant to be cached,
// framed or rendered as documents:
//
//   - X-Content-Type-Options: nosniff
//   - Cache-Control / Pragma: no caching by browsers or proxies
//   - Cross-Origin-Opener-Policy: same-origin
//   - Content-Security-Policy: nothing may load and nothing may frame the response
//   - Referrer-Policy: no-referrer
//
// Cross-Origin-Resource-Policy is cross-origin because the map widget calls
// the API from the host application's origin; CORS decides who may read.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Cache-Control", "no-store, no-cache, must-revalidate")
		h.Set("Pragma", "no-cache")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Cross-Origin-Resource-Policy", "cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
