package app

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/raedapplebanon-spec/route-map/internal/middleware"
)

// metricsCacheTTL is how long a gathered /metrics exposition is reused.
const metricsCacheTTL = 10 * time.Second

// Routes registers every endpoint and wraps the router with CORS, Sentry and
// security headers, outermost last. ctx stops the metrics cache refresher.
//
//	GET    /v1/healthcheck
//	GET    /metrics
//	POST   /v1/clusters
//	POST   /v1/plans
//	POST   /v1/sessions
//	DELETE /v1/sessions/:id
//	POST   /v1/sessions/:id/ready
//	PUT    /v1/sessions/:id/route-data
//	GET    /v1/sessions/:id/route
//	GET    /v1/sessions/:id/markers/search?q=
//	PUT    /v1/sessions/:id/picker/initial-position
//	POST   /v1/sessions/:id/picker/picks
//	GET    /v1/sessions/:id/picker
func (app *Application) Routes(ctx context.Context) http.Handler {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)
	// CORS answers preflight requests before they reach the router
	router.HandleOPTIONS = false

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)
	router.Handler(http.MethodGet, "/metrics", middleware.NewCachedPromHandler(ctx, prometheus.DefaultGatherer, metricsCacheTTL))

	router.HandlerFunc(http.MethodPost, "/v1/clusters", app.clusterHandler)
	router.HandlerFunc(http.MethodPost, "/v1/plans", app.planHandler)

	router.HandlerFunc(http.MethodPost, "/v1/sessions", app.createSessionHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/sessions/:id", app.deleteSessionHandler)
	router.HandlerFunc(http.MethodPost, "/v1/sessions/:id/ready", app.readyHandler)
	router.HandlerFunc(http.MethodPut, "/v1/sessions/:id/route-data", app.setRouteDataHandler)
	router.HandlerFunc(http.MethodGet, "/v1/sessions/:id/route", app.routeHandler)
	router.HandlerFunc(http.MethodGet, "/v1/sessions/:id/markers/search", app.searchMarkersHandler)
	router.HandlerFunc(http.MethodPut, "/v1/sessions/:id/picker/initial-position", app.initialPositionHandler)
	router.HandlerFunc(http.MethodPost, "/v1/sessions/:id/picker/picks", app.pickHandler)
	router.HandlerFunc(http.MethodGet, "/v1/sessions/:id/picker", app.pickerStateHandler)

	handler := middleware.SentryMiddleware(router)
	handler = middleware.CORS(app.AllowedOrigins)(handler)
	return middleware.SecurityHeaders(handler)
}
