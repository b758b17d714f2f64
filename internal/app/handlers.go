package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/raedapplebanon-spec/route-map/internal/cluster"
	"github.com/raedapplebanon-spec/route-map/internal/metrics"
	"github.com/raedapplebanon-spec/route-map/internal/models"
	"github.com/raedapplebanon-spec/route-map/internal/picker"
	"github.com/raedapplebanon-spec/route-map/internal/planner"
	"github.com/raedapplebanon-spec/route-map/internal/session"
)

// maxAwait caps how long GET /route waits for a generation to finish.
const maxAwait = 60 * time.Second

// HealthStatus is the body of GET /v1/healthcheck.
//
// Ready is false when the configured provider cannot serve requests,
// e.g. Google without an API key; load balancers then see a 500.
type HealthStatus struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
	Provider    string `json:"provider"`
	Sessions    int    `json:"sessions"`
	Ready       bool   `json:"ready"`
}

func (app *Application) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	settings := app.settings()

	ready := settings.Validate() == nil
	if settings.Directions.Provider == "google" && settings.Directions.APIKey == "" {
		ready = false
	}

	status := HealthStatus{
		Status:      "available",
		Environment: app.ConfigService.Config.Env,
		Version:     app.Version,
		Provider:    settings.Directions.Provider,
		Sessions:    app.Sessions.Count(),
		Ready:       ready,
	}

	code := http.StatusOK
	if !ready {
		code = http.StatusInternalServerError
	}
	app.writeJSON(w, code, status)
}

type clusterRequest struct {
	Stops           []models.Stop `json:"stops"`
	ToleranceMeters *float64      `json:"toleranceMeters"`
}

// clusterHandler groups the posted stops without planning a route.
func (app *Application) clusterHandler(w http.ResponseWriter, r *http.Request) {
	var input clusterRequest
	if err := app.readJSON(w, r, &input); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	opts := app.settings().ClusterOptions()
	if input.ToleranceMeters != nil {
		opts.ToleranceMeters = *input.ToleranceMeters
	}

	result := app.newClusterer(opts).Cluster(input.Stops)
	metrics.RecordClustering("request", len(input.Stops), len(result.Invalid), len(result.Clusters))

	app.writeJSON(w, http.StatusOK, result)
}

type planRequest struct {
	Stops []models.Stop `json:"stops"`
}

type planResponse struct {
	Clusters     []models.Cluster      `json:"clusters"`
	InvalidStops []cluster.InvalidStop `json:"invalidStops"`
	Route        *planner.PlannedRoute `json:"route"`
}

// planHandler clusters the posted route stops and plans synchronously.
// A missing start or end stop yields 204; a provider failure yields 422.
func (app *Application) planHandler(w http.ResponseWriter, r *http.Request) {
	var input planRequest
	if err := app.readJSON(w, r, &input); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	clusterer, p := app.newCollaborators()
	result := clusterer.Cluster(input.Stops)
	metrics.RecordClustering(session.ListRoute, len(input.Stops), len(result.Invalid), len(result.Clusters))

	strategy := string(p.Options.Strategy)
	route, err := p.Plan(r.Context(), result.Clusters)
	switch {
	case err == nil:
		metrics.RecordPlanOutcome(string(session.StateSucceeded), strategy, route.Summary.DistanceKm, route.Summary.DurationMinutes)
	case errors.Is(err, planner.ErrNoRoute):
		metrics.RecordPlanOutcome(string(session.StateSkipped), strategy, 0, 0)
		app.Logger.Info("plan skipped", "reason", err)
		w.WriteHeader(http.StatusNoContent)
		return
	default:
		metrics.RecordPlanOutcome(string(session.StateFailed), strategy, 0, 0)
		app.Logger.Warn("plan failed", "error", err)
		app.unprocessableResponse(w, r, err)
		return
	}

	app.writeJSON(w, http.StatusOK, planResponse{
		Clusters:     result.Clusters,
		InvalidStops: result.Invalid,
		Route:        route,
	})
}

func (app *Application) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess := app.Sessions.Create()
	w.Header().Set("Location", fmt.Sprintf("/v1/sessions/%s", sess.ID))
	app.writeJSON(w, http.StatusCreated, envelope{"id": sess.ID})
}

// lookupSession writes a 404 and returns false when the session is unknown.
func (app *Application) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := app.Sessions.Get(app.sessionID(r))
	if !ok {
		app.notFoundResponse(w, r)
		return nil, false
	}
	return sess, true
}

func (app *Application) readyHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := app.lookupSession(w, r)
	if !ok {
		return
	}
	replayed := sess.Ready()
	app.writeJSON(w, http.StatusOK, envelope{"replayed": replayed, "generation": sess.Snapshot().Generation})
}

func (app *Application) setRouteDataHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := app.lookupSession(w, r)
	if !ok {
		return
	}

	var input session.RouteData
	if err := app.readJSON(w, r, &input); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	generation, buffered := sess.SetRouteData(input)
	app.writeJSON(w, http.StatusAccepted, envelope{"generation": generation, "buffered": buffered})
}

// routeHandler returns the current snapshot. With ?generation=N it first
// waits until that generation has finished planning or been superseded.
func (app *Application) routeHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := app.lookupSession(w, r)
	if !ok {
		return
	}

	raw := r.URL.Query().Get("generation")
	if raw == "" {
		app.writeJSON(w, http.StatusOK, sess.Snapshot())
		return
	}

	generation, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid generation %q", raw))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), maxAwait)
	defer cancel()

	snap, err := sess.Await(ctx, generation)
	if err != nil {
		app.Logger.Debug("stopped waiting for generation", "session_id", sess.ID, "generation", generation, "error", err)
	}
	app.writeJSON(w, http.StatusOK, snap)
}

func (app *Application) searchMarkersHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := app.lookupSession(w, r)
	if !ok {
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		app.badRequestResponse(w, r, errors.New("missing query parameter q"))
		return
	}

	marker, found := session.SearchMarkers(sess.Snapshot().Markers, query)
	if !found {
		app.notFoundResponse(w, r)
		return
	}
	app.writeJSON(w, http.StatusOK, marker)
}

type positionRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (app *Application) initialPositionHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := app.lookupSession(w, r)
	if !ok {
		return
	}

	var input positionRequest
	if err := app.readJSON(w, r, &input); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	accepted := sess.Picker.SetInitialPosition(input.Lat, input.Lng)
	app.writeJSON(w, http.StatusOK, envelope{"accepted": accepted, "picker": sess.Picker.State()})
}

type pickRequest struct {
	Source string  `json:"source"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

func (app *Application) pickHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := app.lookupSession(w, r)
	if !ok {
		return
	}

	var input pickRequest
	if err := app.readJSON(w, r, &input); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	msg, err := sess.Picker.Pick(input.Source, input.Lat, input.Lng)
	switch {
	case err == nil:
		app.writeJSON(w, http.StatusOK, msg)
	case errors.Is(err, picker.ErrNotReady):
		app.errorResponse(w, r, http.StatusConflict, err.Error())
	default:
		app.unprocessableResponse(w, r, err)
	}
}

func (app *Application) pickerStateHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := app.lookupSession(w, r)
	if !ok {
		return
	}
	app.writeJSON(w, http.StatusOK, sess.Picker.State())
}

func (app *Application) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	if !app.Sessions.Delete(app.sessionID(r)) {
		app.notFoundResponse(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
