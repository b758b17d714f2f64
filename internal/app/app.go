package app

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/raedapplebanon-spec/route-map/internal/cluster"
	"github.com/raedapplebanon-spec/route-map/internal/config"
	"github.com/raedapplebanon-spec/route-map/internal/directions"
	"github.com/raedapplebanon-spec/route-map/internal/planner"
	"github.com/raedapplebanon-spec/route-map/internal/session"
)

// Application wires configuration, the routing provider and the session
// store behind the HTTP API.
type Application struct {
	ConfigService  *config.ConfigService
	Sessions       *session.Store
	Logger         *slog.Logger
	Version        string
	AllowedOrigins []string

	mu              sync.Mutex
	directions      directions.Service
	directionsFor   directions.Settings
	directionsBuilt bool
}

// New creates and wires all dependencies for the Application. The session
// idle TTL is read once; clustering, planning and provider settings are read
// again for every session so refreshed configuration applies to new sessions.
func New(cfg *config.Config, logger *slog.Logger, client *http.Client, version string) *Application {
	app := &Application{
		ConfigService: config.NewConfigService(logger, client, cfg),
		Logger:        logger,
		Version:       version,
	}
	app.Sessions = session.NewStore(cfg.GetSettings().SessionIdleTTL(), app.newCollaborators, logger)
	return app
}

func (app *Application) settings() config.Settings {
	return app.ConfigService.Config.GetSettings()
}

// newCollaborators builds the clusterer and planner of a new session.
func (app *Application) newCollaborators() (*cluster.Clusterer, *planner.Planner) {
	settings := app.settings()
	svc, err := app.directionsService(settings.DirectionsSettings())
	if err != nil {
		// settings are validated on load, so this only happens with a
		// hand-built Config; planning then fails with a routing error
		app.Logger.Error("failed to build directions service", "error", err)
	}
	return app.newClusterer(settings.ClusterOptions()), planner.NewPlanner(svc, settings.PlannerOptions(), app.Logger)
}

func (app *Application) newClusterer(opts cluster.Options) *cluster.Clusterer {
	return cluster.NewClusterer(opts, app.Logger)
}

// directionsService returns the shared provider client, rebuilding it only
// when the directions settings change so its response cache survives.
func (app *Application) directionsService(settings directions.Settings) (directions.Service, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.directionsBuilt && app.directionsFor == settings {
		return app.directions, nil
	}

	svc, err := directions.NewService(settings, app.ConfigService.Client, app.Logger)
	if err != nil {
		return unavailableDirections{name: settings.Provider, err: err}, err
	}
	app.directions = svc
	app.directionsFor = settings
	app.directionsBuilt = true
	app.Logger.Info("directions provider configured", "provider", svc.Name())
	return svc, nil
}

// unavailableDirections stands in for a provider that could not be built.
type unavailableDirections struct {
	name string
	err  error
}

func (u unavailableDirections) Name() string { return u.name }

func (u unavailableDirections) Route(ctx context.Context, req *directions.Request) (*directions.Response, error) {
	return nil, &directions.RoutingError{Provider: u.name, Status: "UNAVAILABLE", Err: u.err}
}
