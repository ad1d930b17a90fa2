package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/susu3304/globeguess/internal/config"
	"github.com/susu3304/globeguess/internal/game"
	"github.com/susu3304/globeguess/internal/location"
	"github.com/susu3304/globeguess/internal/metrics"
)

// Check tests one backend for the readiness endpoint.
type Check func(ctx context.Context) error

type API struct {
	router    *mux.Router
	config    *config.Config
	catalog   *location.Catalog
	games     *game.Service
	checks    map[string]Check
	startedAt time.Time
	server    *http.Server
}

func New(cfg *config.Config, catalog *location.Catalog, games *game.Service) *API {
	api := &API{
		router:    mux.NewRouter(),
		config:    cfg,
		catalog:   catalog,
		games:     games,
		checks:    make(map[string]Check),
		startedAt: time.Now(),
	}

	api.setupRoutes()
	api.server = &http.Server{
		Addr:              cfg.WebBind,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return api
}

// AddCheck registers a backend check reported by /readyz. Call it before Start.
func (a *API) AddCheck(name string, check Check) {
	a.checks[name] = check
}

func (a *API) setupRoutes() {
	a.router.Use(metrics.Middleware, accessLog)

	a.router.HandleFunc("/healthz", a.handleHealth).Methods("GET")
	a.router.HandleFunc("/readyz", a.handleReady).Methods("GET")
	a.router.Handle("/metrics", metrics.Handler()).Methods("GET")

	api := a.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/regions", a.handleListRegions).Methods("GET")
	api.HandleFunc("/regions/{region}/locations", a.handleListLocations).Methods("GET")
	api.HandleFunc("/score", a.handleScore).Methods("POST")
	api.HandleFunc("/games", a.handleNewGame).Methods("POST")
	api.HandleFunc("/games/guess", a.handleGuess).Methods("POST")

	a.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no such endpoint")
	})
}

// Handler returns the router wrapped in CORS handling.
func (a *API) Handler() http.Handler {
	origins := a.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	// AllowCredentials stays false: the round token travels in the body
	corsOptions := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	}
	return cors.New(corsOptions).Handler(a.router)
}

// Start serves until Shutdown is called. It returns http.ErrServerClosed
// after a clean shutdown.
func (a *API) Start() error {
	slog.Info("API server listening", "addr", "http://"+a.config.WebBind)
	return a.server.ListenAndServe()
}

func (a *API) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}
