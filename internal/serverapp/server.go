package serverapp

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Eoha39/clicker-webapp/internal/catalog"
	"github.com/Eoha39/clicker-webapp/internal/config"
	"github.com/Eoha39/clicker-webapp/internal/httpmw"
	"github.com/Eoha39/clicker-webapp/internal/live"
	"github.com/Eoha39/clicker-webapp/internal/save"
	"github.com/Eoha39/clicker-webapp/internal/session"
	"github.com/Eoha39/clicker-webapp/internal/telemetry"
	staticfiles "github.com/Eoha39/clicker-webapp/static"
)

type Options struct {
	Config        *config.Config
	DataDir       string
	StaticDir     string
	UseDiskStatic bool
	Logger        *log.Logger

	// Store and Clock override what Config selects; tests use them.
	Store save.Store
	Clock session.Clock
}

// App is the wired game server. Run drives the tick loop; Handler serves
// HTTP.
type App struct {
	Handler  http.Handler
	Sessions *session.Manager
	Routes   *RouteRegistry

	store     save.Store
	telemetry *telemetry.MemoryRepository
	logger    *log.Logger
	closeFn   func() error
}

func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if strings.TrimSpace(opts.DataDir) == "" {
		opts.DataDir = opts.Config.Storage.DataDir
	}
	if strings.TrimSpace(opts.StaticDir) == "" {
		opts.StaticDir = opts.Config.Server.StaticDir
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	cat, err := catalog.DefaultWithExtension(opts.Config.Game.CatalogExtension)
	if err != nil {
		return nil, err
	}

	store, closeFn := opts.Store, func() error { return nil }
	if store == nil {
		store, closeFn, err = save.Open(opts.Config.Storage.Backend, opts.DataDir)
		if err != nil {
			return nil, err
		}
	}

	tel := telemetry.NewMemoryRepository(opts.Config.Telemetry.MaxEvents)
	mgr := session.NewManager(session.Options{
		Catalog:          cat,
		Store:            store,
		Telemetry:        tel,
		Logger:           opts.Logger,
		Clock:            opts.Clock,
		TickInterval:     opts.Config.Game.TickInterval(),
		AutosaveInterval: opts.Config.Game.AutosaveInterval(),
		IdleTTL:          opts.Config.Game.SessionIdleTTL(),
	})

	app := &App{
		Sessions:  mgr,
		Routes:    &RouteRegistry{},
		store:     store,
		telemetry: tel,
		logger:    opts.Logger,
		closeFn:   closeFn,
	}

	clickLimiter := httpmw.NewRateLimiter(opts.Config.Game.ClicksPerSecond, opts.Config.Game.ClickBurst)
	api := &gameAPI{
		sessions:  mgr,
		telemetry: tel,
		logger:    opts.Logger,
	}

	mux := http.NewServeMux()
	rr := app.Routes

	staticHandler := http.FileServer(http.FS(staticfiles.EmbeddedFS()))
	if opts.UseDiskStatic {
		staticHandler = http.FileServer(http.Dir(opts.StaticDir))
	}
	mux.Handle("/static/", http.StripPrefix("/static/", staticHandler))

	Handle(mux, rr, "GET /healthz", "liveness probe", "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "clicker",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	}))
	Handle(mux, rr, "GET /readyz", "readiness probe; checks the save store", "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := store.Load(r.Context(), "readyz"); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "save storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":       true,
			"service":  "clicker",
			"sessions": len(mgr.PlayerIDs()),
			"time":     time.Now().UTC().Format(time.RFC3339),
		})
	}))

	withPlayer := func(h http.HandlerFunc) http.Handler { return withPlayerID(h) }
	limitedClick := httpmw.WithRateLimit(clickLimiter, PlayerIDFromRequest)(http.HandlerFunc(api.Click))

	Handle(mux, rr, "GET /api/game/state", "current game view", "", withPlayer(api.State))
	Handle(mux, rr, "POST /api/game/click", "register one click", "", withPlayerID(limitedClick))
	Handle(mux, rr, "POST /api/game/buy", "buy one level of an upgrade", `{"upgrade":"autoClicker"}`, withPlayer(api.Buy))
	Handle(mux, rr, "POST /api/game/reset", "discard all progress", "", withPlayer(api.Reset))
	Handle(mux, rr, "GET /api/game/export", "download the save snapshot", "", withPlayer(api.Export))
	Handle(mux, rr, "POST /api/game/import", "replace the game with a snapshot", `{"version":1,"currency":100}`, withPlayer(api.Import))
	Handle(mux, rr, "GET /api/catalog", "upgrade and achievement definitions", "", http.HandlerFunc(api.Catalog))
	Handle(mux, rr, "GET /api/telemetry/stats", "aggregated gameplay stats; ?since=24h or RFC3339", "", http.HandlerFunc(api.TelemetryStats))
	Handle(mux, rr, "GET /api/routes", "this list", "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, rr.List())
	}))

	liveHandler := live.NewHandler(api.sessionFor, live.HandlerConfig{
		Logger:     opts.Logger,
		AllowClick: clickLimiter.Allow,
	})
	Handle(mux, rr, "GET /api/game/live", "websocket stream of the game view", `{"type":"buy","upgrade":"autoClicker"}`, withPlayerID(liveHandler))

	Handle(mux, rr, "GET /{$}", "game page", "", withPlayer(api.Page))

	app.Handler = httpmw.Chain(
		mux,
		httpmw.WithRequestID,
		httpmw.WithAccessLog(opts.Logger),
		httpmw.WithRecover(opts.Logger),
	)
	return app, nil
}

// Run ticks every session until ctx is canceled and flushes saves.
func (a *App) Run(ctx context.Context) error {
	return a.Sessions.Run(ctx)
}

// Close releases the save store.
func (a *App) Close() error {
	return a.closeFn()
}
