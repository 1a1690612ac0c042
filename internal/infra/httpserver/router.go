package httpserver

import (
    "errors"
    "net/http"

    "github.com/go-chi/chi/v5"
    chimw "github.com/go-chi/chi/v5/middleware"
    "github.com/go-chi/cors"
    "github.com/rs/zerolog"

    appscreens "github.com/bryanwahyu/spamshot/internal/application/screenshots"
    domain "github.com/bryanwahyu/spamshot/internal/domain/screenshots"
    "github.com/bryanwahyu/spamshot/internal/middleware"
)

const defaultMaxUpload = 8 << 20

// Options wires the router's collaborators.
type Options struct {
    Screenshots    *appscreens.Service
    Verifier       middleware.TokenVerifier
    AdminKeys      []string
    Realtime       http.Handler // nil disables /ws
    HealthCheckers map[string]middleware.HealthChecker
    CORSOrigins    []string
    MaxUploadBytes int64
    RateCapacity   int
    RateRefill     int
    // DebugEnv is echoed under "env" in debug upload responses.
    DebugEnv map[string]any
    Log      zerolog.Logger
}

type Router struct {
    svc       *appscreens.Service
    maxUpload int64
    debugEnv  map[string]any
    log       zerolog.Logger
}

func NewRouter(opts Options) http.Handler {
    r := &Router{svc: opts.Screenshots, maxUpload: opts.MaxUploadBytes, debugEnv: opts.DebugEnv, log: opts.Log}
    if r.maxUpload <= 0 {
        r.maxUpload = defaultMaxUpload
    }
    rateCap, rateRefill := opts.RateCapacity, opts.RateRefill
    if rateCap <= 0 {
        rateCap, rateRefill = 30, 1
    }

    mux := chi.NewRouter()
    mux.Use(chimw.RequestID)
    mux.Use(chimw.RealIP)
    mux.Use(middleware.Logging(opts.Log))
    mux.Use(middleware.MetricsMiddleware)
    mux.Use(chimw.Recoverer)
    mux.Use(cors.Handler(cors.Options{
        AllowedOrigins:   origins(opts.CORSOrigins),
        AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
        AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-Id"},
        ExposedHeaders:   []string{"X-Request-Id"},
        AllowCredentials: false,
        MaxAge:           300,
    }))

    mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
    mux.Get("/ready", middleware.ReadinessHandler)
    mux.Get("/live", middleware.LivenessHandler)
    mux.Get("/metrics", middleware.MetricsHandler)

    mux.Group(func(rt chi.Router) {
        rt.Use(middleware.Authenticate(opts.Verifier, opts.AdminKeys))

        if opts.Realtime != nil {
            rt.Get("/ws", opts.Realtime.ServeHTTP)
        }

        rt.Route("/api/screenshot", func(rt chi.Router) {
            rt.Get("/", r.wrap(r.handleListActive))
            rt.Get("/by-email", r.wrap(r.handleListByEmail))
            rt.Get("/by-name", r.wrap(r.handleListByName))

            rt.With(middleware.RequireUser).Get("/mine", r.wrap(r.handleListByOwner))
            rt.With(middleware.RequireUser, middleware.RateLimitMiddleware(rateCap, rateRefill)).
                Post("/upload", r.wrap(r.handleUpload))

            rt.With(middleware.RequirePrincipal).Delete("/soft-delete/{id}", r.wrap(r.handleSoftDelete))
            rt.With(middleware.RequirePrincipal).Post("/restore/{id}", r.wrap(r.handleRestore))
            rt.With(middleware.RequirePrincipal).Delete("/permanent/{id}", r.wrap(r.handlePermanentDelete))
            rt.With(middleware.RequireAdmin).Get("/recently-deleted", r.wrap(r.handleRecentlyDeleted))

            rt.Get("/{id}", r.wrap(r.handleGet))
        })
    })

    return mux
}

func origins(list []string) []string {
    if len(list) == 0 {
        return []string{"*"}
    }
    return list
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// errBadRequest marks request-parsing problems that never reach the service.
type errBadRequest struct{ msg string }

func (e errBadRequest) Error() string { return e.msg }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
    return func(w http.ResponseWriter, req *http.Request) {
        err := h(w, req)
        if err == nil {
            return
        }
        status, msg := http.StatusInternalServerError, "internal server error"
        var bad errBadRequest
        var tooLarge *http.MaxBytesError
        switch {
        case errors.As(err, &tooLarge):
            status, msg = http.StatusRequestEntityTooLarge, "file too large"
        case errors.As(err, &bad):
            status, msg = http.StatusBadRequest, bad.msg
        case errors.Is(err, domain.ErrValidation):
            status, msg = http.StatusBadRequest, err.Error()
        case errors.Is(err, domain.ErrUnauthorized):
            status, msg = http.StatusUnauthorized, err.Error()
        case errors.Is(err, domain.ErrNotFound):
            status, msg = http.StatusNotFound, "screenshot not found"
        }
        if status >= 500 {
            r.log.Error().Err(err).
                Str("request_id", chimw.GetReqID(req.Context())).
                Str("path", req.URL.Path).
                Msg("request failed")
        }
        writeJSON(w, status, map[string]any{"success": false, "error": msg})
    }
}
