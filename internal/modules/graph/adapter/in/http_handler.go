package in

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	hclog "github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"

	graphin "flavorlab/internal/modules/graph/port/in"
	apperrors "flavorlab/internal/platform/errors"
)

type HTTPOptions struct {
	StaticDir      string
	AllowedOrigins []string
	SearchRPS      float64
	SearchBurst    int
}

// HTTPHandler serves the read-only ingredient API, the artifact for the web
// client, and the static client itself.
type HTTPHandler struct {
	usecase graphin.Usecase
	opts    HTTPOptions
	metrics *Metrics
	limiter *rate.Limiter
	logger  hclog.Logger
}

func NewHTTPHandler(usecase graphin.Usecase, opts HTTPOptions, metrics *Metrics, logger hclog.Logger) *HTTPHandler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if metrics == nil {
		metrics = NewMetrics("flavorlab", usecase)
	}
	limit := rate.Inf
	if opts.SearchRPS > 0 {
		limit = rate.Limit(opts.SearchRPS)
	}
	burst := opts.SearchBurst
	if burst < 1 {
		burst = 1
	}
	return &HTTPHandler{
		usecase: usecase,
		opts:    opts,
		metrics: metrics,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

func (h *HTTPHandler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(h.requestLogger)
	router.Use(h.metrics.Middleware)

	origins := h.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	router.Get("/health", h.health)
	router.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	router.Get("/network_data.json", h.artifact)

	router.Route("/api/v1", func(r chi.Router) {
		r.With(h.rateLimit).Get("/search", h.search)
		r.Get("/ingredients/{id}", h.ingredient)
		r.Get("/ingredients/{id}/pairings", h.pairings)
	})

	if h.opts.StaticDir != "" {
		router.Handle("/*", http.FileServer(http.Dir(h.opts.StaticDir)))
	}
	return router
}

func (h *HTTPHandler) health(w http.ResponseWriter, r *http.Request) {
	st, err := h.usecase.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "loading", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"ingredients": st.Ingredients,
		"k":           st.K,
		"loaded_at":   st.LoadedAt,
	})
}

func (h *HTTPHandler) artifact(w http.ResponseWriter, r *http.Request) {
	raw, err := h.usecase.ArtifactJSON(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(raw)
}

func (h *HTTPHandler) search(w http.ResponseWriter, r *http.Request) {
	results, err := h.usecase.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.metrics.searchResults.Observe(float64(len(results)))
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *HTTPHandler) ingredient(w http.ResponseWriter, r *http.Request) {
	out, err := h.usecase.Ingredient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) pairings(w http.ResponseWriter, r *http.Request) {
	out, err := h.usecase.Pairings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Allow() {
			h.metrics.rateLimited.Inc()
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *HTTPHandler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()))
	})
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidInput):
		status = http.StatusBadRequest
	default:
		h.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
