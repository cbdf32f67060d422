// Package api provides the HTTP API for assetsync: brand administration,
// asset sync notifications, inbound brand events and the DLQ.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/xraph/assetsync"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 4 << 20

// Handler is the root HTTP handler.
type Handler struct {
	syncer *assetsync.Syncer
	logger *slog.Logger
	mux    *http.ServeMux
}

// NewHandler creates a new API handler.
func NewHandler(s *assetsync.Syncer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handler{
		syncer: s,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

func (h *Handler) registerRoutes() {
	// Brands
	h.mux.HandleFunc("POST /brands", h.registerBrand)
	h.mux.HandleFunc("GET /brands", h.listBrands)
	h.mux.HandleFunc("GET /brands/{id}", h.getBrand)
	h.mux.HandleFunc("PUT /brands/{id}", h.updateBrand)
	h.mux.HandleFunc("DELETE /brands/{id}", h.deleteBrand)
	h.mux.HandleFunc("PATCH /brands/{id}/enable", h.enableBrand)
	h.mux.HandleFunc("PATCH /brands/{id}/disable", h.disableBrand)
	h.mux.HandleFunc("POST /brands/{id}/rotate-secret", h.rotateSecret)

	// Routing rules
	h.mux.HandleFunc("GET /brands/{id}/rules/{code}", h.listRules)
	h.mux.HandleFunc("POST /brands/{id}/rules/{code}", h.addRule)
	h.mux.HandleFunc("POST /brands/{id}/rules/{code}/evaluate", h.evaluateRules)
	h.mux.HandleFunc("PUT /brands/{id}/rules/{code}/{ruleId}", h.updateRule)
	h.mux.HandleFunc("DELETE /brands/{id}/rules/{code}/{ruleId}", h.deleteRule)

	// Events
	h.mux.HandleFunc("POST /events/asset-sync", h.syncAsset)
	h.mux.HandleFunc("POST /events/brand", h.brandEvent)

	// Event types
	h.mux.HandleFunc("GET /event-types", h.listEventTypes)
	h.mux.HandleFunc("POST /event-types", h.registerEventType)

	// DLQ
	h.mux.HandleFunc("GET /dlq", h.listDLQ)
	h.mux.HandleFunc("POST /dlq/{id}/replay", h.replayDLQ)
	h.mux.HandleFunc("DELETE /dlq", h.purgeDLQ)

	// Stats
	h.mux.HandleFunc("GET /stats", h.getStats)
	h.mux.HandleFunc("GET /healthz", h.healthz)
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.withMiddleware(h.mux).ServeHTTP(w, r)
}

func (h *Handler) withMiddleware(next http.Handler) http.Handler {
	return h.panicRecovery(h.logging(next))
}

func (h *Handler) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		h.logger.InfoContext(r.Context(), "api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (h *Handler) panicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.ErrorContext(r.Context(), "panic recovered",
					"error", rec,
					"stack", string(debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// JSON helpers.

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best effort
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// queryParam returns a query parameter value, or empty string if not present.
func queryParam(r *http.Request, key string) string {
	return r.URL.Query().Get(key)
}

// queryInt returns a query parameter as int or a default value.
func queryInt(r *http.Request, key string, defaultVal int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
