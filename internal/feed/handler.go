package feed

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// DashboardPath is the route serving the snapshot JSON.
const DashboardPath = "/api/dashboard"

const contentTypeJSON = "application/json; charset=utf-8"

type handler struct {
	store  *Store
	logger *slog.Logger
}

// NewRouter returns the feed's HTTP routes:
//
//	GET /api/dashboard  current snapshot
//	GET /healthz        liveness
//	GET /               redirect to the snapshot
func NewRouter(store *Store, logger *slog.Logger) *mux.Router {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{store: store, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc(DashboardPath, h.dashboard).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.Handle("/", http.RedirectHandler(DashboardPath, http.StatusFound)).Methods(http.MethodGet)
	r.Use(h.logRequests)
	return r
}

// statusRecorder captures the response status for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// logRequests logs every routed request at debug level.
func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		)
	})
}

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	body, err := h.store.SnapshotJSON()
	if err != nil {
		h.logger.Error("encode snapshot", "error", err)
		http.Error(w, "snapshot unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Debug("write snapshot", "error", err, "remote", r.RemoteAddr)
	}
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}
