package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"viewing-wrapped/internal/dashboard"
	"viewing-wrapped/pkg/logging"
	"viewing-wrapped/pkg/metrics"
)

// HealthChecker reports whether the event store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// DashboardHandler serves the rendered dashboard
type DashboardHandler struct {
	doc     *dashboard.Document
	store   HealthChecker
	year    int
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	doc *dashboard.Document,
	store HealthChecker,
	year int,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *DashboardHandler {
	return &DashboardHandler{
		doc:     doc,
		store:   store,
		year:    year,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
	Year          int    `json:"year"`
	DocumentBytes int    `json:"document_bytes"`
	Error         string `json:"error,omitempty"`
}

// Dashboard handles GET /
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug(r.Context(), "[DASHBOARD_SERVE] Dashboard requested", logging.Fields{
		"bytes": h.doc.Len(),
	})
	h.doc.ServeHTTP(w, r)
}

// HealthCheck handles GET /health
func (h *DashboardHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := HealthResponse{
		Status:        "healthy",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Year:          h.year,
		DocumentBytes: h.doc.Len(),
	}

	if err := h.store.HealthCheck(ctx); err != nil {
		h.logger.Error(ctx, "[HEALTH_CHECK_FAILED] Event store unavailable", logging.Fields{}, err)
		status.Status = "unhealthy"
		status.Error = err.Error()
		h.sendJSON(w, status, http.StatusServiceUnavailable)
		return
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// NotFound handles unknown paths
func (h *DashboardHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.sendError(w, r, "no route for "+r.URL.Path, http.StatusNotFound)
}

// sendJSON sends a JSON response
func (h *DashboardHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *DashboardHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.logger.Warn(r.Context(), "[HTTP_ERROR] Request rejected", logging.Fields{
		"path":   r.URL.Path,
		"method": r.Method,
		"status": statusCode,
	})

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers the dashboard routes
func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Dashboard).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.NotFoundHandler = http.HandlerFunc(h.NotFound)
}
