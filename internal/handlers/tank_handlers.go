package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"tankboard/internal/models"
	"tankboard/internal/repository"
	"tankboard/internal/services"
	"tankboard/pkg/logging"
	"tankboard/pkg/metrics"
)

// AdminTokenHeader carries the shared secret gating the admin surface
const AdminTokenHeader = "X-Admin-Token"

// maxWriteBody bounds admin write payloads (300 records is well under this)
const maxWriteBody = 1 << 20

// TankHandler handles the dashboard and admin API endpoints
type TankHandler struct {
	board      *services.BoardService
	admin      *services.AdminService
	repo       repository.TankRepository
	adminToken string
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// NewTankHandler creates a new tank handler
func NewTankHandler(
	board *services.BoardService,
	admin *services.AdminService,
	repo repository.TankRepository,
	adminToken string,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *TankHandler {
	return &TankHandler{
		board:      board,
		admin:      admin,
		repo:       repo,
		adminToken: adminToken,
		logger:     logger,
		metrics:    metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// TankListResponse is the public dashboard payload
type TankListResponse struct {
	OK         bool              `json:"ok"`
	Items      []models.TankView `json:"items"`
	ServerTime int64             `json:"server_time"`
}

// AdminRecordsResponse is the admin read payload
type AdminRecordsResponse struct {
	OK      bool                         `json:"ok"`
	Records map[string]models.TankRecord `json:"records"`
}

// SaveResponse is the admin write payload
type SaveResponse struct {
	OK    bool `json:"ok"`
	Saved int  `json:"saved"`
}

// GetTanks handles GET /api/tanks
func (h *TankHandler) GetTanks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/tanks").Observe(time.Since(startTime).Seconds())
	}()

	now := time.Now()
	views, err := h.board.ListTanks(ctx, now)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_TANKS_ERROR] Failed to assemble board", logging.Fields{}, err)
		h.metrics.RecordAPIError("storage_error", "/api/tanks")
		h.sendError(w, r, "failed to load tanks", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/tanks", "GET", "200")
	h.sendJSON(w, TankListResponse{
		OK:         true,
		Items:      views,
		ServerTime: now.UnixMilli(),
	}, http.StatusOK)
}

// GetAdminRecords handles GET /api/admin/tanks
func (h *TankHandler) GetAdminRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/admin/tanks").Observe(time.Since(startTime).Seconds())
	}()

	records, err := h.admin.ListRecords(ctx)
	if err != nil {
		h.logger.Error(ctx, "[API_ADMIN_LIST_ERROR] Failed to load records", logging.Fields{}, err)
		h.metrics.RecordAPIError("storage_error", "/api/admin/tanks")
		h.sendError(w, r, "failed to load records", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/admin/tanks", "GET", "200")
	h.sendJSON(w, AdminRecordsResponse{OK: true, Records: records}, http.StatusOK)
}

// PutAdminRecords handles PUT /api/admin/tanks
func (h *TankHandler) PutAdminRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/admin/tanks").Observe(time.Since(startTime).Seconds())
	}()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWriteBody))
	if err != nil {
		h.metrics.RecordAPIError("validation_error", "/api/admin/tanks")
		h.sendError(w, r, "failed to read request body", http.StatusBadRequest)
		return
	}

	records, err := h.admin.ReplaceRecords(ctx, body, time.Now())
	if err != nil {
		var vErr *models.ValidationError
		if errors.As(err, &vErr) {
			h.metrics.RecordAPIError("validation_error", "/api/admin/tanks")
			h.sendError(w, r, vErr.Message, http.StatusBadRequest)
			return
		}

		h.logger.Error(ctx, "[API_ADMIN_SAVE_ERROR] Failed to replace records", logging.Fields{}, err)
		h.metrics.RecordAPIError("storage_error", "/api/admin/tanks")
		h.sendError(w, r, "failed to save records", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/admin/tanks", "PUT", "200")
	h.sendJSON(w, SaveResponse{OK: true, Saved: len(records)}, http.StatusOK)
}

// AuthCheck handles GET /api/admin/auth: the admin middleware has
// already validated the secret, so reaching here means success
func (h *TankHandler) AuthCheck(w http.ResponseWriter, r *http.Request) {
	h.metrics.RecordAPIRequest("/api/admin/auth", "GET", "200")
	h.sendJSON(w, map[string]bool{"ok": true}, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *TankHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.repo.HealthCheck(ctx); err != nil {
		h.logger.Error(ctx, "[HEALTH_CHECK_ERROR] Store unreachable", logging.Fields{}, err)
		h.sendError(w, r, "store unreachable", http.StatusServiceUnavailable)
		return
	}

	h.sendJSON(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// requireAdmin gates a handler behind the shared-secret header
func (h *TankHandler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(AdminTokenHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
			h.metrics.RecordAPIError("auth_error", r.URL.Path)
			h.sendError(w, r, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// sendJSON sends a JSON response
func (h *TankHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *TankHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	h.sendJSON(w, ErrorResponse{OK: false, Error: message}, statusCode)
}

// RegisterRoutes registers all tank API routes
func (h *TankHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/tanks", h.GetTanks).Methods("GET")
	router.HandleFunc("/api/admin/tanks", h.requireAdmin(h.GetAdminRecords)).Methods("GET")
	router.HandleFunc("/api/admin/tanks", h.requireAdmin(h.PutAdminRecords)).Methods("PUT")
	router.HandleFunc("/api/admin/auth", h.requireAdmin(h.AuthCheck)).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
