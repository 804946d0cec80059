package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medibook/share-engine/internal/schedule"
	"github.com/medibook/share-engine/internal/status"
	"github.com/medibook/share-engine/pkg/logger"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// NextDueRequest is the input for a schedule computation.
type NextDueRequest struct {
	Quantity    int       `json:"quantity"`
	Frequency   string    `json:"frequency"`
	DispensedAt time.Time `json:"dispensedAt"`
}

// NextDueResponse is the computed next-dose-due result.
type NextDueResponse struct {
	NextDue  time.Time `json:"nextDue"`
	Estimate bool      `json:"estimate,omitempty"`
	Fallback bool      `json:"fallback,omitempty"`
}

// Routes defines the routes for the status API with dependency injection
type Routes struct {
	recorder status.Recorder
}

// NewRoutes creates a new Routes instance with the provided status recorder
func NewRoutes(recorder status.Recorder) *Routes {
	return &Routes{
		recorder: recorder,
	}
}

// Router creates a new router for the status API
func Router(recorder status.Recorder) http.Handler {
	routes := NewRoutes(recorder)

	r := chi.NewRouter()

	r.Get("/status/{rootID}", routes.getPublishStatus)
	r.Post("/schedule/next-due", routes.computeNextDue)

	return r
}

// getPublishStatus handles GET /v1/status/{rootID}
func (rr *Routes) getPublishStatus(w http.ResponseWriter, r *http.Request) {
	rootID := chi.URLParam(r, "rootID")
	if rootID == "" {
		rr.writeErrorResponse(w, "root record ID is required", http.StatusBadRequest)
		return
	}

	st, err := rr.recorder.GetPublishStatus(r.Context(), rootID)
	if err != nil {
		logger.Errorf("Failed to get publish status for %s: %v", rootID, err)
		rr.writeErrorResponse(w, "Failed to get publish status", http.StatusInternalServerError)
		return
	}
	if st == nil {
		rr.writeErrorResponse(w, "No publish status recorded for "+rootID, http.StatusNotFound)
		return
	}

	rr.writeJSONResponse(w, st)
}

// computeNextDue handles POST /v1/schedule/next-due
func (rr *Routes) computeNextDue(w http.ResponseWriter, r *http.Request) {
	var req NextDueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rr.writeErrorResponse(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.DispensedAt.IsZero() {
		rr.writeErrorResponse(w, "dispensedAt is required", http.StatusBadRequest)
		return
	}
	if req.Quantity < 0 {
		rr.writeErrorResponse(w, "quantity must not be negative", http.StatusBadRequest)
		return
	}

	result := schedule.NextDue(schedule.DispenseEvent{
		Quantity:    req.Quantity,
		Policy:      schedule.FrequencyPolicy(req.Frequency),
		DispensedAt: req.DispensedAt,
	})

	rr.writeJSONResponse(w, NextDueResponse{
		NextDue:  result.NextDue,
		Estimate: result.Estimate,
		Fallback: result.Fallback,
	})
}

// HealthRouter creates a router for health check endpoints
func HealthRouter() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", healthHandler)

	return r
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// writeJSONResponse writes a JSON response with the given data
func (*Routes) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf("Failed to encode JSON response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func (*Routes) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	errorResp := ErrorResponse{
		Error: message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		logger.Errorf("Failed to encode error response: %v", err)
	}
}
