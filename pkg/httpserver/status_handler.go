package httpserver

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mselser95/crossmkt-arb/pkg/types"
)

// StatusProvider is the read-only view the Supervisor exposes onto its
// live state, for the dashboard and operator tooling.
type StatusProvider interface {
	Opportunities() []types.Opportunity
	Positions() []types.PositionInFlight
	VenueHealth() []types.VenueHealth
}

// StatusHandler serves the Supervisor's current state as JSON.
type StatusHandler struct {
	provider StatusProvider
	logger   *zap.Logger
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(provider StatusProvider, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{provider: provider, logger: logger}
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleOpportunities handles GET /api/opportunities.
func (h *StatusHandler) HandleOpportunities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, h.provider.Opportunities())
}

// HandlePositions handles GET /api/positions.
func (h *StatusHandler) HandlePositions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, h.provider.Positions())
}

// HandleVenueHealth handles GET /api/venues.
func (h *StatusHandler) HandleVenueHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, h.provider.VenueHealth())
}

func (h *StatusHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

func (h *StatusHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); err != nil {
		h.logger.Error("failed-to-encode-error-response", zap.Error(err))
	}
}
