package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"playlearn/internal/service"
)

// ProgressHandler serves play status, round submission and completed levels
type ProgressHandler struct {
	settlement *service.SettlementService
	logger     *zap.Logger
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(settlement *service.SettlementService, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{settlement: settlement, logger: logger}
}

// PlayStatus reports whether a child may start a game
func (h *ProgressHandler) PlayStatus(w http.ResponseWriter, r *http.Request) {
	childID, err := parseChildID(r)
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, CodeInvalidRequest, ErrInvalidID, nil)
		return
	}

	status, err := h.settlement.PlayStatus(r.Context(), actorFromRequest(r), childID, r.URL.Query().Get("gameSlug"))
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

// SubmitProgress settles a finished game round
func (h *ProgressHandler) SubmitProgress(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, CodeInvalidRequest, ErrInvalidJSON, nil)
		return
	}

	result, err := h.settlement.SubmitProgress(r.Context(), actorFromRequest(r), req)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, result)
}

// CompletedLevels lists a child's completed levels, optionally for one game
func (h *ProgressHandler) CompletedLevels(w http.ResponseWriter, r *http.Request) {
	childID, err := parseChildID(r)
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, CodeInvalidRequest, ErrInvalidID, nil)
		return
	}

	levels, err := h.settlement.CompletedLevels(r.Context(), actorFromRequest(r), childID, r.URL.Query().Get("gameSlug"))
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, levels)
}
