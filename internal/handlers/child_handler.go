package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"playlearn/internal/service"
)

// ChildHandler serves child profile endpoints for parents
type ChildHandler struct {
	children *service.ChildService
	logger   *zap.Logger
}

// NewChildHandler creates a new child handler
func NewChildHandler(children *service.ChildService, logger *zap.Logger) *ChildHandler {
	return &ChildHandler{children: children, logger: logger}
}

// ListChildren returns the caller's children
func (h *ChildHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	children, err := h.children.ListChildren(actorFromRequest(r))
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"children": children})
}

// CreateChild adds a child profile
func (h *ChildHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	var req service.CreateChildRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, CodeInvalidRequest, ErrInvalidJSON, nil)
		return
	}

	child, err := h.children.CreateChild(actorFromRequest(r), req)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	h.logger.Info("Child created", zap.Int64("child_id", child.ID), zap.Int64("parent_id", child.ParentID))
	respondWithJSON(w, http.StatusCreated, child)
}

// GetChild returns one child with level progress
func (h *ChildHandler) GetChild(w http.ResponseWriter, r *http.Request) {
	childID, err := parseChildID(r)
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, CodeInvalidRequest, ErrInvalidID, nil)
		return
	}

	child, err := h.children.GetChild(actorFromRequest(r), childID)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, child)
}

// UpdateChild edits a child's profile
func (h *ChildHandler) UpdateChild(w http.ResponseWriter, r *http.Request) {
	childID, err := parseChildID(r)
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, CodeInvalidRequest, ErrInvalidID, nil)
		return
	}

	var req service.UpdateChildRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, CodeInvalidRequest, ErrInvalidJSON, nil)
		return
	}

	child, err := h.children.UpdateChild(actorFromRequest(r), childID, req)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, child)
}

// DeleteChild removes a child and its history
func (h *ChildHandler) DeleteChild(w http.ResponseWriter, r *http.Request) {
	childID, err := parseChildID(r)
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, CodeInvalidRequest, ErrInvalidID, nil)
		return
	}

	if err := h.children.DeleteChild(actorFromRequest(r), childID); err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	h.logger.Info("Child deleted", zap.Int64("child_id", childID))
	w.WriteHeader(http.StatusNoContent)
}

// Achievements lists the achievements a child has unlocked
func (h *ChildHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	childID, err := parseChildID(r)
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, CodeInvalidRequest, ErrInvalidID, nil)
		return
	}

	achievements, err := h.children.GetAchievements(r.Context(), actorFromRequest(r), childID)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"achievements": achievements})
}

// History returns a page of a child's settled rounds
func (h *ChildHandler) History(w http.ResponseWriter, r *http.Request) {
	childID, err := parseChildID(r)
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, CodeInvalidRequest, ErrInvalidID, nil)
		return
	}

	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)
	history, err := h.children.GetHistory(actorFromRequest(r), childID, limit, offset)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"progress": history,
		"limit":    limit,
		"offset":   offset,
	})
}
