package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"playlearn/internal/progression"
	"playlearn/internal/repository"
	"playlearn/internal/service"
	"playlearn/internal/validation"
)

// errorResponse is the body of every failed API call
type errorResponse struct {
	Error  string                  `json:"error"`
	Code   string                  `json:"code,omitempty"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, logger *zap.Logger, status int, code, userMsg string, err error) {
	if err != nil && status >= http.StatusInternalServerError {
		logger.Error(userMsg, zap.String("code", code), zap.Error(err))
	}
	respondWithJSON(w, status, errorResponse{Error: userMsg, Code: code})
}

// respondWithServiceError maps a service error onto its HTTP status
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var denied *progression.DeniedError
	var invalid *validation.Error

	switch {
	case errors.As(err, &invalid):
		respondWithJSON(w, http.StatusBadRequest, errorResponse{
			Error:  ErrValidationFailed,
			Code:   CodeValidationFailed,
			Fields: invalid.Fields,
		})
	case errors.As(err, &denied):
		respondWithError(w, logger, http.StatusForbidden, denied.Code, denied.Message, nil)
	case errors.Is(err, service.ErrForbidden):
		respondWithError(w, logger, http.StatusForbidden, CodeForbidden, err.Error(), nil)
	case errors.Is(err, service.ErrChildNotFound), errors.Is(err, service.ErrGameNotFound),
		errors.Is(err, service.ErrParentNotFound):
		respondWithError(w, logger, http.StatusNotFound, CodeNotFound, err.Error(), nil)
	case errors.Is(err, repository.ErrVersionConflict):
		respondWithError(w, logger, http.StatusConflict, CodeConflict, ErrConcurrentUpdate, err)
	default:
		respondWithError(w, logger, http.StatusInternalServerError, CodeInternal, ErrInternalServerError, err)
	}
}
