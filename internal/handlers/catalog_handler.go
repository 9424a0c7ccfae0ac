package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"playlearn/internal/service"
)

// CatalogHandler serves the static game and achievement catalogs
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *zap.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog *service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// ListGames returns every game
func (h *CatalogHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.catalog.Games(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"games": games})
}

// GetGame returns one game by slug
func (h *CatalogHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.catalog.GameBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, game)
}

// ListAchievements returns the achievement catalog
func (h *CatalogHandler) ListAchievements(w http.ResponseWriter, r *http.Request) {
	achievements, err := h.catalog.Achievements(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"achievements": achievements})
}
