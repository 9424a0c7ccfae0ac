package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"playlearn/internal/service"
)

// maxBackupBytes bounds an uploaded backup
const maxBackupBytes = 50 << 20

// AdminHandler handles admin-only operations
type AdminHandler struct {
	reconcile *service.ReconcileService
	backup    *service.BackupService
	logger    *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(reconcile *service.ReconcileService, backup *service.BackupService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{reconcile: reconcile, backup: backup, logger: logger}
}

// Reconcile runs a reconciliation pass on demand
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconcile.Run(r.Context())
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, CodeInternal, "Failed to reconcile", err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// ExportDatabase streams a JSON backup for download
func (h *AdminHandler) ExportDatabase(w http.ResponseWriter, r *http.Request) {
	timestamp := time.Now().UTC().Format("20060102_150405")
	filename := fmt.Sprintf("playlearn_backup_%s.json", timestamp)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if err := h.backup.ExportToWriter(w); err != nil {
		// Headers may already be sent; the log is all that is left.
		h.logger.Error("Failed to export database", zap.Error(err))
		return
	}

	h.logger.Info("Database exported by admin", zap.Int64("user_id", actorFromRequest(r).UserID))
}

// ImportDatabase restores a JSON backup sent as the request body
func (h *AdminHandler) ImportDatabase(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBackupBytes)
	if err := h.backup.ImportFromReader(r.Body); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, CodeInvalidRequest, "Failed to import backup: "+err.Error(), nil)
		return
	}

	h.logger.Info("Database imported by admin", zap.Int64("user_id", actorFromRequest(r).UserID))
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}
