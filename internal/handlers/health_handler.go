package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Startup steps reported by the health endpoint
const (
	StepDatabase   = "Database connection"
	StepMigrations = "Running migrations"
	StepCatalog    = "Seeding catalog"
	StepScheduler  = "Starting scheduler"
)

// StartupStep is one initialization step
type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// StartupStatus tracks the initialization progress
type StartupStatus struct {
	mu       sync.RWMutex
	ready    bool
	progress int
	steps    []StartupStep
}

// NewStartupStatus creates a tracker for the named steps
func NewStartupStatus(steps ...string) *StartupStatus {
	s := &StartupStatus{}
	for _, name := range steps {
		s.steps = append(s.steps, StartupStep{Name: name})
	}
	return s
}

// CompleteStep marks a step as completed and updates progress
func (s *StartupStatus) CompleteStep(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	completed := 0
	for i := range s.steps {
		if s.steps[i].Name == name {
			s.steps[i].Completed = true
		}
		if s.steps[i].Completed {
			completed++
		}
	}
	if len(s.steps) > 0 {
		s.progress = completed * 100 / len(s.steps)
	}
}

// MarkReady marks the server as fully initialized
func (s *StartupStatus) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	s.progress = 100
}

// IsReady returns whether the server is fully initialized
func (s *StartupStatus) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

type healthResponse struct {
	Status   string        `json:"status"`
	Progress int           `json:"progress"`
	Steps    []StartupStep `json:"steps,omitempty"`
	Database string        `json:"database,omitempty"`
}

func (s *StartupStatus) snapshot() healthResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	steps := make([]StartupStep, len(s.steps))
	copy(steps, s.steps)
	return healthResponse{Progress: s.progress, Steps: steps}
}

// Pinger reports whether a backing store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves liveness and readiness
type HealthHandler struct {
	status *StartupStatus
	db     Pinger
	logger *zap.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(status *StartupStatus, db Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{status: status, db: db, logger: logger}
}

// Health returns 200 once startup finished and the database answers
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := h.status.snapshot()
	if !h.status.IsReady() {
		resp.Status = "starting"
		respondWithJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn("Health check database ping failed", zap.Error(err))
		resp.Status = "degraded"
		resp.Database = "unreachable"
		respondWithJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	resp.Status = "ok"
	resp.Database = "ok"
	respondWithJSON(w, http.StatusOK, resp)
}
