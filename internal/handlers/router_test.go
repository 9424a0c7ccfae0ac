package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"playlearn/internal/cache"
	"playlearn/internal/database"
	"playlearn/internal/models"
	"playlearn/internal/progression"
	"playlearn/internal/repository"
	"playlearn/internal/security"
	"playlearn/internal/service"
)

const testSecret = "test-secret"

type testServer struct {
	handler  http.Handler
	db       *database.DB
	verifier *security.TokenVerifier
	status   *StartupStatus
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations("../../migrations"))

	logger := zap.NewNop()
	childRepo := repository.NewChildRepository(db)
	userRepo := repository.NewUserRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	achievementRepo := repository.NewAchievementRepository(db)

	catalog := service.NewCatalogService(repository.NewGameRepository(db), achievementRepo, cache.NewMemoryCache(), time.Minute, logger)
	require.NoError(t, catalog.Seed(context.Background()))

	verifier := security.NewTokenVerifier(testSecret)
	status := NewStartupStatus(StepDatabase, StepCatalog)
	router := &Router{
		Middleware: NewMiddleware(verifier, security.NewRateLimiter(rateLimit, time.Minute), logger),
		Progress:   NewProgressHandler(service.NewSettlementService(db, catalog, logger), logger),
		Children:   NewChildHandler(service.NewChildService(childRepo, userRepo, progressRepo, achievementRepo, catalog), logger),
		Catalog:    NewCatalogHandler(catalog, logger),
		Admin: NewAdminHandler(
			service.NewReconcileService(childRepo, progressRepo, logger),
			service.NewBackupService(db, logger),
			logger,
		),
		Health: NewHealthHandler(status, db, logger),
		Logger: logger,
	}

	return &testServer{handler: router.Handler(), db: db, verifier: verifier, status: status}
}

func (s *testServer) createParent(t *testing.T, email, role string) (*models.User, string) {
	t.Helper()

	user := &models.User{Email: email, Name: "Parent", Role: role}
	require.NoError(t, repository.NewUserRepository(s.db).CreateUser(user))

	token, err := s.verifier.Issue(user.ID, user.Role, time.Hour)
	require.NoError(t, err)
	return user, token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t, 30)

	rec := srv.do(t, http.MethodGet, "/api/games", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/games", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body errorResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, CodeUnauthorized, body.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestProgressFlow(t *testing.T) {
	srv := newTestServer(t, 30)
	_, token := srv.createParent(t, "flow@example.com", models.RoleParent)

	rec := srv.do(t, http.MethodPost, "/api/children", token, map[string]interface{}{"name": "Noa", "age": 5})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var child models.Child
	decodeBody(t, rec, &child)

	rec = srv.do(t, http.MethodGet, fmt.Sprintf("/api/children/%d/play-status?gameSlug=letter-match", child.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var status struct {
		CanPlay          bool                    `json:"canPlay"`
		MinutesLeftToday float64                 `json:"minutesLeftToday"`
		Reason           string                  `json:"reason"`
		IsPremium        bool                    `json:"isPremium"`
		CompletedLevels  []models.CompletedLevel `json:"completedLevels"`
		Game             models.Game             `json:"game"`
	}
	decodeBody(t, rec, &status)
	assert.True(t, status.CanPlay)
	assert.Equal(t, 15.0, status.MinutesLeftToday)
	assert.Equal(t, "letter-match", status.Game.Slug)
	assert.NotNil(t, status.CompletedLevels)

	rec = srv.do(t, http.MethodPost, "/api/progress", token, map[string]interface{}{
		"childId": child.ID, "gameSlug": "letter-match", "score": 8, "accuracy": 80, "timeSpentSeconds": 120, "gameLevel": 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var result struct {
		Progress models.Progress `json:"progress"`
		Child    models.Child    `json:"child"`
		Rewards  struct {
			XP                int                  `json:"xp"`
			Coins             int                  `json:"coins"`
			LevelUp           bool                 `json:"levelUp"`
			PreviousLevel     int                  `json:"previousLevel"`
			NewLevel          int                  `json:"newLevel"`
			NewAchievements   []models.Achievement `json:"newAchievements"`
			IsReplay          bool                 `json:"isReplay"`
			DailyBonusApplied bool                 `json:"dailyBonusApplied"`
		} `json:"rewards"`
	}
	decodeBody(t, rec, &result)
	assert.Equal(t, 10, result.Rewards.XP)
	assert.Equal(t, 6, result.Rewards.Coins)
	assert.True(t, result.Rewards.DailyBonusApplied)
	assert.Equal(t, 1, result.Rewards.NewLevel)
	assert.Equal(t, 10, result.Child.XP)
	require.NotEmpty(t, result.Rewards.NewAchievements)
	assert.Equal(t, "first_game", result.Rewards.NewAchievements[0].Slug)

	rec = srv.do(t, http.MethodGet, fmt.Sprintf("/api/children/%d/completed-levels?gameSlug=letter-match", child.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.HasPrefix(rec.Body.String(), "["), rec.Body.String())
	var levels []models.CompletedLevel
	decodeBody(t, rec, &levels)
	require.Len(t, levels, 1)
	assert.Equal(t, 1, levels[0].Level)
	assert.Equal(t, "letter-match", levels[0].GameSlug)

	rec = srv.do(t, http.MethodGet, fmt.Sprintf("/api/children/%d/progress?limit=5", child.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, fmt.Sprintf("/api/children/%d/achievements", child.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestProgressErrors(t *testing.T) {
	srv := newTestServer(t, 30)
	_, token := srv.createParent(t, "errors@example.com", models.RoleParent)
	_, otherToken := srv.createParent(t, "stranger@example.com", models.RoleParent)

	rec := srv.do(t, http.MethodPost, "/api/children", token, map[string]interface{}{"name": "Ivy"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var child models.Child
	decodeBody(t, rec, &child)

	tests := []struct {
		name       string
		token      string
		body       map[string]interface{}
		wantStatus int
		wantCode   string
	}{
		{
			name:       "locked level",
			token:      token,
			body:       map[string]interface{}{"childId": child.ID, "gameSlug": "letter-match", "accuracy": 90, "gameLevel": 2},
			wantStatus: http.StatusForbidden,
			wantCode:   progression.CodeLevelLocked,
		},
		{
			name:       "premium game",
			token:      token,
			body:       map[string]interface{}{"childId": child.ID, "gameSlug": "phonics-pop", "accuracy": 90},
			wantStatus: http.StatusForbidden,
			wantCode:   progression.CodePremiumRequired,
		},
		{
			name:       "premium level",
			token:      token,
			body:       map[string]interface{}{"childId": child.ID, "gameSlug": "letter-match", "accuracy": 90, "gameLevel": 16},
			wantStatus: http.StatusForbidden,
			wantCode:   progression.CodePremiumLevelRequired,
		},
		{
			name:       "missing game slug",
			token:      token,
			body:       map[string]interface{}{"childId": child.ID, "accuracy": 90},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeValidationFailed,
		},
		{
			name:       "unknown game",
			token:      token,
			body:       map[string]interface{}{"childId": child.ID, "gameSlug": "nope"},
			wantStatus: http.StatusNotFound,
			wantCode:   CodeNotFound,
		},
		{
			name:       "unknown child",
			token:      token,
			body:       map[string]interface{}{"childId": 4242, "gameSlug": "letter-match"},
			wantStatus: http.StatusNotFound,
			wantCode:   CodeNotFound,
		},
		{
			name:       "another parent's child",
			token:      otherToken,
			body:       map[string]interface{}{"childId": child.ID, "gameSlug": "letter-match"},
			wantStatus: http.StatusForbidden,
			wantCode:   CodeForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/api/progress", tt.token, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			var body errorResponse
			decodeBody(t, rec, &body)
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/progress", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+token)
	bad := httptest.NewRecorder()
	srv.handler.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	rec = srv.do(t, http.MethodGet, "/api/children/abc/play-status?gameSlug=letter-match", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodGet, fmt.Sprintf("/api/children/%d/completed-levels", child.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestPlayStatusDailyLimit(t *testing.T) {
	srv := newTestServer(t, 30)
	_, token := srv.createParent(t, "limit@example.com", models.RoleParent)

	rec := srv.do(t, http.MethodPost, "/api/children", token, map[string]interface{}{"name": "Max"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var child models.Child
	decodeBody(t, rec, &child)

	rec = srv.do(t, http.MethodPost, "/api/progress", token, map[string]interface{}{
		"childId": child.ID, "gameSlug": "counting-stars", "accuracy": 70, "timeSpentSeconds": 900,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodGet, fmt.Sprintf("/api/children/%d/play-status?gameSlug=counting-stars", child.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		CanPlay          bool    `json:"canPlay"`
		MinutesLeftToday float64 `json:"minutesLeftToday"`
		Reason           string  `json:"reason"`
	}
	decodeBody(t, rec, &status)
	assert.False(t, status.CanPlay)
	assert.Zero(t, status.MinutesLeftToday)
	assert.Equal(t, progression.CodeDailyLimitReached, status.Reason)
}

func TestRateLimitOnProgress(t *testing.T) {
	srv := newTestServer(t, 2)
	_, token := srv.createParent(t, "rate@example.com", models.RoleParent)

	body := map[string]interface{}{"childId": 9999, "gameSlug": "letter-match"}
	for i := 0; i < 2; i++ {
		rec := srv.do(t, http.MethodPost, "/api/progress", token, body)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	rec := srv.do(t, http.MethodPost, "/api/progress", token, body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Other endpoints are not throttled.
	rec = srv.do(t, http.MethodGet, "/api/games", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	srv := newTestServer(t, 30)
	_, parentToken := srv.createParent(t, "plain@example.com", models.RoleParent)
	_, adminToken := srv.createParent(t, "admin@example.com", models.RoleAdmin)

	rec := srv.do(t, http.MethodGet, "/api/admin/reconcile", parentToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/admin/reconcile", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var report service.ReconcileReport
	decodeBody(t, rec, &report)
	assert.Empty(t, report.Drifts)

	rec = srv.do(t, http.MethodGet, "/api/admin/backup", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "playlearn_backup_")
	var backup service.BackupData
	decodeBody(t, rec, &backup)
	assert.Len(t, backup.Users, 2)
}

func TestCatalogRoutes(t *testing.T) {
	srv := newTestServer(t, 30)
	_, token := srv.createParent(t, "catalog@example.com", models.RoleParent)

	rec := srv.do(t, http.MethodGet, "/api/games/counting-stars", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var game models.Game
	decodeBody(t, rec, &game)
	assert.Equal(t, "numbers", game.Category)

	rec = srv.do(t, http.MethodGet, "/api/games/unknown", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/achievements", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var achievements struct {
		Achievements []models.Achievement `json:"achievements"`
	}
	decodeBody(t, rec, &achievements)
	assert.NotEmpty(t, achievements.Achievements)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, 30)

	rec := srv.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	srv.status.CompleteStep(StepDatabase)
	srv.status.CompleteStep(StepCatalog)
	srv.status.MarkReady()

	rec = srv.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body healthResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 100, body.Progress)
}

func TestRecoverMiddleware(t *testing.T) {
	handler := Recover(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}
