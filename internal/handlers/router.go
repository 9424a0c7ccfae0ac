package handlers

import (
	"net/http"

	"go.uber.org/zap"
)

// Router groups the handlers served by the API
type Router struct {
	Middleware *Middleware
	Progress   *ProgressHandler
	Children   *ChildHandler
	Catalog    *CatalogHandler
	Admin      *AdminHandler
	Health     *HealthHandler
	Logger     *zap.Logger
}

// Handler builds the route table wrapped in the request middleware chain
func (rt *Router) Handler() http.Handler {
	m := rt.Middleware
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", rt.Health.Health)

	// Settlement
	mux.HandleFunc("GET /api/children/{childId}/play-status", m.RequireAuth(rt.Progress.PlayStatus))
	mux.HandleFunc("POST /api/progress", m.RequireAuth(m.RateLimit(rt.Progress.SubmitProgress)))
	mux.HandleFunc("GET /api/children/{childId}/completed-levels", m.RequireAuth(rt.Progress.CompletedLevels))

	// Child profiles
	mux.HandleFunc("GET /api/children", m.RequireAuth(rt.Children.ListChildren))
	mux.HandleFunc("POST /api/children", m.RequireAuth(rt.Children.CreateChild))
	mux.HandleFunc("GET /api/children/{childId}", m.RequireAuth(rt.Children.GetChild))
	mux.HandleFunc("PUT /api/children/{childId}", m.RequireAuth(rt.Children.UpdateChild))
	mux.HandleFunc("DELETE /api/children/{childId}", m.RequireAuth(rt.Children.DeleteChild))
	mux.HandleFunc("GET /api/children/{childId}/achievements", m.RequireAuth(rt.Children.Achievements))
	mux.HandleFunc("GET /api/children/{childId}/progress", m.RequireAuth(rt.Children.History))

	// Catalog
	mux.HandleFunc("GET /api/games", m.RequireAuth(rt.Catalog.ListGames))
	mux.HandleFunc("GET /api/games/{slug}", m.RequireAuth(rt.Catalog.GetGame))
	mux.HandleFunc("GET /api/achievements", m.RequireAuth(rt.Catalog.ListAchievements))

	// Admin routes
	mux.HandleFunc("GET /api/admin/reconcile", m.RequireAdmin(rt.Admin.Reconcile))
	mux.HandleFunc("GET /api/admin/backup", m.RequireAdmin(rt.Admin.ExportDatabase))
	mux.HandleFunc("POST /api/admin/backup", m.RequireAdmin(rt.Admin.ImportDatabase))

	var handler http.Handler = mux
	handler = Recover(rt.Logger)(handler)
	handler = Logging(rt.Logger)(handler)
	handler = RequestID(handler)
	return handler
}
