package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"notepad/pkg/auth"
	"notepad/pkg/middleware"
	"notepad/pkg/notify"
	"notepad/pkg/services"
	"notepad/pkg/storage"
)

// Deps are the services the router exposes
type Deps struct {
	Notes    *services.NoteService
	Auth     *services.AuthService
	Sessions *auth.Manager
	Settings *storage.SettingsStore
	Hub      *notify.Hub
}

// NewRouter builds the HTTP surface. Auth routes are rate limited and
// everything under /api needs a session.
func NewRouter(deps Deps) http.Handler {
	api := NewAPIHandlers(deps.Notes, deps.Settings)
	authHandlers := NewAuthHandlers(deps.Auth)
	started := time.Now()

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Instrument)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"uptime": time.Since(started).Round(time.Second).String(),
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RateLimitAuth())
		r.Post("/register", authHandlers.RegisterHandler)
		r.Post("/login", authHandlers.LoginHandler)
		r.Post("/logout", authHandlers.LogoutHandler)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireAuthAPI(deps.Sessions))

		r.Route("/notes", func(r chi.Router) {
			r.Get("/", api.GetNotesHandler)
			r.Post("/", api.CreateNoteHandler)
			r.Post("/sticky", api.StickyNoteHandler)
			r.Post("/ocr", api.OCRNoteHandler)
			r.Get("/{id}", api.GetNoteHandler)
			r.Put("/{id}", api.UpdateNoteHandler)
			r.Delete("/{id}", api.DeleteNoteHandler)
			r.Post("/{id}/complete", api.CompleteNoteHandler)
			r.Post("/{id}/unlock", api.UnlockNoteHandler)
		})

		r.Get("/categories", api.CategoriesHandler)
		r.Get("/stats", api.StatsHandler)
		r.Get("/reminders", api.RemindersHandler)

		r.Get("/backups", api.ListBackupsHandler)
		r.Post("/backups", api.CreateBackupHandler)
		r.Post("/backups/{name}/restore", api.RestoreBackupHandler)
		r.Post("/export", api.ExportHandler)

		r.Get("/settings", api.GetSettingsHandler)
		r.Put("/settings", api.SettingsHandler)

		r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			session, _ := middleware.SessionFrom(r.Context())
			deps.Hub.ServeWS(w, r, session.Username)
		})
	})

	return r
}
