package http

import (
	"net/http"

	"noteworks/internal/auth"
	"noteworks/internal/config"
	"noteworks/internal/http/handler"
	mw "noteworks/internal/http/middleware"
	"noteworks/internal/invitation"
	"noteworks/internal/jobs"
	"noteworks/internal/note"
	"noteworks/internal/taxonomy"
	"noteworks/internal/workspace"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func NewRouter(cfg config.Config, db *gorm.DB, jwtSvc *auth.JWT, sched *jobs.Scheduler, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(mw.RequestLogger(log))

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	authSvc := &auth.Service{DB: db}
	wsSvc := &workspace.Service{DB: db, Sched: sched}
	invSvc := &invitation.Service{DB: db}
	noteSvc := &note.Service{DB: db, Sched: sched}
	taxSvc := &taxonomy.Service{DB: db}

	ah := &handler.AuthHandler{Svc: authSvc, JWT: jwtSvc}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)

	me := &handler.MeHandler{DB: db}
	r.With(auth.RequireAuth(jwtSvc)).Get("/me", me.Me)

	wsH := &handler.WorkspaceHandler{Svc: wsSvc}
	invH := &handler.InvitationHandler{Svc: invSvc}
	noteH := &handler.NoteHandler{Svc: noteSvc, Taxonomy: taxSvc}
	recH := &handler.RecycleHandler{Svc: noteSvc}
	taxH := &handler.TaxonomyHandler{Svc: taxSvc}

	r.Route("/workspaces", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Get("/", wsH.List)
		r.Post("/", wsH.Create)
		r.Get("/{id}", wsH.Detail)
		r.Delete("/{id}", wsH.Delete)

		r.Get("/{id}/members", wsH.Members)
		r.Delete("/{id}/members/{userId}", wsH.RemoveMember)
		r.Put("/{id}/members/{userId}/permissions", wsH.UpdatePermissions)
		r.Post("/{id}/leave", wsH.Leave)

		r.Post("/{id}/invitations", invH.Send)
	})

	r.Route("/invitations", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Get("/", invH.List)
		r.Post("/{id}/accept", invH.Accept)
		r.Post("/{id}/reject", invH.Reject)
		r.Post("/{id}/revoke", invH.Revoke)
	})

	r.Route("/notes", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Get("/", noteH.List)
		r.Post("/", noteH.Create)
		r.Post("/delete", noteH.BatchDelete)
		r.Get("/{id}", noteH.Get)
		r.Put("/{id}", noteH.Update)
		r.Get("/{id}/tags", noteH.Tags)
		r.Put("/{id}/tags", noteH.SetTags)
	})

	r.Route("/recycle", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Get("/", recH.List)
		r.Post("/restore", recH.Restore)
		r.Post("/purge", recH.Purge)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Get("/", taxH.ListCategories)
		r.Post("/", taxH.CreateCategory)
		r.Put("/{id}", taxH.UpdateCategory)
		r.Delete("/{id}", taxH.DeleteCategory)
	})

	r.Route("/tags", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Get("/", taxH.ListTags)
		r.Post("/", taxH.CreateTag)
		r.Put("/{id}", taxH.UpdateTag)
		r.Delete("/{id}", taxH.DeleteTag)
	})

	return r
}
