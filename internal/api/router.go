package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/rakshithgowda/traceboard/internal/api/middleware"
	"github.com/rakshithgowda/traceboard/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth *mw.Auth

	HealthHandler http.HandlerFunc
	IngestHandler http.HandlerFunc

	ListProjects  http.HandlerFunc
	CreateProject http.HandlerFunc
	GetProject    http.HandlerFunc
	DeleteProject http.HandlerFunc
	ProjectStats  http.HandlerFunc

	ListEvents  http.HandlerFunc
	GetEvent    http.HandlerFunc
	UpdateEvent http.HandlerFunc

	CreateInvitation http.HandlerFunc
	ListInvitations  http.HandlerFunc
	AcceptInvitation http.HandlerFunc
}

// NewRouter builds the Chi router with the middleware stack and all routes.
// Ingestion and invitation acceptance are public; everything else sits
// behind the authenticator.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public routes: the API key (or invite token) is the credential.
	r.Get("/api/health", orNotImplemented(deps.HealthHandler))
	r.Post("/api/ingest", orNotImplemented(deps.IngestHandler))
	r.Post("/api/invitations/accept", orNotImplemented(deps.AcceptInvitation))

	// Authenticated dashboard routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)

		r.Get("/api/projects", orNotImplemented(deps.ListProjects))
		r.Post("/api/projects", orNotImplemented(deps.CreateProject))
		r.Get("/api/projects/{id}", orNotImplemented(deps.GetProject))
		r.Delete("/api/projects/{id}", orNotImplemented(deps.DeleteProject))
		r.Get("/api/projects/{id}/stats", orNotImplemented(deps.ProjectStats))
		r.Get("/api/projects/{projectID}/events", orNotImplemented(deps.ListEvents))

		r.Get("/api/events/{id}", orNotImplemented(deps.GetEvent))
		r.Patch("/api/events/{id}", orNotImplemented(deps.UpdateEvent))

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireAdmin)

			r.Post("/api/admin/invitations", orNotImplemented(deps.CreateInvitation))
			r.Get("/api/admin/invitations", orNotImplemented(deps.ListInvitations))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Message(w, http.StatusNotImplemented, "Endpoint not implemented")
	}
}
