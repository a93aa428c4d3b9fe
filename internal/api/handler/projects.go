package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	mw "github.com/rakshithgowda/traceboard/internal/api/middleware"
	"github.com/rakshithgowda/traceboard/internal/api/response"
	"github.com/rakshithgowda/traceboard/pkg/models"
)

// ProjectService is the tenant-directory interface the handlers depend on.
type ProjectService interface {
	CreateProject(ctx context.Context, name, platform string, requester *models.Identity) (*models.Project, error)
	ListProjects(ctx context.Context, requester *models.Identity) ([]*models.Project, error)
	GetProject(ctx context.Context, id int64, requester *models.Identity) (*models.Project, error)
	DeleteProject(ctx context.Context, id int64, requester *models.Identity) error
}

// NewListProjectsHandler returns the handler for GET /api/projects.
func NewListProjectsHandler(svc ProjectService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := mw.GetIdentity(r)
		if !ok {
			response.Message(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		projects, err := svc.ListProjects(r.Context(), identity)
		if err != nil {
			writeError(w, err, "Project not found")
			return
		}
		if projects == nil {
			projects = []*models.Project{}
		}
		response.JSON(w, http.StatusOK, projects)
	}
}

// NewCreateProjectHandler returns the handler for POST /api/projects. The
// response includes the generated API key; this is the only time the caller
// needs to record it.
func NewCreateProjectHandler(svc ProjectService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := mw.GetIdentity(r)
		if !ok {
			response.Message(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		var req struct {
			Name     string `json:"name"`
			Platform string `json:"platform"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.FieldError(w, "Invalid JSON body", "body")
			return
		}

		project, err := svc.CreateProject(r.Context(), req.Name, req.Platform, identity)
		if err != nil {
			writeError(w, err, "Project not found")
			return
		}
		response.JSON(w, http.StatusCreated, project)
	}
}

// NewGetProjectHandler returns the handler for GET /api/projects/{id}.
func NewGetProjectHandler(svc ProjectService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := mw.GetIdentity(r)
		if !ok {
			response.Message(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		id, ok := pathID(r, "id")
		if !ok {
			response.Message(w, http.StatusNotFound, "Project not found")
			return
		}

		project, err := svc.GetProject(r.Context(), id, identity)
		if err != nil {
			writeError(w, err, "Project not found")
			return
		}
		response.JSON(w, http.StatusOK, project)
	}
}

// NewDeleteProjectHandler returns the handler for DELETE /api/projects/{id}.
// Deletion cascades to every event the project owns.
func NewDeleteProjectHandler(svc ProjectService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := mw.GetIdentity(r)
		if !ok {
			response.Message(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		id, ok := pathID(r, "id")
		if !ok {
			response.Message(w, http.StatusNotFound, "Project not found")
			return
		}

		if err := svc.DeleteProject(r.Context(), id, identity); err != nil {
			writeError(w, err, "Project not found")
			return
		}
		response.NoContent(w)
	}
}

// pathID parses a numeric chi URL parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
