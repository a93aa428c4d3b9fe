package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	mw "github.com/rakshithgowda/traceboard/internal/api/middleware"
	"github.com/rakshithgowda/traceboard/internal/api/response"
	"github.com/rakshithgowda/traceboard/internal/store"
	"github.com/rakshithgowda/traceboard/internal/triage"
	"github.com/rakshithgowda/traceboard/pkg/models"
)

// TriageService is the triage-engine interface the handlers depend on.
type TriageService interface {
	ListProjectEvents(ctx context.Context, projectID int64, filter store.EventFilter, requester *models.Identity) ([]*models.ErrorEvent, error)
	GetEvent(ctx context.Context, id int64, requester *models.Identity) (*models.ErrorEvent, error)
	UpdateEvent(ctx context.Context, id int64, update triage.Update, requester *models.Identity) (*models.ErrorEvent, error)
	ProjectStats(ctx context.Context, projectID int64, requester *models.Identity) (*models.ProjectStats, error)
}

// NewListEventsHandler returns the handler for
// GET /api/projects/{projectID}/events.
func NewListEventsHandler(svc TriageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := mw.GetIdentity(r)
		if !ok {
			response.Message(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		projectID, ok := pathID(r, "projectID")
		if !ok {
			response.Message(w, http.StatusNotFound, "Project not found")
			return
		}

		filter := eventFilterFromQuery(r)
		events, err := svc.ListProjectEvents(r.Context(), projectID, filter, identity)
		if err != nil {
			writeError(w, err, "Project not found")
			return
		}
		if events == nil {
			events = []*models.ErrorEvent{}
		}
		response.JSON(w, http.StatusOK, events)
	}
}

// NewGetEventHandler returns the handler for GET /api/events/{id}.
func NewGetEventHandler(svc TriageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := mw.GetIdentity(r)
		if !ok {
			response.Message(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		id, ok := pathID(r, "id")
		if !ok {
			response.Message(w, http.StatusNotFound, "Event not found")
			return
		}

		event, err := svc.GetEvent(r.Context(), id, identity)
		if err != nil {
			writeError(w, err, "Event not found")
			return
		}
		response.JSON(w, http.StatusOK, event)
	}
}

// NewUpdateEventHandler returns the handler for PATCH /api/events/{id}.
// Only status and severity are mutable; any other field is rejected.
func NewUpdateEventHandler(svc TriageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := mw.GetIdentity(r)
		if !ok {
			response.Message(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		id, ok := pathID(r, "id")
		if !ok {
			response.Message(w, http.StatusNotFound, "Event not found")
			return
		}

		var req struct {
			Status   *string `json:"status"`
			Severity *string `json:"severity"`
		}
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			if field, found := unknownField(err); found {
				response.FieldError(w, "Field is not updatable", field)
				return
			}
			response.FieldError(w, "Invalid JSON body", "body")
			return
		}

		event, err := svc.UpdateEvent(r.Context(), id, triage.Update{
			Status:   req.Status,
			Severity: req.Severity,
		}, identity)
		if err != nil {
			writeError(w, err, "Event not found")
			return
		}
		response.JSON(w, http.StatusOK, event)
	}
}

// NewProjectStatsHandler returns the handler for
// GET /api/projects/{id}/stats.
func NewProjectStatsHandler(svc TriageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := mw.GetIdentity(r)
		if !ok {
			response.Message(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		projectID, ok := pathID(r, "id")
		if !ok {
			response.Message(w, http.StatusNotFound, "Project not found")
			return
		}

		stats, err := svc.ProjectStats(r.Context(), projectID, identity)
		if err != nil {
			writeError(w, err, "Project not found")
			return
		}
		response.JSON(w, http.StatusOK, stats)
	}
}

func eventFilterFromQuery(r *http.Request) store.EventFilter {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return store.EventFilter{
		Limit:    limit,
		Offset:   offset,
		Type:     q.Get("type"),
		Status:   q.Get("status"),
		Severity: q.Get("severity"),
		Search:   q.Get("search"),
	}
}

// unknownField extracts the field name from an encoding/json unknown-field
// error so the 400 body can name it.
func unknownField(err error) (string, bool) {
	msg := err.Error()
	const marker = `unknown field "`
	i := strings.Index(msg, marker)
	if i < 0 {
		return "", false
	}
	rest := msg[i+len(marker):]
	j := strings.Index(rest, `"`)
	if j < 0 {
		return "", false
	}
	return rest[:j], true
}
