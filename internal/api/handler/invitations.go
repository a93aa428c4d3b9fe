package handler

import (
	"context"
	"encoding/json"
	"net/http"

	mw "github.com/rakshithgowda/traceboard/internal/api/middleware"
	"github.com/rakshithgowda/traceboard/internal/api/response"
	"github.com/rakshithgowda/traceboard/pkg/models"
)

// InvitationService is the invitation lifecycle interface the handlers
// depend on.
type InvitationService interface {
	CreateInvitation(ctx context.Context, email string, requester *models.Identity) (*models.Invitation, error)
	ListInvitations(ctx context.Context) ([]*models.Invitation, error)
	AcceptInvitation(ctx context.Context, token string) (*models.Invitation, error)
}

// NewCreateInvitationHandler returns the handler for
// POST /api/admin/invitations.
func NewCreateInvitationHandler(svc InvitationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := mw.GetIdentity(r)
		if !ok {
			response.Message(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		var req struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.FieldError(w, "Invalid JSON body", "body")
			return
		}

		inv, err := svc.CreateInvitation(r.Context(), req.Email, identity)
		if err != nil {
			writeError(w, err, "Invitation not found")
			return
		}
		response.JSON(w, http.StatusCreated, inv)
	}
}

// NewListInvitationsHandler returns the handler for
// GET /api/admin/invitations.
func NewListInvitationsHandler(svc InvitationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invitations, err := svc.ListInvitations(r.Context())
		if err != nil {
			writeError(w, err, "Invitation not found")
			return
		}
		if invitations == nil {
			invitations = []*models.Invitation{}
		}
		response.JSON(w, http.StatusOK, invitations)
	}
}

// NewAcceptInvitationHandler returns the handler for
// POST /api/invitations/accept. The token is the credential; no session is
// required.
func NewAcceptInvitationHandler(svc InvitationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.FieldError(w, "Invalid JSON body", "body")
			return
		}

		inv, err := svc.AcceptInvitation(r.Context(), req.Token)
		if err != nil {
			writeError(w, err, "Invitation not found")
			return
		}
		response.JSON(w, http.StatusOK, inv)
	}
}
