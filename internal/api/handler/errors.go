package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rakshithgowda/traceboard/internal/access"
	"github.com/rakshithgowda/traceboard/internal/api/response"
	"github.com/rakshithgowda/traceboard/internal/ingest"
	"github.com/rakshithgowda/traceboard/internal/store"
	"github.com/rakshithgowda/traceboard/internal/tenant"
	"github.com/rakshithgowda/traceboard/pkg/models"
)

// writeError maps service failures onto the wire contract. notFound is the
// message used when the underlying resource does not exist.
func writeError(w http.ResponseWriter, err error, notFound string) {
	var vErr *models.ValidationError
	switch {
	case errors.As(err, &vErr):
		response.FieldError(w, vErr.Message, vErr.Field)
	case errors.Is(err, ingest.ErrInvalidAPIKey):
		response.Message(w, http.StatusNotFound, "Invalid API Key")
	case errors.Is(err, access.ErrUnauthorized):
		response.Message(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, store.ErrNotFound):
		response.Message(w, http.StatusNotFound, notFound)
	case errors.Is(err, tenant.ErrInvitationUsed):
		response.Message(w, http.StatusBadRequest, "Invitation already used")
	case errors.Is(err, tenant.ErrInvitationExpired):
		response.Message(w, http.StatusBadRequest, "Invitation expired")
	default:
		slog.Error("request failed", "error", err)
		response.Internal(w)
	}
}
