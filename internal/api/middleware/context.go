package middleware

import (
	"context"
	"net/http"

	"github.com/rakshithgowda/traceboard/pkg/models"
)

type contextKey string

const identityKey contextKey = "identity"

// SetIdentity stores the verified requester identity in the context.
func SetIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity returns the verified requester identity, if any.
func GetIdentity(r *http.Request) (*models.Identity, bool) {
	id, ok := r.Context().Value(identityKey).(*models.Identity)
	return id, ok && id != nil
}
