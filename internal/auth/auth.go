// Package auth defines the authenticator boundary. The core consumes a
// verified identity per request and never manages sessions or credentials.
package auth

import (
	"errors"
	"net/http"

	"github.com/rakshithgowda/traceboard/pkg/models"
)

// ErrInvalidToken is returned when credentials are present but unverifiable.
var ErrInvalidToken = errors.New("invalid or expired token")

// Authenticator resolves the requester's identity. It returns (nil, nil)
// when the request carries no credentials at all.
type Authenticator interface {
	CurrentUser(r *http.Request) (*models.Identity, error)
}
