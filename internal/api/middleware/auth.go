package middleware

import (
	"net/http"

	"github.com/rakshithgowda/traceboard/internal/api/response"
	"github.com/rakshithgowda/traceboard/internal/auth"
)

// Auth wraps the injected authenticator into request middleware. The core
// never inspects cookies or sessions itself.
type Auth struct {
	authenticator auth.Authenticator
}

// NewAuth creates Auth middleware over the given authenticator.
func NewAuth(a auth.Authenticator) *Auth {
	return &Auth{authenticator: a}
}

// Authenticate requires a verified identity and stores it in the request
// context. Requests without credentials and requests with bad credentials
// both get a 401.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.authenticator.CurrentUser(r)
		if err != nil {
			response.Message(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if identity == nil {
			response.Message(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), identity)))
	})
}

// RequireAdmin rejects authenticated requesters without the admin role.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := GetIdentity(r)
		if !ok || !identity.IsAdmin() {
			response.Message(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
