package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rakshithgowda/traceboard/internal/auth"
	"github.com/rakshithgowda/traceboard/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func requestWithToken(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestCurrentUser_Roundtrip(t *testing.T) {
	a := auth.NewJWTAuthenticator(testSecret, "traceboard")
	token, err := a.Sign(models.Identity{ID: "user-7", Role: models.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	identity, err := a.CurrentUser(requestWithToken(token))
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "user-7", identity.ID)
	assert.True(t, identity.IsAdmin())
}

func TestCurrentUser_NoCredentials(t *testing.T) {
	a := auth.NewJWTAuthenticator(testSecret, "traceboard")

	identity, err := a.CurrentUser(requestWithToken(""))
	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestCurrentUser_WrongSecret(t *testing.T) {
	signer := auth.NewJWTAuthenticator([]byte("another-secret-another-secret-00"), "traceboard")
	token, err := signer.Sign(models.Identity{ID: "user-7", Role: models.RoleUser}, time.Hour)
	require.NoError(t, err)

	a := auth.NewJWTAuthenticator(testSecret, "traceboard")
	_, err = a.CurrentUser(requestWithToken(token))
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestCurrentUser_Expired(t *testing.T) {
	a := auth.NewJWTAuthenticator(testSecret, "traceboard")
	token, err := a.Sign(models.Identity{ID: "user-7", Role: models.RoleUser}, -time.Minute)
	require.NoError(t, err)

	_, err = a.CurrentUser(requestWithToken(token))
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestCurrentUser_WrongIssuer(t *testing.T) {
	signer := auth.NewJWTAuthenticator(testSecret, "someone-else")
	token, err := signer.Sign(models.Identity{ID: "user-7", Role: models.RoleUser}, time.Hour)
	require.NoError(t, err)

	a := auth.NewJWTAuthenticator(testSecret, "traceboard")
	_, err = a.CurrentUser(requestWithToken(token))
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestCurrentUser_DefaultRole(t *testing.T) {
	a := auth.NewJWTAuthenticator(testSecret, "traceboard")
	token, err := a.Sign(models.Identity{ID: "user-7"}, time.Hour)
	require.NoError(t, err)

	identity, err := a.CurrentUser(requestWithToken(token))
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, identity.Role)
	assert.False(t, identity.IsAdmin())
}

func TestCurrentUser_MalformedHeader(t *testing.T) {
	a := auth.NewJWTAuthenticator(testSecret, "traceboard")
	r := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	identity, err := a.CurrentUser(r)
	require.NoError(t, err)
	assert.Nil(t, identity)
}
