package models

// Roles assigned by the external authenticator.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is a verified user identity supplied by the authenticator
// collaborator. The core never manages sessions or credentials itself.
type Identity struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
