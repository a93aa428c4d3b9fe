// Package access enforces the project ownership boundary. Every dashboard
// read or mutation that touches a project's data passes through Authorize;
// the ingestion path never does, since it is credentialed by API key.
package access

import (
	"errors"

	"github.com/rakshithgowda/traceboard/pkg/models"
)

// ErrUnauthorized is returned when the requester may not act on the project.
var ErrUnauthorized = errors.New("not authorized for this project")

// Authorize allows the project owner and admins, and nobody else.
func Authorize(requester *models.Identity, project *models.Project) error {
	if requester == nil {
		return ErrUnauthorized
	}
	if requester.IsAdmin() {
		return nil
	}
	if requester.ID == project.UserID {
		return nil
	}
	return ErrUnauthorized
}
