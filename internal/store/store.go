package store

import (
	"context"
	"errors"

	"github.com/rakshithgowda/traceboard/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")
var ErrEmptyUpdate = errors.New("no updatable fields provided")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateProject(ctx context.Context, p *models.Project) (*models.Project, error)
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	GetProjectByAPIKey(ctx context.Context, apiKey string) (*models.Project, error)
	ListProjects(ctx context.Context, userID string) ([]*models.Project, error)
	ListAllProjects(ctx context.Context) ([]*models.Project, error)
	DeleteProject(ctx context.Context, id int64) error

	CreateEvent(ctx context.Context, e *models.ErrorEvent) (*models.ErrorEvent, error)
	GetEvent(ctx context.Context, id int64) (*models.ErrorEvent, error)
	ListEvents(ctx context.Context, projectID int64, filter EventFilter) ([]*models.ErrorEvent, error)
	UpdateEvent(ctx context.Context, id int64, update EventUpdate) (*models.ErrorEvent, error)
	DeleteEventsByProject(ctx context.Context, projectID int64) error
	ProjectStats(ctx context.Context, projectID int64) (*models.ProjectStats, error)

	CreateInvitation(ctx context.Context, inv *models.Invitation) (*models.Invitation, error)
	ListInvitations(ctx context.Context) ([]*models.Invitation, error)
	GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error)
	UpdateInvitationStatus(ctx context.Context, id int64, status string) error
}

// EventFilter narrows and pages a project's event listing. All predicates are
// pushed into the query; results are ordered by occurred_at descending with
// id descending as the tie-breaker.
type EventFilter struct {
	Limit    int
	Offset   int
	Type     string
	Status   string
	Severity string
	Search   string
}

const (
	DefaultEventLimit = 50
	MaxEventLimit     = 200
)

// Normalize clamps pagination to sane bounds.
func (f EventFilter) Normalize() EventFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultEventLimit
	}
	if f.Limit > MaxEventLimit {
		f.Limit = MaxEventLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// EventUpdate carries the only fields a triage mutation may touch. A nil
// field is left unchanged.
type EventUpdate struct {
	Status   *string
	Severity *string
}
