// Package triage is the authenticated read/mutate path for a project's
// events. Every operation authorizes the requester against the owning
// project before touching the store.
package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rakshithgowda/traceboard/internal/access"
	"github.com/rakshithgowda/traceboard/internal/cache"
	"github.com/rakshithgowda/traceboard/internal/store"
	"github.com/rakshithgowda/traceboard/pkg/models"
)

const statsCacheTTL = 60 * time.Second

// EventStore is the persistence surface the triage service needs.
type EventStore interface {
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	GetEvent(ctx context.Context, id int64) (*models.ErrorEvent, error)
	ListEvents(ctx context.Context, projectID int64, filter store.EventFilter) ([]*models.ErrorEvent, error)
	UpdateEvent(ctx context.Context, id int64, update store.EventUpdate) (*models.ErrorEvent, error)
	ProjectStats(ctx context.Context, projectID int64) (*models.ProjectStats, error)
}

// Update carries a triage mutation. Status transitions are unrestricted
// across the status enum; an ignored or resolved event can always be
// reopened.
type Update struct {
	Status   *string
	Severity *string
}

// Service implements the triage engine.
type Service struct {
	store EventStore
	cache cache.Cache
}

// NewService creates a triage Service.
func NewService(s EventStore, c cache.Cache) *Service {
	return &Service{store: s, cache: c}
}

// ListProjectEvents returns the project's events, filtered and paginated,
// newest first.
func (s *Service) ListProjectEvents(ctx context.Context, projectID int64, filter store.EventFilter, requester *models.Identity) ([]*models.ErrorEvent, error) {
	if err := s.authorizeProject(ctx, projectID, requester); err != nil {
		return nil, err
	}
	return s.store.ListEvents(ctx, projectID, filter)
}

// GetEvent returns a single event if the requester may see its project.
func (s *Service) GetEvent(ctx context.Context, id int64, requester *models.Identity) (*models.ErrorEvent, error) {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeProject(ctx, event.ProjectID, requester); err != nil {
		return nil, err
	}
	return event, nil
}

// UpdateEvent mutates status and/or severity. Anything else in the patch is
// rejected before it reaches here; the store applies the change as a single
// statement so concurrent triage converges to one caller's value.
func (s *Service) UpdateEvent(ctx context.Context, id int64, update Update, requester *models.Identity) (*models.ErrorEvent, error) {
	if update.Status == nil && update.Severity == nil {
		return nil, models.Validation("status", "At least one of status or severity is required")
	}
	if update.Status != nil && !models.ValidEventStatus(*update.Status) {
		return nil, models.Validation("status", fmt.Sprintf("Unknown status %q", *update.Status))
	}
	if update.Severity != nil && !models.ValidEventSeverity(*update.Severity) {
		return nil, models.Validation("severity", fmt.Sprintf("Unknown severity %q", *update.Severity))
	}

	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeProject(ctx, event.ProjectID, requester); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateEvent(ctx, id, store.EventUpdate{
		Status:   update.Status,
		Severity: update.Severity,
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.Delete(ctx, cache.ProjectStatsKey(event.ProjectID)); err != nil {
		slog.Warn("evict project stats cache", "project_id", event.ProjectID, "error", err)
	}
	return updated, nil
}

// ProjectStats returns the dashboard counters for a project, cached briefly.
func (s *Service) ProjectStats(ctx context.Context, projectID int64, requester *models.Identity) (*models.ProjectStats, error) {
	if err := s.authorizeProject(ctx, projectID, requester); err != nil {
		return nil, err
	}

	cacheKey := cache.ProjectStatsKey(projectID)
	raw, ok, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		slog.Warn("read project stats cache", "project_id", projectID, "error", err)
	} else if ok {
		var stats models.ProjectStats
		if err := json.Unmarshal(raw, &stats); err == nil {
			return &stats, nil
		}
	}

	stats, err := s.store.ProjectStats(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(stats); err == nil {
		if err := s.cache.Set(ctx, cacheKey, raw, statsCacheTTL); err != nil {
			slog.Warn("cache project stats", "project_id", projectID, "error", err)
		}
	}
	return stats, nil
}

func (s *Service) authorizeProject(ctx context.Context, projectID int64, requester *models.Identity) error {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	return access.Authorize(requester, project)
}
