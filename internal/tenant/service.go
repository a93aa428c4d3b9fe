// Package tenant maps API keys to projects and owns the project lifecycle.
package tenant

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rakshithgowda/traceboard/internal/access"
	"github.com/rakshithgowda/traceboard/internal/cache"
	"github.com/rakshithgowda/traceboard/pkg/models"
)

const (
	apiKeyBytes      = 32
	resolveCacheTTL  = 5 * time.Minute
	invitationExpiry = 7 * 24 * time.Hour
)

// ProjectStore is the persistence surface the tenant service needs.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *models.Project) (*models.Project, error)
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	GetProjectByAPIKey(ctx context.Context, apiKey string) (*models.Project, error)
	ListProjects(ctx context.Context, userID string) ([]*models.Project, error)
	ListAllProjects(ctx context.Context) ([]*models.Project, error)
	DeleteProject(ctx context.Context, id int64) error

	CreateInvitation(ctx context.Context, inv *models.Invitation) (*models.Invitation, error)
	ListInvitations(ctx context.Context) ([]*models.Invitation, error)
	GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error)
	UpdateInvitationStatus(ctx context.Context, id int64, status string) error
}

// Invitation lifecycle errors.
var (
	ErrInvitationUsed    = errors.New("invitation already used")
	ErrInvitationExpired = errors.New("invitation expired")
)

// Service resolves tenants by API key and manages projects and invitations.
type Service struct {
	store ProjectStore
	cache cache.Cache
}

// NewService creates a tenant Service.
func NewService(s ProjectStore, c cache.Cache) *Service {
	return &Service{store: s, cache: c}
}

// ResolveByAPIKey maps an opaque API key to its project. The lookup is an
// exact, case-sensitive match; a miss surfaces as store.ErrNotFound and the
// gateway reports it as an invalid credential. Hits are cached briefly.
func (s *Service) ResolveByAPIKey(ctx context.Context, apiKey string) (*models.Project, error) {
	cacheKey := cache.ProjectKeyKey(apiKey)
	raw, ok, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		slog.Warn("read project key cache", "error", err)
	} else if ok {
		var p models.Project
		if err := json.Unmarshal(raw, &p); err == nil {
			return &p, nil
		}
	}

	p, err := s.store.GetProjectByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(p); err == nil {
		if err := s.cache.Set(ctx, cacheKey, raw, resolveCacheTTL); err != nil {
			slog.Warn("cache project lookup", "error", err)
		}
	}
	return p, nil
}

// CreateProject creates a project for the requester with a server-generated
// API key. Client input never contributes to the key.
func (s *Service) CreateProject(ctx context.Context, name, platform string, requester *models.Identity) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.Validation("name", "Name is required")
	}

	apiKey, err := generateSecret(apiKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("generate api key: %w", err)
	}

	return s.store.CreateProject(ctx, &models.Project{
		Name:     name,
		Platform: platform,
		APIKey:   apiKey,
		UserID:   requester.ID,
	})
}

// ListProjects returns the requester's projects; admins see all projects.
func (s *Service) ListProjects(ctx context.Context, requester *models.Identity) ([]*models.Project, error) {
	if requester.IsAdmin() {
		return s.store.ListAllProjects(ctx)
	}
	return s.store.ListProjects(ctx, requester.ID)
}

// GetProject returns the project if the requester may see it.
func (s *Service) GetProject(ctx context.Context, id int64, requester *models.Identity) (*models.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(requester, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProject removes the project and all its events, then evicts the
// API-key cache entry so the key stops resolving immediately.
func (s *Service) DeleteProject(ctx context.Context, id int64, requester *models.Identity) error {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return err
	}
	if err := access.Authorize(requester, p); err != nil {
		return err
	}

	if err := s.store.DeleteProject(ctx, id); err != nil {
		return err
	}

	if err := s.cache.Delete(ctx, cache.ProjectKeyKey(p.APIKey)); err != nil {
		slog.Warn("evict project key cache", "project_id", id, "error", err)
	}
	if err := s.cache.Delete(ctx, cache.ProjectStatsKey(id)); err != nil {
		slog.Warn("evict project stats cache", "project_id", id, "error", err)
	}
	return nil
}

// CreateInvitation records a pending invite with an unguessable token and a
// seven-day expiry. Email delivery is out of scope.
func (s *Service) CreateInvitation(ctx context.Context, email string, requester *models.Identity) (*models.Invitation, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, models.Validation("email", "A valid email is required")
	}

	token, err := generateSecret(apiKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("generate invitation token: %w", err)
	}

	return s.store.CreateInvitation(ctx, &models.Invitation{
		Email:     email,
		Token:     token,
		InvitedBy: requester.ID,
		Status:    models.InvitationPending,
		ExpiresAt: time.Now().UTC().Add(invitationExpiry),
	})
}

// ListInvitations returns all invitations, newest first.
func (s *Service) ListInvitations(ctx context.Context) ([]*models.Invitation, error) {
	return s.store.ListInvitations(ctx)
}

// AcceptInvitation marks a pending invitation accepted. A token past its
// expiry is marked expired and rejected.
func (s *Service) AcceptInvitation(ctx context.Context, token string) (*models.Invitation, error) {
	if token == "" {
		return nil, models.Validation("token", "Token is required")
	}

	inv, err := s.store.GetInvitationByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if inv.Status != models.InvitationPending {
		return nil, ErrInvitationUsed
	}
	if time.Now().After(inv.ExpiresAt) {
		if err := s.store.UpdateInvitationStatus(ctx, inv.ID, models.InvitationExpired); err != nil {
			return nil, err
		}
		return nil, ErrInvitationExpired
	}

	if err := s.store.UpdateInvitationStatus(ctx, inv.ID, models.InvitationAccepted); err != nil {
		return nil, err
	}
	inv.Status = models.InvitationAccepted
	return inv, nil
}

// generateSecret returns n cryptographically random bytes, hex-encoded.
func generateSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
