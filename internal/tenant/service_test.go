package tenant_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rakshithgowda/traceboard/internal/access"
	"github.com/rakshithgowda/traceboard/internal/store"
	"github.com/rakshithgowda/traceboard/internal/tenant"
	"github.com/rakshithgowda/traceboard/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Ping(_ context.Context) error { return nil }

// downCache fails every operation, like an unreachable redis.
type downCache struct{}

func (downCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return errors.New("connection refused")
}

func (downCache) Get(_ context.Context, _ string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (downCache) Delete(_ context.Context, _ string) error {
	return errors.New("connection refused")
}

func (downCache) Ping(_ context.Context) error { return errors.New("connection refused") }

type fakeStore struct {
	projects    map[int64]*models.Project
	invitations map[int64]*models.Invitation
	nextID      int64
	keyLookups  int
	deleted     []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects:    map[int64]*models.Project{},
		invitations: map[int64]*models.Invitation{},
	}
}

func (f *fakeStore) CreateProject(_ context.Context, p *models.Project) (*models.Project, error) {
	f.nextID++
	stored := *p
	stored.ID = f.nextID
	stored.CreatedAt = time.Now().UTC()
	f.projects[stored.ID] = &stored
	return &stored, nil
}

func (f *fakeStore) GetProject(_ context.Context, id int64) (*models.Project, error) {
	if p, ok := f.projects[id]; ok {
		return p, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) GetProjectByAPIKey(_ context.Context, apiKey string) (*models.Project, error) {
	f.keyLookups++
	for _, p := range f.projects {
		if p.APIKey == apiKey {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ListProjects(_ context.Context, userID string) ([]*models.Project, error) {
	var out []*models.Project
	for _, p := range f.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAllProjects(_ context.Context) ([]*models.Project, error) {
	var out []*models.Project
	for _, p := range f.projects {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) DeleteProject(_ context.Context, id int64) error {
	if _, ok := f.projects[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.projects, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) CreateInvitation(_ context.Context, inv *models.Invitation) (*models.Invitation, error) {
	f.nextID++
	stored := *inv
	stored.ID = f.nextID
	stored.CreatedAt = time.Now().UTC()
	f.invitations[stored.ID] = &stored
	return &stored, nil
}

func (f *fakeStore) ListInvitations(_ context.Context) ([]*models.Invitation, error) {
	var out []*models.Invitation
	for _, inv := range f.invitations {
		out = append(out, inv)
	}
	return out, nil
}

func (f *fakeStore) GetInvitationByToken(_ context.Context, token string) (*models.Invitation, error) {
	for _, inv := range f.invitations {
		if inv.Token == token {
			return inv, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) UpdateInvitationStatus(_ context.Context, id int64, status string) error {
	inv, ok := f.invitations[id]
	if !ok {
		return store.ErrNotFound
	}
	inv.Status = status
	return nil
}

var owner = &models.Identity{ID: "owner-1", Role: models.RoleUser}
var admin = &models.Identity{ID: "admin-1", Role: models.RoleAdmin}
var stranger = &models.Identity{ID: "stranger", Role: models.RoleUser}

// --- tests ---

func TestCreateProject_GeneratesKey(t *testing.T) {
	svc := tenant.NewService(newFakeStore(), newMemCache())

	p, err := svc.CreateProject(context.Background(), "Checkout", "react", owner)
	require.NoError(t, err)

	assert.Len(t, p.APIKey, 64) // 32 random bytes, hex-encoded
	assert.Equal(t, "owner-1", p.UserID)

	other, err := svc.CreateProject(context.Background(), "Mobile", "ios", owner)
	require.NoError(t, err)
	assert.NotEqual(t, p.APIKey, other.APIKey)
}

func TestCreateProject_RequiresName(t *testing.T) {
	svc := tenant.NewService(newFakeStore(), newMemCache())

	_, err := svc.CreateProject(context.Background(), "   ", "react", owner)
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "name", vErr.Field)
}

func TestResolveByAPIKey_CachesLookups(t *testing.T) {
	fs := newFakeStore()
	svc := tenant.NewService(fs, newMemCache())

	p, err := svc.CreateProject(context.Background(), "Checkout", "react", owner)
	require.NoError(t, err)

	first, err := svc.ResolveByAPIKey(context.Background(), p.APIKey)
	require.NoError(t, err)
	second, err := svc.ResolveByAPIKey(context.Background(), p.APIKey)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, fs.keyLookups)
}

func TestResolveByAPIKey_CacheDownFallsThrough(t *testing.T) {
	fs := newFakeStore()
	svc := tenant.NewService(fs, downCache{})

	p, err := svc.CreateProject(context.Background(), "Checkout", "react", owner)
	require.NoError(t, err)

	// Every resolve hits the store; an unreachable cache never fails the lookup.
	first, err := svc.ResolveByAPIKey(context.Background(), p.APIKey)
	require.NoError(t, err)
	assert.Equal(t, p.ID, first.ID)

	_, err = svc.ResolveByAPIKey(context.Background(), p.APIKey)
	require.NoError(t, err)
	assert.Equal(t, 2, fs.keyLookups)
}

func TestResolveByAPIKey_UnknownKey(t *testing.T) {
	svc := tenant.NewService(newFakeStore(), newMemCache())

	_, err := svc.ResolveByAPIKey(context.Background(), "bogus")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestResolveByAPIKey_ExactMatch(t *testing.T) {
	fs := newFakeStore()
	svc := tenant.NewService(fs, newMemCache())

	p, err := svc.CreateProject(context.Background(), "Checkout", "react", owner)
	require.NoError(t, err)

	upper := []byte(p.APIKey)
	for i, c := range upper {
		if c >= 'a' && c <= 'f' {
			upper[i] = c - 'a' + 'A'
		}
	}
	_, err = svc.ResolveByAPIKey(context.Background(), string(upper))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListProjects_AdminSeesAll(t *testing.T) {
	fs := newFakeStore()
	svc := tenant.NewService(fs, newMemCache())

	_, err := svc.CreateProject(context.Background(), "Checkout", "react", owner)
	require.NoError(t, err)
	_, err = svc.CreateProject(context.Background(), "Other", "ios", stranger)
	require.NoError(t, err)

	mine, err := svc.ListProjects(context.Background(), owner)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := svc.ListProjects(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetProject_Ownership(t *testing.T) {
	fs := newFakeStore()
	svc := tenant.NewService(fs, newMemCache())

	p, err := svc.CreateProject(context.Background(), "Checkout", "react", owner)
	require.NoError(t, err)

	_, err = svc.GetProject(context.Background(), p.ID, owner)
	assert.NoError(t, err)

	_, err = svc.GetProject(context.Background(), p.ID, admin)
	assert.NoError(t, err)

	_, err = svc.GetProject(context.Background(), p.ID, stranger)
	assert.ErrorIs(t, err, access.ErrUnauthorized)
}

func TestDeleteProject_StrangerDenied(t *testing.T) {
	fs := newFakeStore()
	svc := tenant.NewService(fs, newMemCache())

	p, err := svc.CreateProject(context.Background(), "Checkout", "react", owner)
	require.NoError(t, err)

	err = svc.DeleteProject(context.Background(), p.ID, stranger)
	assert.ErrorIs(t, err, access.ErrUnauthorized)
	assert.Empty(t, fs.deleted)
}

func TestDeleteProject_StopsKeyResolution(t *testing.T) {
	fs := newFakeStore()
	svc := tenant.NewService(fs, newMemCache())

	p, err := svc.CreateProject(context.Background(), "Checkout", "react", owner)
	require.NoError(t, err)

	// Warm the cache, then delete.
	_, err = svc.ResolveByAPIKey(context.Background(), p.APIKey)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProject(context.Background(), p.ID, owner))

	_, err = svc.ResolveByAPIKey(context.Background(), p.APIKey)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInvitationLifecycle(t *testing.T) {
	svc := tenant.NewService(newFakeStore(), newMemCache())

	inv, err := svc.CreateInvitation(context.Background(), "dev@example.com", admin)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationPending, inv.Status)
	assert.Len(t, inv.Token, 64)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), inv.ExpiresAt, time.Minute)

	accepted, err := svc.AcceptInvitation(context.Background(), inv.Token)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationAccepted, accepted.Status)

	_, err = svc.AcceptInvitation(context.Background(), inv.Token)
	assert.ErrorIs(t, err, tenant.ErrInvitationUsed)
}

func TestCreateInvitation_BadEmail(t *testing.T) {
	svc := tenant.NewService(newFakeStore(), newMemCache())

	_, err := svc.CreateInvitation(context.Background(), "not-an-email", admin)
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "email", vErr.Field)
}

func TestAcceptInvitation_Expired(t *testing.T) {
	fs := newFakeStore()
	svc := tenant.NewService(fs, newMemCache())

	stored, err := fs.CreateInvitation(context.Background(), &models.Invitation{
		Email:     "dev@example.com",
		Token:     "expired-token",
		InvitedBy: "admin-1",
		Status:    models.InvitationPending,
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	_, err = svc.AcceptInvitation(context.Background(), "expired-token")
	assert.ErrorIs(t, err, tenant.ErrInvitationExpired)
	assert.Equal(t, models.InvitationExpired, fs.invitations[stored.ID].Status)
}

func TestAcceptInvitation_UnknownToken(t *testing.T) {
	svc := tenant.NewService(newFakeStore(), newMemCache())

	_, err := svc.AcceptInvitation(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
