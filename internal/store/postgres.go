package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rakshithgowda/traceboard/pkg/models"
)

const projectColumns = `id, name, platform, api_key, user_id, created_at`

const eventColumns = `id, project_id, type, status, severity, message, stack_trace,
	device_info, platform_info, tags, breadcrumbs, occurred_at, created_at`

const invitationColumns = `id, email, token, invited_by, status, created_at, expires_at`

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Projects ---

func (s *PostgresStore) CreateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	var created models.Project
	err := s.pool.QueryRow(ctx,
		`INSERT INTO projects (name, platform, api_key, user_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+projectColumns,
		p.Name, p.Platform, p.APIKey, p.UserID,
	).Scan(&created.ID, &created.Name, &created.Platform, &created.APIKey, &created.UserID, &created.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	var p models.Project
	err := s.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Platform, &p.APIKey, &p.UserID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

// GetProjectByAPIKey is an exact, case-sensitive lookup on the unique api_key
// column. Callers on the ingestion path must report a miss as an invalid
// credential, not a missing resource.
func (s *PostgresStore) GetProjectByAPIKey(ctx context.Context, apiKey string) (*models.Project, error) {
	var p models.Project
	err := s.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE api_key = $1`, apiKey,
	).Scan(&p.ID, &p.Name, &p.Platform, &p.APIKey, &p.UserID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project by api key: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context, userID string) ([]*models.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()
	return scanProjects(rows)
}

func (s *PostgresStore) ListAllProjects(ctx context.Context) ([]*models.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list all projects: %w", err)
	}
	defer rows.Close()
	return scanProjects(rows)
}

// DeleteProject removes the project and all its events in one transaction.
func (s *PostgresStore) DeleteProject(ctx context.Context, id int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete project: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM error_events WHERE project_id = $1`, id); err != nil {
		return fmt.Errorf("delete project events: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete project: %w", err)
	}
	return nil
}

func scanProjects(rows pgx.Rows) ([]*models.Project, error) {
	var projects []*models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Platform, &p.APIKey, &p.UserID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

// --- Error Events ---

func (s *PostgresStore) CreateEvent(ctx context.Context, e *models.ErrorEvent) (*models.ErrorEvent, error) {
	occurredAt := e.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	var created models.ErrorEvent
	err := s.pool.QueryRow(ctx,
		`INSERT INTO error_events
		   (project_id, type, status, severity, message, stack_trace, device_info, platform_info, tags, breadcrumbs, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+eventColumns,
		e.ProjectID, e.Type, e.Status, e.Severity, e.Message, e.StackTrace,
		e.DeviceInfo, e.PlatformInfo, e.Tags, e.Breadcrumbs, occurredAt,
	).Scan(eventDest(&created)...)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) GetEvent(ctx context.Context, id int64) (*models.ErrorEvent, error) {
	var e models.ErrorEvent
	err := s.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM error_events WHERE id = $1`, id,
	).Scan(eventDest(&e)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

func (s *PostgresStore) ListEvents(ctx context.Context, projectID int64, filter EventFilter) ([]*models.ErrorEvent, error) {
	filter = filter.Normalize()

	conditions := []string{"project_id = $1"}
	args := []any{projectID}
	argIdx := 2

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIdx))
		args = append(args, filter.Type)
		argIdx++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.Severity != "" {
		conditions = append(conditions, fmt.Sprintf("severity = $%d", argIdx))
		args = append(args, filter.Severity)
		argIdx++
	}
	if filter.Search != "" {
		conditions = append(conditions,
			fmt.Sprintf("(message ILIKE $%d OR stack_trace ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		argIdx++
	}

	query := fmt.Sprintf(
		`SELECT `+eventColumns+` FROM error_events WHERE %s
		 ORDER BY occurred_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		strings.Join(conditions, " AND "), argIdx, argIdx+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []*models.ErrorEvent
	for rows.Next() {
		var e models.ErrorEvent
		if err := rows.Scan(eventDest(&e)...); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// UpdateEvent mutates status and/or severity in a single UPDATE statement so
// that concurrent triage actions cannot interleave a read-modify-write.
func (s *PostgresStore) UpdateEvent(ctx context.Context, id int64, update EventUpdate) (*models.ErrorEvent, error) {
	sets := []string{}
	args := []any{id}
	argIdx := 2

	if update.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *update.Status)
		argIdx++
	}
	if update.Severity != nil {
		sets = append(sets, fmt.Sprintf("severity = $%d", argIdx))
		args = append(args, *update.Severity)
		argIdx++
	}
	if len(sets) == 0 {
		return nil, ErrEmptyUpdate
	}

	query := fmt.Sprintf(
		`UPDATE error_events SET %s WHERE id = $1 RETURNING `+eventColumns,
		strings.Join(sets, ", "))

	var e models.ErrorEvent
	err := s.pool.QueryRow(ctx, query, args...).Scan(eventDest(&e)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return &e, nil
}

func (s *PostgresStore) DeleteEventsByProject(ctx context.Context, projectID int64) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM error_events WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("delete events by project: %w", err)
	}
	return nil
}

func (s *PostgresStore) ProjectStats(ctx context.Context, projectID int64) (*models.ProjectStats, error) {
	var stats models.ProjectStats
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE occurred_at >= NOW() - INTERVAL '24 hours'),
		        COUNT(*) FILTER (WHERE status = 'unresolved')
		 FROM error_events WHERE project_id = $1`, projectID,
	).Scan(&stats.TotalEvents, &stats.EventsLast24h, &stats.Unresolved)
	if err != nil {
		return nil, fmt.Errorf("project stats: %w", err)
	}
	return &stats, nil
}

func eventDest(e *models.ErrorEvent) []any {
	return []any{
		&e.ID, &e.ProjectID, &e.Type, &e.Status, &e.Severity, &e.Message, &e.StackTrace,
		&e.DeviceInfo, &e.PlatformInfo, &e.Tags, &e.Breadcrumbs, &e.OccurredAt, &e.CreatedAt,
	}
}

// --- Invitations ---

func (s *PostgresStore) CreateInvitation(ctx context.Context, inv *models.Invitation) (*models.Invitation, error) {
	var created models.Invitation
	err := s.pool.QueryRow(ctx,
		`INSERT INTO invitations (email, token, invited_by, status, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+invitationColumns,
		inv.Email, inv.Token, inv.InvitedBy, inv.Status, inv.ExpiresAt,
	).Scan(&created.ID, &created.Email, &created.Token, &created.InvitedBy,
		&created.Status, &created.CreatedAt, &created.ExpiresAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("create invitation: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) ListInvitations(ctx context.Context) ([]*models.Invitation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+invitationColumns+` FROM invitations ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []*models.Invitation
	for rows.Next() {
		var inv models.Invitation
		if err := rows.Scan(&inv.ID, &inv.Email, &inv.Token, &inv.InvitedBy,
			&inv.Status, &inv.CreatedAt, &inv.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		invitations = append(invitations, &inv)
	}
	return invitations, rows.Err()
}

func (s *PostgresStore) GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error) {
	var inv models.Invitation
	err := s.pool.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE token = $1`, token,
	).Scan(&inv.ID, &inv.Email, &inv.Token, &inv.InvitedBy,
		&inv.Status, &inv.CreatedAt, &inv.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation by token: %w", err)
	}
	return &inv, nil
}

func (s *PostgresStore) UpdateInvitationStatus(ctx context.Context, id int64, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE invitations SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update invitation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// escapeLike escapes LIKE metacharacters so user input matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
