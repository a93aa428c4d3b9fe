// Package ingest is the public write path: it validates SDK payloads,
// resolves the tenant from the API key, and persists the normalized event.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rakshithgowda/traceboard/internal/store"
	"github.com/rakshithgowda/traceboard/pkg/models"
)

// ErrInvalidAPIKey is returned for any key that resolves to no project. The
// caller must not be told whether the key was malformed or merely unknown.
var ErrInvalidAPIKey = errors.New("invalid API key")

// TenantResolver maps an API key to its project.
type TenantResolver interface {
	ResolveByAPIKey(ctx context.Context, apiKey string) (*models.Project, error)
}

// EventWriter persists normalized events.
type EventWriter interface {
	CreateEvent(ctx context.Context, e *models.ErrorEvent) (*models.ErrorEvent, error)
}

// Request is an inbound SDK payload. The API key is a credential, not event
// data; it is stripped before persistence.
type Request struct {
	APIKey       string          `json:"apiKey"`
	Type         string          `json:"type"`
	Message      string          `json:"message"`
	Severity     string          `json:"severity"`
	StackTrace   *string         `json:"stackTrace"`
	DeviceInfo   json.RawMessage `json:"deviceInfo"`
	PlatformInfo json.RawMessage `json:"platformInfo"`
	Tags         json.RawMessage `json:"tags"`
	Breadcrumbs  json.RawMessage `json:"breadcrumbs"`
	OccurredAt   string          `json:"occurredAt"`
}

// Service implements the ingestion gateway.
type Service struct {
	tenants TenantResolver
	events  EventWriter
}

// NewService creates an ingestion Service.
func NewService(tenants TenantResolver, events EventWriter) *Service {
	return &Service{tenants: tenants, events: events}
}

// Ingest validates the payload, resolves the tenant, and persists the event.
// Validation completes before any persistence call. The project id always
// comes from the resolved key; a client-stated project is never honored. The
// generated event id is the only thing returned to the SDK.
func (s *Service) Ingest(ctx context.Context, req Request) (int64, error) {
	normalized, err := normalize(req)
	if err != nil {
		return 0, err
	}

	project, err := s.tenants.ResolveByAPIKey(ctx, req.APIKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, ErrInvalidAPIKey
		}
		return 0, fmt.Errorf("resolve tenant: %w", err)
	}

	normalized.ProjectID = project.ID
	created, err := s.events.CreateEvent(ctx, normalized)
	if err != nil {
		return 0, fmt.Errorf("persist event: %w", err)
	}

	slog.Info("event ingested",
		"event_id", created.ID,
		"project_id", created.ProjectID,
		"type", created.Type,
	)
	return created.ID, nil
}

// normalize validates the payload shape and applies defaults. Events always
// start unresolved regardless of anything the SDK sends.
func normalize(req Request) (*models.ErrorEvent, error) {
	if req.APIKey == "" {
		return nil, models.Validation("apiKey", "API key is required")
	}
	if req.Message == "" {
		return nil, models.Validation("message", "Message is required")
	}

	eventType := req.Type
	if eventType == "" {
		eventType = models.TypeError
	} else if !models.ValidEventType(eventType) {
		return nil, models.Validation("type", fmt.Sprintf("Unknown event type %q", eventType))
	}

	severity := req.Severity
	if severity == "" {
		severity = models.SeverityMedium
	} else if !models.ValidEventSeverity(severity) {
		return nil, models.Validation("severity", fmt.Sprintf("Unknown severity %q", severity))
	}

	if err := validateObject("deviceInfo", req.DeviceInfo); err != nil {
		return nil, err
	}
	if err := validateObject("platformInfo", req.PlatformInfo); err != nil {
		return nil, err
	}
	if req.Tags != nil {
		var tags map[string]string
		if err := json.Unmarshal(req.Tags, &tags); err != nil {
			return nil, models.Validation("tags", "Tags must be a string-to-string map")
		}
	}
	if req.Breadcrumbs != nil {
		var crumbs []json.RawMessage
		if err := json.Unmarshal(req.Breadcrumbs, &crumbs); err != nil {
			return nil, models.Validation("breadcrumbs", "Breadcrumbs must be an array")
		}
	}

	var occurredAt time.Time
	if req.OccurredAt != "" {
		t, err := time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			return nil, models.Validation("occurredAt", "Must be a valid RFC3339 timestamp")
		}
		occurredAt = t.UTC()
	}

	return &models.ErrorEvent{
		Type:         eventType,
		Status:       models.StatusUnresolved,
		Severity:     severity,
		Message:      req.Message,
		StackTrace:   req.StackTrace,
		DeviceInfo:   req.DeviceInfo,
		PlatformInfo: req.PlatformInfo,
		Tags:         req.Tags,
		Breadcrumbs:  req.Breadcrumbs,
		OccurredAt:   occurredAt,
	}, nil
}

func validateObject(field string, raw json.RawMessage) error {
	if raw == nil {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return models.Validation(field, "Must be a JSON object")
	}
	return nil
}
