package models

import (
	"encoding/json"
	"time"
)

// Event type, status, and severity values accepted on the wire.
const (
	TypeError     = "error"
	TypeWarning   = "warning"
	TypeInfo      = "info"
	TypeFatal     = "fatal"
	TypeException = "exception"
	TypeCrash     = "crash"

	StatusUnresolved = "unresolved"
	StatusResolved   = "resolved"
	StatusIgnored    = "ignored"
	StatusInProgress = "in_progress"

	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

var eventTypes = map[string]bool{
	TypeError:     true,
	TypeWarning:   true,
	TypeInfo:      true,
	TypeFatal:     true,
	TypeException: true,
	TypeCrash:     true,
}

var eventStatuses = map[string]bool{
	StatusUnresolved: true,
	StatusResolved:   true,
	StatusIgnored:    true,
	StatusInProgress: true,
}

var eventSeverities = map[string]bool{
	SeverityLow:      true,
	SeverityMedium:   true,
	SeverityHigh:     true,
	SeverityCritical: true,
}

// ValidEventType reports whether t is an accepted event type.
func ValidEventType(t string) bool { return eventTypes[t] }

// ValidEventStatus reports whether s is an accepted triage status.
func ValidEventStatus(s string) bool { return eventStatuses[s] }

// ValidEventSeverity reports whether s is an accepted severity.
func ValidEventSeverity(s string) bool { return eventSeverities[s] }

// ErrorEvent is a single error/warning/info occurrence reported by an SDK.
// It belongs to exactly one project, assigned from the resolved API key at
// ingestion. The JSONB attachments (DeviceInfo, PlatformInfo, Tags,
// Breadcrumbs) are kept as raw JSON so that an absent value (nil, serialized
// as null) stays distinguishable from an empty object or array.
type ErrorEvent struct {
	ID           int64           `db:"id"            json:"id"`
	ProjectID    int64           `db:"project_id"    json:"projectId"`
	Type         string          `db:"type"          json:"type"`
	Status       string          `db:"status"        json:"status"`
	Severity     string          `db:"severity"      json:"severity"`
	Message      string          `db:"message"       json:"message"`
	StackTrace   *string         `db:"stack_trace"   json:"stackTrace"`
	DeviceInfo   json.RawMessage `db:"device_info"   json:"deviceInfo"`
	PlatformInfo json.RawMessage `db:"platform_info" json:"platformInfo"`
	Tags         json.RawMessage `db:"tags"          json:"tags"`
	Breadcrumbs  json.RawMessage `db:"breadcrumbs"   json:"breadcrumbs"`
	OccurredAt   time.Time       `db:"occurred_at"   json:"occurredAt"`
	CreatedAt    time.Time       `db:"created_at"    json:"createdAt"`
}
