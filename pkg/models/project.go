package models

import "time"

// Project is an isolated namespace owning a set of error events. The API key
// is generated server-side at creation and is the sole credential for the
// ingestion path.
type Project struct {
	ID        int64     `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	Platform  string    `db:"platform"   json:"platform"`
	APIKey    string    `db:"api_key"    json:"apiKey"`
	UserID    string    `db:"user_id"    json:"userId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ProjectStats holds the dashboard counters for a single project.
type ProjectStats struct {
	TotalEvents   int64 `json:"totalEvents"`
	EventsLast24h int64 `json:"eventsLast24h"`
	Unresolved    int64 `json:"unresolved"`
}
