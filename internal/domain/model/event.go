package model

import "time"

// Event is a client telemetry record ingested in batches.
type Event struct {
	ID        int64          `json:"id"`
	UserID    *int64         `json:"user_id,omitempty"`
	Name      string         `json:"name"`
	Props     map[string]any `json:"props,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
