package domain

import (
	"encoding/json"
	"time"
)

// Dashboard is a saved arrangement of widgets. Layout is an opaque JSON blob
// owned by the browser-side editor.
type Dashboard struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Layout    json.RawMessage `json:"layout,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Validate checks the dashboard fields before it is sent to the hosted data
// service.
func (d *Dashboard) Validate() error {
	if d.Name == "" {
		return NewValidationError("MISSING_NAME", "Dashboard name is required",
			map[string]interface{}{"field": "name"})
	}
	if d.UserID == "" {
		return NewValidationError("MISSING_USER_ID", "Dashboard must belong to a user", nil)
	}
	if len(d.Layout) > 0 && !json.Valid(d.Layout) {
		return NewValidationError("INVALID_LAYOUT", "Dashboard layout must be valid JSON",
			map[string]interface{}{"field": "layout"})
	}
	return nil
}
