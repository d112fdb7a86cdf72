package domain

import (
	"encoding/json"
	"time"
)

// DataSourceType identifies the kind of upstream system a data source
// connects to.
type DataSourceType string

const (
	// PostgresSource is a PostgreSQL database connection.
	PostgresSource DataSourceType = "postgres"
	// MySQLSource is a MySQL database connection.
	MySQLSource DataSourceType = "mysql"
	// APISource is a generic HTTP API endpoint.
	APISource DataSourceType = "api"
	// GitHubSource is a GitHub repository.
	GitHubSource DataSourceType = "github"
	// CSVSource is an uploaded or remote CSV file.
	CSVSource DataSourceType = "csv"
)

// IsValid checks if the data source type is one of the supported kinds.
func (t DataSourceType) IsValid() bool {
	switch t {
	case PostgresSource, MySQLSource, APISource, GitHubSource, CSVSource:
		return true
	}
	return false
}

// DataSourceStatus tracks the last known connection state of a source.
type DataSourceStatus string

const (
	// SourceConnected means the last connection check succeeded.
	SourceConnected DataSourceStatus = "connected"
	// SourceDisconnected means the source has not been verified or the last
	// check failed.
	SourceDisconnected DataSourceStatus = "disconnected"
	// SourceError means the last check failed with a non-transient error.
	SourceError DataSourceStatus = "error"
)

// DataSource is a user-owned connection definition. Config is an opaque JSON
// blob created by the dashboard form; it is stored and echoed back, never
// executed.
type DataSource struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Name      string           `json:"name"`
	Type      DataSourceType   `json:"type"`
	Status    DataSourceStatus `json:"status"`
	Config    json.RawMessage  `json:"config,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Validate checks the data source fields before it is sent to the hosted
// data service.
func (d *DataSource) Validate() error {
	if d.Name == "" {
		return NewValidationError("MISSING_NAME", "Data source name is required",
			map[string]interface{}{"field": "name"})
	}
	if !d.Type.IsValid() {
		return NewValidationError("INVALID_SOURCE_TYPE", "Unsupported data source type",
			map[string]interface{}{"field": "type"})
	}
	if d.UserID == "" {
		return NewValidationError("MISSING_USER_ID", "Data source must belong to a user", nil)
	}
	return nil
}
