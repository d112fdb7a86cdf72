// Package repository defines per-collection data access interfaces and their
// hosted data service implementations. All access is pass-through CRUD: no
// caching, no retries.
package repository

// Collection names on the hosted data service.
const (
	UsersCollection               = "users"
	DataSourcesCollection         = "data_sources"
	PipelinesCollection           = "pipelines"
	PipelineRunsCollection        = "pipeline_runs"
	DashboardsCollection          = "dashboards"
	PipelineDataSourcesCollection = "pipeline_data_sources"
)

// DefaultListLimit bounds unpaginated list queries.
const DefaultListLimit = 100
