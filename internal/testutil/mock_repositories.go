package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pipedeck/pipedeck/internal/domain"
)

// MemoryDataSourceRepository is an in-memory DataSourceRepository for tests.
type MemoryDataSourceRepository struct {
	mu      sync.Mutex
	sources map[string]*domain.DataSource
	nextID  int

	// FailWith, when set, makes every call return this error.
	FailWith error
}

// NewMemoryDataSourceRepository creates an empty in-memory repository.
func NewMemoryDataSourceRepository() *MemoryDataSourceRepository {
	return &MemoryDataSourceRepository{sources: make(map[string]*domain.DataSource)}
}

// Seed stores sources directly, bypassing validation.
func (r *MemoryDataSourceRepository) Seed(sources ...*domain.DataSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range sources {
		r.sources[s.ID] = s
	}
}

// ListByUser returns the user's sources, newest first.
func (r *MemoryDataSourceRepository) ListByUser(_ context.Context, userID string) ([]*domain.DataSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	var out []*domain.DataSource
	for _, s := range r.sources {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// GetByID returns one source or a not-found error.
func (r *MemoryDataSourceRepository) GetByID(_ context.Context, id string) (*domain.DataSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	s, ok := r.sources[id]
	if !ok {
		return nil, domain.NewNotFoundError("DATA_SOURCE_NOT_FOUND", "Data source not found")
	}
	return s, nil
}

// Create stores a source with a generated id.
func (r *MemoryDataSourceRepository) Create(_ context.Context, source *domain.DataSource) (*domain.DataSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.nextID++
	created := *source
	created.ID = fmt.Sprintf("src-%d", r.nextID)
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	r.sources[created.ID] = &created
	return &created, nil
}

// MemoryPipelineRepository is an in-memory PipelineRepository for tests.
type MemoryPipelineRepository struct {
	mu          sync.Mutex
	pipelines   map[string]*domain.Pipeline
	attachments map[string][]string
	nextID      int

	FailWith error
}

// NewMemoryPipelineRepository creates an empty in-memory repository.
func NewMemoryPipelineRepository() *MemoryPipelineRepository {
	return &MemoryPipelineRepository{
		pipelines:   make(map[string]*domain.Pipeline),
		attachments: make(map[string][]string),
	}
}

// Seed stores pipelines directly.
func (r *MemoryPipelineRepository) Seed(pipelines ...*domain.Pipeline) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		r.pipelines[p.ID] = p
	}
}

// ListByUser returns the user's pipelines, newest first.
func (r *MemoryPipelineRepository) ListByUser(_ context.Context, userID string) ([]*domain.Pipeline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	var out []*domain.Pipeline
	for _, p := range r.pipelines {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// GetByID returns one pipeline or a not-found error.
func (r *MemoryPipelineRepository) GetByID(_ context.Context, id string) (*domain.Pipeline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	p, ok := r.pipelines[id]
	if !ok {
		return nil, domain.NewNotFoundError("PIPELINE_NOT_FOUND", "Pipeline not found")
	}
	return p, nil
}

// Create stores a pipeline with a generated id.
func (r *MemoryPipelineRepository) Create(_ context.Context, pipeline *domain.Pipeline) (*domain.Pipeline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.nextID++
	created := *pipeline
	created.ID = fmt.Sprintf("pipe-%d", r.nextID)
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	r.pipelines[created.ID] = &created
	return &created, nil
}

// AttachDataSource links a source to a pipeline.
func (r *MemoryPipelineRepository) AttachDataSource(
	_ context.Context,
	pipelineID, dataSourceID string,
) (*domain.PipelineDataSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.attachments[pipelineID] = append(r.attachments[pipelineID], dataSourceID)
	return &domain.PipelineDataSource{
		PipelineID:   pipelineID,
		DataSourceID: dataSourceID,
	}, nil
}

// ListDataSourceIDs returns the ids attached to a pipeline.
func (r *MemoryPipelineRepository) ListDataSourceIDs(_ context.Context, pipelineID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	return append([]string(nil), r.attachments[pipelineID]...), nil
}

// MemoryPipelineRunRepository is an in-memory PipelineRunRepository for
// tests.
type MemoryPipelineRunRepository struct {
	mu   sync.Mutex
	runs map[string][]*domain.PipelineRun

	FailWith error
}

// NewMemoryPipelineRunRepository creates an empty in-memory repository.
func NewMemoryPipelineRunRepository() *MemoryPipelineRunRepository {
	return &MemoryPipelineRunRepository{runs: make(map[string][]*domain.PipelineRun)}
}

// Seed stores runs directly.
func (r *MemoryPipelineRunRepository) Seed(runs ...*domain.PipelineRun) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range runs {
		r.runs[run.PipelineID] = append(r.runs[run.PipelineID], run)
	}
}

// ListByPipeline returns the most recent runs of a pipeline.
func (r *MemoryPipelineRunRepository) ListByPipeline(
	_ context.Context,
	pipelineID string,
	limit int,
) ([]*domain.PipelineRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	runs := append([]*domain.PipelineRun(nil), r.runs[pipelineID]...)
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// MemoryDashboardRepository is an in-memory DashboardRepository for tests.
type MemoryDashboardRepository struct {
	mu         sync.Mutex
	dashboards map[string]*domain.Dashboard
	nextID     int

	FailWith error
}

// NewMemoryDashboardRepository creates an empty in-memory repository.
func NewMemoryDashboardRepository() *MemoryDashboardRepository {
	return &MemoryDashboardRepository{dashboards: make(map[string]*domain.Dashboard)}
}

// ListByUser returns the user's dashboards, newest first.
func (r *MemoryDashboardRepository) ListByUser(_ context.Context, userID string) ([]*domain.Dashboard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	var out []*domain.Dashboard
	for _, d := range r.dashboards {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Create stores a dashboard with a generated id.
func (r *MemoryDashboardRepository) Create(_ context.Context, dashboard *domain.Dashboard) (*domain.Dashboard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.nextID++
	created := *dashboard
	created.ID = fmt.Sprintf("dash-%d", r.nextID)
	created.CreatedAt = time.Now()
	r.dashboards[created.ID] = &created
	return &created, nil
}

// MemoryUserRepository is an in-memory UserRepository for tests.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User

	FailWith error
}

// NewMemoryUserRepository creates an empty in-memory repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*domain.User)}
}

// Seed stores users directly.
func (r *MemoryUserRepository) Seed(users ...*domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range users {
		r.users[u.ID] = u
	}
}

// GetByID returns one user or a not-found error.
func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.NewNotFoundError("USER_NOT_FOUND", "User not found")
	}
	return u, nil
}

// List returns user profiles, oldest first.
func (r *MemoryUserRepository) List(_ context.Context, limit int) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	var out []*domain.User
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
