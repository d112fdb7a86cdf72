package services

import (
	"context"
	"time"

	"github.com/pipedeck/pipedeck/internal/domain"
	"github.com/pipedeck/pipedeck/internal/repository"
)

// AnalyticsSummary is the aggregate view shown on the analytics page. All
// figures are computed in-process over fetched rows; the hosted data service
// is only ever asked for plain filtered selects.
type AnalyticsSummary struct {
	TotalSources      int                              `json:"total_sources"`
	ConnectedSources  int                              `json:"connected_sources"`
	SourcesByStatus   map[domain.DataSourceStatus]int  `json:"sources_by_status"`
	TotalPipelines    int                              `json:"total_pipelines"`
	PipelinesByStatus map[domain.PipelineStatus]int    `json:"pipelines_by_status"`
	RunStats          RunStats                         `json:"run_stats"`
}

// RunStats summarizes a window of pipeline runs.
type RunStats struct {
	Total         int           `json:"total"`
	Completed     int           `json:"completed"`
	Failed        int           `json:"failed"`
	Running       int           `json:"running"`
	SuccessRate   float64       `json:"success_rate"`
	RowsProcessed int64         `json:"rows_processed"`
	AvgDuration   time.Duration `json:"avg_duration_ns"`
}

// AnalyticsService assembles summaries for a user from the CRUD repositories.
type AnalyticsService interface {
	Summary(ctx context.Context, userID string) (*AnalyticsSummary, error)
}

type analyticsService struct {
	sources   repository.DataSourceRepository
	pipelines repository.PipelineRepository
	runs      repository.PipelineRunRepository
}

// NewAnalyticsService creates an analytics service over the given
// repositories.
func NewAnalyticsService(
	sources repository.DataSourceRepository,
	pipelines repository.PipelineRepository,
	runs repository.PipelineRunRepository,
) AnalyticsService {
	return &analyticsService{sources: sources, pipelines: pipelines, runs: runs}
}

// recentRunWindow caps how many runs per pipeline feed the summary.
const recentRunWindow = 50

func (s *analyticsService) Summary(ctx context.Context, userID string) (*AnalyticsSummary, error) {
	sources, err := s.sources.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	pipelines, err := s.pipelines.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var runs []*domain.PipelineRun
	for _, p := range pipelines {
		pipelineRuns, err := s.runs.ListByPipeline(ctx, p.ID, recentRunWindow)
		if err != nil {
			return nil, err
		}
		runs = append(runs, pipelineRuns...)
	}

	summary := &AnalyticsSummary{
		TotalSources:      len(sources),
		ConnectedSources:  ConnectedSourceCount(sources),
		SourcesByStatus:   SourceStatusCounts(sources),
		TotalPipelines:    len(pipelines),
		PipelinesByStatus: PipelineStatusCounts(pipelines),
		RunStats:          SummarizeRuns(runs),
	}
	return summary, nil
}

// ConnectedSourceCount counts sources whose last check succeeded.
func ConnectedSourceCount(sources []*domain.DataSource) int {
	n := 0
	for _, s := range sources {
		if s.Status == domain.SourceConnected {
			n++
		}
	}
	return n
}

// SourceStatusCounts groups sources by status.
func SourceStatusCounts(sources []*domain.DataSource) map[domain.DataSourceStatus]int {
	counts := make(map[domain.DataSourceStatus]int)
	for _, s := range sources {
		counts[s.Status]++
	}
	return counts
}

// PipelineStatusCounts groups pipelines by status.
func PipelineStatusCounts(pipelines []*domain.Pipeline) map[domain.PipelineStatus]int {
	counts := make(map[domain.PipelineStatus]int)
	for _, p := range pipelines {
		counts[p.Status]++
	}
	return counts
}

// SummarizeRuns folds a slice of runs into RunStats. Success rate is the
// completed share of finished runs; in-flight runs are excluded from it.
func SummarizeRuns(runs []*domain.PipelineRun) RunStats {
	stats := RunStats{Total: len(runs)}

	var totalDuration time.Duration
	finishedWithDuration := 0
	for _, r := range runs {
		stats.RowsProcessed += r.RowsProcessed
		switch r.Status {
		case domain.RunCompleted:
			stats.Completed++
		case domain.RunFailed:
			stats.Failed++
		case domain.RunRunning:
			stats.Running++
		}
		if d := r.Duration(); d > 0 {
			totalDuration += d
			finishedWithDuration++
		}
	}

	finished := stats.Completed + stats.Failed
	if finished > 0 {
		stats.SuccessRate = float64(stats.Completed) / float64(finished)
	}
	if finishedWithDuration > 0 {
		stats.AvgDuration = totalDuration / time.Duration(finishedWithDuration)
	}
	return stats
}
