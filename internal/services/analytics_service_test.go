package services

import (
	"context"
	"testing"
	"time"

	"github.com/pipedeck/pipedeck/internal/domain"
	"github.com/pipedeck/pipedeck/internal/testutil"
)

func TestSummary_CountsOnlyConnectedSources(t *testing.T) {
	sources := testutil.NewMemoryDataSourceRepository()
	sources.Seed(
		testutil.MockDataSource("src-1", "user1", "warehouse", domain.SourceConnected),
		testutil.MockDataSource("src-2", "user1", "events api", domain.SourceDisconnected),
	)
	pipelines := testutil.NewMemoryPipelineRepository()
	runs := testutil.NewMemoryPipelineRunRepository()

	svc := NewAnalyticsService(sources, pipelines, runs)
	summary, err := svc.Summary(context.Background(), "user1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.TotalSources != 2 {
		t.Errorf("expected 2 total sources, got %d", summary.TotalSources)
	}
	if summary.ConnectedSources != 1 {
		t.Errorf("expected 1 connected source, got %d", summary.ConnectedSources)
	}
	if summary.SourcesByStatus[domain.SourceDisconnected] != 1 {
		t.Errorf("expected 1 disconnected source in the breakdown")
	}
}

func TestSummary_ScopedToUser(t *testing.T) {
	sources := testutil.NewMemoryDataSourceRepository()
	sources.Seed(
		testutil.MockDataSource("src-1", "user1", "mine", domain.SourceConnected),
		testutil.MockDataSource("src-2", "user2", "theirs", domain.SourceConnected),
	)
	pipelines := testutil.NewMemoryPipelineRepository()
	pipelines.Seed(
		testutil.MockPipeline("pipe-1", "user1", "mine", domain.PipelineActive),
		testutil.MockPipeline("pipe-2", "user2", "theirs", domain.PipelineActive),
	)
	runs := testutil.NewMemoryPipelineRunRepository()
	runs.Seed(
		testutil.MockRun("run-1", "pipe-1", domain.RunCompleted, 100),
		testutil.MockRun("run-2", "pipe-2", domain.RunCompleted, 900),
	)

	svc := NewAnalyticsService(sources, pipelines, runs)
	summary, err := svc.Summary(context.Background(), "user1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.TotalSources != 1 || summary.TotalPipelines != 1 {
		t.Errorf("summary leaked another user's rows: %+v", summary)
	}
	if summary.RunStats.RowsProcessed != 100 {
		t.Errorf("expected rows from own pipelines only, got %d", summary.RunStats.RowsProcessed)
	}
}

func TestSummarizeRuns_SuccessRateExcludesRunning(t *testing.T) {
	runs := []*domain.PipelineRun{
		testutil.MockRun("run-1", "pipe-1", domain.RunCompleted, 500),
		testutil.MockRun("run-2", "pipe-1", domain.RunCompleted, 300),
		testutil.MockRun("run-3", "pipe-1", domain.RunFailed, 0),
		testutil.MockRun("run-4", "pipe-1", domain.RunRunning, 0),
	}

	stats := SummarizeRuns(runs)

	if stats.Total != 4 || stats.Completed != 2 || stats.Failed != 1 || stats.Running != 1 {
		t.Fatalf("unexpected run breakdown: %+v", stats)
	}
	// 2 completed of 3 finished; the running one does not count.
	want := 2.0 / 3.0
	if stats.SuccessRate < want-0.0001 || stats.SuccessRate > want+0.0001 {
		t.Errorf("expected success rate %.4f, got %.4f", want, stats.SuccessRate)
	}
	if stats.RowsProcessed != 800 {
		t.Errorf("expected 800 rows processed, got %d", stats.RowsProcessed)
	}
	if stats.AvgDuration <= 0 {
		t.Errorf("expected positive average duration, got %v", stats.AvgDuration)
	}
}

func TestSummarizeRuns_Empty(t *testing.T) {
	stats := SummarizeRuns(nil)
	if stats.Total != 0 || stats.SuccessRate != 0 || stats.AvgDuration != time.Duration(0) {
		t.Errorf("expected zero stats for no runs, got %+v", stats)
	}
}
