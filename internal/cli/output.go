package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/pipedeck/pipedeck/internal/domain"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatYML  = "yml"
)

// RenderDataSources renders a list of data sources in the specified format
func RenderDataSources(sources []domain.DataSource, format string) error {
	switch strings.ToLower(format) {
	case formatJSON:
		return renderJSON(sources)
	case formatYAML, formatYML:
		return renderYAML(sources)
	default:
		return renderDataSourcesTable(sources)
	}
}

// RenderPipelines renders a list of pipelines in the specified format
func RenderPipelines(pipelines []domain.Pipeline, format string) error {
	switch strings.ToLower(format) {
	case formatJSON:
		return renderJSON(pipelines)
	case formatYAML, formatYML:
		return renderYAML(pipelines)
	default:
		return renderPipelinesTable(pipelines)
	}
}

// RenderRuns renders a pipeline run history in the specified format
func RenderRuns(runs []domain.PipelineRun, format string) error {
	switch strings.ToLower(format) {
	case formatJSON:
		return renderJSON(runs)
	case formatYAML, formatYML:
		return renderYAML(runs)
	default:
		return renderRunsTable(runs)
	}
}

// RenderSummary renders the analytics summary in the specified format
func RenderSummary(summary map[string]interface{}, format string) error {
	switch strings.ToLower(format) {
	case formatJSON:
		return renderJSON(summary)
	case formatYAML, formatYML:
		return renderYAML(summary)
	default:
		return renderSummaryTable(summary)
	}
}

// Table rendering functions
func renderDataSourcesTable(sources []domain.DataSource) error {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Name", "Type", "Status", "Created"})

	for _, source := range sources {
		createdAt := ""
		if !source.CreatedAt.IsZero() {
			createdAt = source.CreatedAt.Format("2006-01-02")
		}

		t.AppendRow(table.Row{
			source.ID,
			source.Name,
			source.Type,
			source.Status,
			createdAt,
		})
	}

	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}

func renderPipelinesTable(pipelines []domain.Pipeline) error {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Name", "Status", "Schedule", "Created"})

	for _, pipeline := range pipelines {
		createdAt := ""
		if !pipeline.CreatedAt.IsZero() {
			createdAt = pipeline.CreatedAt.Format("2006-01-02")
		}

		description := pipeline.Name
		if len(description) > 40 {
			description = description[:37] + "..."
		}

		t.AppendRow(table.Row{
			pipeline.ID,
			description,
			pipeline.Status,
			pipeline.Schedule,
			createdAt,
		})
	}

	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}

func renderRunsTable(runs []domain.PipelineRun) error {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Status", "Rows", "Started", "Duration"})

	for _, run := range runs {
		duration := ""
		if d := run.Duration(); d > 0 {
			duration = d.String()
		}

		t.AppendRow(table.Row{
			run.ID,
			run.Status,
			run.RowsProcessed,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			duration,
		})
	}

	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}

func renderSummaryTable(summary map[string]interface{}) error {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Metric", "Value"})

	// Stable, readable ordering for the headline figures.
	order := []string{
		"total_sources", "connected_sources",
		"total_pipelines", "active_pipelines",
		"total_runs", "failed_runs", "success_rate", "rows_processed",
	}
	seen := make(map[string]bool, len(order))
	for _, key := range order {
		if value, ok := summary[key]; ok {
			t.AppendRow(table.Row{key, fmt.Sprintf("%v", value)})
			seen[key] = true
		}
	}
	for key, value := range summary {
		if !seen[key] {
			t.AppendRow(table.Row{key, fmt.Sprintf("%v", value)})
		}
	}

	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}

func renderJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func renderYAML(v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal to YAML: %w", err)
	}
	fmt.Print(string(data))
	return nil
}
