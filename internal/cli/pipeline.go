package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(pipelineCmd)
	pipelineCmd.AddCommand(pipelineListCmd)
	pipelineCmd.AddCommand(pipelineCreateCmd)
	pipelineCmd.AddCommand(pipelineRunsCmd)
	rootCmd.AddCommand(summaryCmd)

	pipelineCreateCmd.Flags().StringP("description", "d", "", "pipeline description")
	pipelineCreateCmd.Flags().String("steps", "[]", "pipeline steps as JSON")
	pipelineCreateCmd.Flags().String("schedule", "", "cron-style schedule expression")
	pipelineCreateCmd.Flags().StringSlice("source", nil, "data source id to attach (repeatable)")

	pipelineRunsCmd.Flags().IntP("limit", "l", 20, "maximum number of runs to show")
}

var pipelineCmd = &cobra.Command{
	Use:     "pipeline",
	Short:   "Pipeline commands",
	Long:    `Create and inspect the pipelines in your workspace.`,
	Aliases: []string{"pipelines", "pipe"},
}

var pipelineListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List pipelines",
	Long:    `List the pipelines in your workspace with their status and schedule.`,
	Aliases: []string{"ls"},
	RunE: func(_ *cobra.Command, _ []string) error {
		profile, err := GetCurrentProfile()
		if err != nil {
			return fmt.Errorf("not authenticated: %w", err)
		}

		client := NewAPIClientFromProfile(profile)
		pipelines, err := client.GetPipelines()
		if err != nil {
			return fmt.Errorf("failed to list pipelines: %w", err)
		}

		return RenderPipelines(pipelines, viper.GetString("output"))
	},
}

var pipelineCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a draft pipeline",
	Long: `Create a new pipeline in draft status. Steps are stored as-is; they are
executed by the pipeline backend, not by this tool.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		description, _ := cmd.Flags().GetString("description")
		stepsJSON, _ := cmd.Flags().GetString("steps")
		schedule, _ := cmd.Flags().GetString("schedule")
		sourceIDs, _ := cmd.Flags().GetStringSlice("source")

		if !json.Valid([]byte(stepsJSON)) {
			return fmt.Errorf("--steps must be valid JSON")
		}

		profile, err := GetCurrentProfile()
		if err != nil {
			return fmt.Errorf("not authenticated: %w", err)
		}

		client := NewAPIClientFromProfile(profile)
		pipeline, err := client.CreatePipeline(&CreatePipelineRequest{
			Name:          name,
			Description:   description,
			Steps:         json.RawMessage(stepsJSON),
			Schedule:      schedule,
			DataSourceIDs: sourceIDs,
		})
		if err != nil {
			return fmt.Errorf("failed to create pipeline: %w", err)
		}

		fmt.Printf("✓ Pipeline '%s' created as draft (id: %s)\n", pipeline.Name, pipeline.ID)
		return nil
	},
}

var pipelineRunsCmd = &cobra.Command{
	Use:   "runs [pipeline-id]",
	Short: "Show the run history of a pipeline",
	Long:  `Show the most recent executions of a pipeline, newest first.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pipelineID := args[0]
		limit, _ := cmd.Flags().GetInt("limit")

		profile, err := GetCurrentProfile()
		if err != nil {
			return fmt.Errorf("not authenticated: %w", err)
		}

		client := NewAPIClientFromProfile(profile)
		runs, err := client.GetPipelineRuns(pipelineID, limit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}

		return RenderRuns(runs, viper.GetString("output"))
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show workspace analytics",
	Long:  `Show aggregate figures across your sources, pipelines, and recent runs.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		profile, err := GetCurrentProfile()
		if err != nil {
			return fmt.Errorf("not authenticated: %w", err)
		}

		client := NewAPIClientFromProfile(profile)
		summary, err := client.GetAnalyticsSummary()
		if err != nil {
			return fmt.Errorf("failed to fetch summary: %w", err)
		}

		return RenderSummary(summary, viper.GetString("output"))
	},
}
