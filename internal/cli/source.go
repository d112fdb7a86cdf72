package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(sourceCmd)
	sourceCmd.AddCommand(sourceListCmd)
	sourceCmd.AddCommand(sourceCreateCmd)

	sourceCreateCmd.Flags().StringP("type", "t", "postgres", "source type (postgres, mysql, api, github, csv)")
	sourceCreateCmd.Flags().StringP("config", "c", "{}", "connection configuration as JSON")
}

var sourceCmd = &cobra.Command{
	Use:     "source",
	Short:   "Data source commands",
	Long:    `Register and inspect the data sources connected to your workspace.`,
	Aliases: []string{"sources", "src"},
}

var sourceListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List data sources",
	Long:    `List the data sources in your workspace with their connection status.`,
	Aliases: []string{"ls"},
	RunE: func(_ *cobra.Command, _ []string) error {
		profile, err := GetCurrentProfile()
		if err != nil {
			return fmt.Errorf("not authenticated: %w", err)
		}

		client := NewAPIClientFromProfile(profile)
		sources, err := client.GetDataSources()
		if err != nil {
			return fmt.Errorf("failed to list data sources: %w", err)
		}

		return RenderDataSources(sources, viper.GetString("output"))
	},
}

var sourceCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Register a data source",
	Long: `Register a new data source. The connection is verified immediately and
the resulting status (connected, disconnected, error) is stored with it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		sourceType, _ := cmd.Flags().GetString("type")
		configJSON, _ := cmd.Flags().GetString("config")

		if !json.Valid([]byte(configJSON)) {
			return fmt.Errorf("--config must be valid JSON")
		}

		profile, err := GetCurrentProfile()
		if err != nil {
			return fmt.Errorf("not authenticated: %w", err)
		}

		client := NewAPIClientFromProfile(profile)
		source, err := client.CreateDataSource(&CreateDataSourceRequest{
			Name:   name,
			Type:   sourceType,
			Config: json.RawMessage(configJSON),
		})
		if err != nil {
			return fmt.Errorf("failed to create data source: %w", err)
		}

		fmt.Printf("✓ Data source '%s' created (id: %s, status: %s)\n", source.Name, source.ID, source.Status)
		return nil
	},
}
