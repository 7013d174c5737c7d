package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/tome/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage DefraDB collection schemas",
}

var schemaInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create all collections in DefraDB",
	Long: `Create all collections in DefraDB.

Collections are created in dependency order. Collections that already
exist are skipped, so this is safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client := getDefraClient(cfg)
		logger := getLogger()

		if err := client.HealthCheck(cmd.Context()); err != nil {
			return fmt.Errorf("DefraDB not reachable (is 'tome defra start' running?): %w", err)
		}

		if err := schema.Initialize(cmd.Context(), client, logger); err != nil {
			return fmt.Errorf("schema initialization failed: %w", err)
		}

		fmt.Println("Schemas initialized")
		return nil
	},
}

func init() {
	schemaCmd.AddCommand(schemaInitCmd)
	rootCmd.AddCommand(schemaCmd)
}
