package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/tome/internal/cliout"
	"github.com/jackzampolin/tome/internal/qbank"
)

var qbankCmd = &cobra.Command{
	Use:   "qbank",
	Short: "Ingest question bank files",
}

var qbankSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the question lookup collections",
	Long: `Seed the QuestionType, CognitiveLevel and DifficultyLevel
collections with the codes question bank files reference. Safe to run
repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client := getDefraClient(cfg)
		if err := client.HealthCheck(cmd.Context()); err != nil {
			return fmt.Errorf("DefraDB not reachable: %w", err)
		}

		if err := qbank.Seed(cmd.Context(), qbank.NewDefraStore(client), getLogger()); err != nil {
			return err
		}
		fmt.Println("Lookup collections seeded")
		return nil
	},
}

var qbankIngestCmd = &cobra.Command{
	Use:   "ingest <qbank.json>",
	Short: "Ingest a question bank JSON file",
	Long: `Ingest a question bank JSON file.

The file's meta block names the target topic (book title, chapter number,
topic number). MCQ questions produce lettered option rows; LONG, SHORT
and NUMERICAL questions produce an answer row. Questions that fail are
reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client := getDefraClient(cfg)
		if err := client.HealthCheck(cmd.Context()); err != nil {
			return fmt.Errorf("DefraDB not reachable: %w", err)
		}

		ing := qbank.NewIngester(qbank.NewDefraStore(client), getLogger())
		stats, err := ing.Run(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		return cliout.Output(stats)
	},
}

func init() {
	qbankCmd.AddCommand(qbankSeedCmd)
	qbankCmd.AddCommand(qbankIngestCmd)
	rootCmd.AddCommand(qbankCmd)
}
