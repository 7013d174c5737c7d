package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/tome/internal/cliout"
	"github.com/jackzampolin/tome/internal/ingest"
)

var sectionsFlags struct {
	book     string
	chapter  string
	topic    string
	conflict string
}

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "Add sections to existing topics",
}

var sectionsAddCmd = &cobra.Command{
	Use:   "add <file.xml>",
	Short: "Add a section file to an existing topic",
	Long: `Add a section file to an existing topic.

With --topic, the file's root must be a single <section>, appended to the
named topic. Without --topic, the file is a batch: each <section> names
its own topic via a target_topic (or topic_id/for_topic) attribute.
Sections with missing or unresolvable targets are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := getLogger()

		if sectionsFlags.book == "" || sectionsFlags.chapter == "" {
			return fmt.Errorf("--book and --chapter are required")
		}

		defaultPolicy, err := conflictPolicy(cfg.Ingest.ConflictBehavior)
		if err != nil {
			return err
		}
		override, err := conflictPolicy(sectionsFlags.conflict)
		if err != nil {
			return err
		}

		client := getDefraClient(cfg)
		if err := client.HealthCheck(cmd.Context()); err != nil {
			return fmt.Errorf("DefraDB not reachable: %w", err)
		}
		store := ingest.NewDefraStore(client)

		bookID, err := store.FindBookByISBN(cmd.Context(), sectionsFlags.book)
		if err != nil {
			return err
		}
		if bookID == "" {
			// --book also accepts a document ID directly.
			bookID = sectionsFlags.book
		}

		ing := ingest.NewIngester(store, logger, defaultPolicy)

		var result *ingest.Result
		if sectionsFlags.topic != "" {
			result, err = ing.AddSectionFile(cmd.Context(), args[0], bookID, sectionsFlags.chapter, sectionsFlags.topic, override)
		} else {
			result, err = ing.AddSectionsBatch(cmd.Context(), args[0], bookID, sectionsFlags.chapter, override)
		}
		if err != nil {
			return err
		}

		return cliout.Output(result)
	},
}

func init() {
	sectionsAddCmd.Flags().StringVar(&sectionsFlags.book, "book", "", "book ISBN or document ID (required)")
	sectionsAddCmd.Flags().StringVar(&sectionsFlags.chapter, "chapter", "", "chapter number display, e.g. 8 (required)")
	sectionsAddCmd.Flags().StringVar(&sectionsFlags.topic, "topic", "", "topic xml id, e.g. 8.3 (omit for batch files)")
	sectionsAddCmd.Flags().StringVar(&sectionsFlags.conflict, "conflict", "", "override conflict policy: append, replace, or skip")

	sectionsCmd.AddCommand(sectionsAddCmd)
	rootCmd.AddCommand(sectionsCmd)
}
