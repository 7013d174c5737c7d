package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/tome/internal/cliout"
	"github.com/jackzampolin/tome/internal/ingest"
	"github.com/jackzampolin/tome/internal/types"
)

var ingestFlags struct {
	title        string
	subject      string
	isbn         string
	language     string
	board        string
	country      string
	grade        string
	conflict     string
	chapterOrder int
	recover      bool
	noRecover    bool
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.xml>",
	Short: "Ingest a chapter or book XML file",
	Long: `Ingest a chapter or book XML file into DefraDB.

The root element decides the shape: a <book> root (or a wrapper holding
<chapter> children) processes every chapter; a single <chapter> is placed
at --chapter-order within the book named by --title.

Existing sections of the same type are handled per the conflict policy:
memory techniques and question banks replace, exercises and examples
append. --conflict overrides the policy for every section type.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := getLogger()

		if ingestFlags.title == "" {
			return fmt.Errorf("--title is required")
		}

		defaultPolicy, err := conflictPolicy(cfg.Ingest.ConflictBehavior)
		if err != nil {
			return err
		}
		override, err := conflictPolicy(ingestFlags.conflict)
		if err != nil {
			return err
		}

		client := getDefraClient(cfg)
		if err := client.HealthCheck(cmd.Context()); err != nil {
			return fmt.Errorf("DefraDB not reachable: %w", err)
		}

		ing := ingest.NewIngester(ingest.NewDefraStore(client), logger, defaultPolicy)
		result, err := ing.Run(cmd.Context(), args[0], ingest.BookMeta{
			Title:     ingestFlags.title,
			Subject:   ingestFlags.subject,
			ISBN:      ingestFlags.isbn,
			Language:  ingestFlags.language,
			BoardName: ingestFlags.board,
			Country:   ingestFlags.country,
			GradeName: ingestFlags.grade,
		}, ingest.Options{
			ChapterOrder: ingestFlags.chapterOrder,
			Conflict:     override,
			Recover:      recoverEnabled(cfg.Ingest.Recover),
		})
		if err != nil {
			return err
		}

		return cliout.Output(result)
	},
}

// conflictPolicy parses a policy string, treating empty as unset.
func conflictPolicy(s string) (types.ConflictPolicy, error) {
	if s == "" {
		return "", nil
	}
	return types.ParseConflictPolicy(s)
}

// recoverEnabled resolves the recovery setting: --no-recover wins, then
// --recover, then config.
func recoverEnabled(configured bool) bool {
	if ingestFlags.noRecover {
		return false
	}
	if ingestFlags.recover {
		return true
	}
	return configured
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFlags.title, "title", "", "book title (required)")
	ingestCmd.Flags().StringVar(&ingestFlags.subject, "subject", "Chemistry", "book subject")
	ingestCmd.Flags().StringVar(&ingestFlags.isbn, "isbn", "", "book ISBN")
	ingestCmd.Flags().StringVar(&ingestFlags.language, "language", "English", "book language")
	ingestCmd.Flags().StringVar(&ingestFlags.board, "board", "Punjab Textbook Board", "education board name")
	ingestCmd.Flags().StringVar(&ingestFlags.country, "country", "Pakistan", "board country")
	ingestCmd.Flags().StringVar(&ingestFlags.grade, "grade", "9", "grade name")
	ingestCmd.Flags().StringVar(&ingestFlags.conflict, "conflict", "", "override conflict policy: append, replace, or skip")
	ingestCmd.Flags().IntVar(&ingestFlags.chapterOrder, "chapter-order", 1, "order of a single-chapter file within the book")
	ingestCmd.Flags().BoolVar(&ingestFlags.recover, "recover", false, "tolerate malformed XML tails")
	ingestCmd.Flags().BoolVar(&ingestFlags.noRecover, "no-recover", false, "fail on malformed XML")

	rootCmd.AddCommand(ingestCmd)
}
