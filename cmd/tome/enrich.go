package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/tome/internal/cliout"
	"github.com/jackzampolin/tome/internal/enrich"
	"github.com/jackzampolin/tome/internal/ingest"
)

var enrichFlags struct {
	provider     string
	subject      string
	out          string
	book         string
	model        string
	delay        float64
	maxTerms     int
	skipExisting bool
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich extracted terms and ingest the results",
}

var enrichRunCmd = &cobra.Command{
	Use:   "run <terms.txt>",
	Short: "Generate enrichment JSON for each extracted term",
	Long: `Generate enrichment JSON for each extracted term.

Reads a term extraction results file and asks the provider for a strict
JSON document per term (explanation, Urdu meaning, term type, example
sentence, type-specific properties). Results are written to a CSV
artifact; with --skip-existing, terms already in the CSV are skipped and
new rows are appended.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := getLogger()

		client, providerName, err := getLLMClient(cfg, enrichFlags.provider)
		if err != nil {
			return err
		}
		logger.Info("enriching terms", "provider", providerName, "file", args[0])

		outPath := enrichFlags.out
		if outPath == "" {
			h, err := getHome()
			if err != nil {
				return err
			}
			if err := h.EnsureExtractsDir(); err != nil {
				return err
			}
			base := filepath.Base(args[0])
			name := base[:len(base)-len(filepath.Ext(base))]
			outPath = filepath.Join(h.ExtractsDir(), name+"_enriched.csv")
		}

		delay := enrichFlags.delay
		if !cmd.Flags().Changed("delay") {
			delay = cfg.Enrich.DelaySeconds
		}
		maxTerms := enrichFlags.maxTerms
		if !cmd.Flags().Changed("max-terms") {
			maxTerms = cfg.Enrich.MaxTerms
		}
		skip := enrichFlags.skipExisting
		if !cmd.Flags().Changed("skip-existing") {
			skip = cfg.Enrich.SkipExisting
		}

		recorder, stop := getRecorder(cmd, cfg, logger)
		defer stop()

		e := enrich.NewEnricher(client, recorder, logger)
		stats, err := e.Run(cmd.Context(), args[0], outPath, enrich.Options{
			Subject:      enrichFlags.subject,
			Delay:        time.Duration(delay * float64(time.Second)),
			MaxTerms:     maxTerms,
			SkipExisting: skip,
			BookID:       enrichFlags.book,
		})
		if err != nil {
			return err
		}

		return cliout.Output(stats)
	},
}

var enrichIngestCmd = &cobra.Command{
	Use:   "ingest <enriched.csv>",
	Short: "Ingest an enrichment CSV into DefraDB",
	Long: `Ingest an enrichment CSV into DefraDB.

Each row's topic id (e.g. "8.3") is resolved within the book named by
--book; rows for missing topics are skipped and reported. Enrichments
upsert on (topic, word), so re-ingesting a CSV refreshes existing rows.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := getLogger()

		if enrichFlags.book == "" {
			return fmt.Errorf("--book is required")
		}

		client := getDefraClient(cfg)
		if err := client.HealthCheck(cmd.Context()); err != nil {
			return fmt.Errorf("DefraDB not reachable: %w", err)
		}

		store := ingest.NewDefraStore(client)
		bookID, err := store.FindBookByISBN(cmd.Context(), enrichFlags.book)
		if err != nil {
			return err
		}
		if bookID == "" {
			bookID = enrichFlags.book
		}

		resolver := ingest.NewResolver(store, logger)
		ing := enrich.NewIngester(enrich.NewDefraStore(client), resolver, enrichFlags.model, logger)
		stats, err := ing.Run(cmd.Context(), args[0], bookID)
		if err != nil {
			return err
		}

		return cliout.Output(stats)
	},
}

func init() {
	enrichRunCmd.Flags().StringVar(&enrichFlags.provider, "provider", "", "LLM provider name (default: configured default)")
	enrichRunCmd.Flags().StringVar(&enrichFlags.subject, "subject", "chemistry", "subject for the prompt")
	enrichRunCmd.Flags().StringVar(&enrichFlags.out, "out", "", "output CSV path (default: ~/.tome/extracts/<name>_enriched.csv)")
	enrichRunCmd.Flags().StringVar(&enrichFlags.book, "book", "", "book document ID for call records")
	enrichRunCmd.Flags().Float64Var(&enrichFlags.delay, "delay", 0, "delay between API calls in seconds")
	enrichRunCmd.Flags().IntVar(&enrichFlags.maxTerms, "max-terms", 0, "cap the number of terms processed (0 = all)")
	enrichRunCmd.Flags().BoolVar(&enrichFlags.skipExisting, "skip-existing", false, "skip terms already in the output CSV")

	enrichIngestCmd.Flags().StringVar(&enrichFlags.book, "book", "", "book ISBN or document ID (required)")
	enrichIngestCmd.Flags().StringVar(&enrichFlags.model, "model", "", "model name to tag stored enrichments with")

	enrichCmd.AddCommand(enrichRunCmd)
	enrichCmd.AddCommand(enrichIngestCmd)
	rootCmd.AddCommand(enrichCmd)
}
