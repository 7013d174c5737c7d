package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/tome/internal/extract"
	"github.com/jackzampolin/tome/internal/wordcache"
)

var extractFlags struct {
	provider string
	subject  string
	grade    string
	out      string
	book     string
	delay    float64
	noCache  bool
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract vocabulary terms from XML content",
}

var extractTermsCmd = &cobra.Command{
	Use:   "terms <file.xml>",
	Short: "Extract specialized terms per topic with an LLM",
	Long: `Extract specialized terms per topic with an LLM.

Each <topic> element's text is sent to the provider, which returns terms
literally present in the content. Results are written to a per-topic
results file and new terms are remembered in the local word cache.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := getLogger()

		client, providerName, err := getLLMClient(cfg, extractFlags.provider)
		if err != nil {
			return err
		}
		logger.Info("extracting terms", "provider", providerName, "file", args[0])

		h, err := getHome()
		if err != nil {
			return err
		}

		var cache *wordcache.Cache
		if !extractFlags.noCache {
			if err := h.EnsureCacheDir(); err != nil {
				return err
			}
			cache, err = wordcache.Open(h.WordCachePath())
			if err != nil {
				return err
			}
			defer cache.Close()
		}

		recorder, stop := getRecorder(cmd, cfg, logger)
		defer stop()

		ex := extract.NewExtractor(client, recorder, cache, logger)
		results, err := ex.Run(cmd.Context(), args[0], extract.Options{
			Subject:    extractFlags.subject,
			Grade:      extractFlags.grade,
			MaxRetries: cfg.Extract.MaxRetries,
			Timeout:    time.Duration(cfg.Extract.TimeoutSeconds) * time.Second,
			Delay:      time.Duration(extractFlags.delay * float64(time.Second)),
			BookID:     extractFlags.book,
		})
		if err != nil {
			return err
		}

		outPath := extractFlags.out
		if outPath == "" {
			if err := h.EnsureExtractsDir(); err != nil {
				return err
			}
			base := filepath.Base(args[0])
			name := base[:len(base)-len(filepath.Ext(base))]
			outPath = filepath.Join(h.ExtractsDir(), name+"_terms.txt")
		}
		if err := extract.WriteResultsFile(outPath, results); err != nil {
			return err
		}

		total := 0
		for _, r := range results {
			total += len(r.Terms)
		}
		fmt.Printf("Extracted %d terms across %d topics to %s\n", total, len(results), outPath)
		return nil
	},
}

func init() {
	extractTermsCmd.Flags().StringVar(&extractFlags.provider, "provider", "", "LLM provider name (default: configured default)")
	extractTermsCmd.Flags().StringVar(&extractFlags.subject, "subject", "chemistry", "subject for the prompt")
	extractTermsCmd.Flags().StringVar(&extractFlags.grade, "grade", "grade 9", "audience for the prompt")
	extractTermsCmd.Flags().StringVar(&extractFlags.out, "out", "", "results file path (default: ~/.tome/exports/<name>_terms.txt)")
	extractTermsCmd.Flags().StringVar(&extractFlags.book, "book", "", "book document ID for call records and the word cache")
	extractTermsCmd.Flags().Float64Var(&extractFlags.delay, "delay", 0, "delay between topics in seconds")
	extractTermsCmd.Flags().BoolVar(&extractFlags.noCache, "no-cache", false, "skip the local word cache")

	extractCmd.AddCommand(extractTermsCmd)
	rootCmd.AddCommand(extractCmd)
}
