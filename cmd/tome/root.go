package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/tome/internal/cliout"
	"github.com/jackzampolin/tome/internal/config"
	"github.com/jackzampolin/tome/internal/defra"
	"github.com/jackzampolin/tome/internal/home"
	"github.com/jackzampolin/tome/internal/llmcall"
	"github.com/jackzampolin/tome/internal/providers"
	"github.com/jackzampolin/tome/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "tome",
	Short: "Textbook content pipeline for XML ingestion and vocabulary enrichment",
	Long: `Tome ingests authored textbook XML into a structured DefraDB store and
enriches it with LLM-extracted vocabulary.

The pipeline includes:
  - XML chapter ingestion with recovery parsing and conflict handling
  - Standalone and batch section files targeted at existing topics
  - LLM term extraction per topic with a local word cache
  - Per-term enrichment JSON and question bank ingestion
  - HTML export and PDF text extraction`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.tome/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "tome home directory (default: ~/.tome)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging",
	)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cliout.SetFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// getLogger builds the command logger, honoring --verbose.
func getLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// getHome returns the home directory manager.
func getHome() (*home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}
	return h, nil
}

// loadConfig loads configuration from --config, the working directory, or
// the home directory.
func loadConfig() (*config.Config, error) {
	mgr, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, err
	}
	return mgr.Get(), nil
}

// getDefraClient builds a client for the local DefraDB instance.
func getDefraClient(cfg *config.Config) *defra.Client {
	port := cfg.Defra.Port
	if port == "" {
		port = defra.DefaultPort
	}
	return defra.NewClient(fmt.Sprintf("http://localhost:%s", port))
}

// getLLMClient resolves a provider by name, falling back to the configured
// default.
func getLLMClient(cfg *config.Config, name string) (providers.LLMClient, string, error) {
	if name == "" {
		name = cfg.Defaults.LLMProvider
	}
	registry := providers.NewRegistryFromConfig(cfg.ToProviderRegistryConfig())
	client, err := registry.GetLLM(name)
	if err != nil {
		return nil, "", fmt.Errorf("provider %q not available: %w", name, err)
	}
	return client, name, nil
}

// getRecorder builds a started LLM call recorder. The returned stop
// function flushes pending writes.
func getRecorder(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (*llmcall.Recorder, func()) {
	client := getDefraClient(cfg)
	if err := client.HealthCheck(cmd.Context()); err != nil {
		logger.Debug("defradb not reachable, llm calls will not be recorded", "error", err)
		return llmcall.NewRecorder(nil), func() {}
	}

	sink := defra.NewSink(defra.SinkConfig{Client: client, Logger: logger})
	sink.Start(cmd.Context())
	return llmcall.NewRecorder(sink), sink.Stop
}
