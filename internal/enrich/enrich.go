// Package enrich generates per-term enrichment JSON with an LLM and
// ingests the resulting CSV artifact into the document store.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackzampolin/tome/internal/extract"
	"github.com/jackzampolin/tome/internal/llmcall"
	"github.com/jackzampolin/tome/internal/providers"
)

// Options tunes an enrichment run.
type Options struct {
	// Subject names the domain in the prompt (default "chemistry").
	Subject string
	// Delay between API calls.
	Delay time.Duration
	// MaxTerms caps the number of terms processed; 0 means all.
	MaxTerms int
	// SkipExisting skips terms already present in the output CSV and
	// appends new rows instead of replacing the file.
	SkipExisting bool
	// BookID tags LLM call records.
	BookID string
}

// RunStats counts what an enrichment run did.
type RunStats struct {
	Processed int `json:"processed"`
	Enriched  int `json:"enriched"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Enricher enriches extracted terms one at a time.
type Enricher struct {
	client   providers.LLMClient
	recorder *llmcall.Recorder
	logger   *slog.Logger
}

// NewEnricher creates an Enricher. recorder may be nil.
func NewEnricher(client providers.LLMClient, recorder *llmcall.Recorder, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{client: client, recorder: recorder, logger: logger}
}

// Run reads a term extraction results file, enriches each term, and writes
// the CSV artifact. Per-term failures are counted and skipped.
func (e *Enricher) Run(ctx context.Context, termsPath, outputCSV string, opts Options) (*RunStats, error) {
	if opts.Subject == "" {
		opts.Subject = "chemistry"
	}

	topics, err := extract.ParseResultsFile(termsPath)
	if err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("%s: no topics found", termsPath)
	}

	seen := map[string]bool{}
	if opts.SkipExisting {
		seen, err = existingTerms(outputCSV)
		if err != nil {
			return nil, err
		}
		if len(seen) > 0 {
			e.logger.Info("skipping terms already enriched", "count", len(seen))
		}
	}

	stats := &RunStats{}
	var rows []Row

loop:
	for _, topic := range topics {
		e.logger.Info("enriching topic", "topic", topic.TopicID, "terms", len(topic.Terms))

		for _, term := range topic.Terms {
			key := strings.ToLower(term)
			if seen[key] {
				stats.Skipped++
				continue
			}
			if opts.MaxTerms > 0 && stats.Enriched >= opts.MaxTerms {
				e.logger.Info("reached term limit", "max_terms", opts.MaxTerms)
				break loop
			}
			stats.Processed++

			data, err := e.enrichTerm(ctx, term, topic.TopicID, opts)
			if err != nil {
				e.logger.Warn("enrichment failed", "term", term, "error", err)
				stats.Failed++
			} else {
				rows = append(rows, Row{Term: term, TopicID: topic.TopicID, Data: data})
				seen[key] = true
				stats.Enriched++
			}

			if opts.Delay > 0 {
				select {
				case <-time.After(opts.Delay):
				case <-ctx.Done():
					break loop
				}
			}
		}
	}

	if opts.SkipExisting {
		err = AppendCSV(outputCSV, rows)
	} else {
		err = WriteCSV(outputCSV, rows)
	}
	if err != nil {
		return stats, err
	}

	e.logger.Info("enrichment complete",
		"processed", stats.Processed, "enriched", stats.Enriched,
		"skipped", stats.Skipped, "failed", stats.Failed, "output", outputCSV)
	return stats, ctx.Err()
}

// enrichTerm requests strict JSON for one term and returns the validated
// enrichment document.
func (e *Enricher) enrichTerm(ctx context.Context, term, topicID string, opts Options) (string, error) {
	prompt := enrichmentPrompt(opts.Subject, term)
	req := &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: enrichmentSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   1000,
		Timeout:     60 * time.Second,
		ResponseFormat: &providers.ResponseFormat{
			Type:       "json_object",
			JSONSchema: json.RawMessage(enrichmentSchema),
		},
	}

	result, err := e.client.Chat(ctx, req)
	if result != nil && e.recorder != nil {
		e.recorder.Record(result, llmcall.RecordOptions{
			BookID:  opts.BookID,
			TopicID: topicID,
			Stage:   "enrich",
			Prompt:  prompt,
		})
	}
	if err != nil {
		return "", err
	}
	if !result.Success || len(result.ParsedJSON) == 0 {
		return "", fmt.Errorf("no structured output: %s", result.ErrorMessage)
	}
	return string(result.ParsedJSON), nil
}
