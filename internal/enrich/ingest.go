package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ohler55/ojg/oj"

	"github.com/jackzampolin/tome/internal/defra"
)

// TopicLookup resolves a topic XML ID (e.g. "8.3") within a book to a
// topic document ID. The ingest package's Resolver satisfies it.
type TopicLookup interface {
	LookupTopic(ctx context.Context, bookID, chapterNumber, topicXMLID string) (string, error)
}

// Store persists topic enrichments.
type Store interface {
	HasEnrichment(ctx context.Context, topicID, word string) (bool, error)
	UpsertEnrichment(ctx context.Context, topicID, word, enrichmentJSON, model string) error
}

// DefraStore implements Store against DefraDB. The upsert is keyed on
// (topic_id, word), so re-ingesting a CSV refreshes instead of duplicating.
type DefraStore struct {
	client *defra.Client
}

// NewDefraStore creates a Store backed by the given client.
func NewDefraStore(client *defra.Client) *DefraStore {
	return &DefraStore{client: client}
}

func (s *DefraStore) HasEnrichment(ctx context.Context, topicID, word string) (bool, error) {
	resp, err := defra.NewQuery("TopicEnrichment").
		Filter("topic_id", topicID).
		Filter("word", word).
		Limit(1).
		Execute(ctx, s.client)
	if err != nil {
		return false, fmt.Errorf("query enrichment: %w", err)
	}
	if errMsg := resp.Error(); errMsg != "" {
		return false, fmt.Errorf("query enrichment: %s", errMsg)
	}
	docs, _ := resp.Data["TopicEnrichment"].([]any)
	return len(docs) > 0, nil
}

func (s *DefraStore) UpsertEnrichment(ctx context.Context, topicID, word, enrichmentJSON, model string) error {
	filter := map[string]any{
		"topic_id": map[string]any{"_eq": topicID},
		"word":     map[string]any{"_eq": word},
	}
	doc := map[string]any{
		"topic_id":        topicID,
		"word":            word,
		"enrichment_json": enrichmentJSON,
		"model":           model,
		"created_at":      time.Now().UTC().Format(time.RFC3339),
	}
	update := map[string]any{
		"enrichment_json": enrichmentJSON,
		"model":           model,
	}
	_, err := s.client.Upsert(ctx, "TopicEnrichment", filter, doc, update)
	return err
}

var _ Store = (*DefraStore)(nil)

// IngestStats counts what a CSV ingestion did.
type IngestStats struct {
	Processed     int      `json:"processed"`
	Inserted      int      `json:"inserted"`
	Updated       int      `json:"updated"`
	Skipped       int      `json:"skipped"`
	Failed        int      `json:"failed"`
	MissingTopics []string `json:"missing_topics,omitempty"`
}

// Ingester loads an enrichment CSV into the store.
type Ingester struct {
	store  Store
	topics TopicLookup
	logger *slog.Logger
	model  string
}

// NewIngester creates an Ingester. model tags stored enrichments with the
// model that produced them; it may be empty.
func NewIngester(store Store, topics TopicLookup, model string, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{store: store, topics: topics, logger: logger, model: model}
}

// Run ingests the CSV at path for the given book. Rows with unresolvable
// topics or invalid JSON are counted and skipped.
func (ing *Ingester) Run(ctx context.Context, path, bookID string) (*IngestStats, error) {
	rows, err := ReadCSV(path)
	if err != nil {
		return nil, err
	}

	stats := &IngestStats{}
	topicCache := map[string]string{}
	missing := map[string]bool{}

	for i, row := range rows {
		stats.Processed++

		if row.Term == "" || row.TopicID == "" || row.Data == "" {
			ing.logger.Warn("row missing required fields", "row", i+1)
			stats.Failed++
			continue
		}

		topicID, err := ing.resolveTopic(ctx, bookID, row.TopicID, topicCache)
		if err != nil {
			stats.Failed++
			continue
		}
		if topicID == "" {
			if !missing[row.TopicID] {
				missing[row.TopicID] = true
				stats.MissingTopics = append(stats.MissingTopics, row.TopicID)
			}
			stats.Skipped++
			continue
		}

		canonical, err := canonicalizeEnrichment(row.Data)
		if err != nil {
			ing.logger.Warn("invalid enrichment data", "term", row.Term, "error", err)
			stats.Failed++
			continue
		}

		exists, err := ing.store.HasEnrichment(ctx, topicID, row.Term)
		if err != nil {
			ing.logger.Warn("enrichment lookup failed", "term", row.Term, "error", err)
			stats.Failed++
			continue
		}
		if err := ing.store.UpsertEnrichment(ctx, topicID, row.Term, canonical, ing.model); err != nil {
			ing.logger.Warn("enrichment upsert failed", "term", row.Term, "error", err)
			stats.Failed++
			continue
		}
		if exists {
			stats.Updated++
		} else {
			stats.Inserted++
		}

		if stats.Processed%50 == 0 {
			ing.logger.Info("ingestion progress",
				"processed", stats.Processed, "inserted", stats.Inserted, "updated", stats.Updated)
		}
	}

	ing.logger.Info("enrichment ingestion complete",
		"processed", stats.Processed, "inserted", stats.Inserted,
		"updated", stats.Updated, "skipped", stats.Skipped, "failed", stats.Failed)
	return stats, nil
}

// resolveTopic maps a topic XML ID like "8.3" to its document ID, deriving
// the chapter number from the prefix before the first dot. Lookups are
// cached per run; "" means the topic does not exist.
func (ing *Ingester) resolveTopic(ctx context.Context, bookID, topicXMLID string, cache map[string]string) (string, error) {
	if id, ok := cache[topicXMLID]; ok {
		return id, nil
	}

	chapterNumber, _, found := strings.Cut(topicXMLID, ".")
	if !found {
		ing.logger.Warn("invalid topic id format", "topic_id", topicXMLID)
		cache[topicXMLID] = ""
		return "", nil
	}

	id, err := ing.topics.LookupTopic(ctx, bookID, chapterNumber, topicXMLID)
	if err != nil {
		return "", err
	}
	cache[topicXMLID] = id
	return id, nil
}

// canonicalizeEnrichment parses enrichment JSON leniently, validates it
// against the schema, and returns the canonical encoding.
func canonicalizeEnrichment(data string) (string, error) {
	parsed, err := oj.ParseString(data)
	if err != nil {
		return "", fmt.Errorf("parsing enrichment JSON: %w", err)
	}

	canonical, err := json.Marshal(parsed)
	if err != nil {
		return "", fmt.Errorf("normalizing enrichment JSON: %w", err)
	}

	var doc any
	if err := json.Unmarshal(canonical, &doc); err != nil {
		return "", err
	}
	if err := ValidateEnrichment(doc); err != nil {
		return "", err
	}
	return string(canonical), nil
}
