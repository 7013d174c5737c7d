package qbank

import (
	"context"
	"fmt"

	"github.com/jackzampolin/tome/internal/defra"
)

// Store is the persistence surface for question bank ingestion.
type Store interface {
	// FindBookByTitle returns the book's document ID, or "" when absent.
	FindBookByTitle(ctx context.Context, title string) (string, error)
	// FindChapter returns the chapter's document ID, or "" when absent.
	FindChapter(ctx context.Context, bookID, numberDisplay string) (string, error)
	// FindTopic returns the topic's document ID, or "" when absent.
	FindTopic(ctx context.Context, chapterID, topicXMLID string) (string, error)

	// LookupCodes returns the code -> document ID map for a lookup
	// collection (QuestionType, CognitiveLevel, DifficultyLevel).
	LookupCodes(ctx context.Context, collection string) (map[string]string, error)
	// UpsertLookup ensures a lookup row exists, returning its document ID.
	UpsertLookup(ctx context.Context, collection, code, label string) (string, error)

	CreateQuestion(ctx context.Context, doc map[string]any) (string, error)
	CreateMCQOptions(ctx context.Context, docs []map[string]any) error
	CreateAnswer(ctx context.Context, doc map[string]any) error
}

// DefraStore implements Store against DefraDB.
type DefraStore struct {
	client *defra.Client
}

// NewDefraStore creates a Store backed by the given DefraDB client.
func NewDefraStore(client *defra.Client) *DefraStore {
	return &DefraStore{client: client}
}

func (s *DefraStore) firstDocID(ctx context.Context, q *defra.QueryBuilder, collection string) (string, error) {
	resp, err := q.Execute(ctx, s.client)
	if err != nil {
		return "", fmt.Errorf("query %s: %w", collection, err)
	}
	if errMsg := resp.Error(); errMsg != "" {
		return "", fmt.Errorf("query %s: %s", collection, errMsg)
	}
	docs, _ := resp.Data[collection].([]any)
	if len(docs) == 0 {
		return "", nil
	}
	doc, ok := docs[0].(map[string]any)
	if !ok {
		return "", nil
	}
	id, _ := doc["_docID"].(string)
	return id, nil
}

func (s *DefraStore) FindBookByTitle(ctx context.Context, title string) (string, error) {
	return s.firstDocID(ctx, defra.NewQuery("Book").Filter("title", title).Limit(1), "Book")
}

func (s *DefraStore) FindChapter(ctx context.Context, bookID, numberDisplay string) (string, error) {
	return s.firstDocID(ctx,
		defra.NewQuery("Chapter").Filter("book_id", bookID).Filter("chapter_number_display", numberDisplay).Limit(1),
		"Chapter")
}

func (s *DefraStore) FindTopic(ctx context.Context, chapterID, topicXMLID string) (string, error) {
	return s.firstDocID(ctx,
		defra.NewQuery("Topic").Filter("chapter_id", chapterID).Filter("topic_xml_id", topicXMLID).Limit(1),
		"Topic")
}

func (s *DefraStore) LookupCodes(ctx context.Context, collection string) (map[string]string, error) {
	resp, err := defra.NewQuery(collection).
		Fields("_docID", "code").
		Execute(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	if errMsg := resp.Error(); errMsg != "" {
		return nil, fmt.Errorf("query %s: %s", collection, errMsg)
	}

	docs, _ := resp.Data[collection].([]any)
	codes := make(map[string]string, len(docs))
	for _, d := range docs {
		doc, ok := d.(map[string]any)
		if !ok {
			continue
		}
		code, _ := doc["code"].(string)
		id, _ := doc["_docID"].(string)
		if code != "" && id != "" {
			codes[code] = id
		}
	}
	return codes, nil
}

func (s *DefraStore) UpsertLookup(ctx context.Context, collection, code, label string) (string, error) {
	filter := map[string]any{"code": map[string]any{"_eq": code}}
	doc := map[string]any{"code": code, "label": label}
	return s.client.Upsert(ctx, collection, filter, doc, map[string]any{"label": label})
}

func (s *DefraStore) CreateQuestion(ctx context.Context, doc map[string]any) (string, error) {
	return s.client.Create(ctx, "Question", doc)
}

func (s *DefraStore) CreateMCQOptions(ctx context.Context, docs []map[string]any) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := s.client.CreateMany(ctx, "MCQOption", docs)
	return err
}

func (s *DefraStore) CreateAnswer(ctx context.Context, doc map[string]any) error {
	_, err := s.client.Create(ctx, "QuestionAnswer", doc)
	return err
}

var _ Store = (*DefraStore)(nil)
