// Package ingest drives XML textbook ingestion: identity resolution for the
// book hierarchy, section conflict resolution, and persistence of flattened
// content rows.
package ingest

import (
	"context"

	"github.com/jackzampolin/tome/internal/flatten"
)

// BookMeta identifies the book being ingested. Lookup prefers ISBN, then
// title+subject; board and grade are only created when the book is.
type BookMeta struct {
	Title     string
	Subject   string
	ISBN      string
	Language  string
	BoardName string
	Country   string
	GradeName string
}

// SectionInfo describes an existing section row in a topic.
type SectionInfo struct {
	DocID string
	Type  string
	Title string
	Order int
}

// Store is the persistence surface the ingester needs. The production
// implementation writes to DefraDB; tests substitute a fake. Get-or-create
// methods are atomic upserts on the natural key, so concurrent ingests of
// the same hierarchy cannot race into duplicates.
type Store interface {
	// Board/grade/book identity
	GetOrCreateBoard(ctx context.Context, name, country string) (string, error)
	GetOrCreateGrade(ctx context.Context, name string) (string, error)
	FindBookByISBN(ctx context.Context, isbn string) (string, error)
	FindBookByTitleSubject(ctx context.Context, title, subject string) (string, error)
	CreateBook(ctx context.Context, doc map[string]any) (string, error)

	// Chapter/topic identity
	GetOrCreateChapter(ctx context.Context, bookID, numberDisplay, title string, order int) (string, error)
	GetOrCreateTopic(ctx context.Context, chapterID, topicXMLID, title string, order int) (string, error)
	FindChapter(ctx context.Context, bookID, numberDisplay string) (string, error)
	FindTopic(ctx context.Context, chapterID, topicXMLID string) (string, error)

	// Sections and content
	ExistingSections(ctx context.Context, topicID string) ([]SectionInfo, error)
	CreateSection(ctx context.Context, doc map[string]any) (string, error)
	DeleteSection(ctx context.Context, sectionID string) error
	InsertRows(ctx context.Context, sectionID string, rows []flatten.Row) (elements, items int, err error)

	// Run bookkeeping
	RecordRun(ctx context.Context, doc map[string]any) error
}
