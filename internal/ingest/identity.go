package ingest

import (
	"context"
	"fmt"
	"log/slog"
)

// Resolver implements get-or-create identity resolution for the book
// hierarchy. Re-running an ingest never duplicates boards, grades, books,
// chapters, or topics.
type Resolver struct {
	store  Store
	logger *slog.Logger
}

// NewResolver creates a resolver over the given store.
func NewResolver(store Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, logger: logger}
}

// ResolveBook finds the book by ISBN, then by title+subject, and creates it
// (with its board and grade) when neither matches.
func (r *Resolver) ResolveBook(ctx context.Context, meta BookMeta) (string, error) {
	if meta.ISBN != "" {
		id, err := r.store.FindBookByISBN(ctx, meta.ISBN)
		if err != nil {
			return "", err
		}
		if id != "" {
			r.logger.Info("found existing book by ISBN", "book_id", id)
			return id, nil
		}
	}

	id, err := r.store.FindBookByTitleSubject(ctx, meta.Title, meta.Subject)
	if err != nil {
		return "", err
	}
	if id != "" {
		r.logger.Info("found existing book by title+subject", "book_id", id)
		return id, nil
	}

	boardID, err := r.store.GetOrCreateBoard(ctx, meta.BoardName, meta.Country)
	if err != nil {
		return "", fmt.Errorf("resolving board: %w", err)
	}
	gradeID, err := r.store.GetOrCreateGrade(ctx, meta.GradeName)
	if err != nil {
		return "", fmt.Errorf("resolving grade: %w", err)
	}

	language := meta.Language
	if language == "" {
		language = "English"
	}
	doc := map[string]any{
		"title":    meta.Title,
		"subject":  meta.Subject,
		"language": language,
		"board_id": boardID,
		"grade_id": gradeID,
	}
	if meta.ISBN != "" {
		doc["isbn"] = meta.ISBN
	}

	id, err = r.store.CreateBook(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("creating book: %w", err)
	}
	r.logger.Info("created new book", "book_id", id, "title", meta.Title)
	return id, nil
}

// ResolveChapter upserts a chapter on its (book, chapter_number_display)
// natural key.
func (r *Resolver) ResolveChapter(ctx context.Context, bookID, numberDisplay, title string, order int) (string, error) {
	id, err := r.store.GetOrCreateChapter(ctx, bookID, numberDisplay, title, order)
	if err != nil {
		return "", fmt.Errorf("resolving chapter %s: %w", numberDisplay, err)
	}
	r.logger.Debug("resolved chapter", "chapter_id", id, "number", numberDisplay)
	return id, nil
}

// ResolveTopic upserts a topic on its (chapter, topic_xml_id) natural key.
func (r *Resolver) ResolveTopic(ctx context.Context, chapterID, topicXMLID, title string, order int) (string, error) {
	id, err := r.store.GetOrCreateTopic(ctx, chapterID, topicXMLID, title, order)
	if err != nil {
		return "", fmt.Errorf("resolving topic %s: %w", topicXMLID, err)
	}
	r.logger.Debug("resolved topic", "topic_id", id, "xml_id", topicXMLID)
	return id, nil
}

// LookupTopic resolves an existing topic by book, chapter number, and topic
// XML ID. It never creates; "" means not found.
func (r *Resolver) LookupTopic(ctx context.Context, bookID, chapterNumber, topicXMLID string) (string, error) {
	chapterID, err := r.store.FindChapter(ctx, bookID, chapterNumber)
	if err != nil {
		return "", err
	}
	if chapterID == "" {
		return "", nil
	}
	return r.store.FindTopic(ctx, chapterID, topicXMLID)
}
