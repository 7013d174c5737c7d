package ingest

import (
	"context"
	"fmt"

	"github.com/jackzampolin/tome/internal/defra"
	"github.com/jackzampolin/tome/internal/flatten"
)

// DefraStore implements Store against DefraDB.
type DefraStore struct {
	client *defra.Client
}

// NewDefraStore creates a Store backed by the given DefraDB client.
func NewDefraStore(client *defra.Client) *DefraStore {
	return &DefraStore{client: client}
}

// firstDocID runs a query and returns the first matching _docID, or "" when
// nothing matches.
func (s *DefraStore) firstDocID(ctx context.Context, q *defra.QueryBuilder, collection string) (string, error) {
	resp, err := q.Execute(ctx, s.client)
	if err != nil {
		return "", fmt.Errorf("query %s: %w", collection, err)
	}
	if errMsg := resp.Error(); errMsg != "" {
		return "", fmt.Errorf("query %s: %s", collection, errMsg)
	}
	docs, ok := resp.Data[collection].([]any)
	if !ok || len(docs) == 0 {
		return "", nil
	}
	doc, ok := docs[0].(map[string]any)
	if !ok {
		return "", nil
	}
	id, _ := doc["_docID"].(string)
	return id, nil
}

func (s *DefraStore) GetOrCreateBoard(ctx context.Context, name, country string) (string, error) {
	create := map[string]any{"board_name": name}
	if country != "" {
		create["country"] = country
	}
	return s.client.Upsert(ctx, "Board",
		eqFilter("board_name", name),
		create,
		map[string]any{"board_name": name})
}

func (s *DefraStore) GetOrCreateGrade(ctx context.Context, name string) (string, error) {
	doc := map[string]any{"grade_name": name}
	return s.client.Upsert(ctx, "Grade", eqFilter("grade_name", name), doc, doc)
}

func eqFilter(pairs ...string) map[string]any {
	filter := make(map[string]any, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		filter[pairs[i]] = map[string]any{"_eq": pairs[i+1]}
	}
	return filter
}

func (s *DefraStore) FindBookByISBN(ctx context.Context, isbn string) (string, error) {
	return s.firstDocID(ctx, defra.NewQuery("Book").Filter("isbn", isbn).Limit(1), "Book")
}

func (s *DefraStore) FindBookByTitleSubject(ctx context.Context, title, subject string) (string, error) {
	return s.firstDocID(ctx,
		defra.NewQuery("Book").Filter("title", title).Filter("subject", subject).Limit(1),
		"Book")
}

func (s *DefraStore) CreateBook(ctx context.Context, doc map[string]any) (string, error) {
	return s.client.Create(ctx, "Book", doc)
}

func (s *DefraStore) GetOrCreateChapter(ctx context.Context, bookID, numberDisplay, title string, order int) (string, error) {
	create := map[string]any{
		"book_id":                bookID,
		"chapter_number_display": numberDisplay,
		"title":                  title,
		"order_in_book":          order,
	}
	return s.client.Upsert(ctx, "Chapter",
		eqFilter("book_id", bookID, "chapter_number_display", numberDisplay),
		create,
		map[string]any{"title": title})
}

func (s *DefraStore) GetOrCreateTopic(ctx context.Context, chapterID, topicXMLID, title string, order int) (string, error) {
	create := map[string]any{
		"chapter_id":       chapterID,
		"topic_xml_id":     topicXMLID,
		"title":            title,
		"order_in_chapter": order,
	}
	return s.client.Upsert(ctx, "Topic",
		eqFilter("chapter_id", chapterID, "topic_xml_id", topicXMLID),
		create,
		map[string]any{"title": title})
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

func (s *DefraStore) ExistingSections(ctx context.Context, topicID string) ([]SectionInfo, error) {
	resp, err := defra.NewQuery("Section").
		Filter("topic_id", topicID).
		Fields("_docID", "section_type", "title", "order_in_topic").
		Execute(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	if errMsg := resp.Error(); errMsg != "" {
		return nil, fmt.Errorf("query sections: %s", errMsg)
	}

	docs, _ := resp.Data["Section"].([]any)
	sections := make([]SectionInfo, 0, len(docs))
	for _, d := range docs {
		doc, ok := d.(map[string]any)
		if !ok {
			continue
		}
		info := SectionInfo{}
		if v, ok := doc["_docID"].(string); ok {
			info.DocID = v
		}
		if v, ok := doc["section_type"].(string); ok {
			info.Type = v
		}
		if v, ok := doc["title"].(string); ok {
			info.Title = v
		}
		if v, ok := doc["order_in_topic"].(float64); ok {
			info.Order = int(v)
		}
		sections = append(sections, info)
	}
	return sections, nil
}

func (s *DefraStore) CreateSection(ctx context.Context, doc map[string]any) (string, error) {
	return s.client.Create(ctx, "Section", doc)
}

// DeleteSection removes a section with its content elements and list items.
func (s *DefraStore) DeleteSection(ctx context.Context, sectionID string) error {
	elementIDs, err := s.collectDocIDs(ctx, "ContentElement", "section_id", sectionID)
	if err != nil {
		return err
	}

	for _, elementID := range elementIDs {
		itemIDs, err := s.collectDocIDs(ctx, "ListItem", "element_id", elementID)
		if err != nil {
			return err
		}
		for _, itemID := range itemIDs {
			if err := s.client.Delete(ctx, "ListItem", itemID); err != nil {
				return fmt.Errorf("delete list item %s: %w", itemID, err)
			}
		}
		if err := s.client.Delete(ctx, "ContentElement", elementID); err != nil {
			return fmt.Errorf("delete element %s: %w", elementID, err)
		}
	}

	if err := s.client.Delete(ctx, "Section", sectionID); err != nil {
		return fmt.Errorf("delete section %s: %w", sectionID, err)
	}
	return nil
}

func (s *DefraStore) collectDocIDs(ctx context.Context, collection, field, value string) ([]string, error) {
	resp, err := defra.NewQuery(collection).Filter(field, value).Execute(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	if errMsg := resp.Error(); errMsg != "" {
		return nil, fmt.Errorf("query %s: %s", collection, errMsg)
	}
	docs, _ := resp.Data[collection].([]any)
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		if doc, ok := d.(map[string]any); ok {
			if id, ok := doc["_docID"].(string); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// InsertRows persists flattened rows as content elements, then their list
// items in a single batch keyed by the created element IDs.
func (s *DefraStore) InsertRows(ctx context.Context, sectionID string, rows []flatten.Row) (int, int, error) {
	if len(rows) == 0 {
		return 0, 0, nil
	}

	inputs := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		doc := map[string]any{
			"section_id":       sectionID,
			"element_type":     row.ElementType,
			"order_in_section": row.Order,
		}
		if row.Text != "" {
			doc["text_content"] = row.Text
		}
		if row.XMLID != "" {
			doc["xml_id"] = row.XMLID
		}
		if row.Title != "" {
			doc["title_attribute"] = row.Title
		}
		if row.Level != "" {
			doc["level_attribute"] = row.Level
		}
		if row.Type != "" {
			doc["type_attribute"] = row.Type
		}
		inputs = append(inputs, doc)
	}

	// order_in_section comes back with each element so rows can be matched to
	// their created IDs regardless of return order.
	results, err := s.client.CreateMany(ctx, "ContentElement", inputs, "order_in_section")
	if err != nil {
		return 0, 0, fmt.Errorf("create elements: %w", err)
	}

	idByOrder := make(map[int]string, len(results))
	for _, r := range results {
		if v, ok := r.Fields["order_in_section"].(float64); ok {
			idByOrder[int(v)] = r.DocID
		}
	}

	var itemInputs []map[string]any
	for _, row := range rows {
		if len(row.Items) == 0 {
			continue
		}
		elementID, ok := idByOrder[row.Order]
		if !ok {
			return len(results), 0, fmt.Errorf("no element ID for row order %d", row.Order)
		}
		for _, item := range row.Items {
			itemInputs = append(itemInputs, map[string]any{
				"element_id":    elementID,
				"item_text":     item.Text,
				"order_in_list": item.Order,
			})
		}
	}

	if len(itemInputs) > 0 {
		if _, err := s.client.CreateMany(ctx, "ListItem", itemInputs); err != nil {
			return len(results), 0, fmt.Errorf("create list items: %w", err)
		}
	}

	return len(results), len(itemInputs), nil
}

func (s *DefraStore) RecordRun(ctx context.Context, doc map[string]any) error {
	_, err := s.client.Create(ctx, "IngestRun", doc)
	return err
}

var _ Store = (*DefraStore)(nil)
