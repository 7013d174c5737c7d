package qbank

import (
	"context"
	"fmt"
	"log/slog"
)

// Stats counts what a question bank ingestion did.
type Stats struct {
	Questions int `json:"questions"`
	Options   int `json:"options"`
	Answers   int `json:"answers"`
	Failed    int `json:"failed"`
}

// Ingester loads question bank files into the store.
type Ingester struct {
	store  Store
	logger *slog.Logger
}

// NewIngester creates an Ingester.
func NewIngester(store Store, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{store: store, logger: logger}
}

// Run ingests the question bank file at path. All questions attach to the
// topic named by the file's meta block; a question that fails is logged
// and skipped without aborting the rest.
func (ing *Ingester) Run(ctx context.Context, path string) (*Stats, error) {
	file, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	topicID, err := ing.resolveTopic(ctx, file.Meta)
	if err != nil {
		return nil, err
	}

	lookups, err := ing.loadLookups(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	for i, q := range file.Qs {
		if err := ing.ingestQuestion(ctx, topicID, q, lookups, stats); err != nil {
			ing.logger.Warn("question failed", "index", i+1, "text", truncate(q.QText, 50), "error", err)
			stats.Failed++
		}
	}

	ing.logger.Info("question bank ingested",
		"file", path, "topic_id", topicID,
		"questions", stats.Questions, "options", stats.Options,
		"answers", stats.Answers, "failed", stats.Failed)
	return stats, nil
}

// resolveTopic walks book title -> chapter number -> topic xml id.
func (ing *Ingester) resolveTopic(ctx context.Context, meta Meta) (string, error) {
	bookID, err := ing.store.FindBookByTitle(ctx, meta.Book)
	if err != nil {
		return "", err
	}
	if bookID == "" {
		return "", fmt.Errorf("book %q not found", meta.Book)
	}

	chapterID, err := ing.store.FindChapter(ctx, bookID, meta.ChapterNumber())
	if err != nil {
		return "", err
	}
	if chapterID == "" {
		return "", fmt.Errorf("chapter %q of book %q not found", meta.ChapterNumber(), meta.Book)
	}

	topicID, err := ing.store.FindTopic(ctx, chapterID, meta.TopicNum)
	if err != nil {
		return "", err
	}
	if topicID == "" {
		return "", fmt.Errorf("topic %q of chapter %q not found", meta.TopicNum, meta.ChapterNumber())
	}
	return topicID, nil
}

type lookupCaches struct {
	questionTypes   map[string]string
	cognitiveLevels map[string]string
	difficulties    map[string]string
}

func (ing *Ingester) loadLookups(ctx context.Context) (*lookupCaches, error) {
	qt, err := ing.store.LookupCodes(ctx, CollectionQuestionType)
	if err != nil {
		return nil, err
	}
	cl, err := ing.store.LookupCodes(ctx, CollectionCognitiveLevel)
	if err != nil {
		return nil, err
	}
	dl, err := ing.store.LookupCodes(ctx, CollectionDifficultyLevel)
	if err != nil {
		return nil, err
	}
	if len(qt) == 0 {
		return nil, fmt.Errorf("no question types found, run qbank seed first")
	}
	return &lookupCaches{questionTypes: qt, cognitiveLevels: cl, difficulties: dl}, nil
}

func (ing *Ingester) ingestQuestion(ctx context.Context, topicID string, q Question, lookups *lookupCaches, stats *Stats) error {
	doc := map[string]any{
		"topic_id":              topicID,
		"question_text":         q.QText,
		"marks":                 q.Marks,
		"is_important_for_exam": q.IsImp,
		"is_frequently_asked":   q.IsFreq,
	}
	if id := lookups.questionTypes[q.QType]; id != "" {
		doc["question_type_id"] = id
	}
	if id := lookups.cognitiveLevels[q.CogLvl]; id != "" {
		doc["cognitive_level_id"] = id
	}
	if id := lookups.difficulties[q.Diff]; id != "" {
		doc["difficulty_level_id"] = id
	}
	if len(q.Tags) > 0 {
		doc["tags"] = q.Tags
	}
	if len(q.Keywords) > 0 {
		doc["keywords"] = q.Keywords
	}
	if len(q.ExamRef) > 0 {
		doc["exam_references"] = q.ExamRef
	}
	if q.YrApp != nil {
		doc["year_appeared"] = *q.YrApp
	}

	questionID, err := ing.store.CreateQuestion(ctx, doc)
	if err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	stats.Questions++

	switch q.QType {
	case "MCQ":
		options := make([]map[string]any, 0, len(q.Opts))
		for i, opt := range q.Opts {
			option := map[string]any{
				"question_id":   questionID,
				"option_letter": string(rune('A' + i)),
				"option_text":   opt.Txt,
				"is_correct":    opt.Correct,
			}
			// The answer explanation only attaches to wrong choices.
			if !opt.Correct && q.AnsExp != "" {
				option["explanation_if_wrong"] = q.AnsExp
			}
			options = append(options, option)
		}
		if err := ing.store.CreateMCQOptions(ctx, options); err != nil {
			return fmt.Errorf("create options: %w", err)
		}
		stats.Options += len(options)

	case "LONG", "SHORT", "NUMERICAL":
		if q.AnsDetail == nil {
			return nil
		}
		answer := map[string]any{
			"question_id": questionID,
			"answer_text": q.AnsDetail.Txt,
			"total_marks": q.Marks,
		}
		if q.AnsDetail.Exp != "" {
			answer["explanation"] = q.AnsDetail.Exp
		}
		if err := ing.store.CreateAnswer(ctx, answer); err != nil {
			return fmt.Errorf("create answer: %w", err)
		}
		stats.Answers++
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
