package qbank

import (
	"context"
	"log/slog"
)

// Lookup collection names.
const (
	CollectionQuestionType    = "QuestionType"
	CollectionCognitiveLevel  = "CognitiveLevel"
	CollectionDifficultyLevel = "DifficultyLevel"
)

type lookupRow struct {
	Code  string
	Label string
}

// seedRows holds the lookup values question bank files reference by code.
var seedRows = map[string][]lookupRow{
	CollectionQuestionType: {
		{Code: "MCQ", Label: "Multiple Choice Question"},
		{Code: "SHORT", Label: "Short Answer"},
		{Code: "LONG", Label: "Long Answer"},
		{Code: "NUMERICAL", Label: "Numerical Problem"},
		{Code: "TRUE_FALSE", Label: "True / False"},
	},
	CollectionCognitiveLevel: {
		{Code: "K", Label: "Knowledge"},
		{Code: "U", Label: "Understanding"},
		{Code: "A", Label: "Application"},
		{Code: "AN", Label: "Analysis"},
		{Code: "E", Label: "Evaluation"},
	},
	CollectionDifficultyLevel: {
		{Code: "EASY", Label: "Easy"},
		{Code: "MEDIUM", Label: "Medium"},
		{Code: "HARD", Label: "Hard"},
	},
}

// Seed upserts the lookup rows for all three collections. Safe to run
// repeatedly.
func Seed(ctx context.Context, store Store, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for _, collection := range []string{CollectionQuestionType, CollectionCognitiveLevel, CollectionDifficultyLevel} {
		for _, row := range seedRows[collection] {
			if _, err := store.UpsertLookup(ctx, collection, row.Code, row.Label); err != nil {
				return err
			}
		}
		logger.Info("seeded lookup collection", "collection", collection, "rows", len(seedRows[collection]))
	}
	return nil
}
