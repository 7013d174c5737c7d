// Package types holds shared domain types used across ingestion, flattening,
// and export. It has no dependencies on other internal packages.
package types

import (
	"fmt"
	"strings"
)

// SectionType classifies a section by the kind of content it carries.
// Detected by sniffing child tags when the XML does not declare a type.
type SectionType string

const (
	SectionQuestionBank     SectionType = "QUESTION_BANK"
	SectionMemoryTechniques SectionType = "MEMORY_TECHNIQUES"
	SectionCoreContent      SectionType = "CORE_CONTENT"
	SectionAssessment       SectionType = "ASSESSMENT"
	SectionContent          SectionType = "CONTENT"
)

// ConflictPolicy decides what happens when an incoming section collides with
// an existing section of the same type in a topic.
type ConflictPolicy string

const (
	ConflictReplace ConflictPolicy = "replace"
	ConflictAppend  ConflictPolicy = "append"
	ConflictSkip    ConflictPolicy = "skip"
	ConflictUpdate  ConflictPolicy = "update"
)

// ParseConflictPolicy parses a user-supplied policy string.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch ConflictPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case ConflictReplace:
		return ConflictReplace, nil
	case ConflictAppend:
		return ConflictAppend, nil
	case ConflictSkip:
		return ConflictSkip, nil
	case ConflictUpdate:
		return ConflictUpdate, nil
	default:
		return "", fmt.Errorf("unknown conflict policy: %q", s)
	}
}

// Outcome is the result of processing one section. Exactly one outcome is
// produced per section; failures carry a reason instead of aborting the run.
type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeReplaced Outcome = "replaced"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// SectionResult pairs a section identifier with its processing outcome.
type SectionResult struct {
	SectionXMLID string  `json:"section_xml_id"`
	Title        string  `json:"title,omitempty"`
	Type         SectionType `json:"type"`
	Outcome      Outcome `json:"outcome"`
	Reason       string  `json:"reason,omitempty"`
	DocID        string  `json:"doc_id,omitempty"`
}

// QuestionKind classifies a question inside a question-bank section.
type QuestionKind string

const (
	QuestionMCQ         QuestionKind = "MCQ"
	QuestionFillBlanks  QuestionKind = "FILL_BLANKS"
	QuestionShortAnswer QuestionKind = "SHORT_ANSWER"
	QuestionLongAnswer  QuestionKind = "LONG_ANSWER"
	QuestionTrueFalse   QuestionKind = "TRUE_FALSE"
	QuestionGeneric     QuestionKind = "GENERIC_QUESTION"
)

// RunStats counts what a single ingest run did.
type RunStats struct {
	Chapters         int `json:"chapters"`
	Topics           int `json:"topics"`
	SectionsCreated  int `json:"sections_created"`
	SectionsReplaced int `json:"sections_replaced"`
	SectionsSkipped  int `json:"sections_skipped"`
	SectionsFailed   int `json:"sections_failed"`
	Elements         int `json:"elements"`
	ListItems        int `json:"list_items"`
}

// Add merges another set of counters into s.
func (s *RunStats) Add(o RunStats) {
	s.Chapters += o.Chapters
	s.Topics += o.Topics
	s.SectionsCreated += o.SectionsCreated
	s.SectionsReplaced += o.SectionsReplaced
	s.SectionsSkipped += o.SectionsSkipped
	s.SectionsFailed += o.SectionsFailed
	s.Elements += o.Elements
	s.ListItems += o.ListItems
}

// Record tallies a single section outcome.
func (s *RunStats) Record(out Outcome) {
	switch out {
	case OutcomeCreated:
		s.SectionsCreated++
	case OutcomeReplaced:
		s.SectionsReplaced++
	case OutcomeSkipped:
		s.SectionsSkipped++
	case OutcomeFailed:
		s.SectionsFailed++
	}
}
