// Package qbank ingests question bank JSON files into the document store.
// A file carries a meta block naming the target topic and a qs array of
// questions; MCQ questions produce option rows, long-form questions produce
// an answer row.
package qbank

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// File is a question bank document.
type File struct {
	Meta Meta       `json:"meta"`
	Qs   []Question `json:"qs"`
}

// Meta identifies the topic all questions in the file belong to.
// ChapNum is untyped because source files carry it as either a number
// or a string.
type Meta struct {
	Book     string `json:"book"`
	ChapNum  any    `json:"chap_num"`
	TopicNum string `json:"topic_num"`
}

// ChapterNumber returns the chapter number as a display string.
func (m Meta) ChapterNumber() string {
	switch n := m.ChapNum.(type) {
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(n)
	}
}

// Question is one entry in the qs array.
type Question struct {
	QType     string        `json:"q_type"`
	CogLvl    string        `json:"cog_lvl"`
	Diff      string        `json:"diff"`
	QText     string        `json:"q_txt"`
	Marks     int           `json:"marks"`
	Tags      []string      `json:"tags"`
	Keywords  []string      `json:"keywords"`
	YrApp     *int          `json:"yr_app"`
	ExamRef   []string      `json:"exam_ref"`
	IsImp     bool          `json:"is_imp"`
	IsFreq    bool          `json:"is_freq"`
	Opts      []Option      `json:"opts"`
	AnsExp    string        `json:"ans_exp"`
	AnsDetail *AnswerDetail `json:"ans_detail"`
}

// Option is one MCQ choice.
type Option struct {
	Txt     string `json:"txt"`
	Correct bool   `json:"correct"`
}

// AnswerDetail is the model answer for LONG, SHORT and NUMERICAL questions.
type AnswerDetail struct {
	Txt string `json:"txt"`
	Exp string `json:"exp"`
}

// LoadFile parses a question bank JSON file. Both the meta block and the
// qs array must be present.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if f.Meta.Book == "" || f.Meta.TopicNum == "" {
		return nil, fmt.Errorf("%s: meta block missing book or topic_num", path)
	}
	if len(f.Qs) == 0 {
		return nil, fmt.Errorf("%s: no questions in qs array", path)
	}
	return &f, nil
}
