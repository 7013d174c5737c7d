// Package flatten turns section elements into ordered content rows.
//
// Row production is pure: a section element goes in, a slice of typed rows
// comes out, with order assigned from document position. Persistence lives
// with the caller so the dispatch logic stays testable without a store.
package flatten

import (
	"fmt"
	"strings"

	"github.com/jackzampolin/tome/internal/textfmt"
	"github.com/jackzampolin/tome/internal/types"
	"github.com/jackzampolin/tome/internal/xmldoc"
)

// Row is one content_elements record in the flattened model.
type Row struct {
	ElementType string
	Order       int // 1-based order_in_section
	Text        string
	XMLID       string
	Title       string
	Level       string
	Type        string
	Items       []Item // list_items attached to this row
}

// Item is one list_items record under a row.
type Item struct {
	Text  string
	Order int // 1-based order_in_list
}

// containerTags are standard content wrappers that become <TAG>_CONTAINER-less
// uppercase rows with paragraph children.
var containerTags = map[string]bool{
	"analogy":            true,
	"example":            true,
	"connection_item":    true,
	"fun_fact":           true,
	"interactive_prompt": true,
}

// memoryTechniqueTags are the recognized memory-technique subsection tags.
var memoryTechniqueTags = map[string]bool{
	"visual_mnemonics":          true,
	"acronyms_acrostics":        true,
	"story_method":              true,
	"memory_palace":             true,
	"keyword_associations":      true,
	"rhymes_rhythms":            true,
	"number_shape_associations": true,
}

// enhancedMemoryTags extend memoryTechniqueTags inside MEMORY_TECHNIQUES
// sections.
var enhancedMemoryTags = map[string]bool{
	"practice_instructions": true,
	"effectiveness_ranking": true,
	"digital_integration":   true,
}

// questionPatterns map tag-name substrings to question kinds, checked in
// order.
var questionPatterns = []struct {
	kind     types.QuestionKind
	patterns []string
}{
	{types.QuestionMCQ, []string{"multiple_choice", "mcq", "choice_question"}},
	{types.QuestionFillBlanks, []string{"fill_in_blanks", "fill_blanks", "blanks"}},
	{types.QuestionShortAnswer, []string{"short_answer", "short_qa", "brief_answer"}},
	{types.QuestionLongAnswer, []string{"long_answer", "detailed_answer", "essay"}},
	{types.QuestionTrueFalse, []string{"true_false", "tf_question", "boolean"}},
}

// Section produces the rows for a section element. sectionType routes to
// the question-bank or memory-technique processors; anything else uses the
// standard dispatch table.
func Section(el *xmldoc.Element, sectionType string) []Row {
	b := &builder{}
	switch sectionType {
	case "QUESTION_BANK", "MCQ_BANK", "EXERCISE_BANK":
		b.questionBank(el)
	case string(types.SectionMemoryTechniques):
		b.memoryTechniques(el)
	default:
		b.standard(el)
	}
	return b.rows
}

type builder struct {
	rows []Row
}

// add appends a row, assigning the next order, and returns a pointer to it
// so list items can be attached.
func (b *builder) add(r Row) *Row {
	r.Order = len(b.rows) + 1
	b.rows = append(b.rows, r)
	return &b.rows[len(b.rows)-1]
}

// standard is the dispatch table for regular content sections.
func (b *builder) standard(section *xmldoc.Element) {
	if section == nil {
		return
	}
	for _, child := range section.Children {
		tag := strings.ToLower(child.Tag)
		title := child.Attr("title", "")
		xmlID := child.Attr("id", "")
		level := child.Attr("level", "")
		typ := child.Attr("type", "")

		switch {
		case tag == "definition_content" || tag == "explanation_content":
			for _, para := range child.ChildrenByTag("paragraph") {
				b.add(Row{ElementType: "PARAGRAPH", Text: textfmt.Format(para)})
			}

		case containerTags[tag]:
			// Remember the index rather than the row pointer: paragraph rows
			// are appended below and may regrow the slice.
			idx := len(b.rows)
			b.add(Row{
				ElementType: strings.ToUpper(tag),
				XMLID:       xmlID,
				Title:       title,
				Level:       level,
				Type:        typ,
			})
			var items []Item
			for _, inner := range child.Children {
				switch strings.ToLower(inner.Tag) {
				case "paragraph":
					b.add(Row{ElementType: "PARAGRAPH", Text: textfmt.Format(inner)})
				case "list":
					items = appendItems(items, inner)
				}
			}
			b.rows[idx].Items = items

		case tag == "key_points":
			container := b.add(Row{
				ElementType: "KEY_POINTS_CONTAINER",
				Title:       title,
				Type:        typ,
			})
			for _, point := range child.ChildrenByTag("point") {
				container.Items = append(container.Items, Item{
					Text:  textfmt.Format(point),
					Order: len(container.Items) + 1,
				})
			}

		case tag == "exercise_block":
			b.exerciseBlock(child)

		case tag == "paragraph":
			b.add(Row{ElementType: "PARAGRAPH", Text: textfmt.Format(child), Type: typ})

		case tag == "list":
			b.listContainer(child, title)

		case memoryTechniqueTags[tag]:
			b.memoryTechniqueSubsection(child, tag)

		default:
			b.generic(child)
		}
	}
}

// appendItems appends a <list> element's items to dst, continuing the
// order sequence.
func appendItems(dst []Item, list *xmldoc.Element) []Item {
	for _, item := range list.ChildrenByTag("item") {
		dst = append(dst, Item{
			Text:  textfmt.Format(item),
			Order: len(dst) + 1,
		})
	}
	return dst
}

// listContainer emits a LIST_<TYPE>_CONTAINER row carrying the list's items.
func (b *builder) listContainer(list *xmldoc.Element, title string) {
	listType := list.Attr("type", "unordered")
	row := b.add(Row{
		ElementType: "LIST_" + strings.ToUpper(listType) + "_CONTAINER",
		Title:       title,
		Type:        listType,
	})
	row.Items = appendItems(nil, list)
}

// exerciseBlock emits header/question/answer rows per exercise.
func (b *builder) exerciseBlock(block *xmldoc.Element) {
	for _, ex := range block.ChildrenByTag("exercise") {
		id := ex.Attr("id", "")
		level := ex.Attr("level", "")
		title := ex.Attr("title", "")
		if title == "" {
			displayLevel := level
			if displayLevel == "" {
				displayLevel = "N/A"
			}
			title = strings.TrimSpace(fmt.Sprintf("Exercise %s (%s)", id, displayLevel))
		}
		b.add(Row{
			ElementType: "EXERCISE_HEADER",
			XMLID:       id,
			Title:       title,
			Level:       level,
		})

		if q := ex.Child("question"); q != nil {
			row := b.add(Row{ElementType: "QUESTION", Text: textfmt.Format(q)})
			for _, list := range q.ChildrenByTag("list") {
				row.Items = appendItems(row.Items, list)
			}
		}
		if ans := ex.Child("answer"); ans != nil {
			b.add(Row{ElementType: "ANSWER", Text: textfmt.Format(ans)})
		}
		if fw := ex.Child("answer_framework"); fw != nil {
			b.add(Row{ElementType: "ANSWER_FRAMEWORK", Text: textfmt.Format(fw)})
		}
	}
}

// generic handles unknown tags: a single row when the element carries text,
// a title, or an id, plus a container row per direct child list.
func (b *builder) generic(el *xmldoc.Element) {
	tag := strings.ToLower(el.Tag)

	// Text is the element's own text plus tails of non-list children; child
	// bodies are handled by their own rows when recognized.
	var parts []string
	if t := strings.TrimSpace(el.Text); t != "" {
		parts = append(parts, t)
	}
	for _, child := range el.Children {
		if strings.ToLower(child.Tag) == "list" {
			continue
		}
		if t := strings.TrimSpace(child.Tail); t != "" {
			parts = append(parts, t)
		}
	}
	text := strings.TrimSpace(strings.Join(parts, " "))

	title := el.Attr("title", "")
	xmlID := el.Attr("id", "")

	if text != "" || title != "" || xmlID != "" {
		b.add(Row{
			ElementType: strings.ReplaceAll(strings.ToUpper(tag), "-", "_"),
			Text:        text,
			XMLID:       xmlID,
			Title:       title,
			Level:       el.Attr("level", ""),
			Type:        el.Attr("type", ""),
		})
	}

	for _, list := range el.ChildrenByTag("list") {
		b.listContainer(list, "List")
	}
}

// memoryTechniques processes a MEMORY_TECHNIQUES section.
func (b *builder) memoryTechniques(section *xmldoc.Element) {
	if section == nil {
		return
	}
	for _, child := range section.Children {
		tag := strings.ToLower(child.Tag)
		if memoryTechniqueTags[tag] || enhancedMemoryTags[tag] {
			b.memoryTechniqueSubsection(child, tag)
		} else {
			b.generic(child)
		}
	}
}

// memoryTechniqueSubsection emits a <TAG>_CONTAINER row followed by one
// <TAG>_ITEM row per item, with paragraph bodies newline-joined.
func (b *builder) memoryTechniqueSubsection(sub *xmldoc.Element, tag string) {
	b.add(Row{
		ElementType: strings.ToUpper(tag) + "_CONTAINER",
		Title:       titleCase(tag),
	})

	for _, item := range sub.Children {
		itemTitle := item.Attr("title", "")
		if itemTitle == "" {
			itemTitle = item.Attr("id", "")
		}

		var parts []string
		for _, child := range item.Children {
			if strings.ToLower(child.Tag) == "paragraph" {
				parts = append(parts, textfmt.Format(child))
			} else if t := strings.TrimSpace(child.Text); t != "" {
				parts = append(parts, t)
			}
		}
		text := strings.Join(parts, "\n")

		if text != "" || itemTitle != "" {
			b.add(Row{
				ElementType: strings.ToUpper(tag) + "_ITEM",
				Text:        text,
				Title:       itemTitle,
			})
		}
	}
}

// questionBank processes QUESTION_BANK/MCQ_BANK/EXERCISE_BANK sections.
func (b *builder) questionBank(section *xmldoc.Element) {
	if section == nil {
		return
	}
	for _, child := range section.Children {
		tag := strings.ToLower(child.Tag)
		if strings.Contains(tag, "question") || strings.Contains(tag, "mcq") || strings.Contains(tag, "exercise") {
			b.question(child, DetectQuestionType(child))
		} else {
			b.generic(child)
		}
	}
}

// question emits the header plus kind-specific rows for one question.
func (b *builder) question(q *xmldoc.Element, kind types.QuestionKind) {
	id := q.Attr("id", "")
	if id == "" {
		id = fmt.Sprintf("q_%d", len(b.rows)+1)
	}
	title := q.Attr("title", "")
	if title == "" {
		title = fmt.Sprintf("%s Question %s", kind, id)
	}
	b.add(Row{
		ElementType: string(kind) + "_HEADER",
		XMLID:       id,
		Title:       title,
		Type:        string(kind),
	})

	switch kind {
	case types.QuestionMCQ:
		b.mcq(q)
	case types.QuestionFillBlanks:
		b.fillBlanks(q)
	case types.QuestionTrueFalse:
		b.trueFalse(q)
	default:
		b.genericQuestion(q)
	}
}

func (b *builder) mcq(q *xmldoc.Element) {
	if text := descendant(q, "question", "text"); text != nil {
		b.add(Row{ElementType: "MCQ_QUESTION", Text: textfmt.Format(text)})
	}

	choices := descendant(q, "choices", "options")
	if choices == nil {
		choices = q
	}
	container := b.add(Row{ElementType: "MCQ_CHOICES_CONTAINER"})
	opts := choices.Iter("choice")
	if len(opts) == 0 {
		opts = choices.Iter("option")
	}
	for _, choice := range opts {
		if choice == choices {
			continue
		}
		text := textfmt.Format(choice)
		if strings.EqualFold(choice.Attr("correct", "false"), "true") {
			text = "[CORRECT] " + text
		}
		container.Items = append(container.Items, Item{Text: text, Order: len(container.Items) + 1})
	}

	if ans := descendant(q, "answer", "explanation"); ans != nil {
		b.add(Row{ElementType: "MCQ_ANSWER", Text: textfmt.Format(ans)})
	}
}

func (b *builder) fillBlanks(q *xmldoc.Element) {
	if text := descendant(q, "question", "text"); text != nil {
		b.add(Row{ElementType: "FILL_BLANKS_QUESTION", Text: textfmt.Format(text)})
	}
	if ans := descendant(q, "answers", "answer"); ans != nil {
		b.add(Row{ElementType: "FILL_BLANKS_ANSWERS", Text: textfmt.Format(ans)})
	}
}

func (b *builder) trueFalse(q *xmldoc.Element) {
	if text := descendant(q, "question", "statement"); text != nil {
		b.add(Row{ElementType: "TRUE_FALSE_QUESTION", Text: textfmt.Format(text)})
	}
	if ans := descendant(q, "answer", "correct"); ans != nil {
		value := ans.Attr("value", "")
		if value == "" {
			value = textfmt.Format(ans)
		}
		b.add(Row{
			ElementType: "TRUE_FALSE_ANSWER",
			Text:        "Correct Answer: " + strings.ToUpper(value),
		})
	}
}

func (b *builder) genericQuestion(q *xmldoc.Element) {
	if text := descendant(q, "question"); text != nil {
		row := b.add(Row{ElementType: "QUESTION", Text: textfmt.Format(text)})
		for _, list := range text.ChildrenByTag("list") {
			row.Items = appendItems(row.Items, list)
		}
	}
	if ans := descendant(q, "answer"); ans != nil {
		b.add(Row{ElementType: "ANSWER", Text: textfmt.Format(ans)})
	}
}

// DetectQuestionType classifies a question element: explicit type attribute,
// then tag-name patterns, then structural sniffing.
func DetectQuestionType(el *xmldoc.Element) types.QuestionKind {
	if t := el.Attr("type", ""); t != "" {
		return types.QuestionKind(strings.ToUpper(t))
	}

	tag := strings.ToLower(el.Tag)
	for _, entry := range questionPatterns {
		for _, p := range entry.patterns {
			if strings.Contains(tag, p) {
				return entry.kind
			}
		}
	}

	if descendant(el, "choice", "option") != nil {
		return types.QuestionMCQ
	}
	if descendant(el, "blank") != nil || strings.Contains(el.Text, "_____") {
		return types.QuestionFillBlanks
	}
	if descendant(el, "true", "false") != nil {
		return types.QuestionTrueFalse
	}

	return types.QuestionGeneric
}

// DetectSectionType sniffs a section's child tags to classify its content.
func DetectSectionType(el *xmldoc.Element) types.SectionType {
	var tags []string
	tagSet := make(map[string]bool)
	for _, child := range el.Children {
		tag := strings.ToLower(child.Tag)
		tags = append(tags, tag)
		tagSet[tag] = true
	}
	joined := strings.Join(tags, " ")

	for _, ind := range []string{"question", "mcq", "exercise", "problem", "quiz"} {
		if strings.Contains(joined, ind) {
			return types.SectionQuestionBank
		}
	}
	for _, ind := range []string{"visual_mnemonics", "acronyms", "story_method", "memory_palace"} {
		if tagSet[ind] {
			return types.SectionMemoryTechniques
		}
	}
	for _, ind := range []string{"definition", "explanation", "example", "analogy"} {
		if strings.Contains(joined, ind) {
			return types.SectionCoreContent
		}
	}
	for _, ind := range []string{"assessment", "test", "exam", "evaluation"} {
		if strings.Contains(joined, ind) {
			return types.SectionAssessment
		}
	}
	return types.SectionContent
}

// descendant returns the first descendant (excluding el itself) matching any
// of the tags, trying each tag in order.
func descendant(el *xmldoc.Element, tags ...string) *xmldoc.Element {
	for _, tag := range tags {
		for _, n := range el.Iter(tag) {
			if n != el {
				return n
			}
		}
	}
	return nil
}

// titleCase turns "visual_mnemonics" into "Visual Mnemonics".
func titleCase(tag string) string {
	words := strings.Split(tag, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
