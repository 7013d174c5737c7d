package ingest

import (
	"context"
	"fmt"

	"github.com/jackzampolin/tome/internal/types"
	"github.com/jackzampolin/tome/internal/xmldoc"
)

// AddSectionFile ingests a single <section> file into an existing topic,
// addressed by book, chapter number, and topic XML ID. The section is
// appended after the topic's last section unless conflict resolution reuses
// an existing slot.
func (ing *Ingester) AddSectionFile(ctx context.Context, path, bookID, chapterNumber, topicXMLID string, override types.ConflictPolicy) (*Result, error) {
	doc, err := xmldoc.LoadRecover(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if doc.Root.Tag != "section" {
		return nil, fmt.Errorf("%s: root element is <%s>, expected <section>", path, doc.Root.Tag)
	}

	topicID, err := ing.resolver.LookupTopic(ctx, bookID, chapterNumber, topicXMLID)
	if err != nil {
		return nil, err
	}
	if topicID == "" {
		return nil, fmt.Errorf("topic %s not found in chapter %s", topicXMLID, chapterNumber)
	}

	result := &Result{BookID: bookID, Recovered: doc.Recovered}
	opts := Options{Conflict: override}

	sectionType := doc.Root.Attr("type", "UNKNOWN")
	title := doc.Root.Attr("title", "")
	if title == "" {
		title = "Section " + sectionType
	}
	ing.ingestSection(ctx, topicID, doc.Root, sectionType, title, 0, opts, result)
	return result, nil
}

// AddSectionsBatch ingests a batch file of sections, each routed to its
// target topic by a target_topic, topic_id, or for_topic attribute. Sections
// with a missing or unresolvable target are recorded as failed; the rest of
// the batch proceeds.
func (ing *Ingester) AddSectionsBatch(ctx context.Context, path, bookID, chapterNumber string, override types.ConflictPolicy) (*Result, error) {
	doc, err := xmldoc.LoadRecover(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	var sections []*xmldoc.Element
	switch doc.Root.Tag {
	case "sections":
		sections = doc.Root.ChildrenByTag("section")
	case "section":
		sections = []*xmldoc.Element{doc.Root}
	default:
		for _, sec := range doc.Root.Iter("section") {
			if sec != doc.Root {
				sections = append(sections, sec)
			}
		}
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("%s: no section elements found", path)
	}

	result := &Result{BookID: bookID, Recovered: doc.Recovered}
	opts := Options{Conflict: override}

	for _, sec := range sections {
		target := batchTarget(sec)
		sectionType := sec.Attr("type", "UNKNOWN")

		if target == "" {
			ing.recordBatchFailure(result, sec, sectionType, "no target topic attribute")
			continue
		}

		topicID, err := ing.resolver.LookupTopic(ctx, bookID, chapterNumber, target)
		if err != nil {
			ing.recordBatchFailure(result, sec, sectionType, err.Error())
			continue
		}
		if topicID == "" {
			ing.recordBatchFailure(result, sec, sectionType,
				fmt.Sprintf("topic %s not found in chapter %s", target, chapterNumber))
			continue
		}

		title := sec.Attr("title", "")
		if title == "" {
			title = "Section " + sectionType
		}
		ing.ingestSection(ctx, topicID, sec, sectionType, title, 0, opts, result)
	}

	ing.logger.Info("batch sections complete",
		"path", path,
		"created", result.Stats.SectionsCreated,
		"replaced", result.Stats.SectionsReplaced,
		"skipped", result.Stats.SectionsSkipped,
		"failed", result.Stats.SectionsFailed)
	return result, nil
}

// batchTarget reads the section's target topic attribute, trying the
// accepted spellings in order.
func batchTarget(sec *xmldoc.Element) string {
	for _, attr := range []string{"target_topic", "topic_id", "for_topic"} {
		if v := sec.Attr(attr, ""); v != "" {
			return v
		}
	}
	return ""
}

func (ing *Ingester) recordBatchFailure(result *Result, sec *xmldoc.Element, sectionType, reason string) {
	ing.logger.Error("batch section failed",
		"section_id", sec.Attr("id", ""), "type", sectionType, "reason", reason)
	result.Stats.Record(types.OutcomeFailed)
	result.Sections = append(result.Sections, types.SectionResult{
		SectionXMLID: sec.Attr("id", ""),
		Type:         types.SectionType(sectionType),
		Outcome:      types.OutcomeFailed,
		Reason:       reason,
	})
}
