package ingest

import (
	"context"
	"fmt"

	"github.com/jackzampolin/tome/internal/flatten"
	"github.com/jackzampolin/tome/internal/types"
	"github.com/jackzampolin/tome/internal/xmldoc"
)

// upsertSection writes one section into a topic, applying conflict
// resolution against existing sections of the same type. A replace deletes
// the conflicting section and reuses its position; order <= 0 means append
// after the topic's last section.
func (ing *Ingester) upsertSection(ctx context.Context, topicID string, el *xmldoc.Element, sectionType, title string, order int, override types.ConflictPolicy, stats *types.RunStats) (types.SectionResult, error) {
	result := types.SectionResult{
		SectionXMLID: el.Attr("id", ""),
		Title:        title,
		Type:         types.SectionType(sectionType),
	}

	existing, err := ing.store.ExistingSections(ctx, topicID)
	if err != nil {
		return result, fmt.Errorf("listing sections: %w", err)
	}

	conflict := findConflict(existing, sectionType)
	policy := resolvePolicy(sectionType, override, ing.defaultPolicy)

	replaced := false
	if conflict != nil {
		switch policy {
		case types.ConflictSkip:
			ing.logger.Info("section exists, skipping",
				"topic_id", topicID, "type", sectionType)
			result.Outcome = types.OutcomeSkipped
			result.DocID = conflict.DocID
			stats.Record(result.Outcome)
			return result, nil
		case types.ConflictReplace, types.ConflictUpdate:
			ing.logger.Info("replacing existing section",
				"topic_id", topicID, "type", sectionType, "section_id", conflict.DocID)
			if err := ing.store.DeleteSection(ctx, conflict.DocID); err != nil {
				return result, fmt.Errorf("replacing section: %w", err)
			}
			order = conflict.Order
			replaced = true
		}
	}

	if order <= 0 {
		order = maxOrder(existing) + 1
	}

	doc := map[string]any{
		"topic_id":       topicID,
		"section_type":   sectionType,
		"title":          title,
		"order_in_topic": order,
	}
	if id := el.Attr("id", ""); id != "" {
		doc["section_xml_id"] = id
	}

	sectionID, err := ing.store.CreateSection(ctx, doc)
	if err != nil {
		return result, fmt.Errorf("creating section: %w", err)
	}
	result.DocID = sectionID

	rows := flatten.Section(el, sectionType)
	elements, items, err := ing.store.InsertRows(ctx, sectionID, rows)
	if err != nil {
		return result, fmt.Errorf("inserting content: %w", err)
	}
	stats.Elements += elements
	stats.ListItems += items

	if replaced {
		result.Outcome = types.OutcomeReplaced
	} else {
		result.Outcome = types.OutcomeCreated
	}
	stats.Record(result.Outcome)

	ing.logger.Info("section stored",
		"section_id", sectionID, "type", sectionType,
		"elements", elements, "items", items, "outcome", result.Outcome)
	return result, nil
}
