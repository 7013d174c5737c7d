package ingest

import (
	"github.com/jackzampolin/tome/internal/types"
)

// sectionConflictPolicies maps section types to their conflict handling.
// Regenerated content (memory techniques, question banks) replaces what is
// there; exercises and examples accumulate.
var sectionConflictPolicies = map[string]types.ConflictPolicy{
	"MEMORY_TECHNIQUES": types.ConflictReplace,
	"QUESTION_BANK":     types.ConflictReplace,
	"EXERCISES":         types.ConflictAppend,
	"EXAMPLES":          types.ConflictAppend,
}

// resolvePolicy picks the policy for a section type. An explicit override
// wins, then the per-type table, then the configured fallback.
func resolvePolicy(sectionType string, override, fallback types.ConflictPolicy) types.ConflictPolicy {
	if override != "" {
		return override
	}
	if p, ok := sectionConflictPolicies[sectionType]; ok {
		return p
	}
	if fallback != "" {
		return fallback
	}
	return types.ConflictAppend
}

// findConflict returns the first existing section of the same type, or nil.
func findConflict(existing []SectionInfo, sectionType string) *SectionInfo {
	for i := range existing {
		if existing[i].Type == sectionType {
			return &existing[i]
		}
	}
	return nil
}

// maxOrder returns the highest order_in_topic among existing sections.
func maxOrder(existing []SectionInfo) int {
	max := 0
	for _, s := range existing {
		if s.Order > max {
			max = s.Order
		}
	}
	return max
}
