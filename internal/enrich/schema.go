package enrich

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// enrichmentSchema is the contract for per-term enrichment JSON. The
// provider layer validates model output against it, and the CSV ingester
// re-validates rows before they reach the store.
const enrichmentSchema = `{
	"type": "object",
	"required": ["explanation", "term_type", "example_sentence"],
	"properties": {
		"explanation": {"type": "string", "minLength": 1},
		"urdu_meaning": {"type": "string"},
		"term_type": {
			"type": "string",
			"enum": ["element", "compound", "concept", "process", "property", "unit", "other"]
		},
		"example_sentence": {"type": "string", "minLength": 1},
		"properties": {"type": "object"}
	}
}`

var compiledSchema = jsonschema.MustCompileString("enrichment.json", enrichmentSchema)

// ValidateEnrichment checks a parsed enrichment document against the
// schema.
func ValidateEnrichment(doc any) error {
	if err := compiledSchema.Validate(doc); err != nil {
		return fmt.Errorf("enrichment validation: %w", err)
	}
	return nil
}

// enrichmentPrompt asks for strict JSON enrichment of a single term.
func enrichmentPrompt(subject, term string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are a %[1]s expert and multilingual educator. For the term "%[2]s", provide comprehensive information in JSON format with these keys:

REQUIRED KEYS:
1. explanation: concise educational explanation (1-2 sentences)
2. urdu_meaning: Urdu translation if available
3. term_type: one of element, compound, concept, process, property, unit, other
4. example_sentence: example usage in a %[1]s context
5. properties: nested object with type-specific properties

PROPERTIES STRUCTURE:
- For ELEMENTS: "symbol", "atomic_number", "category", "state_room_temp", "common_uses"
- For COMPOUNDS: "formula", "molar_mass", "state_room_temp", "hazards"
- For CONCEPTS/PROCESSES: "key_principle", "related_concepts", "real_world_example"

OUTPUT FORMAT (JSON ONLY):
{"explanation": "...", "urdu_meaning": "...", "term_type": "...", "example_sentence": "...", "properties": {...}}

Now analyze: "%[2]s"`, subject, term)
	return b.String()
}

const enrichmentSystemPrompt = "You are a scientific expert and multilingual educational assistant. Respond with a single JSON object and nothing else."
