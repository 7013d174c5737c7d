package providers

import (
	"encoding/json"
	"testing"
)

func TestParseStructuredJSON_StripsCodeFence(t *testing.T) {
	content := "```json\n{\"ok\":true}\n```"
	got, err := parseStructuredJSON(content)
	if err != nil {
		t.Fatalf("parseStructuredJSON() error = %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(got, &parsed); err != nil {
		t.Fatalf("failed to unmarshal parsed JSON: %v", err)
	}
	if ok, _ := parsed["ok"].(bool); !ok {
		t.Fatalf("expected ok=true, got %#v", parsed)
	}
}

func TestValidateStructuredJSON_EnforcesCanonicalBounds(t *testing.T) {
	schema := json.RawMessage(`{
		"name":"toc_extraction",
		"strict":true,
		"schema":{
			"type":"object",
			"properties":{
				"level":{"type":"integer","minimum":1,"maximum":3}
			},
			"required":["level"],
			"additionalProperties":false
		}
	}`)

	valid := json.RawMessage(`{"level":2}`)
	if err := validateStructuredJSON(schema, valid); err != nil {
		t.Fatalf("validateStructuredJSON(valid) error = %v", err)
	}

	invalid := json.RawMessage(`{"level":5}`)
	if err := validateStructuredJSON(schema, invalid); err == nil {
		t.Fatal("validateStructuredJSON(invalid) expected error, got nil")
	}
}
