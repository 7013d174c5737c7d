package textfmt

import (
	"testing"

	"github.com/jackzampolin/tome/internal/xmldoc"
)

func mustParse(t *testing.T, s string) *xmldoc.Element {
	t.Helper()
	el, err := xmldoc.Parse(s)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return el
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		want string
	}{
		{
			name: "plain text",
			xml:  `<paragraph>  Water boils at 100 C.  </paragraph>`,
			want: "Water boils at 100 C.",
		},
		{
			name: "bold emphasis",
			xml:  `<paragraph>Matter is <emphasis type="bold">anything</emphasis> with mass.</paragraph>`,
			want: "Matter is **anything** with mass.",
		},
		{
			name: "default emphasis is italic",
			xml:  `<paragraph>An <emphasis>element</emphasis> is pure.</paragraph>`,
			want: "An *element* is pure.",
		},
		{
			name: "nested emphasis content",
			xml:  `<paragraph><emphasis type="bold">really <emphasis>very</emphasis> bold</emphasis></paragraph>`,
			want: "**really *very* bold**",
		},
		{
			name: "formula with type",
			xml:  `<paragraph>Water is <formula type="chemical">H2O</formula> here.</paragraph>`,
			want: "Water is [chemical:H2O] here.",
		},
		{
			name: "formula without type",
			xml:  `<paragraph><formula>E=mc2</formula></paragraph>`,
			want: "[:E=mc2]",
		},
		{
			name: "registered animation",
			xml:  `<paragraph>Watch: <animation ref="states-of-matter" height="400"/></paragraph>`,
			want: "Watch: [ANIMATION:states-of-matter:400]",
		},
		{
			name: "aliased animation",
			xml:  `<paragraph><animation ref="water-formation"/></paragraph>`,
			want: "[ANIMATION:hydrogen-oxygen-water:300]",
		},
		{
			name: "unknown animation becomes placeholder",
			xml:  `<paragraph><animation ref="quantum-tunneling"/></paragraph>`,
			want: "[ANIMATION_PLACEHOLDER:quantum-tunneling:300]",
		},
		{
			name: "animation falls back to name then id",
			xml:  `<paragraph><animation name="phase-changes"/></paragraph>`,
			want: "[ANIMATION:phase-changes:300]",
		},
		{
			name: "animation without reference is dropped",
			xml:  `<paragraph>Before <animation/> after</paragraph>`,
			want: "Before after",
		},
		{
			name: "list bodies skipped",
			xml:  `<paragraph>Kinds: <list type="ordered"><item>solid</item></list> ignored tail</paragraph>`,
			want: "Kinds:",
		},
		{
			name: "unknown child recursed",
			xml:  `<paragraph>See <reference>figure 1</reference> above.</paragraph>`,
			want: "See figure 1 above.",
		},
		{
			name: "whitespace collapsed",
			xml:  "<paragraph>\n  line one\n  <emphasis type=\"bold\">two</emphasis>\n  three\n</paragraph>",
			want: "line one **two** three",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(mustParse(t, tt.xml)); got != tt.want {
				t.Errorf("Format = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatNil(t *testing.T) {
	if got := Format(nil); got != "" {
		t.Errorf("Format(nil) = %q, want empty", got)
	}
}

func TestResolveAnimation(t *testing.T) {
	if got := ResolveAnimation("allotropes-carbon"); got != "carbon-allotropes" {
		t.Errorf("alias resolution = %q", got)
	}
	if got := ResolveAnimation("nope"); got != "" {
		t.Errorf("unknown reference = %q, want empty", got)
	}
}
