package xmldoc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseTextAndTail(t *testing.T) {
	root, err := Parse(`<paragraph>Water is <emphasis type="bold">H2O</emphasis> at rest.</paragraph>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if got := strings.TrimSpace(root.Text); got != "Water is" {
		t.Errorf("Text = %q, want %q", got, "Water is")
	}
	if len(root.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(root.Children))
	}
	em := root.Children[0]
	if em.Tag != "emphasis" || strings.TrimSpace(em.Text) != "H2O" {
		t.Errorf("unexpected child: tag=%q text=%q", em.Tag, em.Text)
	}
	if got := strings.TrimSpace(em.Tail); got != "at rest." {
		t.Errorf("Tail = %q, want %q", got, "at rest.")
	}
}

func TestRepairAmpersands(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare ampersand", "salt & water", "salt &amp; water"},
		{"existing entity", "salt &amp; water", "salt &amp; water"},
		{"lt entity kept", "a &lt; b", "a &lt; b"},
		{"numeric entity kept", "pi &#960;", "pi &#960;"},
		{"hex entity kept", "pi &#x3C0;", "pi &#x3C0;"},
		{"broken entity", "AT&T; label", "AT&amp;T; label"},
		{"trailing ampersand", "a &", "a &amp;"},
		{"multiple", "A&B & C&amp;D", "A&amp;B &amp; C&amp;D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RepairAmpersands(tt.in); got != tt.want {
				t.Errorf("RepairAmpersands(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseRepairsBareAmpersands(t *testing.T) {
	root, err := Parse(`<paragraph>acids & bases</paragraph>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := strings.TrimSpace(root.Text); got != "acids & bases" {
		t.Errorf("Text = %q, want %q", got, "acids & bases")
	}
}

func TestLoadRecoverTruncated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "truncated.xml")
	content := `<chapter id="1" title="Matter">
  <topic id="1.1" title="States">
    <section id="s1"><paragraph>Solids hold shape.</paragraph></section>
  </topic>
  <topic id="1.2" title="Chang`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := LoadRecover(path)
	if err != nil {
		t.Fatalf("LoadRecover failed: %v", err)
	}
	if !doc.Recovered {
		t.Error("expected Recovered=true for truncated input")
	}
	if doc.Root.Tag != "chapter" {
		t.Errorf("root tag = %q, want chapter", doc.Root.Tag)
	}
	topics := doc.Root.Iter("topic")
	if len(topics) == 0 {
		t.Fatal("expected at least one topic recovered")
	}
	if topics[0].Attr("id", "") != "1.1" {
		t.Errorf("first topic id = %q, want 1.1", topics[0].Attr("id", ""))
	}
}

func TestLoadStrictRejectsTruncated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.xml")
	if err := os.WriteFile(path, []byte(`<chapter><topic id="1.1">`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected strict Load to fail on truncated input")
	}
}

func TestIterAndCollectText(t *testing.T) {
	root, err := Parse(`<chapter><topic id="1"><section><paragraph>One</paragraph><paragraph>Two</paragraph></section></topic><topic id="2"/></chapter>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if got := len(root.Iter("topic")); got != 2 {
		t.Errorf("Iter(topic) = %d elements, want 2", got)
	}
	if got := len(root.Iter("")); got != 6 {
		t.Errorf("Iter(all) = %d elements, want 6", got)
	}
	first := root.Iter("topic")[0]
	if got := first.CollectText(); got != "One Two" {
		t.Errorf("CollectText = %q, want %q", got, "One Two")
	}
}

func TestDetectRoot(t *testing.T) {
	tests := []struct {
		xml  string
		want RootKind
	}{
		{`<chapter/>`, RootChapter},
		{`<book><chapter/></book>`, RootBook},
		{`<textbook/>`, RootBook},
		{`<root><chapter/></root>`, RootBook},
		{`<sections><section/></sections>`, RootSections},
		{`<curriculum><chapter/></curriculum>`, RootBook},
		{`<lesson><topic/></lesson>`, RootUnknown},
	}

	for _, tt := range tests {
		root, err := Parse(tt.xml)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", tt.xml, err)
		}
		if got := DetectRoot(root); got != tt.want {
			t.Errorf("DetectRoot(%q) = %q, want %q", tt.xml, got, tt.want)
		}
	}
}

func TestChildHelpers(t *testing.T) {
	root, err := Parse(`<section id="s1" title="Intro"><paragraph>a</paragraph><list type="ordered"><item>x</item></list></section>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if root.Attr("title", "") != "Intro" {
		t.Errorf("Attr(title) = %q", root.Attr("title", ""))
	}
	if root.Attr("missing", "fallback") != "fallback" {
		t.Error("Attr default not applied")
	}
	if root.Child("list") == nil {
		t.Error("Child(list) returned nil")
	}
	if root.Child("list").Attr("type", "") != "ordered" {
		t.Error("nested attr lookup failed")
	}
	tags := root.ChildTags()
	if !tags["paragraph"] || !tags["list"] {
		t.Errorf("ChildTags = %v", tags)
	}
}
