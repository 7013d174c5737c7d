package htmlexport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackzampolin/tome/internal/xmldoc"
)

const sampleXML = `<chapter id="8" title="Chemical Bonding">
  <topic id="8.1" title="Why Atoms Bond">
    <paragraph>Atoms bond to achieve stable electron configurations.</paragraph>
    <key_points>
      <point>Octet rule</point>
      <point>Duplet rule</point>
    </key_points>
    <example id="8.1a">
      <paragraph>Sodium loses one electron.</paragraph>
    </example>
    <exercise_block>
      <exercise id="1" title="Practice">
        <paragraph>Draw the Lewis structure of water.</paragraph>
      </exercise>
    </exercise_block>
  </topic>
</chapter>`

func parseSample(t *testing.T) *xmldoc.Element {
	t.Helper()
	root, err := xmldoc.Parse(sampleXML)
	if err != nil {
		t.Fatal(err)
	}
	return root
}

func TestRenderHeadings(t *testing.T) {
	out := Render(parseSample(t), "Test Book")

	for _, want := range []string{
		"<title>Test Book</title>",
		"<h2>Chemical Bonding</h2>",
		"<h3>Why Atoms Bond</h3>",
		"<h5>Example 8.1a</h5>",
		"<h5>Practice</h5>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderParagraphsAndLists(t *testing.T) {
	out := Render(parseSample(t), "t")

	if !strings.Contains(out, "<p>Atoms bond to achieve stable electron configurations.</p>") {
		t.Error("paragraph not rendered")
	}
	if !strings.Contains(out, "<li>Octet rule</li>") || !strings.Contains(out, "<li>Duplet rule</li>") {
		t.Error("key points not rendered as list items")
	}
	if !strings.Contains(out, `<div class="exercise-block">`) {
		t.Error("exercise block wrapper missing")
	}
}

func TestRenderExerciseBlockChildrenOnce(t *testing.T) {
	out := Render(parseSample(t), "t")

	if n := strings.Count(out, "Draw the Lewis structure of water."); n != 1 {
		t.Errorf("exercise content rendered %d times, want 1", n)
	}
}

func TestRenderEscapesText(t *testing.T) {
	root, err := xmldoc.Parse(`<chapter id="1" title="A &lt; B"><paragraph>x &lt; y</paragraph></chapter>`)
	if err != nil {
		t.Fatal(err)
	}
	out := Render(root, "t")
	if !strings.Contains(out, "<h2>A &lt; B</h2>") {
		t.Error("heading not escaped")
	}
	if !strings.Contains(out, "<p>x &lt; y</p>") {
		t.Error("paragraph not escaped")
	}
}

func TestExportFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "chapter.xml")
	out := filepath.Join(dir, "chapter.html")
	if err := os.WriteFile(in, []byte(sampleXML), 0o644); err != nil {
		t.Fatal(err)
	}

	recovered, err := ExportFile(in, out, Options{})
	if err != nil {
		t.Fatalf("ExportFile: %v", err)
	}
	if recovered {
		t.Error("well-formed input reported as recovered")
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<title>Chemical Bonding</title>") {
		t.Error("default title should come from the root title attribute")
	}
	if !strings.HasPrefix(string(data), "<!DOCTYPE html>") {
		t.Error("missing doctype")
	}
}

func TestExportFileRecover(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "truncated.xml")
	out := filepath.Join(dir, "truncated.html")
	truncated := `<chapter id="1" title="Partial"><topic id="1.1" title="T"><paragraph>kept</paragraph>`
	if err := os.WriteFile(in, []byte(truncated), 0o644); err != nil {
		t.Fatal(err)
	}

	recovered, err := ExportFile(in, out, Options{Recover: true})
	if err != nil {
		t.Fatalf("ExportFile: %v", err)
	}
	if !recovered {
		t.Error("truncated input should report recovery")
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<p>kept</p>") {
		t.Error("recovered content missing from output")
	}
}
