// Package htmlexport renders authored textbook XML to a standalone HTML
// document for quick visual review of a chapter file.
package htmlexport

import (
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/jackzampolin/tome/internal/xmldoc"
)

// headingTags maps structural and named container tags to heading levels.
var headingTags = map[string]string{
	"chapter":            "h2",
	"topic":              "h3",
	"section":            "h4",
	"analogy":            "h5",
	"example":            "h5",
	"interactive_prompt": "h5",
	"connection_item":    "h5",
	"fun_fact":           "h5",
	"mnemonic":           "h5",
	"acronym":            "h5",
	"exercise":           "h5",
	"story_title":        "h5",
	"story_method":       "h5",
	"association":        "h5",
	"rhyme":              "h5",
	"rank":               "h5",
}

// paragraphTags are leaf tags whose text renders as a paragraph.
var paragraphTags = map[string]bool{
	"paragraph":         true,
	"point":             true,
	"breakdown":         true,
	"context_sentence":  true,
	"memory_tip":        true,
	"concept":           true,
	"visual_scene":      true,
	"memory_trigger":    true,
	"recall_cue":        true,
	"narrative":         true,
	"character_map":     true,
	"plot_connection":   true,
	"content_coverage":  true,
	"rhythm_pattern":    true,
	"performance_tip":   true,
	"walking_route":     true,
	"sensory_details":   true,
	"memory_sentence":   true,
	"visual_bridge":     true,
	"keyword_link":      true,
	"scientific_term":   true,
	"location_theme":    true,
	"pairing_reason":    true,
	"place":             true,
	"concept_coverage":  true,
	"schedule":          true,
	"method":            true,
	"issue":             true,
	"interactive_element": true,
	"gamification":      true,
	"social_sharing":    true,
	"progress_tracking": true,
}

// Options configures an export.
type Options struct {
	// Title is the HTML document title; defaults to the root element's
	// title attribute, else the source filename.
	Title string
	// Recover tolerates malformed XML tails.
	Recover bool
}

// Render converts an element tree to a full HTML document.
func Render(root *xmldoc.Element, title string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	b.WriteString("<link rel=\"stylesheet\" href=\"styles.css\">\n</head>\n<body>\n")
	renderElement(&b, root)
	b.WriteString("\n</body>\n</html>\n")
	return b.String()
}

func renderElement(b *strings.Builder, el *xmldoc.Element) {
	if heading, ok := headingTags[el.Tag]; ok {
		writeHeading(b, heading, el)
	}

	switch {
	case paragraphTags[el.Tag]:
		fmt.Fprintf(b, "<p>%s</p>\n", html.EscapeString(strings.TrimSpace(el.Text)))

	case el.Tag == "list" || el.Tag == "key_points":
		b.WriteString("<ul>\n")
		for _, item := range el.Children {
			fmt.Fprintf(b, "<li>%s</li>\n", html.EscapeString(strings.TrimSpace(item.Text)))
		}
		b.WriteString("</ul>\n")
		return

	case el.Tag == "exercise_block":
		b.WriteString("<div class=\"exercise-block\">\n")
		for _, child := range el.Children {
			renderElement(b, child)
		}
		b.WriteString("</div>\n")
		return
	}

	for _, child := range el.Children {
		renderElement(b, child)
	}
}

// writeHeading renders the element's title attribute, falling back to
// "Tag id" when only an id is present.
func writeHeading(b *strings.Builder, heading string, el *xmldoc.Element) {
	var text string
	if el.HasAttr("title") {
		text = el.Attr("title", "")
	} else if el.HasAttr("id") {
		text = capitalize(el.Tag) + " " + el.Attr("id", "")
	} else {
		return
	}
	fmt.Fprintf(b, "<%s>%s</%s>\n", heading, html.EscapeString(text), heading)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ExportFile loads the XML at inputPath and writes the rendered HTML to
// outputPath. It returns whether parsing had to recover from a malformed
// tail.
func ExportFile(inputPath, outputPath string, opts Options) (bool, error) {
	var doc *xmldoc.Document
	var err error
	if opts.Recover {
		doc, err = xmldoc.LoadRecover(inputPath)
	} else {
		doc, err = xmldoc.Load(inputPath)
	}
	if err != nil {
		return false, err
	}

	title := opts.Title
	if title == "" {
		title = doc.Root.Attr("title", inputPath)
	}

	if err := os.WriteFile(outputPath, []byte(Render(doc.Root, title)), 0o644); err != nil {
		return doc.Recovered, fmt.Errorf("writing %s: %w", outputPath, err)
	}
	return doc.Recovered, nil
}
