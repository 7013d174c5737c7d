// Package textfmt renders the mixed inline content of a content element to
// the flat markup stored in text_content rows: emphasis as asterisks,
// formulas as [type:body] markers, and animations as [ANIMATION:...] tokens
// resolved through the animation registry.
package textfmt

import (
	"log/slog"
	"strings"

	"github.com/jackzampolin/tome/internal/xmldoc"
)

// animationRegistry maps authored animation references to canonical
// animation ids. Aliases exist for references used by older book files.
var animationRegistry = map[string]string{
	"hydrogen-oxygen-water":  "hydrogen-oxygen-water",
	"states-of-matter":       "states-of-matter",
	"phase-changes":          "phase-changes",
	"carbon-allotropes":      "carbon-allotropes",
	"solutions-colloids":     "solutions-colloids",
	"temperature-solubility": "temperature-solubility",
	"water-formation":        "hydrogen-oxygen-water",
	"matter-states":          "states-of-matter",
	"allotropes-carbon":      "carbon-allotropes",
}

// ResolveAnimation returns the canonical animation id for a reference,
// or "" when the reference is unknown.
func ResolveAnimation(ref string) string {
	return animationRegistry[ref]
}

// Formatter renders element content. The zero value is usable; Logger
// defaults to slog.Default().
type Formatter struct {
	Logger *slog.Logger
}

func (f *Formatter) logger() *slog.Logger {
	if f != nil && f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}

// Format renders an element's inline content to a single line. Fragments
// are joined with single spaces and the result carries no leading or
// trailing whitespace.
func (f *Formatter) Format(el *xmldoc.Element) string {
	if el == nil {
		return ""
	}

	var parts []string
	add := func(s string) {
		if s != "" {
			parts = append(parts, s)
		}
	}

	add(strings.TrimSpace(el.Text))

	for _, child := range el.Children {
		switch strings.ToLower(child.Tag) {
		case "emphasis":
			content := f.Format(child)
			if child.Attr("type", "italic") == "bold" {
				add("**" + content + "**")
			} else {
				add("*" + content + "*")
			}

		case "formula":
			add("[" + child.Attr("type", "") + ":" + strings.TrimSpace(child.Text) + "]")

		case "animation":
			ref := firstAttr(child, "ref", "name", "id")
			height := child.Attr("height", "300")
			if ref == "" {
				f.logger().Warn("animation tag without ref/name/id attribute")
				break
			}
			if resolved := ResolveAnimation(ref); resolved != "" {
				add("[ANIMATION:" + resolved + ":" + height + "]")
			} else {
				f.logger().Warn("unregistered animation reference", "ref", ref)
				add("[ANIMATION_PLACEHOLDER:" + ref + ":" + height + "]")
			}

		case "list":
			// List bodies become list_items rows; their tail text is
			// dropped along with them.
			continue

		default:
			add(f.Format(child))
		}

		add(strings.TrimSpace(child.Tail))
	}

	return strings.TrimSpace(strings.Join(parts, " "))
}

// Format renders an element with the default formatter.
func Format(el *xmldoc.Element) string {
	var f Formatter
	return f.Format(el)
}

func firstAttr(el *xmldoc.Element, names ...string) string {
	for _, n := range names {
		if v := el.Attr(n, ""); v != "" {
			return v
		}
	}
	return ""
}
