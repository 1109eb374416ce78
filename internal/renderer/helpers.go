package renderer

import (
	"fmt"
	"strings"

	"github.com/ankek/terraform-provider-archstudio/internal/graph"
	"github.com/ankek/terraform-provider-archstudio/internal/model"
)

// formatEdgeLabel creates a label for an edge
func formatEdgeLabel(edge *graph.Edge) string {
	label := edge.Label
	if edge.Technology != "" {
		if label == "" {
			return fmt.Sprintf("[%s]", edge.Technology)
		}
		label = fmt.Sprintf("%s [%s]", label, edge.Technology)
	}
	return label
}

// getKindName returns a human-readable name for a type discriminator,
// falling back to the node category.
func getKindName(kind string, category graph.Category) string {
	name := kind
	if name == "" {
		name = string(category)
	}

	name = strings.ReplaceAll(name, "_", " ")
	words := strings.Fields(name)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}

// truncate truncates a string to a maximum length
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// relStyle is how a relationship type is drawn in PlantUML-based outputs.
type relStyle struct {
	Label      string // used when the relationship has no description
	Macro      string // C4-PlantUML Rel variant
	Arrow      string // plain UML arrow
	Technology string // technology hint when none is given
}

// relationshipStyle maps a relationship type onto its label, arrow and
// technology hint. Unknown types pass through as their own label.
func relationshipStyle(t model.RelationshipType) relStyle {
	switch t {
	case model.RelationshipFlow:
		return relStyle{Label: "Data Flow", Macro: "Rel_D", Arrow: "-down->", Technology: "Data"}
	case model.RelationshipServing:
		return relStyle{Label: "Service Call", Macro: "Rel_U", Arrow: "-up->", Technology: "API"}
	case model.RelationshipAccess:
		return relStyle{Label: "Database Access", Macro: "Rel", Arrow: "..>", Technology: "SQL"}
	case model.RelationshipTriggering:
		return relStyle{Label: "Event/Message", Macro: "Rel_R", Arrow: "-right->", Technology: "Async"}
	case model.RelationshipComposition:
		return relStyle{Label: "Contains", Macro: "Rel", Arrow: "*--"}
	case model.RelationshipAggregation:
		return relStyle{Label: "Uses", Macro: "Rel", Arrow: "o--"}
	default:
		return relStyle{Label: string(t), Macro: "Rel", Arrow: "-->"}
	}
}

// relLabel returns the description, or the type label when empty.
func relLabel(rel model.Relationship) (label, technology string) {
	style := relationshipStyle(rel.Type())
	label = rel.Description
	if label == "" {
		label = style.Label
	}
	technology = rel.Technology()
	if technology == "" {
		technology = style.Technology
	}
	return label, technology
}

// CodeNestedRelationship flags a relationship between an element and one
// nested inside it. Structurizr and LikeC4 reject those, so their DSL outputs
// leave them out.
const CodeNestedRelationship = "NESTED_RELATIONSHIP"

// nestedWithin reports whether a and b are distinct and one encloses the
// other. parents maps a sanitized id to the id of its enclosing element.
func nestedWithin(parents map[string]string, a, b string) bool {
	return a != b && (encloses(parents, a, b) || encloses(parents, b, a))
}

func encloses(parents map[string]string, outer, inner string) bool {
	// Colliding sanitized ids can make the parent chain loop
	p, ok := parents[inner]
	for range len(parents) {
		if !ok || p == "" {
			return false
		}
		if p == outer {
			return true
		}
		p, ok = parents[p]
	}
	return false
}

// warnNested adds an advisory warning for every relationship whose endpoints
// are nested in one another.
func warnNested(res *model.ValidationResult, m *model.ArchitectureModel, parents map[string]string) {
	for i, rel := range m.Relationships {
		if nestedWithin(parents, model.Sanitize(rel.SourceID()), model.Sanitize(rel.TargetID())) {
			res.AddWarning(CodeNestedRelationship,
				fmt.Sprintf("relationship at index %d links %s to %s, which are nested in one another; it is omitted from the DSL", i, rel.SourceID(), rel.TargetID()),
				rel.UID)
		}
	}
}

// distribute assigns n items to owners by index range, ceil(n/owners) items
// per owner in declaration order. Items get -1 when there are no owners.
// This is a layout heuristic, not an ownership lookup.
func distribute(n, owners int) []int {
	out := make([]int, n)
	if owners <= 0 {
		for i := range out {
			out[i] = -1
		}
		return out
	}
	per := (n + owners - 1) / owners
	if per == 0 {
		per = 1
	}
	for i := range out {
		idx := i / per
		if idx >= owners {
			idx = owners - 1
		}
		out[i] = idx
	}
	return out
}

// plantQuote produces a PlantUML double-quoted argument.
func plantQuote(s string) string {
	s = strings.ReplaceAll(s, `"`, `'`)
	s = strings.ReplaceAll(s, "\r", "")
	return `"` + strings.ReplaceAll(s, "\n", `\n`) + `"`
}

// dslQuote produces a Structurizr double-quoted string.
func dslQuote(s string) string {
	return `"` + model.EscapeQuotes(s) + `"`
}

// dslWriter builds indented DSL text.
type dslWriter struct {
	b      strings.Builder
	depth  int
	indent string
}

func newDSLWriter(indent string) *dslWriter {
	return &dslWriter{indent: indent}
}

func (w *dslWriter) line(format string, args ...any) {
	w.b.WriteString(strings.Repeat(w.indent, w.depth))
	if len(args) == 0 {
		w.b.WriteString(format)
	} else {
		fmt.Fprintf(&w.b, format, args...)
	}
	w.b.WriteByte('\n')
}

// open writes a line ending in " {" and indents.
func (w *dslWriter) open(format string, args ...any) {
	w.line(format+" {", args...)
	w.depth++
}

func (w *dslWriter) close() {
	if w.depth > 0 {
		w.depth--
	}
	w.line("}")
}

func (w *dslWriter) blank() {
	w.b.WriteByte('\n')
}

func (w *dslWriter) String() string {
	return w.b.String()
}
