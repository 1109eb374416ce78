package renderer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ankek/terraform-provider-archstudio/internal/model"
)

// LikeC4RendererName is the registry name of the LikeC4 renderer.
const LikeC4RendererName = "likec4"

// Advisory warning codes reported by the LikeC4 validator.
const (
	CodeNoRelationships    = "NO_RELATIONSHIPS"
	CodeMissingDescription = "MISSING_DESCRIPTION"
	CodeDuplicateID        = "DUPLICATE_ID"
)

// likec4Kinds are declared in the specification block.
var likec4Kinds = []struct {
	kind, shape, color string
}{
	{kindActor, "person", "amber"},
	{kindSystem, "rectangle", "primary"},
	{kindComponent, "component", "secondary"},
	{kindService, "rectangle", "green"},
	{kindInfrastructure, "cylinder", "muted"},
}

var likec4Relationships = []model.RelationshipType{
	model.RelationshipFlow,
	model.RelationshipServing,
	model.RelationshipAccess,
	model.RelationshipTriggering,
	model.RelationshipComposition,
	model.RelationshipAggregation,
	model.RelationshipAssociation,
}

// LikeC4Renderer renders LikeC4 DSL.
type LikeC4Renderer struct {
	base
}

// NewLikeC4Renderer creates the LikeC4 renderer
func NewLikeC4Renderer() *LikeC4Renderer {
	return &LikeC4Renderer{base{
		name:        LikeC4RendererName,
		description: "LikeC4 DSL with specification, model and views",
		formats:     []string{FormatDSL},
	}}
}

// Validate runs the base checks and adds advisory warnings for an empty
// model, a model without relationships, missing descriptions, duplicate
// sanitized ids and relationships into nested components. Warnings never
// make the result invalid.
func (r *LikeC4Renderer) Validate(m *model.ArchitectureModel) model.ValidationResult {
	res := r.base.Validate(m)
	if m == nil {
		return res
	}

	elements := catalog(m)
	switch {
	case len(elements) == 0:
		res.AddWarning(model.CodeEmptyModel, "architecture model contains no elements", "")
	case len(elements) > 1 && len(m.Relationships) == 0:
		res.AddWarning(CodeNoRelationships, fmt.Sprintf("model has %d elements but no relationships", len(elements)), "")
	}

	seen := make(map[string]string, len(elements))
	for _, e := range elements {
		if strings.TrimSpace(e.Description) == "" {
			res.AddWarning(CodeMissingDescription, fmt.Sprintf("element %q has no description", e.Name), e.UID)
		}
		if prev, ok := seen[e.Ref]; ok {
			res.AddWarning(CodeDuplicateID, fmt.Sprintf("elements %q and %q share the identifier %s", prev, e.UID, e.Ref), e.UID)
			continue
		}
		seen[e.Ref] = e.UID
	}

	warnNested(&res, m, likec4Parents(groupElements(m)))
	return res
}

// likec4Parents nests components under systems by the same index-range
// heuristic MapWorkspace uses.
func likec4Parents(groups elementGroups) map[string]string {
	out := map[string]string{}
	if len(groups.Systems) == 0 {
		return out
	}
	owners := distribute(len(groups.Components), len(groups.Systems))
	for i, c := range groups.Components {
		out[c.Ref] = groups.Systems[owners[i]].Ref
	}
	return out
}

// Render implements Renderer.
func (r *LikeC4Renderer) Render(ctx context.Context, m *model.ArchitectureModel, opts Options) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	format, err := r.resolveFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	content, count := likec4DSL(m, titleOf(m, opts))
	extra := map[string]any{"elements": count}

	return r.newOutput(m, content, format, start, extra), nil
}

// likec4DSL writes the specification, model and views blocks. Components
// nest under systems by the same index-range heuristic MapWorkspace uses.
func likec4DSL(m *model.ArchitectureModel, title string) (string, int) {
	groups := groupElements(m)
	w := newDSLWriter("  ")

	w.open("specification")
	for _, k := range likec4Kinds {
		w.open("element %s", k.kind)
		w.open("style")
		w.line("shape %s", k.shape)
		w.line("color %s", k.color)
		w.close()
		w.close()
	}
	for _, t := range likec4Relationships {
		kind := strings.ToLower(string(t))
		switch t {
		case model.RelationshipFlow:
			w.open("relationship %s", kind)
			w.line("line dashed")
			w.close()
		case model.RelationshipTriggering:
			w.open("relationship %s", kind)
			w.line("line dotted")
			w.close()
		default:
			w.line("relationship %s", kind)
		}
	}
	w.close()
	w.blank()

	// fqn maps a sanitized id to its dotted path in the model
	fqn := map[string]string{}
	count := 0
	declare := func(e entry, parent string) {
		path := e.Ref
		if parent != "" {
			path = parent + "." + e.Ref
		}
		fqn[e.Ref] = path
		count++

		props := likec4Props(e)
		if len(props) == 0 {
			w.line("%s = %s %s", e.Ref, e.Kind, likec4Quote(e.Name))
			return
		}
		w.open("%s = %s %s", e.Ref, e.Kind, likec4Quote(e.Name))
		for _, p := range props {
			w.line("%s", p)
		}
		w.close()
	}

	w.open("model")
	for _, a := range groups.Actors {
		declare(a, "")
	}

	parents := likec4Parents(groups)
	owners := distribute(len(groups.Components), len(groups.Systems))
	for si, s := range groups.Systems {
		var children []entry
		for ci, c := range groups.Components {
			if owners[ci] == si {
				children = append(children, c)
			}
		}
		if len(children) == 0 {
			declare(s, "")
			continue
		}
		fqn[s.Ref] = s.Ref
		count++
		w.open("%s = %s %s", s.Ref, s.Kind, likec4Quote(s.Name))
		for _, p := range likec4Props(s) {
			w.line("%s", p)
		}
		for _, c := range children {
			declare(c, s.Ref)
		}
		w.close()
	}
	if len(groups.Systems) == 0 {
		for _, c := range groups.Components {
			declare(c, "")
		}
	}
	for _, s := range groups.Services {
		declare(s, "")
	}
	for _, n := range groups.Infrastructure {
		declare(n, "")
	}

	first := true
	for _, rel := range m.Relationships {
		srcID, dstID := model.Sanitize(rel.SourceID()), model.Sanitize(rel.TargetID())
		src, ok1 := fqn[srcID]
		dst, ok2 := fqn[dstID]
		if !ok1 || !ok2 || nestedWithin(parents, srcID, dstID) {
			continue
		}
		if first {
			w.blank()
			first = false
		}
		label, tech := relLabel(rel)
		kind := strings.ToLower(string(rel.Type()))
		if rel.Technology() == "" {
			w.line("%s -[%s]-> %s %s", src, kind, dst, likec4Quote(label))
		} else {
			w.line("%s -[%s]-> %s %s %s", src, kind, dst, likec4Quote(label), likec4Quote(tech))
		}
	}
	w.close()
	w.blank()

	w.open("views")
	w.open("view index")
	w.line("title %s", likec4Quote(title))
	w.line("include *")
	w.close()
	for si, s := range groups.Systems {
		nested := false
		for _, o := range owners {
			if o == si {
				nested = true
				break
			}
		}
		if !nested {
			continue
		}
		w.open("view %s_view of %s", s.Ref, s.Ref)
		w.line("title %s", likec4Quote(s.Name))
		w.line("include *")
		w.close()
	}
	w.close()

	return w.String(), count
}

func likec4Props(e entry) []string {
	var props []string
	if e.Description != "" {
		props = append(props, "description "+likec4Quote(e.Description))
	}
	if e.Technology != "" {
		props = append(props, "technology "+likec4Quote(e.Technology))
	}
	return props
}

// likec4Quote produces a single-quoted LikeC4 string.
func likec4Quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, "\r", "")
	return "'" + strings.ReplaceAll(s, "\n", " ") + "'"
}
