package renderer

import (
	"context"
	"strings"
	"time"

	"github.com/ankek/terraform-provider-archstudio/internal/model"
)

// Structurizr renderer formats.
const (
	FormatDSL      = "dsl"
	FormatPlantUML = "plantuml"
)

// StructurizrRendererName is the registry name of the Structurizr renderer.
const StructurizrRendererName = "structurizr"

const deploymentEnvironment = "Production"

// WorkspaceElement is an element of a Structurizr workspace. ID is the
// sanitized uid; Parent is the sanitized id of the enclosing element.
type WorkspaceElement struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Technology  string   `json:"technology,omitempty"`
	Parent      string   `json:"parent,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// WorkspaceRelationship links two workspace elements.
type WorkspaceRelationship struct {
	Source      string                 `json:"source"`
	Target      string                 `json:"target"`
	Description string                 `json:"description,omitempty"`
	Technology  string                 `json:"technology,omitempty"`
	Type        model.RelationshipType `json:"type"`
	Inferred    bool                   `json:"inferred,omitempty"`
}

// Workspace is the Structurizr view of an architecture model.
type Workspace struct {
	Name           string                  `json:"name"`
	Description    string                  `json:"description,omitempty"`
	People         []WorkspaceElement      `json:"people"`
	Systems        []WorkspaceElement      `json:"systems"`
	Containers     []WorkspaceElement      `json:"containers"`
	Components     []WorkspaceElement      `json:"components"`
	Services       []WorkspaceElement      `json:"services"`
	Infrastructure []WorkspaceElement      `json:"infrastructure"`
	Relationships  []WorkspaceRelationship `json:"relationships"`
}

// MapWorkspace maps a model onto people, systems, containers, components,
// services and infrastructure.
//
// Containers (application components) are spread over systems (applications)
// by index range, ceil(containers/systems) each in declaration order, and
// components (application interfaces) over containers the same way. The
// model carries no ownership field, so this placement is approximate. When
// there are containers but no systems, the architecture itself becomes the
// only system.
//
// A model without relationships gets one inferred SERVING relationship from
// every person to every system.
func MapWorkspace(m *model.ArchitectureModel) Workspace {
	groups := groupElements(m)
	ws := Workspace{Name: m.Name, Description: m.Description}

	for _, a := range groups.Actors {
		ws.People = append(ws.People, workspaceElement(a, ""))
	}
	for _, s := range groups.Systems {
		ws.Systems = append(ws.Systems, workspaceElement(s, ""))
	}
	if len(ws.Systems) == 0 && len(groups.Components) > 0 {
		ws.Systems = append(ws.Systems, WorkspaceElement{
			ID:          model.Sanitize(m.UID),
			Name:        m.Name,
			Description: m.Description,
		})
	}

	owners := distribute(len(groups.Components), len(ws.Systems))
	for i, c := range groups.Components {
		ws.Containers = append(ws.Containers, workspaceElement(c, ws.Systems[owners[i]].ID))
	}

	var interfaces []entry
	for _, in := range m.ApplicationInterfaces() {
		if in.Renderable() {
			interfaces = append(interfaces, newEntry(in.Element, kindComponent, in.InterfaceType, in.Protocol))
		}
	}
	if len(ws.Containers) > 0 {
		owners = distribute(len(interfaces), len(ws.Containers))
		for i, in := range interfaces {
			ws.Components = append(ws.Components, workspaceElement(in, ws.Containers[owners[i]].ID))
		}
	}

	for _, s := range groups.Services {
		el := workspaceElement(s, "")
		el.Tags = append(el.Tags, "Service")
		ws.Services = append(ws.Services, el)
	}

	nodes := renderableNodes(m)
	software := renderableSoftware(m)
	var nodeIDs []string
	for _, n := range nodes {
		el := workspaceElement(newEntry(n.Element, kindInfrastructure, n.NodeType, n.NodeType), "")
		nodeIDs = append(nodeIDs, el.ID)
		ws.Infrastructure = append(ws.Infrastructure, el)
	}
	owners = distribute(len(software), len(nodes))
	for i, s := range software {
		parent := ""
		if owners[i] >= 0 {
			parent = nodeIDs[owners[i]]
		}
		ws.Infrastructure = append(ws.Infrastructure, workspaceElement(newEntry(s.Element, kindInfrastructure, s.SoftwareType, softwareLabel(s)), parent))
	}

	for _, rel := range m.Relationships {
		label, tech := relLabel(rel)
		ws.Relationships = append(ws.Relationships, WorkspaceRelationship{
			Source:      model.Sanitize(rel.SourceID()),
			Target:      model.Sanitize(rel.TargetID()),
			Description: label,
			Technology:  tech,
			Type:        rel.Type(),
		})
	}

	if len(m.Relationships) == 0 {
		for _, p := range ws.People {
			for _, s := range ws.Systems {
				ws.Relationships = append(ws.Relationships, WorkspaceRelationship{
					Source:      p.ID,
					Target:      s.ID,
					Description: "Uses",
					Type:        model.RelationshipServing,
					Inferred:    true,
				})
			}
		}
	}

	return ws
}

func workspaceElement(e entry, parent string) WorkspaceElement {
	el := WorkspaceElement{
		ID:          e.Ref,
		Name:        e.Name,
		Description: e.Description,
		Technology:  e.Technology,
		Parent:      parent,
	}
	if e.Type != "" {
		el.Tags = append(el.Tags, e.Type)
	}
	if isExternal(e.Type) {
		el.Tags = append(el.Tags, "External")
	}
	return el
}

// StructurizrRenderer renders Structurizr DSL workspaces.
type StructurizrRenderer struct {
	base
}

// NewStructurizrRenderer creates the Structurizr renderer
func NewStructurizrRenderer() *StructurizrRenderer {
	return &StructurizrRenderer{base{
		name:        StructurizrRendererName,
		description: "Structurizr DSL workspace or flat C4-PlantUML",
		formats:     []string{FormatDSL, FormatPlantUML},
	}}
}

// Validate runs the base checks and warns about relationships between an
// element and one placed inside it.
func (r *StructurizrRenderer) Validate(m *model.ArchitectureModel) model.ValidationResult {
	res := r.base.Validate(m)
	if m == nil {
		return res
	}
	warnNested(&res, m, MapWorkspace(m).parents())
	return res
}

// parents maps every nested element id to the id of its enclosing element.
func (ws Workspace) parents() map[string]string {
	out := map[string]string{}
	for _, group := range [][]WorkspaceElement{ws.Containers, ws.Components, ws.Infrastructure} {
		for _, e := range group {
			if e.Parent != "" {
				out[e.ID] = e.Parent
			}
		}
	}
	return out
}

// Render implements Renderer.
func (r *StructurizrRenderer) Render(ctx context.Context, m *model.ArchitectureModel, opts Options) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	format, err := r.resolveFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ws := MapWorkspace(m)

	inferred := 0
	for _, rel := range ws.Relationships {
		if rel.Inferred {
			inferred++
		}
	}
	extra := map[string]any{
		"people":                len(ws.People),
		"systems":               len(ws.Systems),
		"containers":            len(ws.Containers),
		"inferredRelationships": inferred,
	}

	var content string
	switch format {
	case FormatDSL:
		content = workspaceDSL(ws, titleOf(m, opts), opts.Direction)
	case FormatPlantUML:
		content = workspacePlantUML(ws, titleOf(m, opts), opts.Direction)
	}

	return r.newOutput(m, content, format, start, extra), nil
}

func workspaceDSL(ws Workspace, title, direction string) string {
	w := newDSLWriter("    ")
	modelScope := map[string]bool{}
	infraScope := map[string]bool{}
	parents := ws.parents()

	w.open("workspace %s %s", dslQuote(title), dslQuote(ws.Description))
	w.blank()
	w.open("model")

	for _, p := range ws.People {
		modelScope[p.ID] = true
		w.line("%s = person %s %s%s", p.ID, dslQuote(p.Name), dslQuote(p.Description), dslTags(p.Tags))
	}

	for _, s := range ws.Systems {
		modelScope[s.ID] = true
		containers := childrenOf(ws.Containers, s.ID)
		if len(containers) == 0 {
			w.line("%s = softwareSystem %s %s%s", s.ID, dslQuote(s.Name), dslQuote(s.Description), dslTags(s.Tags))
			continue
		}
		w.open("%s = softwareSystem %s %s%s", s.ID, dslQuote(s.Name), dslQuote(s.Description), dslTags(s.Tags))
		for _, c := range containers {
			modelScope[c.ID] = true
			components := childrenOf(ws.Components, c.ID)
			decl := []any{c.ID, dslQuote(c.Name), dslQuote(c.Description), dslQuote(c.Technology), dslTags(c.Tags)}
			if len(components) == 0 {
				w.line("%s = container %s %s %s%s", decl...)
				continue
			}
			w.open("%s = container %s %s %s%s", decl...)
			for _, cp := range components {
				modelScope[cp.ID] = true
				w.line("%s = component %s %s %s%s", cp.ID, dslQuote(cp.Name), dslQuote(cp.Description), dslQuote(cp.Technology), dslTags(cp.Tags))
			}
			w.close()
		}
		w.close()
	}

	for _, s := range ws.Services {
		modelScope[s.ID] = true
		w.line("%s = softwareSystem %s %s%s", s.ID, dslQuote(s.Name), dslQuote(s.Description), dslTags(s.Tags))
	}

	if len(ws.Infrastructure) > 0 {
		w.blank()
		w.open("deploymentEnvironment %s", dslQuote(deploymentEnvironment))
		for _, n := range ws.Infrastructure {
			if n.Parent != "" {
				continue
			}
			infraScope[n.ID] = true
			children := childrenOf(ws.Infrastructure, n.ID)
			decl := []any{n.ID, dslQuote(n.Name), dslQuote(n.Description), dslQuote(n.Technology)}
			if len(children) == 0 {
				w.line("%s = deploymentNode %s %s %s", decl...)
				continue
			}
			w.open("%s = deploymentNode %s %s %s", decl...)
			for _, c := range children {
				infraScope[c.ID] = true
				w.line("%s = infrastructureNode %s %s %s", c.ID, dslQuote(c.Name), dslQuote(c.Description), dslQuote(c.Technology))
			}
			w.close()
		}
		writeDSLRelationships(w, ws.Relationships, infraScope, parents)
		w.close()
	}

	if hasRelationships(ws.Relationships, modelScope, parents) {
		w.blank()
		writeDSLRelationships(w, ws.Relationships, modelScope, parents)
	}

	w.close()
	w.blank()

	layout := "autoLayout tb"
	if strings.EqualFold(direction, "LR") {
		layout = "autoLayout lr"
	}

	w.open("views")
	w.open(`systemLandscape "landscape"`)
	w.line("include *")
	w.line("%s", layout)
	w.close()

	for _, s := range ws.Systems {
		if len(childrenOf(ws.Containers, s.ID)) == 0 {
			continue
		}
		w.open("container %s %s", s.ID, dslQuote("containers_"+s.ID))
		w.line("include *")
		w.line("%s", layout)
		w.close()
	}
	for _, c := range ws.Containers {
		if len(childrenOf(ws.Components, c.ID)) == 0 {
			continue
		}
		w.open("component %s %s", c.ID, dslQuote("components_"+c.ID))
		w.line("include *")
		w.line("%s", layout)
		w.close()
	}
	if len(ws.Infrastructure) > 0 {
		w.open("deployment * %s %s", dslQuote(deploymentEnvironment), dslQuote("deployment"))
		w.line("include *")
		w.line("%s", layout)
		w.close()
	}

	w.blank()
	w.open("styles")
	for _, s := range []struct{ tag, background, extra string }{
		{"Person", "#08427B", "shape Person"},
		{"Software System", "#1168BD", ""},
		{"Container", "#438DD5", ""},
		{"Component", "#85BBF0", ""},
		{"Service", "#00838F", "shape Hexagon"},
		{"External", "#999999", ""},
	} {
		w.open("element %s", dslQuote(s.tag))
		if s.extra != "" {
			w.line("%s", s.extra)
		}
		w.line("background %s", s.background)
		w.line("color #ffffff")
		w.close()
	}
	w.close()
	w.close()

	w.close()
	return w.String()
}

// writeDSLRelationships writes the relationships with both ends in scope,
// skipping those between nested elements.
func writeDSLRelationships(w *dslWriter, rels []WorkspaceRelationship, scope map[string]bool, parents map[string]string) {
	for _, rel := range rels {
		if !scope[rel.Source] || !scope[rel.Target] || nestedWithin(parents, rel.Source, rel.Target) {
			continue
		}
		tags := string(rel.Type)
		if rel.Inferred {
			tags += ",Inferred"
		}
		w.line("%s -> %s %s %s %s", rel.Source, rel.Target, dslQuote(rel.Description), dslQuote(rel.Technology), dslQuote(tags))
	}
}

func hasRelationships(rels []WorkspaceRelationship, scope map[string]bool, parents map[string]string) bool {
	for _, rel := range rels {
		if scope[rel.Source] && scope[rel.Target] && !nestedWithin(parents, rel.Source, rel.Target) {
			return true
		}
	}
	return false
}

func childrenOf(elements []WorkspaceElement, parent string) []WorkspaceElement {
	var out []WorkspaceElement
	for _, e := range elements {
		if e.Parent == parent {
			out = append(out, e)
		}
	}
	return out
}

func dslTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return " " + dslQuote(strings.Join(tags, ","))
}

func workspacePlantUML(ws Workspace, title, direction string) string {
	d := newC4Doc()

	for _, p := range ws.People {
		macro := "Person"
		if hasTag(p, "External") {
			macro = "Person_Ext"
		}
		d.element(macro, p.ID, "", p.Name, p.Description)
	}
	for _, s := range ws.Systems {
		macro := "System"
		if hasTag(s, "External") {
			macro = "System_Ext"
		}
		d.element(macro, s.ID, "", s.Name, s.Description)
	}
	for _, c := range ws.Containers {
		d.element("Container", c.ID, "", c.Name, c.Technology, c.Description)
	}
	for _, c := range ws.Components {
		d.element("Component", c.ID, "", c.Name, c.Technology, c.Description)
	}
	for _, s := range ws.Services {
		d.element("System", s.ID, "service", s.Name, s.Description)
	}
	for _, n := range ws.Infrastructure {
		d.element("Container", n.ID, "infrastructure", n.Name, n.Technology, n.Description)
	}

	for _, rel := range ws.Relationships {
		d.rel(rel.Source, rel.Target, rel.Type, rel.Description, rel.Technology)
	}

	return d.String("C4_Component.puml", title, direction)
}

func hasTag(e WorkspaceElement, tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
