package renderer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ankek/terraform-provider-archstudio/internal/model"
)

// PlantUML renderer formats.
const (
	FormatC4         = "c4"
	FormatDeployment = "deployment"
	FormatComponent  = "component"
	FormatSequence   = "sequence"
)

// C4 view types.
const (
	ViewContext   = "context"
	ViewContainer = "container"
	ViewComponent = "component"
)

// PlantUMLRendererName is the registry name of the PlantUML renderer.
const PlantUMLRendererName = "plantuml"

const c4StdlibURL = "https://raw.githubusercontent.com/plantuml-stdlib/C4-PlantUML/master/"

// c4TagStyles lists the element tags in the order they are declared.
var c4TagStyles = []struct {
	tag, background string
}{
	{"external", "#999999"},
	{"legacy", "#B71C1C"},
	{"database", "#438DD5"},
	{"web", "#1168BD"},
	{"mobile", "#2E7D32"},
	{"messaging", "#6A1B9A"},
	{"service", "#00838F"},
	{"infrastructure", "#5D4037"},
}

// PlantUMLRenderer renders C4-PlantUML and plain UML diagrams.
type PlantUMLRenderer struct {
	base
}

// NewPlantUMLRenderer creates the PlantUML renderer
func NewPlantUMLRenderer() *PlantUMLRenderer {
	return &PlantUMLRenderer{base{
		name:        PlantUMLRendererName,
		description: "PlantUML source: C4 context/container/component, deployment, component and sequence diagrams",
		formats:     []string{FormatC4, FormatDeployment, FormatComponent, FormatSequence},
	}}
}

// Render implements Renderer.
func (r *PlantUMLRenderer) Render(ctx context.Context, m *model.ArchitectureModel, opts Options) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	format, err := r.resolveFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	title := titleOf(m, opts)
	extra := map[string]any{"diagramType": format}

	var content string
	switch format {
	case FormatC4:
		view := strings.ToLower(opts.ViewType)
		switch view {
		case ViewContainer, ViewComponent:
		default:
			view = ViewContext
		}
		extra["viewType"] = view
		content = renderC4(m, title, view, opts.Direction)
	case FormatDeployment:
		content = renderDeployment(m, title)
	case FormatComponent:
		content = renderUMLComponents(m, title, opts.Direction)
	case FormatSequence:
		content = renderSequence(m, title)
	}

	return r.newOutput(m, content, format, start, extra), nil
}

// c4Doc collects C4 declarations so the tag styles actually used can be
// emitted ahead of them.
type c4Doc struct {
	body     *dslWriter
	declared map[string]bool
	tags     map[string]bool
	hasRels  bool
}

func newC4Doc() *c4Doc {
	return &c4Doc{body: newDSLWriter("  "), declared: map[string]bool{}, tags: map[string]bool{}}
}

// element writes macro(id, "name", args..., $tags="tag").
func (d *c4Doc) element(macro, uid, tag string, args ...string) {
	id := model.Sanitize(uid)
	d.declared[id] = true

	parts := []string{id}
	for _, a := range args {
		parts = append(parts, plantQuote(a))
	}
	if tag != "" {
		d.tags[tag] = true
		parts = append(parts, fmt.Sprintf(`$tags="%s"`, tag))
	}
	d.body.line("%s(%s)", macro, strings.Join(parts, ", "))
}

func (d *c4Doc) relationships(rels []model.Relationship) {
	for _, rel := range rels {
		label, tech := relLabel(rel)
		d.rel(model.Sanitize(rel.SourceID()), model.Sanitize(rel.TargetID()), rel.Type(), label, tech)
	}
}

// rel writes a Rel macro when both ends were declared.
func (d *c4Doc) rel(src, dst string, t model.RelationshipType, label, tech string) {
	if !d.declared[src] || !d.declared[dst] {
		return
	}
	if !d.hasRels {
		d.body.blank()
		d.hasRels = true
	}
	macro := relationshipStyle(t).Macro
	if tech == "" {
		d.body.line("%s(%s, %s, %s)", macro, src, dst, plantQuote(label))
	} else {
		d.body.line("%s(%s, %s, %s, %s)", macro, src, dst, plantQuote(label), plantQuote(tech))
	}
}

func (d *c4Doc) String(include, title, direction string) string {
	w := newDSLWriter("  ")
	w.line("@startuml")
	w.line("!include %s%s", c4StdlibURL, include)
	w.blank()
	w.line("title %s", plantTitle(title))
	w.blank()
	if strings.EqualFold(direction, "LR") {
		w.line("LAYOUT_LEFT_RIGHT()")
	} else {
		w.line("LAYOUT_TOP_DOWN()")
	}

	for _, s := range c4TagStyles {
		if d.tags[s.tag] {
			w.line(`AddElementTag("%s", $bgColor="%s", $fontColor="#ffffff", $legendText="%s")`, s.tag, s.background, s.tag)
		}
	}
	w.blank()

	out := w.String() + d.body.String()
	return out + "\nSHOW_LEGEND()\n@enduml\n"
}

func renderC4(m *model.ArchitectureModel, title, view, direction string) string {
	d := newC4Doc()

	for _, a := range m.Actors() {
		if !a.Renderable() {
			continue
		}
		macro := "Person"
		if isExternal(a.ActorType) {
			macro = "Person_Ext"
		}
		d.element(macro, a.UID, c4Tag(a.ActorType, ""), a.Name, a.Description)
	}

	apps := renderableApplications(m)

	switch view {
	case ViewContext:
		for _, app := range apps {
			d.element(systemMacro(appKind(app)), app.UID, c4Tag(appKind(app), app.Lifecycle), app.Name, app.Description)
		}

	case ViewContainer:
		var internal []model.Application
		for _, app := range apps {
			if isExternal(appKind(app)) {
				d.element("System_Ext", app.UID, c4Tag(appKind(app), app.Lifecycle), app.Name, app.Description)
				continue
			}
			internal = append(internal, app)
		}
		if len(internal) > 0 {
			d.body.line("System_Boundary(%s, %s) {", "boundary_"+model.Sanitize(m.UID), plantQuote(m.Name))
			d.body.depth++
			for _, app := range internal {
				macro := "Container"
				if isDatabase(appKind(app)) {
					macro = "ContainerDb"
				}
				d.element(macro, app.UID, c4Tag(appKind(app), app.Lifecycle), app.Name, app.Technology, app.Description)
			}
			d.body.close()
		}

	case ViewComponent:
		comps := renderableComponents(m)
		owners := distribute(len(comps), len(apps))
		for ai, app := range apps {
			d.element("Container", app.UID, c4Tag(appKind(app), app.Lifecycle), app.Name, app.Technology, app.Description)
			var owned []model.ApplicationComponent
			for ci, c := range comps {
				if owners[ci] == ai {
					owned = append(owned, c)
				}
			}
			if len(owned) == 0 {
				continue
			}
			d.body.line("Container_Boundary(%s, %s) {", "boundary_"+model.Sanitize(app.UID), plantQuote(app.Name+" components"))
			d.body.depth++
			for _, c := range owned {
				d.element(componentMacro(c.ComponentType), c.UID, c4Tag(c.ComponentType, ""), c.Name, c.Technology, c.Description)
			}
			d.body.close()
		}
		if len(apps) == 0 {
			for _, c := range comps {
				d.element(componentMacro(c.ComponentType), c.UID, c4Tag(c.ComponentType, ""), c.Name, c.Technology, c.Description)
			}
		}
	}

	d.relationships(m.Relationships)

	include := "C4_Context.puml"
	switch view {
	case ViewContainer:
		include = "C4_Container.puml"
	case ViewComponent:
		include = "C4_Component.puml"
	}
	return d.String(include, title, direction)
}

func renderDeployment(m *model.ArchitectureModel, title string) string {
	d := newC4Doc()

	nodes := renderableNodes(m)
	software := renderableSoftware(m)
	owners := distribute(len(software), len(nodes))

	for ni, n := range nodes {
		id := model.Sanitize(n.UID)
		d.declared[id] = true
		kind := n.NodeType
		if n.Environment != "" {
			kind = strings.TrimSpace(kind + " " + n.Environment)
		}
		d.body.line("Deployment_Node(%s, %s, %s, %s) {", id, plantQuote(n.Name), plantQuote(kind), plantQuote(n.Description))
		d.body.depth++
		for si, s := range software {
			if owners[si] == ni {
				d.element("Container", s.UID, c4Tag(s.SoftwareType, ""), s.Name, softwareLabel(s), s.Description)
			}
		}
		d.body.close()
	}
	if len(nodes) == 0 {
		for _, s := range software {
			d.element("Container", s.UID, c4Tag(s.SoftwareType, ""), s.Name, softwareLabel(s), s.Description)
		}
	}

	d.relationships(m.Relationships)
	return d.String("C4_Deployment.puml", title, "")
}

func renderUMLComponents(m *model.ArchitectureModel, title, direction string) string {
	w := newDSLWriter("  ")
	declared := map[string]bool{}
	declare := func(keyword, uid, name, kind string) {
		id := model.Sanitize(uid)
		declared[id] = true
		if st := stereotype(kind); st != "" {
			w.line("%s %s as %s %s", keyword, plantQuote(name), id, st)
		} else {
			w.line("%s %s as %s", keyword, plantQuote(name), id)
		}
	}

	w.line("@startuml")
	w.line("title %s", plantTitle(title))
	w.line("skinparam componentStyle uml2")
	if strings.EqualFold(direction, "LR") {
		w.line("left to right direction")
	}
	w.blank()

	if actors := renderableActors(m); len(actors) > 0 {
		w.open(`package "Business Layer"`)
		for _, a := range actors {
			declare("actor", a.UID, a.Name, a.ActorType)
		}
		w.close()
	}

	apps := renderableApplications(m)
	comps := renderableComponents(m)
	if len(apps)+len(comps) > 0 {
		w.open(`package "Application Layer"`)
		for _, app := range apps {
			declare("component", app.UID, app.Name, appKind(app))
		}
		for _, c := range comps {
			declare("component", c.UID, c.Name, c.ComponentType)
		}
		w.close()
	}

	nodes := renderableNodes(m)
	software := renderableSoftware(m)
	if len(nodes)+len(software) > 0 {
		w.open(`package "Technology Layer"`)
		for _, n := range nodes {
			declare("node", n.UID, n.Name, n.NodeType)
		}
		for _, s := range software {
			declare("node", s.UID, s.Name, s.SoftwareType)
		}
		w.close()
	}

	first := true
	for _, rel := range m.Relationships {
		src, dst := model.Sanitize(rel.SourceID()), model.Sanitize(rel.TargetID())
		if !declared[src] || !declared[dst] {
			continue
		}
		if first {
			w.blank()
			first = false
		}
		label, _ := relLabel(rel)
		w.line("%s %s %s : %s", src, relationshipStyle(rel.Type()).Arrow, dst, plantText(label))
	}

	w.line("@enduml")
	return w.String()
}

func renderSequence(m *model.ArchitectureModel, title string) string {
	w := newDSLWriter("  ")
	participants := map[string]bool{}
	declare := func(keyword, uid, name string) {
		id := model.Sanitize(uid)
		participants[id] = true
		w.line("%s %s as %s", keyword, plantQuote(name), id)
	}

	w.line("@startuml")
	w.line("title %s", plantTitle(title))
	w.line("autonumber")
	w.blank()

	for _, a := range renderableActors(m) {
		declare("actor", a.UID, a.Name)
	}
	for _, app := range renderableApplications(m) {
		if isDatabase(appKind(app)) {
			declare("database", app.UID, app.Name)
		} else {
			declare("participant", app.UID, app.Name)
		}
	}
	for _, c := range renderableComponents(m) {
		switch {
		case isDatabase(c.ComponentType):
			declare("database", c.UID, c.Name)
		case strings.EqualFold(c.ComponentType, "QUEUE"):
			declare("queue", c.UID, c.Name)
		default:
			declare("participant", c.UID, c.Name)
		}
	}
	for _, n := range renderableNodes(m) {
		declare("entity", n.UID, n.Name)
	}
	for _, s := range renderableSoftware(m) {
		declare("database", s.UID, s.Name)
	}

	first := true
	for _, rel := range m.Relationships {
		src, dst := model.Sanitize(rel.SourceID()), model.Sanitize(rel.TargetID())
		if !participants[src] || !participants[dst] {
			continue
		}
		if first {
			w.blank()
			first = false
		}
		label, _ := relLabel(rel)
		w.line("%s %s %s : %s", src, sequenceArrow(rel.Type()), dst, plantText(label))
	}

	w.line("@enduml")
	return w.String()
}

// PlantUMLAnalysis summarizes type distributions and suggests diagrams.
type PlantUMLAnalysis struct {
	ApplicationTypes  map[string]int `json:"applicationTypes"`
	ComponentTypes    map[string]int `json:"componentTypes"`
	RecommendedFormat string         `json:"recommendedFormat"`
	RecommendedView   string         `json:"recommendedView"`
	Recommendations   []string       `json:"recommendations"`
}

// Analyze tallies application and component types and applies a fixed set of
// rules to suggest views.
func (r *PlantUMLRenderer) Analyze(m *model.ArchitectureModel) PlantUMLAnalysis {
	a := PlantUMLAnalysis{
		ApplicationTypes:  map[string]int{},
		ComponentTypes:    map[string]int{},
		RecommendedFormat: FormatC4,
		RecommendedView:   ViewContext,
	}

	apps := renderableApplications(m)
	for _, app := range apps {
		a.ApplicationTypes[typeKey(appKind(app))]++
	}
	comps := renderableComponents(m)
	for _, c := range comps {
		a.ComponentTypes[typeKey(c.ComponentType)]++
	}

	if len(comps) > 3 {
		a.RecommendedView = ViewContainer
		a.Recommendations = append(a.Recommendations,
			fmt.Sprintf("Use a C4 container view to show the %d application components", len(comps)))
	}
	if len(comps) > 10 {
		a.RecommendedView = ViewComponent
		a.Recommendations = append(a.Recommendations,
			"Split the component view per application to keep diagrams readable")
	}
	if n := len(renderableNodes(m)); n > 0 {
		a.Recommendations = append(a.Recommendations,
			fmt.Sprintf("Add a deployment diagram for the %d technology nodes", n))
	}
	if n := len(m.Relationships); n > 5 {
		a.Recommendations = append(a.Recommendations,
			fmt.Sprintf("Use a sequence diagram to trace the %d interactions", n))
	}
	if a.ApplicationTypes["EXTERNAL"] > 0 {
		a.Recommendations = append(a.Recommendations,
			"Keep external systems outside the system boundary in container views")
	}
	if n := missingDescriptions(m); n > 0 {
		a.Recommendations = append(a.Recommendations,
			fmt.Sprintf("Add descriptions to %d elements", n))
	}

	return a
}

func renderableActors(m *model.ArchitectureModel) []model.BusinessActor {
	var out []model.BusinessActor
	for _, a := range m.Actors() {
		if a.Renderable() {
			out = append(out, a)
		}
	}
	return out
}

func renderableApplications(m *model.ArchitectureModel) []model.Application {
	var out []model.Application
	for _, a := range m.Applications() {
		if a.Renderable() {
			out = append(out, a)
		}
	}
	return out
}

func renderableComponents(m *model.ArchitectureModel) []model.ApplicationComponent {
	var out []model.ApplicationComponent
	for _, c := range m.Components() {
		if c.Renderable() {
			out = append(out, c)
		}
	}
	return out
}

func renderableNodes(m *model.ArchitectureModel) []model.TechnologyNode {
	var out []model.TechnologyNode
	for _, n := range m.TechnologyNodes() {
		if n.Renderable() {
			out = append(out, n)
		}
	}
	return out
}

func renderableSoftware(m *model.ArchitectureModel) []model.SystemSoftware {
	var out []model.SystemSoftware
	for _, s := range m.SystemSoftware() {
		if s.Renderable() {
			out = append(out, s)
		}
	}
	return out
}

func missingDescriptions(m *model.ArchitectureModel) int {
	n := 0
	for _, e := range catalog(m) {
		if strings.TrimSpace(e.Description) == "" {
			n++
		}
	}
	return n
}

func appKind(app model.Application) string {
	if app.ApplicationType != "" {
		return app.ApplicationType
	}
	return app.StereoType
}

func isExternal(kind string) bool {
	k := strings.ToUpper(kind)
	return strings.Contains(k, "EXTERNAL") || k == "PARTNER"
}

func isDatabase(kind string) bool {
	return strings.Contains(strings.ToUpper(kind), "DATABASE")
}

func systemMacro(kind string) string {
	switch {
	case isExternal(kind):
		return "System_Ext"
	case isDatabase(kind):
		return "SystemDb"
	default:
		return "System"
	}
}

func componentMacro(kind string) string {
	if isDatabase(kind) {
		return "ComponentDb"
	}
	return "Component"
}

// c4Tag picks the styling tag for an element type and lifecycle.
func c4Tag(kind, lifecycle string) string {
	switch strings.ToUpper(lifecycle) {
	case "DEPRECATED", "RETIRED":
		return "legacy"
	}
	k := strings.ToUpper(kind)
	switch {
	case isExternal(k):
		return "external"
	case isDatabase(k):
		return "database"
	case k == "WEB" || k == "FRONTEND":
		return "web"
	case k == "MOBILE":
		return "mobile"
	case k == "QUEUE" || k == "MESSAGING" || k == "MIDDLEWARE":
		return "messaging"
	}
	return ""
}

func softwareLabel(s model.SystemSoftware) string {
	return strings.TrimSpace(s.SoftwareType + " " + s.Version)
}

func sequenceArrow(t model.RelationshipType) string {
	switch t {
	case model.RelationshipTriggering:
		return "->>"
	case model.RelationshipFlow:
		return "-->"
	default:
		return "->"
	}
}

func stereotype(kind string) string {
	kind = strings.Trim(strings.NewReplacer("<", "", ">", "").Replace(kind), " ")
	if kind == "" {
		return ""
	}
	return "<<" + kind + ">>"
}

func typeKey(kind string) string {
	if kind == "" {
		return "UNSPECIFIED"
	}
	return strings.ToUpper(kind)
}

// plantTitle keeps a title on one line.
func plantTitle(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// plantText is a label after ':' in plain UML.
func plantText(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", `\n`)
}
