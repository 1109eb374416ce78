package renderer

import "github.com/ankek/terraform-provider-archstudio/internal/model"

// Element kinds shared by the Structurizr and LikeC4 mappings.
const (
	kindActor          = "actor"
	kindSystem         = "system"
	kindComponent      = "component"
	kindService        = "service"
	kindInfrastructure = "infrastructure"
)

// entry is a renderable element flattened out of its layer.
type entry struct {
	UID         string
	Ref         string // sanitized uid
	Name        string
	Description string
	Kind        string
	Type        string // layer-specific discriminator
	Technology  string
}

func newEntry(e model.Element, kind, typ, technology string) entry {
	return entry{
		UID:         e.UID,
		Ref:         model.Sanitize(e.UID),
		Name:        e.Name,
		Description: e.Description,
		Kind:        kind,
		Type:        typ,
		Technology:  technology,
	}
}

// elementGroups holds the renderable elements by kind, in declaration order.
type elementGroups struct {
	Actors         []entry
	Systems        []entry
	Components     []entry
	Services       []entry
	Infrastructure []entry
}

func groupElements(m *model.ArchitectureModel) elementGroups {
	var g elementGroups

	for _, a := range renderableActors(m) {
		g.Actors = append(g.Actors, newEntry(a.Element, kindActor, a.ActorType, ""))
	}
	for _, app := range renderableApplications(m) {
		g.Systems = append(g.Systems, newEntry(app.Element, kindSystem, appKind(app), app.Technology))
	}
	for _, c := range renderableComponents(m) {
		g.Components = append(g.Components, newEntry(c.Element, kindComponent, c.ComponentType, c.Technology))
	}
	for _, s := range m.BusinessServices() {
		if s.Renderable() {
			g.Services = append(g.Services, newEntry(s.Element, kindService, s.ServiceType, ""))
		}
	}
	for _, s := range m.ApplicationServices() {
		if s.Renderable() {
			g.Services = append(g.Services, newEntry(s.Element, kindService, s.ServiceType, ""))
		}
	}
	for _, s := range m.TechnologyServices() {
		if s.Renderable() {
			g.Services = append(g.Services, newEntry(s.Element, kindService, s.ServiceType, ""))
		}
	}
	for _, n := range renderableNodes(m) {
		g.Infrastructure = append(g.Infrastructure, newEntry(n.Element, kindInfrastructure, n.NodeType, n.Environment))
	}
	for _, s := range renderableSoftware(m) {
		g.Infrastructure = append(g.Infrastructure, newEntry(s.Element, kindInfrastructure, s.SoftwareType, softwareLabel(s)))
	}

	return g
}

// all returns every entry in group order.
func (g elementGroups) all() []entry {
	out := make([]entry, 0, len(g.Actors)+len(g.Systems)+len(g.Components)+len(g.Services)+len(g.Infrastructure))
	out = append(out, g.Actors...)
	out = append(out, g.Systems...)
	out = append(out, g.Components...)
	out = append(out, g.Services...)
	out = append(out, g.Infrastructure...)
	return out
}

// catalog lists every renderable element of the model.
func catalog(m *model.ArchitectureModel) []entry {
	return groupElements(m).all()
}
