// Package model holds the architecture model consumed by every renderer:
// the inbound Architecture payload, its normalized ArchitectureModel form,
// and the analysis and validation helpers that operate on it.
package model

// Architecture is the loosely-typed payload returned by the architecture
// backend. Any field may be missing.
type Architecture struct {
	UID              string            `json:"uid,omitempty" yaml:"uid,omitempty"`
	Name             string            `json:"name,omitempty" yaml:"name,omitempty"`
	Description      string            `json:"description,omitempty" yaml:"description,omitempty"`
	Version          string            `json:"version,omitempty" yaml:"version,omitempty"`
	BusinessLayer    *BusinessLayer    `json:"businessLayer,omitempty" yaml:"businessLayer,omitempty"`
	ApplicationLayer *ApplicationLayer `json:"applicationLayer,omitempty" yaml:"applicationLayer,omitempty"`
	TechnologyLayer  *TechnologyLayer  `json:"technologyLayer,omitempty" yaml:"technologyLayer,omitempty"`
	Relationships    []Relationship    `json:"relationships,omitempty" yaml:"relationships,omitempty"`
	Metadata         map[string]any    `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// ArchitectureModel is the normalized model. UID and Name are always set.
// Renderers treat it as read-only.
type ArchitectureModel struct {
	UID              string            `json:"uid"`
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	Version          string            `json:"version,omitempty"`
	BusinessLayer    *BusinessLayer    `json:"businessLayer,omitempty"`
	ApplicationLayer *ApplicationLayer `json:"applicationLayer,omitempty"`
	TechnologyLayer  *TechnologyLayer  `json:"technologyLayer,omitempty"`
	Relationships    []Relationship    `json:"relationships,omitempty"`
	Metadata         map[string]any    `json:"metadata,omitempty"`
}

// Element carries the fields shared by every layer element.
type Element struct {
	UID         string         `json:"uid,omitempty" yaml:"uid,omitempty"`
	Name        string         `json:"name,omitempty" yaml:"name,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Properties  map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Renderable reports whether the element has the uid and name every
// renderer requires.
func (e Element) Renderable() bool {
	return e.UID != "" && e.Name != ""
}

// BusinessLayer groups the business-layer elements.
type BusinessLayer struct {
	Actors       []BusinessActor      `json:"actors,omitempty" yaml:"actors,omitempty"`
	Services     []BusinessService    `json:"services,omitempty" yaml:"services,omitempty"`
	Capabilities []BusinessCapability `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Domains      []BusinessDomain     `json:"domains,omitempty" yaml:"domains,omitempty"`
	Processes    []BusinessProcess    `json:"processes,omitempty" yaml:"processes,omitempty"`
}

// BusinessActor is a person or organisation interacting with the systems.
type BusinessActor struct {
	Element   `yaml:",inline"`
	ActorType string `json:"actorType,omitempty" yaml:"actorType,omitempty"` // INTERNAL, EXTERNAL, PARTNER, SYSTEM
}

type BusinessService struct {
	Element     `yaml:",inline"`
	ServiceType string `json:"serviceType,omitempty" yaml:"serviceType,omitempty"`
}

type BusinessCapability struct {
	Element `yaml:",inline"`
	Level   string `json:"level,omitempty" yaml:"level,omitempty"`
}

type BusinessDomain struct {
	Element `yaml:",inline"`
}

type BusinessProcess struct {
	Element     `yaml:",inline"`
	ProcessType string `json:"processType,omitempty" yaml:"processType,omitempty"`
}

// ApplicationLayer groups the application-layer elements.
type ApplicationLayer struct {
	Applications []Application          `json:"applications,omitempty" yaml:"applications,omitempty"`
	Components   []ApplicationComponent `json:"components,omitempty" yaml:"components,omitempty"`
	Services     []ApplicationService   `json:"services,omitempty" yaml:"services,omitempty"`
	Interfaces   []ApplicationInterface `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
}

// Application is a deployable software system.
type Application struct {
	Element         `yaml:",inline"`
	ApplicationType string `json:"applicationType,omitempty" yaml:"applicationType,omitempty"` // WEB, MOBILE, DESKTOP, SERVICE, DATABASE, EXTERNAL
	StereoType      string `json:"stereoType,omitempty" yaml:"stereoType,omitempty"`
	Lifecycle       string `json:"lifecycle,omitempty" yaml:"lifecycle,omitempty"` // PLANNED, ACTIVE, DEPRECATED, RETIRED
	Technology      string `json:"technology,omitempty" yaml:"technology,omitempty"`
}

// ApplicationComponent is a building block of an application.
type ApplicationComponent struct {
	Element       `yaml:",inline"`
	ComponentType string `json:"componentType,omitempty" yaml:"componentType,omitempty"` // FRONTEND, BACKEND, DATABASE, QUEUE, API, LIBRARY
	Technology    string `json:"technology,omitempty" yaml:"technology,omitempty"`
}

type ApplicationService struct {
	Element     `yaml:",inline"`
	ServiceType string `json:"serviceType,omitempty" yaml:"serviceType,omitempty"`
}

type ApplicationInterface struct {
	Element       `yaml:",inline"`
	InterfaceType string `json:"interfaceType,omitempty" yaml:"interfaceType,omitempty"`
	Protocol      string `json:"protocol,omitempty" yaml:"protocol,omitempty"`
}

// TechnologyLayer groups the technology-layer elements.
type TechnologyLayer struct {
	Nodes          []TechnologyNode      `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Services       []TechnologyService   `json:"services,omitempty" yaml:"services,omitempty"`
	Artifacts      []Artifact            `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	Interfaces     []TechnologyInterface `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	SystemSoftware []SystemSoftware      `json:"systemSoftware,omitempty" yaml:"systemSoftware,omitempty"`
}

// TechnologyNode is a physical or virtual host.
type TechnologyNode struct {
	Element     `yaml:",inline"`
	NodeType    string `json:"nodeType,omitempty" yaml:"nodeType,omitempty"` // SERVER, CONTAINER, CLOUD, VM, DEVICE, NETWORK
	Environment string `json:"environment,omitempty" yaml:"environment,omitempty"`
	Location    string `json:"location,omitempty" yaml:"location,omitempty"`
}

type TechnologyService struct {
	Element     `yaml:",inline"`
	ServiceType string `json:"serviceType,omitempty" yaml:"serviceType,omitempty"`
}

type Artifact struct {
	Element      `yaml:",inline"`
	ArtifactType string `json:"artifactType,omitempty" yaml:"artifactType,omitempty"`
}

type TechnologyInterface struct {
	Element  `yaml:",inline"`
	Protocol string `json:"protocol,omitempty" yaml:"protocol,omitempty"`
}

// SystemSoftware is software running on a technology node (database engine,
// runtime, middleware).
type SystemSoftware struct {
	Element      `yaml:",inline"`
	SoftwareType string `json:"softwareType,omitempty" yaml:"softwareType,omitempty"` // DATABASE, RUNTIME, MIDDLEWARE, OS
	Version      string `json:"version,omitempty" yaml:"version,omitempty"`
	Vendor       string `json:"vendor,omitempty" yaml:"vendor,omitempty"`
}

// RelationshipType classifies a relationship.
type RelationshipType string

const (
	RelationshipFlow        RelationshipType = "FLOW"
	RelationshipServing     RelationshipType = "SERVING"
	RelationshipAccess      RelationshipType = "ACCESS"
	RelationshipTriggering  RelationshipType = "TRIGGERING"
	RelationshipComposition RelationshipType = "COMPOSITION"
	RelationshipAggregation RelationshipType = "AGGREGATION"
	RelationshipAssociation RelationshipType = "ASSOCIATION"
)

// Relationship links two elements by id. Ids are not checked against the
// model; unknown ids render as dangling edges.
type Relationship struct {
	UID              string           `json:"uid,omitempty" yaml:"uid,omitempty"`
	Source           EndpointRef      `json:"source" yaml:"source"`
	Target           EndpointRef      `json:"target" yaml:"target"`
	Description      string           `json:"description,omitempty" yaml:"description,omitempty"`
	RelationshipType RelationshipType `json:"relationshipType,omitempty" yaml:"relationshipType,omitempty"`
	FlowType         string           `json:"flowType,omitempty" yaml:"flowType,omitempty"`
	Properties       map[string]any   `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Type returns the relationship type, defaulting to ASSOCIATION.
func (r Relationship) Type() RelationshipType {
	if r.RelationshipType == "" {
		return RelationshipAssociation
	}
	return r.RelationshipType
}

// Technology returns the properties.technology hint, if any.
func (r Relationship) Technology() string {
	s, _ := GetStringProperty(r.Properties, "technology")
	return s
}

// SourceID returns the resolved source element id.
func (r Relationship) SourceID() string { return r.Source.ID() }

// TargetID returns the resolved target element id.
func (r Relationship) TargetID() string { return r.Target.ID() }
