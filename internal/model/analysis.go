package model

// BusinessCounts holds business-layer element counts.
type BusinessCounts struct {
	Actors       int `json:"actors"`
	Services     int `json:"services"`
	Capabilities int `json:"capabilities"`
	Domains      int `json:"domains"`
	Processes    int `json:"processes"`
}

// Total sums the business counts.
func (c BusinessCounts) Total() int {
	return c.Actors + c.Services + c.Capabilities + c.Domains + c.Processes
}

// ApplicationCounts holds application-layer element counts.
type ApplicationCounts struct {
	Applications int `json:"applications"`
	Components   int `json:"components"`
	Services     int `json:"services"`
	Interfaces   int `json:"interfaces"`
}

func (c ApplicationCounts) Total() int {
	return c.Applications + c.Components + c.Services + c.Interfaces
}

// TechnologyCounts holds technology-layer element counts.
type TechnologyCounts struct {
	Nodes          int `json:"nodes"`
	Services       int `json:"services"`
	Artifacts      int `json:"artifacts"`
	Interfaces     int `json:"interfaces"`
	SystemSoftware int `json:"systemSoftware"`
}

func (c TechnologyCounts) Total() int {
	return c.Nodes + c.Services + c.Artifacts + c.Interfaces + c.SystemSoftware
}

// Summary is the per-layer element tally of a model.
type Summary struct {
	Business      BusinessCounts    `json:"business"`
	Application   ApplicationCounts `json:"application"`
	Technology    TechnologyCounts  `json:"technology"`
	Relationships int               `json:"relationships"`
	TotalElements int               `json:"totalElements"`
}

// Analyze counts the elements of each layer. Absent layers count as zero.
func Analyze(m *ArchitectureModel) Summary {
	var s Summary
	if m == nil {
		return s
	}

	if b := m.BusinessLayer; b != nil {
		s.Business = BusinessCounts{
			Actors:       len(b.Actors),
			Services:     len(b.Services),
			Capabilities: len(b.Capabilities),
			Domains:      len(b.Domains),
			Processes:    len(b.Processes),
		}
	}
	if a := m.ApplicationLayer; a != nil {
		s.Application = ApplicationCounts{
			Applications: len(a.Applications),
			Components:   len(a.Components),
			Services:     len(a.Services),
			Interfaces:   len(a.Interfaces),
		}
	}
	if t := m.TechnologyLayer; t != nil {
		s.Technology = TechnologyCounts{
			Nodes:          len(t.Nodes),
			Services:       len(t.Services),
			Artifacts:      len(t.Artifacts),
			Interfaces:     len(t.Interfaces),
			SystemSoftware: len(t.SystemSoftware),
		}
	}

	s.Relationships = len(m.Relationships)
	s.TotalElements = s.Business.Total() + s.Application.Total() + s.Technology.Total()
	return s
}
