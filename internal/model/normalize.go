package model

import (
	"fmt"
	"time"
)

// DefaultName is used when the payload carries no name.
const DefaultName = "Untitled Architecture"

// Normalize converts a raw payload into an ArchitectureModel. A missing uid
// becomes a timestamp placeholder and a missing name becomes DefaultName;
// every other field passes through untouched.
func Normalize(arch *Architecture, now time.Time) *ArchitectureModel {
	if arch == nil {
		arch = &Architecture{}
	}

	uid := arch.UID
	if uid == "" {
		uid = fmt.Sprintf("arch-%d", now.UnixMilli())
	}
	name := arch.Name
	if name == "" {
		name = DefaultName
	}

	return &ArchitectureModel{
		UID:              uid,
		Name:             name,
		Description:      arch.Description,
		Version:          arch.Version,
		BusinessLayer:    arch.BusinessLayer,
		ApplicationLayer: arch.ApplicationLayer,
		TechnologyLayer:  arch.TechnologyLayer,
		Relationships:    arch.Relationships,
		Metadata:         arch.Metadata,
	}
}

// Actors returns the business actors, or nil when the layer is absent.
func (m *ArchitectureModel) Actors() []BusinessActor {
	if m == nil || m.BusinessLayer == nil {
		return nil
	}
	return m.BusinessLayer.Actors
}

func (m *ArchitectureModel) BusinessServices() []BusinessService {
	if m == nil || m.BusinessLayer == nil {
		return nil
	}
	return m.BusinessLayer.Services
}

func (m *ArchitectureModel) Applications() []Application {
	if m == nil || m.ApplicationLayer == nil {
		return nil
	}
	return m.ApplicationLayer.Applications
}

func (m *ArchitectureModel) Components() []ApplicationComponent {
	if m == nil || m.ApplicationLayer == nil {
		return nil
	}
	return m.ApplicationLayer.Components
}

func (m *ArchitectureModel) ApplicationServices() []ApplicationService {
	if m == nil || m.ApplicationLayer == nil {
		return nil
	}
	return m.ApplicationLayer.Services
}

func (m *ArchitectureModel) ApplicationInterfaces() []ApplicationInterface {
	if m == nil || m.ApplicationLayer == nil {
		return nil
	}
	return m.ApplicationLayer.Interfaces
}

func (m *ArchitectureModel) TechnologyNodes() []TechnologyNode {
	if m == nil || m.TechnologyLayer == nil {
		return nil
	}
	return m.TechnologyLayer.Nodes
}

func (m *ArchitectureModel) TechnologyServices() []TechnologyService {
	if m == nil || m.TechnologyLayer == nil {
		return nil
	}
	return m.TechnologyLayer.Services
}

func (m *ArchitectureModel) SystemSoftware() []SystemSoftware {
	if m == nil || m.TechnologyLayer == nil {
		return nil
	}
	return m.TechnologyLayer.SystemSoftware
}

// MetadataString reads a string entry from the model metadata.
func (m *ArchitectureModel) MetadataString(key string) string {
	if m == nil {
		return ""
	}
	s, _ := GetStringProperty(m.Metadata, key)
	return s
}
