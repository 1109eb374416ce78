package model

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestNormalize(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	tests := []struct {
		name     string
		arch     *Architecture
		wantUID  string
		wantName string
	}{
		{
			name:     "nil payload",
			arch:     nil,
			wantUID:  "arch-1700000000000",
			wantName: DefaultName,
		},
		{
			name:     "missing uid and name",
			arch:     &Architecture{Description: "desc"},
			wantUID:  "arch-1700000000000",
			wantName: DefaultName,
		},
		{
			name:     "fields present",
			arch:     &Architecture{UID: "a-1", Name: "Shop"},
			wantUID:  "a-1",
			wantName: "Shop",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Normalize(tt.arch, now)
			if m.UID != tt.wantUID {
				t.Errorf("UID = %q, want %q", m.UID, tt.wantUID)
			}
			if m.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", m.Name, tt.wantName)
			}
		})
	}
}

func TestNormalizePassesThroughFields(t *testing.T) {
	arch := &Architecture{
		UID:         "a-1",
		Name:        "Shop",
		Description: "online shop",
		Version:     "2.0",
		BusinessLayer: &BusinessLayer{
			Actors: []BusinessActor{{Element: Element{UID: "actor-1", Name: "Customer"}}},
		},
		Metadata: map[string]any{"owner": "team-a"},
	}

	m := Normalize(arch, time.Now())
	if m.Description != "online shop" || m.Version != "2.0" {
		t.Errorf("description/version not carried over: %+v", m)
	}
	if m.BusinessLayer != arch.BusinessLayer {
		t.Error("business layer should pass through unchanged")
	}
	if m.MetadataString("owner") != "team-a" {
		t.Errorf("MetadataString(owner) = %q", m.MetadataString("owner"))
	}
}

func TestAnalyze(t *testing.T) {
	m := &ArchitectureModel{
		UID:  "a",
		Name: "A",
		BusinessLayer: &BusinessLayer{
			Actors:       []BusinessActor{{}, {}},
			Capabilities: []BusinessCapability{{}},
		},
		ApplicationLayer: &ApplicationLayer{
			Applications: []Application{{}},
			Components:   []ApplicationComponent{{}, {}, {}},
		},
		TechnologyLayer: &TechnologyLayer{
			Nodes:          []TechnologyNode{{}},
			SystemSoftware: []SystemSoftware{{}},
		},
		Relationships: []Relationship{{Source: Ref("x"), Target: Ref("y")}},
	}

	got := Analyze(m)
	want := Summary{
		Business:      BusinessCounts{Actors: 2, Capabilities: 1},
		Application:   ApplicationCounts{Applications: 1, Components: 3},
		Technology:    TechnologyCounts{Nodes: 1, SystemSoftware: 1},
		Relationships: 1,
		TotalElements: 9,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Analyze() mismatch (-want +got):\n%s", diff)
	}

	if empty := Analyze(&ArchitectureModel{}); empty.TotalElements != 0 {
		t.Errorf("empty model TotalElements = %d, want 0", empty.TotalElements)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		model       *ArchitectureModel
		wantValid   bool
		wantCodes   []string
		wantWarning bool
	}{
		{
			name:        "missing uid and name",
			model:       &ArchitectureModel{},
			wantValid:   false,
			wantCodes:   []string{CodeMissingUID, CodeMissingName},
			wantWarning: true,
		},
		{
			name: "relationship without endpoints",
			model: &ArchitectureModel{
				UID:  "a",
				Name: "A",
				BusinessLayer: &BusinessLayer{
					Actors: []BusinessActor{{Element: Element{UID: "x", Name: "X"}}},
				},
				Relationships: []Relationship{{}},
			},
			wantValid: false,
			wantCodes: []string{CodeMissingSource, CodeMissingTarget},
		},
		{
			name: "dangling relationship is valid",
			model: &ArchitectureModel{
				UID:  "a",
				Name: "A",
				BusinessLayer: &BusinessLayer{
					Actors: []BusinessActor{{Element: Element{UID: "x", Name: "X"}}},
				},
				Relationships: []Relationship{{Source: Ref("x"), Target: Ref("missing")}},
			},
			wantValid: true,
		},
		{
			name:        "empty model warns",
			model:       &ArchitectureModel{UID: "a", Name: "A"},
			wantValid:   true,
			wantWarning: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.model)
			if res.IsValid != tt.wantValid {
				t.Errorf("IsValid = %v, want %v (errors: %v)", res.IsValid, tt.wantValid, res.Errors)
			}
			var codes []string
			for _, e := range res.Errors {
				codes = append(codes, e.Code)
			}
			if diff := cmp.Diff(tt.wantCodes, codes); diff != "" {
				t.Errorf("error codes mismatch (-want +got):\n%s", diff)
			}
			if (len(res.Warnings) > 0) != tt.wantWarning {
				t.Errorf("warnings = %v, wantWarning %v", res.Warnings, tt.wantWarning)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	valid := regexp.MustCompile(`^[A-Za-z0-9_]*$`)

	tests := []struct {
		in   string
		want string
	}{
		{"actor-1", "actor_1"},
		{"already_ok", "already_ok"},
		{"", ""},
		{"a.b/c d", "a_b_c_d"},
		{"ünïcode", "_n_code"},
		{"ABC123", "ABC123"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Sanitize(tt.in)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := Sanitize(got); again != got {
				t.Errorf("Sanitize not idempotent: %q -> %q", got, again)
			}
			if !valid.MatchString(got) {
				t.Errorf("Sanitize(%q) = %q contains forbidden characters", tt.in, got)
			}
		})
	}
}

func TestEndpointRefJSON(t *testing.T) {
	payload := `[
		{"source": "actor-1", "target": {"uid": "app-1", "name": "Web"}},
		{"source": 42, "target": {"name": "no uid"}},
		{"source": null}
	]`

	var rels []Relationship
	if err := json.Unmarshal([]byte(payload), &rels); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got := rels[0].SourceID(); got != "actor-1" {
		t.Errorf("string source = %q", got)
	}
	if got := rels[0].TargetID(); got != "app-1" {
		t.Errorf("object target = %q", got)
	}
	if got := rels[1].SourceID(); got != "42" {
		t.Errorf("numeric source = %q", got)
	}
	if !rels[1].Target.IsZero() {
		t.Errorf("object without uid should resolve to empty id, got %q", rels[1].TargetID())
	}
	if !rels[2].Source.IsZero() || !rels[2].Target.IsZero() {
		t.Error("null/missing endpoints should be zero")
	}

	out, err := json.Marshal(rels[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal back: %v", err)
	}
	if back["target"] != "app-1" {
		t.Errorf("marshalled target = %v, want app-1", back["target"])
	}
}

func TestEndpointRefYAML(t *testing.T) {
	doc := `
- source: actor-1
  target:
    uid: app-1
  relationshipType: SERVING
`
	var rels []Relationship
	if err := yaml.Unmarshal([]byte(doc), &rels); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rels[0].SourceID() != "actor-1" || rels[0].TargetID() != "app-1" {
		t.Errorf("got %q -> %q", rels[0].SourceID(), rels[0].TargetID())
	}
	if rels[0].Type() != RelationshipServing {
		t.Errorf("Type() = %q", rels[0].Type())
	}
}

func TestRelationshipDefaults(t *testing.T) {
	r := Relationship{Properties: map[string]any{"technology": "HTTPS"}}
	if r.Type() != RelationshipAssociation {
		t.Errorf("default Type() = %q, want ASSOCIATION", r.Type())
	}
	if r.Technology() != "HTTPS" {
		t.Errorf("Technology() = %q", r.Technology())
	}
}

func TestGetStringProperty(t *testing.T) {
	props := map[string]any{
		"s":   "text",
		"f":   float64(8080),
		"n":   json.Number("12"),
		"b":   true,
		"nil": nil,
		"obj": map[string]any{},
	}

	tests := []struct {
		key    string
		want   string
		wantOK bool
	}{
		{"s", "text", true},
		{"f", "8080", true},
		{"n", "12", true},
		{"b", "true", true},
		{"nil", "", false},
		{"obj", "", false},
		{"missing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := GetStringProperty(props, tt.key)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("GetStringProperty(%q) = %q, %v; want %q, %v", tt.key, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"text", "text"},
		{float64(2.5), "2.5"},
		{json.Number("7"), "7"},
		{true, "true"},
		{[]any{"a", "b"}, "[a b]"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
