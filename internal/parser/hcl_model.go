package parser

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/ankek/terraform-provider-archstudio/internal/model"
)

// elementBlock says where a labeled HCL block lands in the payload and which
// field its "type" attribute fills.
type elementBlock struct {
	layer   string
	list    string
	typeKey string
}

// elementBlocks maps HCL block types to model collections. The block label
// is the element uid.
var elementBlocks = map[string]elementBlock{
	"actor":                {"businessLayer", "actors", "actorType"},
	"business_service":     {"businessLayer", "services", "serviceType"},
	"capability":           {"businessLayer", "capabilities", "level"},
	"domain":               {"businessLayer", "domains", ""},
	"process":              {"businessLayer", "processes", "processType"},
	"application":          {"applicationLayer", "applications", "applicationType"},
	"component":            {"applicationLayer", "components", "componentType"},
	"application_service":  {"applicationLayer", "services", "serviceType"},
	"interface":            {"applicationLayer", "interfaces", "interfaceType"},
	"node":                 {"technologyLayer", "nodes", "nodeType"},
	"technology_service":   {"technologyLayer", "services", "serviceType"},
	"artifact":             {"technologyLayer", "artifacts", "artifactType"},
	"technology_interface": {"technologyLayer", "interfaces", ""},
	"system_software":      {"technologyLayer", "systemSoftware", "softwareType"},
}

// modelSchema is the top-level HCL model layout.
func modelSchema() *hcl.BodySchema {
	schema := &hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{
			{Name: "uid"},
			{Name: "name"},
			{Name: "description"},
			{Name: "version"},
			{Name: "metadata"},
		},
		Blocks: []hcl.BlockHeaderSchema{
			{Type: "relationship"},
		},
	}

	types := make([]string, 0, len(elementBlocks))
	for t := range elementBlocks {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		schema.Blocks = append(schema.Blocks, hcl.BlockHeaderSchema{Type: t, LabelNames: []string{"uid"}})
	}
	return schema
}

// ParseModelHCL decodes an HCL model:
//
//	uid  = "shop"
//	name = "Online Shop"
//
//	actor "customer" {
//	  name = "Customer"
//	  type = "EXTERNAL"
//	}
//
//	relationship {
//	  source = actor.customer
//	  target = "web"
//	  type   = "SERVING"
//	}
//
// Relationship endpoints may be strings or kind.uid references.
func ParseModelHCL(src []byte, filename string) (*model.Architecture, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("HCL parse errors: %s", diags.Error())
	}

	content, diags := file.Body.Content(modelSchema())
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse body: %s", diags.Error())
	}

	payload := map[string]any{}
	for name, attr := range content.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("attribute %q: %s", name, diags.Error())
		}
		payload[name] = ctyToInterface(val)
	}

	var relationships []any
	for _, block := range content.Blocks {
		if block.Type == "relationship" {
			rel, err := relationshipPayload(block)
			if err != nil {
				return nil, err
			}
			relationships = append(relationships, rel)
			continue
		}

		spec := elementBlocks[block.Type]
		el, err := elementPayload(block, spec)
		if err != nil {
			return nil, err
		}
		layer, _ := payload[spec.layer].(map[string]any)
		if layer == nil {
			layer = map[string]any{}
			payload[spec.layer] = layer
		}
		list, _ := layer[spec.list].([]any)
		layer[spec.list] = append(list, el)
	}
	if len(relationships) > 0 {
		payload["relationships"] = relationships
	}

	// The payload mirrors the JSON wire shape, so the JSON decoder does the
	// typed mapping.
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode HCL model: %w", err)
	}
	return ParseModelJSON(data)
}

func elementPayload(block *hcl.Block, spec elementBlock) (map[string]any, error) {
	attrs, err := blockAttributes(block)
	if err != nil {
		return nil, err
	}

	el := map[string]any{"uid": block.Labels[0]}
	for name, v := range attrs {
		switch {
		case name == "type" && spec.typeKey != "":
			el[spec.typeKey] = v
		case name == "uid":
			return nil, fmt.Errorf("%s %q: uid is taken from the block label", block.Type, block.Labels[0])
		default:
			el[camelCase(name)] = v
		}
	}
	return el, nil
}

func relationshipPayload(block *hcl.Block) (map[string]any, error) {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("relationship: %s", diags.Error())
	}

	rel := map[string]any{}
	for name, attr := range attrs {
		if name == "source" || name == "target" {
			if id, ok := referenceID(attr.Expr); ok {
				rel[name] = id
				continue
			}
		}
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("relationship attribute %q: %s", name, diags.Error())
		}
		switch name {
		case "type":
			rel["relationshipType"] = ctyToInterface(val)
		default:
			rel[camelCase(name)] = ctyToInterface(val)
		}
	}

	for _, required := range []string{"source", "target"} {
		if _, ok := rel[required]; !ok {
			return nil, fmt.Errorf("relationship at %s: %s is required", block.DefRange, required)
		}
	}
	return rel, nil
}

// blockAttributes evaluates every attribute of a block without an eval
// context; variables and functions are not available in model files.
func blockAttributes(block *hcl.Block) (map[string]any, error) {
	hclAttrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s %q: %s", block.Type, block.Labels[0], diags.Error())
	}

	attrs := make(map[string]any, len(hclAttrs))
	for name, attr := range hclAttrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("%s %q attribute %q: %s", block.Type, block.Labels[0], name, diags.Error())
		}
		attrs[name] = ctyToInterface(val)
	}
	return attrs, nil
}

// referenceID resolves a kind.uid traversal such as actor.customer to the
// element uid.
func referenceID(expr hcl.Expression) (string, bool) {
	traversal, ok := expr.(*hclsyntax.ScopeTraversalExpr)
	if !ok || len(traversal.Traversal) != 2 {
		return "", false
	}
	if _, known := elementBlocks[traversal.Traversal.RootName()]; !known {
		return "", false
	}
	attr, ok := traversal.Traversal[1].(hcl.TraverseAttr)
	if !ok {
		return "", false
	}
	return attr.Name, true
}

// ctyToInterface converts a cty.Value to a native Go value
func ctyToInterface(val cty.Value) any {
	if val.IsNull() || !val.IsKnown() {
		return nil
	}

	switch val.Type() {
	case cty.String:
		return val.AsString()
	case cty.Number:
		bf := val.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == 0 {
				return i
			}
		}
		f, _ := bf.Float64()
		return f
	case cty.Bool:
		return val.True()
	}

	if val.Type().IsListType() || val.Type().IsTupleType() || val.Type().IsSetType() {
		list := []any{}
		it := val.ElementIterator()
		for it.Next() {
			_, v := it.Element()
			list = append(list, ctyToInterface(v))
		}
		return list
	}

	if val.Type().IsMapType() || val.Type().IsObjectType() {
		m := make(map[string]any)
		it := val.ElementIterator()
		for it.Next() {
			k, v := it.Element()
			m[k.AsString()] = ctyToInterface(v)
		}
		return m
	}

	return nil
}

// camelCase turns an HCL attribute name like stereo_type into stereoType.
func camelCase(name string) string {
	parts := strings.Split(name, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}
