package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// EndpointRef is one end of a relationship. The backend sends either a bare
// id or an embedded element object; both decode here.
type EndpointRef struct {
	uid string
	raw any
}

// Ref builds an EndpointRef from a raw id.
func Ref(id string) EndpointRef {
	return EndpointRef{uid: id}
}

// ID returns the element id this endpoint points at.
func (e EndpointRef) ID() string {
	if e.uid != "" {
		return e.uid
	}
	return ExtractID(e.raw)
}

// IsZero reports whether the endpoint resolves to no id at all.
func (e EndpointRef) IsZero() bool {
	return e.ID() == ""
}

// UnmarshalJSON accepts a string, a number, or an object with a uid field.
func (e *EndpointRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*e = EndpointRef{}
		return nil
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode relationship endpoint: %w", err)
	}
	*e = EndpointRef{raw: v}
	return nil
}

// MarshalJSON writes the resolved id as a plain string.
func (e EndpointRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ID())
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML model files.
func (e *EndpointRef) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return fmt.Errorf("decode relationship endpoint: %w", err)
	}
	*e = EndpointRef{raw: v}
	return nil
}

// ExtractID resolves an endpoint value to an id. Objects with a uid field
// win; anything else is string-coerced. nil yields "".
func ExtractID(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case EndpointRef:
		return t.ID()
	case map[string]any:
		if uid, ok := t["uid"]; ok && uid != nil {
			return ExtractID(uid)
		}
		return ""
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
