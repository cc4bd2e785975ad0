package tools

import (
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Parameter is one declared argument of a tool.
type Parameter struct {
	Type        string     `json:"type"`
	Description string     `json:"description,omitempty"`
	Items       *Parameter `json:"items,omitempty"`
	Required    bool       `json:"-"`
}

// Schema is the declarative description of a tool offered to the model.
// Parameters keep the declaration order of the argument struct fields.
type Schema struct {
	Name        string
	Description string
	Parameters  *orderedmap.OrderedMap[string, Parameter]
}

// fallbackType is used for arguments whose Go type carries no JSON type (interfaces).
const fallbackType = "string"

// DeriveSchemas converts definitions into schemas, one per definition, in input order.
// A definition whose argument type cannot be reflected gets an empty parameter set.
func DeriveSchemas(defs []ToolDefinition) []Schema {
	out := make([]Schema, 0, len(defs))
	for _, d := range defs {
		out = append(out, deriveSchema(d))
	}
	return out
}

func deriveSchema(d ToolDefinition) Schema {
	s := Schema{
		Name:        d.Name,
		Description: d.Description,
		Parameters:  orderedmap.New[string, Parameter](),
	}
	js, err := GenerateSchema(d.Input)
	if err != nil || js.Properties == nil {
		return s
	}

	required := make(map[string]bool, len(js.Required))
	for _, name := range js.Required {
		required[name] = true
	}
	for pair := js.Properties.Oldest(); pair != nil; pair = pair.Next() {
		p := parameterOf(pair.Value)
		p.Required = required[pair.Key]
		s.Parameters.Set(pair.Key, p)
	}
	return s
}

func parameterOf(js *jsonschema.Schema) Parameter {
	p := Parameter{Type: typeTag(js)}
	if js == nil {
		return p
	}
	p.Description = js.Description
	// Providers reject array parameters without an item schema.
	if p.Type == "array" {
		item := parameterOf(js.Items)
		p.Items = &item
	}
	return p
}

func typeTag(p *jsonschema.Schema) string {
	if p == nil {
		return fallbackType
	}
	switch p.Type {
	case "string", "number", "integer", "boolean", "object", "array":
		return p.Type
	}
	return fallbackType
}

// JSONSchema renders the parameter list as a JSON Schema object for the provider.
// Property order is preserved when marshalled.
func (s Schema) JSONSchema() map[string]any {
	props := orderedmap.New[string, Parameter]()
	required := []string{}
	if s.Parameters != nil {
		for pair := s.Parameters.Oldest(); pair != nil; pair = pair.Next() {
			props.Set(pair.Key, pair.Value)
			if pair.Value.Required {
				required = append(required, pair.Key)
			}
		}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

// Names lists parameter names in declaration order.
func (s Schema) Names() []string {
	if s.Parameters == nil {
		return nil
	}
	names := make([]string, 0, s.Parameters.Len())
	for pair := s.Parameters.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}
