package models

// JSONSchema describes the declarative input or output contract of a
// workflow handler. It is rendered to clients as-is to drive dynamic
// form generation.
type JSONSchema struct {
	Type                 string               `json:"type"`
	Title                string               `json:"title,omitempty"`
	Description          string               `json:"description,omitempty"`
	Properties           map[string]*Property `json:"properties,omitempty"`
	Required             []string             `json:"required,omitempty"`
	AdditionalProperties bool                 `json:"additionalProperties"`
}

// Property represents a single JSON Schema property.
type Property struct {
	Type        string               `json:"type"`
	Description string               `json:"description,omitempty"`
	Format      string               `json:"format,omitempty"`
	Placeholder string               `json:"placeholder,omitempty"`
	Enum        []any                `json:"enum,omitempty"`
	Default     any                  `json:"default,omitempty"`
	MinLength   *int                 `json:"minLength,omitempty"`
	MaxLength   *int                 `json:"maxLength,omitempty"`
	Pattern     string               `json:"pattern,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
}

// AsGoType returns the schema as the nested map structure expected by
// gojsonschema loaders.
func (s *JSONSchema) AsGoType() map[string]any {
	out := map[string]any{
		"type":                 s.Type,
		"additionalProperties": s.AdditionalProperties,
	}

	if len(s.Required) > 0 {
		out["required"] = s.Required
	}

	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = prop.asGoType()
		}

		out["properties"] = props
	}

	return out
}

func (p *Property) asGoType() map[string]any {
	out := map[string]any{"type": p.Type}

	if len(p.Enum) > 0 {
		out["enum"] = p.Enum
	}

	if p.MinLength != nil {
		out["minLength"] = *p.MinLength
	}

	if p.MaxLength != nil {
		out["maxLength"] = *p.MaxLength
	}

	if p.Pattern != "" {
		out["pattern"] = p.Pattern
	}

	if p.Items != nil {
		out["items"] = p.Items.asGoType()
	}

	if len(p.Properties) > 0 {
		props := make(map[string]any, len(p.Properties))
		for name, prop := range p.Properties {
			props[name] = prop.asGoType()
		}

		out["properties"] = props

		if len(p.Required) > 0 {
			out["required"] = p.Required
		}
	}

	return out
}

// IntPtr is a convenience helper for schema length bounds.
func IntPtr(v int) *int {
	return &v
}
