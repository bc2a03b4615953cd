// Package toolreg converts remote tool descriptors into LLM function schemas.
package toolreg

import "github.com/aiusd/aiusd-agent/internal/provider"

// Descriptor is a tool as advertised by the tool server.
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema,omitempty"` // JSON Schema object; nil if absent
}

// ToLLMTools converts descriptors to OpenAI-compatible tool definitions.
// It never fails: malformed schema parts fall back to defaults.
func ToLLMTools(descs []Descriptor) []provider.ToolDefinition {
	defs := make([]provider.ToolDefinition, 0, len(descs))
	for _, d := range descs {
		defs = append(defs, provider.ToolDefinition{
			Type: "function",
			Function: provider.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  Parameters(d.InputSchema),
			},
		})
	}
	return defs
}

// Parameters derives the function parameters object from an input schema.
// A nil schema yields {type: object, properties: {}, required: []}.
func Parameters(schema map[string]any) map[string]any {
	props := map[string]any{}
	if in, ok := schema["properties"].(map[string]any); ok {
		for name, raw := range in {
			props[name] = convertProperty(raw)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   requiredNames(schema["required"]),
	}
}

func convertProperty(raw any) map[string]any {
	prop, _ := raw.(map[string]any)

	out := map[string]any{
		"type":        "string",
		"description": "",
	}
	if t := prop["type"]; !isBlank(t) {
		out["type"] = t
	}
	if d := prop["description"]; !isBlank(d) {
		out["description"] = d
	}
	if e := prop["enum"]; e != nil {
		out["enum"] = e
	}

	switch prop["type"] {
	case "object":
		if p := prop["properties"]; p != nil {
			out["properties"] = p
		}
	case "array":
		if it := prop["items"]; it != nil {
			out["items"] = it
		}
	}
	return out
}

func requiredNames(v any) []string {
	names := []string{}
	switch r := v.(type) {
	case []string:
		names = append(names, r...)
	case []any:
		for _, n := range r {
			if s, ok := n.(string); ok {
				names = append(names, s)
			}
		}
	}
	return names
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
