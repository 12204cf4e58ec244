package providers

import "strings"

// geminiUnsupportedSchemaKeys are JSON Schema keywords Gemini's
// function-calling schema validator rejects outright (it accepts only
// a restricted OpenAPI subset) rather than silently ignoring.
var geminiUnsupportedSchemaKeys = map[string]bool{
	"additionalProperties": true,
	"$schema":              true,
	"exclusiveMinimum":     true,
	"exclusiveMaximum":     true,
	"const":                true,
}

// CleanSchemaForProvider returns a copy of schema with keywords the
// named provider's tool-calling API doesn't accept stripped out. Most
// providers pass the schema through unchanged.
func CleanSchemaForProvider(provider string, schema map[string]interface{}) map[string]interface{} {
	if !strings.Contains(strings.ToLower(provider), "gemini") {
		return schema
	}
	return stripSchemaKeys(schema, geminiUnsupportedSchemaKeys)
}

// CleanToolSchemas applies CleanSchemaForProvider to every tool's
// parameter schema, returning new ToolDefinitions so the caller's
// slice isn't mutated.
func CleanToolSchemas(provider string, tools []ToolDefinition) []ToolDefinition {
	cleaned := make([]ToolDefinition, len(tools))
	for i, t := range tools {
		cleaned[i] = ToolDefinition{
			Type: t.Type,
			Function: ToolFunctionSchema{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  CleanSchemaForProvider(provider, t.Function.Parameters),
			},
		}
	}
	return cleaned
}

func stripSchemaKeys(node map[string]interface{}, deny map[string]bool) map[string]interface{} {
	if node == nil {
		return nil
	}
	out := make(map[string]interface{}, len(node))
	for k, v := range node {
		if deny[k] {
			continue
		}
		switch val := v.(type) {
		case map[string]interface{}:
			out[k] = stripSchemaKeys(val, deny)
		case []interface{}:
			out[k] = stripSchemaSlice(val, deny)
		default:
			out[k] = v
		}
	}
	return out
}

func stripSchemaSlice(items []interface{}, deny map[string]bool) []interface{} {
	out := make([]interface{}, len(items))
	for i, it := range items {
		if m, ok := it.(map[string]interface{}); ok {
			out[i] = stripSchemaKeys(m, deny)
		} else {
			out[i] = it
		}
	}
	return out
}
