package providers

import "testing"

func TestCleanSchemaForProviderPassesThroughNonGemini(t *testing.T) {
	schema := map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
	}
	got := CleanSchemaForProvider("openai", schema)
	if _, ok := got["additionalProperties"]; !ok {
		t.Fatal("expected non-gemini providers to keep additionalProperties")
	}
}

func TestCleanSchemaForProviderStripsUnsupportedGeminiKeywords(t *testing.T) {
	schema := map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"properties": map[string]interface{}{
			"count": map[string]interface{}{
				"type":             "integer",
				"exclusiveMinimum": 0,
			},
		},
	}
	got := CleanSchemaForProvider("gemini-2.5-flash", schema)
	if _, ok := got["additionalProperties"]; ok {
		t.Fatal("expected additionalProperties stripped for gemini")
	}
	if _, ok := got["$schema"]; ok {
		t.Fatal("expected $schema stripped for gemini")
	}
	props := got["properties"].(map[string]interface{})
	count := props["count"].(map[string]interface{})
	if _, ok := count["exclusiveMinimum"]; ok {
		t.Fatal("expected nested exclusiveMinimum stripped for gemini")
	}
	if count["type"] != "integer" {
		t.Fatalf("expected unrelated keys preserved, got %+v", count)
	}
}

func TestCleanToolSchemasAppliesToEachTool(t *testing.T) {
	tools := []ToolDefinition{
		{Type: "function", Function: ToolFunctionSchema{
			Name: "search",
			Parameters: map[string]interface{}{
				"type":                 "object",
				"additionalProperties": false,
			},
		}},
	}
	cleaned := CleanToolSchemas("gemini-pro", tools)
	if len(cleaned) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(cleaned))
	}
	if _, ok := cleaned[0].Function.Parameters["additionalProperties"]; ok {
		t.Fatal("expected additionalProperties stripped from tool schema")
	}
	if _, ok := tools[0].Function.Parameters["additionalProperties"]; !ok {
		t.Fatal("expected original tool schema left untouched")
	}
}
