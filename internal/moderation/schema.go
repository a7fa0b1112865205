package moderation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// buildResultJSONSchema returns a JSON-Schema (draft 2020-12 subset) for the
// poll envelope as a generic map. Every field is optional: absent sections are
// handled by the interpreter, so the schema only rejects wrongly-typed
// payloads, not sparse ones.
func buildResultJSONSchema() map[string]any {
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"category":         map[string]any{"type": "string"},
			"likelihood_score": map[string]any{"type": "number"},
		},
	}
	textResult := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"nsfw_likelihood_score": map[string]any{"type": "number"},
			"items":                 map[string]any{"type": "array", "items": item},
		},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"status": map[string]any{"type": "string"},
					"results": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"text__moderation": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"results": map[string]any{"type": "array", "items": textResult},
								},
							},
						},
					},
				},
			},
		},
	}
}

// validateJSONAgainstSchema validates "data" against "schemaMap".
func validateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
