package reading

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// buildExtractionSchema returns the JSON-Schema (draft 2020-12 subset) the
// classifier output must satisfy before narrowing. Types are deliberately
// loose: numbers and bracketed strings are salvageable. The strictness
// lives in the narrowing pass, which owns the reason codes.
func buildExtractionSchema() map[string]any {
	loose := map[string]any{"type": []string{"string", "number", "null"}}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"cope":      loose,
			"drag_main": loose,
			"drag_sub":  loose,
			"drag": map[string]any{
				"type": []string{"string", "number", "null", "object"},
				"properties": map[string]any{
					"main": loose,
					"sub":  loose,
				},
			},
		},
	}
}

// compileSchema compiles the extraction schema once at construction.
func compileSchema() (*jsonschema.Schema, error) {
	b, err := json.Marshal(buildExtractionSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("extraction.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("extraction.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
