package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func optionalString() map[string]any {
	return map[string]any{"type": []any{"string", "null"}}
}

// responseSchema is the shape the model is asked to answer with. Extra keys
// are tolerated; wrong types are not.
func responseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"customer_name": optionalString(),
			"meeting_date":  optionalString(),
			"start_time":    optionalString(),
			"end_time":      optionalString(),
			"total_hours":   map[string]any{"type": []any{"number", "string", "null"}},
			"notes":         optionalString(),
		},
	}
}

func compileSchema() (*jsonschema.Schema, error) {
	b, err := json.Marshal(responseSchema())
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
