// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package manifest

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// entrySchema builds a JSON schema requiring idField and linkField to be
// non-empty strings on every manifest object.
func entrySchema(idField, linkField string) map[string]any {
	nonEmpty := map[string]any{"type": "string", "minLength": 1}
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":     "object",
			"required": []string{idField, linkField},
			"properties": map[string]any{
				idField:   nonEmpty,
				linkField: nonEmpty,
			},
		},
	}
}

// Validate checks records against the entry schema and reports every
// violation in one error.
func Validate(records []Record, idField, linkField string) error {
	doc := make([]any, len(records))
	for i, r := range records {
		doc[i] = map[string]any(r)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(entrySchema(idField, linkField)),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("validating manifest: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var errs strings.Builder
	for _, desc := range result.Errors() {
		fmt.Fprintf(&errs, "- %s\n", desc)
	}
	return fmt.Errorf("manifest validation failed:\n%s", errs.String())
}
