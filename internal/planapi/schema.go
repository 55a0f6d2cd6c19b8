package planapi

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/planviz/planviz/viewer-go/internal/document"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// validator checks raw backend responses against a per-mode JSON Schema
// before they are decoded.
type validator struct {
	schemas map[document.Mode]*gojsonschema.Schema
}

func newValidator() (*validator, error) {
	commonData, err := schemaFS.ReadFile("schemas/common.json")
	if err != nil {
		return nil, fmt.Errorf("read common schema: %w", err)
	}
	var common map[string]any
	if err := json.Unmarshal(commonData, &common); err != nil {
		return nil, fmt.Errorf("parse common schema: %w", err)
	}

	v := &validator{schemas: make(map[document.Mode]*gojsonschema.Schema, len(document.Modes))}
	for _, mode := range document.Modes {
		data, err := schemaFS.ReadFile("schemas/" + string(mode) + ".json")
		if err != nil {
			return nil, fmt.Errorf("read %s schema: %w", mode, err)
		}
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s schema: %w", mode, err)
		}

		// Every mode schema shares the common definitions.
		doc["definitions"] = common

		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", mode, err)
		}
		v.schemas[mode] = schema
	}
	return v, nil
}

func (v *validator) validate(mode document.Mode, body []byte) error {
	schema, ok := v.schemas[mode]
	if !ok {
		return fmt.Errorf("no schema for mode %q", mode)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}
