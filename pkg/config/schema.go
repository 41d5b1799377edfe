package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
)

// SchemaID identifies the generated config schema
const SchemaID = "https://github.com/jingkaihe/skills-lint/skills-lint.config.schema.json"

// Schema returns the JSON Schema describing the config file
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}

	schema := reflector.Reflect(&Config{})
	schema.ID = SchemaID
	schema.Title = "skills-lint configuration"
	schema.Description = "Token budgets and structural rules for agent skill files"
	return schema
}

// SchemaJSON returns the indented JSON encoding of Schema
func SchemaJSON() (string, error) {
	data, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to encode schema")
	}
	return string(data), nil
}
