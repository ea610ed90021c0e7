package dossier

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// BuildSchema reflects the dossier document contract into a JSON schema used
// both by the load-time validator and by editor tooling via cmd/schema.
func BuildSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	entrySchema := reflector.ReflectFromType(reflect.TypeOf(Dossier{}))
	if entrySchema == nil {
		return nil, fmt.Errorf("failed to reflect dossier schema")
	}
	entrySchema.Version = ""
	entrySchema.Title = "Dossier"
	entrySchema.Description = "Immutable archetype definition for a hostile agent."

	root := &jsonschema.Schema{
		Version:     jsonschema.Version,
		Type:        "array",
		Title:       "Emberfall Dossier Catalogue",
		Description: "Designer-authored agent archetypes consumed at startup.",
		Items:       entrySchema,
	}
	return root, nil
}

// SchemaJSON renders the dossier schema as indented JSON.
func SchemaJSON() ([]byte, error) {
	schema, err := BuildSchema()
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return append(data, '\n'), nil
}
