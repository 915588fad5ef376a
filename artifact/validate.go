package artifact

import (
	"fmt"

	"github.com/garcon-ai/garcon/pkg/stdx"
	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

var schemaReflector = jsonschema.Reflector{
	AllowAdditionalProperties: false,
	DoNotReference:            true,
}

// SchemaFor reflects a JSON schema for T, for editors whose artifact
// shape is a Go type rather than hand-written JSON.
func SchemaFor[T any]() []byte {
	var v T
	return stdx.Must1(json.Marshal(schemaReflector.Reflect(v)))
}

// ValidationResult reports the outcome of validating a document
// against its schema.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validate checks the document against the JSON schema.
func Validate(schema, document []byte) (ValidationResult, error) {
	schemaLoader := gojsonschema.NewBytesLoader(schema)
	docLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return ValidationResult{}, fmt.Errorf("schema validation: %w", err)
	}

	vr := ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		vr.Errors = append(vr.Errors, desc.String())
	}
	return vr, nil
}
