package snapshot

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

//go:embed schema.json
var schemaJSON []byte

var compiled = struct {
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}{}

// Validate checks a serialized snapshot document against the embedded
// schema. A document that fails here must never be written or served;
// consumers validate with a generic JSON parser, so anything that escapes
// this gate becomes their problem.
func Validate(data []byte) error {
	compiled.once.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		compiled.schema, compiled.err = compiler.Compile(schemaJSON)
	})
	if compiled.err != nil {
		return fmt.Errorf("compile snapshot schema: %w", compiled.err)
	}

	result := compiled.schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("snapshot schema validation failed: %v", result.Errors)
}
