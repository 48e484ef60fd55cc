package decl

import (
	_ "embed"
	"errors"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const SCHEMA_URL = "grfc-declarations.json"

var (
	//go:embed schema.json
	SCHEMA string

	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
)

func documentSchema() *jsonschema.Schema {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft7

		if err := compiler.AddResource(SCHEMA_URL, strings.NewReader(SCHEMA)); err != nil {
			panic(err)
		}
		compiledSchema = compiler.MustCompile(SCHEMA_URL)
	})
	return compiledSchema
}

// validate checks the structure of a document, the error points to the innermost invalid node.
func validate(root *node) error {
	err := documentSchema().Validate(root.toValue())
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return invalid(root.pos, "%s", err)
	}

	for len(validationErr.Causes) > 0 {
		validationErr = validationErr.Causes[0]
	}

	n := root.lookup(validationErr.InstanceLocation)
	return invalid(n.pos, "%s", validationErr.Message)
}
