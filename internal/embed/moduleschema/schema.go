// Package moduleschema validates host-supplied native-module declarations
// before registration, catching malformed shapes (an empty module, function
// or class name, or a class field name that is not a string) with a
// structural error instead of a panic deep inside the VM the first time a
// script touches the broken entry.
package moduleschema

import (
	"bytes"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// declSchemaText describes the shape of a declarative module manifest: the
// JSON form a host can use to describe its native surface up front (for
// documentation generation, or a cross-language binding manifest shipped
// alongside the compiled Go registration code), independent of the Go
// NativeModule builder calls that do the actual registration.
const declSchemaText = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "functions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "async": {"type": "boolean"}
        }
      }
    },
    "classes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "fields": {
            "type": "array",
            "items": {"type": "string"}
          }
        }
      }
    }
  }
}`

var schema = mustCompile()

func mustCompile() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("module-decl.json", bytes.NewReader([]byte(declSchemaText))); err != nil {
		panic(fmt.Sprintf("moduleschema: invalid built-in schema: %v", err))
	}
	return c.MustCompile("module-decl.json")
}

// Validate checks decl (a JSON-decoded map[string]any, or anything else
// jsonschema's validator accepts) against the native-module declaration
// schema, returning a combined error naming every violation at once.
func Validate(decl any) error {
	if err := schema.Validate(decl); err != nil {
		return fmt.Errorf("moduleschema: invalid module declaration: %w", err)
	}
	return nil
}
