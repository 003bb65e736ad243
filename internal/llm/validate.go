package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiled caches schemas by name. Reply schemas are package-level values,
// so a name always maps to one definition.
var compiled sync.Map // string → *jsonschema.Schema

func validateResponse(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("not JSON: %w", err)}
	}
	sch, err := compile(schema)
	if err != nil {
		// A broken schema is a programming error, not a bad reply.
		return &ErrInvalidRequest{Err: err}
	}
	if err := sch.Validate(inst); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: err}
	}
	return nil
}

func compile(schema *Schema) (*jsonschema.Schema, error) {
	if s, ok := compiled.Load(schema.Name); ok {
		return s.(*jsonschema.Schema), nil
	}

	// The compiler wants the decoded form, with json.Number for numbers.
	def, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", schema.Name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", schema.Name, err)
	}

	url := "schema://" + schema.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("schema %q: %w", schema.Name, err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", schema.Name, err)
	}
	compiled.Store(schema.Name, s)
	return s, nil
}

// Decode validates raw against schema and unmarshals it into v.
func Decode(schema *Schema, raw json.RawMessage, v any) error {
	if err := validateResponse(schema, raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: err}
	}
	return nil
}
