package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON Schema restricted to closed objects: every object
// node lists its properties, requires all of them and sets
// additionalProperties to false.
type Schema struct {
	raw      json.RawMessage
	compiled *gojsonschema.Schema
}

// SchemaError lists the validation problems found in a response.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return ErrSchemaMismatch.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *SchemaError) Unwrap() error { return ErrSchemaMismatch }

// NewSchema parses, contract-checks and compiles raw.
func NewSchema(raw []byte) (Schema, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Schema{}, fmt.Errorf("llm: parse schema: %w", err)
	}
	if err := checkContract("$", doc); err != nil {
		return Schema{}, err
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return Schema{}, fmt.Errorf("llm: compile schema: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return Schema{}, fmt.Errorf("llm: compact schema: %w", err)
	}
	return Schema{raw: buf.Bytes(), compiled: compiled}, nil
}

// MustSchema is NewSchema for embedded schemas; it panics on error.
func MustSchema(raw []byte) Schema {
	s, err := NewSchema(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// IsZero reports whether s holds no schema.
func (s Schema) IsZero() bool { return len(s.raw) == 0 }

// JSON returns the compact schema document sent to providers.
func (s Schema) JSON() json.RawMessage { return s.raw }

// MarshalJSON emits the schema document.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s.IsZero() {
		return []byte("null"), nil
	}
	return s.raw, nil
}

// Validate checks doc against the schema. Problems are reported as *SchemaError.
func (s Schema) Validate(doc []byte) error {
	if s.compiled == nil {
		return nil
	}
	res, err := s.compiled.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if res.Valid() {
		return nil
	}
	problems := make([]string, 0, len(res.Errors()))
	for _, desc := range res.Errors() {
		problems = append(problems, desc.String())
	}
	return &SchemaError{Problems: problems}
}

// WithItemBounds returns a copy of s whose top-level array property has
// minItems and maxItems set.
func (s Schema) WithItemBounds(property string, minItems, maxItems int) (Schema, error) {
	var doc map[string]any
	if err := json.Unmarshal(s.raw, &doc); err != nil {
		return Schema{}, fmt.Errorf("llm: parse schema: %w", err)
	}
	props, _ := doc["properties"].(map[string]any)
	prop, ok := props[property].(map[string]any)
	if !ok || prop["type"] != "array" {
		return Schema{}, fmt.Errorf("llm: schema property %q is not an array", property)
	}
	prop["minItems"] = minItems
	prop["maxItems"] = maxItems
	raw, err := json.Marshal(doc)
	if err != nil {
		return Schema{}, err
	}
	return NewSchema(raw)
}

func checkContract(path string, node map[string]any) error {
	if node["type"] == "array" {
		if items, ok := node["items"].(map[string]any); ok {
			return checkContract(path+"[]", items)
		}
		return nil
	}
	if node["type"] != "object" {
		if path == "$" {
			return fmt.Errorf("llm: schema root must be an object")
		}
		return nil
	}

	props, ok := node["properties"].(map[string]any)
	if !ok {
		return fmt.Errorf("llm: schema %s must declare properties", path)
	}
	if ap, ok := node["additionalProperties"].(bool); !ok || ap {
		return fmt.Errorf("llm: schema %s must set additionalProperties to false", path)
	}
	required := map[string]bool{}
	if list, ok := node["required"].([]any); ok {
		for _, r := range list {
			if name, ok := r.(string); ok {
				required[name] = true
			}
		}
	}
	for name, sub := range props {
		if !required[name] {
			return fmt.Errorf("llm: schema %s must require %q", path, name)
		}
		if child, ok := sub.(map[string]any); ok {
			if err := checkContract(path+"."+name, child); err != nil {
				return err
			}
		}
	}
	return nil
}
