// Package schema defines workflow schemas: the set of fields to extract
// from a document, with type, hint, and criticality metadata.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FieldType is the value type of a schema field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeInteger FieldType = "integer"
	TypeBoolean FieldType = "boolean"
	TypeObject  FieldType = "object"
	TypeArray   FieldType = "array"
	TypeDate    FieldType = "date"
)

var knownTypes = map[FieldType]bool{
	TypeString: true, TypeNumber: true, TypeInteger: true, TypeBoolean: true,
	TypeObject: true, TypeArray: true, TypeDate: true,
}

// Field describes a single extractable field.
type Field struct {
	Name        string    `json:"name" yaml:"name" validate:"required"`
	Type        FieldType `json:"type" yaml:"type" validate:"required"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Pattern     string    `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Enum        []string  `json:"enum,omitempty" yaml:"enum,omitempty"`
	Required    bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Critical    bool      `json:"critical,omitempty" yaml:"critical,omitempty"`
	LabelHints  []string  `json:"label_hints,omitempty" yaml:"label_hints,omitempty"`
	Format      string    `json:"format,omitempty" yaml:"format,omitempty"`
}

// Workflow is a named, ordered collection of fields. Field order defines
// iteration order everywhere downstream, which keeps output deterministic.
type Workflow struct {
	ID     string  `json:"id" yaml:"id" validate:"required"`
	Title  string  `json:"title,omitempty" yaml:"title,omitempty"`
	Fields []Field `json:"fields" yaml:"fields" validate:"required,min=1,dive"`
}

var validate = validator.New()

// FromFile loads a workflow schema from a JSON or YAML file.
func FromFile(path string) (Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Workflow{}, fmt.Errorf("failed to read schema file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FromJSON(data)
	case ".yaml", ".yml":
		return FromYAML(data)
	default:
		return Workflow{}, fmt.Errorf("unsupported schema file format: %s", filepath.Ext(path))
	}
}

// FromJSON parses and validates a workflow schema from JSON.
func FromJSON(data []byte) (Workflow, error) {
	var w Workflow
	if err := json.Unmarshal(data, &w); err != nil {
		return Workflow{}, fmt.Errorf("failed to parse JSON schema: %w", err)
	}
	if err := w.Check(); err != nil {
		return Workflow{}, err
	}
	return w, nil
}

// FromYAML parses and validates a workflow schema from YAML.
func FromYAML(data []byte) (Workflow, error) {
	var w Workflow
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Workflow{}, fmt.Errorf("failed to parse YAML schema: %w", err)
	}
	if err := w.Check(); err != nil {
		return Workflow{}, err
	}
	return w, nil
}

// Check validates the workflow definition itself: struct constraints,
// unique field names, known types, and compilable patterns.
func (w Workflow) Check() error {
	if err := validate.Struct(w); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	seen := make(map[string]bool, len(w.Fields))
	for _, f := range w.Fields {
		if seen[f.Name] {
			return fmt.Errorf("invalid schema: duplicate field name %q", f.Name)
		}
		seen[f.Name] = true
		if !knownTypes[f.Type] {
			return fmt.Errorf("invalid schema: field %q has unknown type %q", f.Name, f.Type)
		}
		if f.Pattern != "" {
			if _, err := regexp.Compile(f.Pattern); err != nil {
				return fmt.Errorf("invalid schema: field %q pattern: %w", f.Name, err)
			}
		}
	}
	return nil
}

// FieldNames returns the field names in schema order.
func (w Workflow) FieldNames() []string {
	names := make([]string, 0, len(w.Fields))
	for _, f := range w.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Critical returns the fields marked critical, in schema order.
func (w Workflow) Critical() []Field {
	var out []Field
	for _, f := range w.Fields {
		if f.Critical {
			out = append(out, f)
		}
	}
	return out
}
