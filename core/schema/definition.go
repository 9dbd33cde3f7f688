// Package schema describes the shape of filterable entities. It provides the
// field-descriptor tables used to resolve field names to typed accessors, and
// the schema definitions used for map-backed documents read from SQL stores.
package schema

import (
	"fmt"
	"sort"
)

// FieldType represents the value types a filterable field can declare.
type FieldType string

const (
	FieldTypeString   FieldType = "string"   // Text data
	FieldTypeBoolean  FieldType = "boolean"  // True/false values
	FieldTypeInt32    FieldType = "int32"    // 32-bit integers
	FieldTypeInt64    FieldType = "int64"    // 64-bit integers
	FieldTypeFloat64  FieldType = "float64"  // Floating point numbers
	FieldTypeUUID     FieldType = "uuid"     // GUID / UUID identifiers
	FieldTypeDateTime FieldType = "datetime" // Timestamps
)

var knownFieldTypes = map[FieldType]struct{}{
	FieldTypeString:   {},
	FieldTypeBoolean:  {},
	FieldTypeInt32:    {},
	FieldTypeInt64:    {},
	FieldTypeFloat64:  {},
	FieldTypeUUID:     {},
	FieldTypeDateTime: {},
}

// IsValid reports whether the field type is one of the supported types.
func (t FieldType) IsValid() bool {
	_, ok := knownFieldTypes[t]
	return ok
}

// IsInteger reports whether the field holds an integer of any width.
func (t FieldType) IsInteger() bool {
	return t == FieldTypeInt32 || t == FieldTypeInt64
}

// Document is a map-backed record, as returned by SQL stores.
type Document map[string]any

// FieldDefinition defines a field within a schema.
type FieldDefinition struct {
	Name string    `json:"name" yaml:"name"`
	Type FieldType `json:"type" yaml:"type"`
	// Nullable marks fields whose value may be absent (NULL).
	Nullable bool `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	// Description provides a brief explanation of the field.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// IndexDefinition defines an index created alongside the table in SQL stores.
type IndexDefinition struct {
	Name   string   `json:"name" yaml:"name"`
	Fields []string `json:"fields" yaml:"fields"`
	Unique bool     `json:"unique,omitempty" yaml:"unique,omitempty"`
}

// SchemaDefinition describes a map-backed entity: its table name, fields and indexes.
type SchemaDefinition struct {
	Name        string                      `json:"name" yaml:"name"`
	Version     string                      `json:"version,omitempty" yaml:"version,omitempty"`
	Description string                      `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      map[string]*FieldDefinition `json:"fields" yaml:"fields"`
	Indexes     []IndexDefinition           `json:"indexes,omitempty" yaml:"indexes,omitempty"`
}

// Validate checks that the definition is usable: a name, at least one field, known
// field types and indexes referencing declared fields. Field definitions without a
// name take the name of their map key.
func (s *SchemaDefinition) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("schema must define a name")
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema '%s' defines no fields", s.Name)
	}
	for key, field := range s.Fields {
		if field == nil {
			return fmt.Errorf("schema '%s': field '%s' has no definition", s.Name, key)
		}
		if field.Name == "" {
			field.Name = key
		}
		if field.Name != key {
			return fmt.Errorf("schema '%s': field key '%s' does not match field name '%s'", s.Name, key, field.Name)
		}
		if !field.Type.IsValid() {
			return fmt.Errorf("schema '%s': field '%s' has unsupported type '%s'", s.Name, key, field.Type)
		}
	}
	for _, index := range s.Indexes {
		if len(index.Fields) == 0 {
			return fmt.Errorf("schema '%s': index '%s' has no fields", s.Name, index.Name)
		}
		for _, name := range index.Fields {
			if _, ok := s.Fields[name]; !ok {
				return fmt.Errorf("schema '%s': index '%s' references unknown field '%s'", s.Name, index.Name, name)
			}
		}
	}
	return nil
}

// FieldNames returns the declared field names in lexical order.
func (s *SchemaDefinition) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
