package schema

import (
	"fmt"
	"sort"
)

// Issue describes one problem found while validating a document.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// Validator checks documents against a schema definition before they are
// written to a store.
type Validator struct {
	schema *SchemaDefinition
}

// NewValidator creates a Validator for the given schema.
func NewValidator(schema *SchemaDefinition) *Validator {
	return &Validator{schema: schema}
}

// Validate reports whether the document conforms to the schema, with the list of
// issues found. In loose mode, missing non-nullable fields are not reported.
func (v *Validator) Validate(doc Document, loose bool) (bool, []Issue) {
	var issues []Issue

	for _, name := range v.schema.FieldNames() {
		fd := v.schema.Fields[name]
		value, exists := doc[name]
		if !exists || value == nil {
			if !fd.Nullable && !loose {
				issues = append(issues, Issue{
					Code:    "REQUIRED_FIELD_MISSING",
					Message: fmt.Sprintf("Required field '%s' is missing", name),
					Path:    name,
				})
			}
			continue
		}
		if _, err := Normalize(fd.Type, value); err != nil {
			issues = append(issues, Issue{
				Code:    "TYPE_MISMATCH",
				Message: fmt.Sprintf("Field '%s' expects %s: %v", name, fd.Type, err),
				Path:    name,
			})
		}
	}

	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, exists := v.schema.Fields[key]; !exists {
			issues = append(issues, Issue{
				Code:    "UNEXPECTED_FIELD",
				Message: fmt.Sprintf("Unexpected field '%s' not defined in schema", key),
				Path:    key,
			})
		}
	}

	return len(issues) == 0, issues
}
