package schema

import "fmt"

// NewDocumentDescriptor derives the field table of a map-backed entity from its
// schema definition. Getters read the document key of the same name.
func NewDocumentDescriptor(def *SchemaDefinition) (*Descriptor[Document], error) {
	if def == nil {
		return nil, fmt.Errorf("schema definition cannot be nil")
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	fields := make([]Field[Document], 0, len(def.Fields))
	for _, name := range def.FieldNames() {
		fd := def.Fields[name]
		key := fd.Name
		fields = append(fields, Field[Document]{
			Name:     key,
			Type:     fd.Type,
			Nullable: fd.Nullable,
			Get: func(doc Document) any {
				return doc[key]
			},
			Set: func(doc *Document, value any) error {
				if *doc == nil {
					*doc = Document{}
				}
				(*doc)[key] = value
				return nil
			},
		})
	}
	return NewDescriptor(def.Name, fields...)
}
