package schema

import (
	"errors"
	"fmt"
)

// ErrFieldNotFound is returned when a field name does not exist on an entity.
var ErrFieldNotFound = errors.New("field not found")

// DeletedFieldNames lists the delete-flag field names probed for soft-delete
// support, in lookup order.
var DeletedFieldNames = []string{"Deleted", "IsDeleted", "Removed", "IsRemoved"}

// IDFieldNames lists the identifier field names probed by IDField, in lookup order.
var IDFieldNames = []string{"Id"}

// Getter reads the value of one field from an entity. Null values of nullable
// fields are reported as nil.
type Getter[T any] func(entity T) any

// Setter writes the value of one field on an entity.
type Setter[T any] func(entity *T, value any) error

// Field is a typed accessor for a single field of entity type T.
type Field[T any] struct {
	Name     string
	Type     FieldType
	Nullable bool
	Get      Getter[T]
	Set      Setter[T] // Optional; nil for read-only fields.
}

// Value reads the field from the entity and normalizes it to the canonical Go
// type of the field's declared type.
func (f Field[T]) Value(entity T) (any, error) {
	raw := f.Get(entity)
	v, err := Normalize(f.Type, raw)
	if err != nil {
		return nil, fmt.Errorf("field '%s': %w", f.Name, err)
	}
	return v, nil
}

// Descriptor is the field table of one entity type. It is built once and is safe
// for concurrent use afterwards, since it is never mutated.
type Descriptor[T any] struct {
	entity string
	order  []string
	fields map[string]Field[T]
}

// NewDescriptor builds a descriptor for the named entity from the given fields.
func NewDescriptor[T any](entity string, fields ...Field[T]) (*Descriptor[T], error) {
	if entity == "" {
		return nil, fmt.Errorf("descriptor requires an entity name")
	}
	d := &Descriptor[T]{
		entity: entity,
		order:  make([]string, 0, len(fields)),
		fields: make(map[string]Field[T], len(fields)),
	}
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("entity '%s': field name cannot be empty", entity)
		}
		if !f.Type.IsValid() {
			return nil, fmt.Errorf("entity '%s': field '%s' has unsupported type '%s'", entity, f.Name, f.Type)
		}
		if f.Get == nil {
			return nil, fmt.Errorf("entity '%s': field '%s' has no getter", entity, f.Name)
		}
		if _, dup := d.fields[f.Name]; dup {
			return nil, fmt.Errorf("entity '%s': duplicate field '%s'", entity, f.Name)
		}
		d.fields[f.Name] = f
		d.order = append(d.order, f.Name)
	}
	return d, nil
}

// MustDescriptor is like NewDescriptor but panics on error. It is meant for
// package-level descriptor tables.
func MustDescriptor[T any](entity string, fields ...Field[T]) *Descriptor[T] {
	d, err := NewDescriptor(entity, fields...)
	if err != nil {
		panic(err)
	}
	return d
}

// Entity returns the entity name the descriptor was built for.
func (d *Descriptor[T]) Entity() string {
	return d.entity
}

// Fields returns the fields in declaration order.
func (d *Descriptor[T]) Fields() []Field[T] {
	out := make([]Field[T], 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.fields[name])
	}
	return out
}

// Resolve returns the field with the given (case-sensitive) name.
func (d *Descriptor[T]) Resolve(name string) (Field[T], error) {
	f, ok := d.fields[name]
	if !ok {
		return Field[T]{}, fmt.Errorf("%w: '%s' on entity '%s'", ErrFieldNotFound, name, d.entity)
	}
	return f, nil
}

// Lookup returns the first field whose name matches one of the candidates.
// The boolean is false when none exists; callers treat that as "does not apply".
func (d *Descriptor[T]) Lookup(candidates ...string) (Field[T], bool) {
	for _, name := range candidates {
		if f, ok := d.fields[name]; ok {
			return f, true
		}
	}
	return Field[T]{}, false
}

// DeletedField returns the entity's soft-delete flag, if it has one.
func (d *Descriptor[T]) DeletedField() (Field[T], bool) {
	return d.Lookup(DeletedFieldNames...)
}

// IDField returns the entity's identifier field, if it has one.
func (d *Descriptor[T]) IDField() (Field[T], bool) {
	return d.Lookup(IDFieldNames...)
}

// MarkDeleted sets the soft-delete flag of the entity to true.
func (d *Descriptor[T]) MarkDeleted(entity *T) error {
	f, ok := d.DeletedField()
	if !ok {
		return fmt.Errorf("entity '%s' has no delete flag field", d.entity)
	}
	if f.Set == nil {
		return fmt.Errorf("entity '%s': delete flag '%s' is read-only", d.entity, f.Name)
	}
	return f.Set(entity, true)
}
