package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clinic struct {
	Id        int64
	Name      string
	IsRemoved bool
}

func clinicFields() []Field[clinic] {
	return []Field[clinic]{
		{Name: "Id", Type: FieldTypeInt64, Get: func(c clinic) any { return c.Id }},
		{Name: "Name", Type: FieldTypeString, Get: func(c clinic) any { return c.Name }},
		{
			Name: "IsRemoved",
			Type: FieldTypeBoolean,
			Get:  func(c clinic) any { return c.IsRemoved },
			Set: func(c *clinic, v any) error {
				b, ok := v.(bool)
				if !ok {
					return errors.New("not a bool")
				}
				c.IsRemoved = b
				return nil
			},
		},
	}
}

func TestNewDescriptor(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		d, err := NewDescriptor("Clinic", clinicFields()...)
		require.NoError(t, err)
		assert.Equal(t, "Clinic", d.Entity())
		names := []string{}
		for _, f := range d.Fields() {
			names = append(names, f.Name)
		}
		assert.Equal(t, []string{"Id", "Name", "IsRemoved"}, names)
	})

	tests := []struct {
		name   string
		entity string
		fields []Field[clinic]
	}{
		{"empty entity", "", clinicFields()},
		{"empty field name", "Clinic", []Field[clinic]{{Type: FieldTypeString, Get: func(clinic) any { return "" }}}},
		{"bad type", "Clinic", []Field[clinic]{{Name: "X", Type: "decimal", Get: func(clinic) any { return "" }}}},
		{"no getter", "Clinic", []Field[clinic]{{Name: "X", Type: FieldTypeString}}},
		{"duplicate", "Clinic", append(clinicFields(), clinicFields()[0])},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDescriptor(tt.entity, tt.fields...)
			assert.Error(t, err)
		})
	}

	assert.Panics(t, func() { MustDescriptor[clinic]("") })
}

func TestDescriptor_Resolve(t *testing.T) {
	d := MustDescriptor("Clinic", clinicFields()...)

	f, err := d.Resolve("Name")
	require.NoError(t, err)
	assert.Equal(t, FieldTypeString, f.Type)

	_, err = d.Resolve("name")
	assert.True(t, errors.Is(err, ErrFieldNotFound))
	assert.Contains(t, err.Error(), "Clinic")
}

func TestDescriptor_WellKnownFields(t *testing.T) {
	d := MustDescriptor("Clinic", clinicFields()...)

	deleted, ok := d.DeletedField()
	require.True(t, ok)
	assert.Equal(t, "IsRemoved", deleted.Name)

	id, ok := d.IDField()
	require.True(t, ok)
	assert.Equal(t, "Id", id.Name)

	plain := MustDescriptor("Plain", clinicFields()[1])
	_, ok = plain.DeletedField()
	assert.False(t, ok)
	_, ok = plain.IDField()
	assert.False(t, ok)
}

func TestDescriptor_MarkDeleted(t *testing.T) {
	d := MustDescriptor("Clinic", clinicFields()...)
	c := clinic{Id: 1}
	require.NoError(t, d.MarkDeleted(&c))
	assert.True(t, c.IsRemoved)

	plain := MustDescriptor("Plain", clinicFields()[0])
	assert.Error(t, plain.MarkDeleted(&c))

	readOnly := clinicFields()[2]
	readOnly.Set = nil
	assert.Error(t, MustDescriptor("ReadOnly", readOnly).MarkDeleted(&c))
}

func TestDocumentDescriptor(t *testing.T) {
	def := &SchemaDefinition{
		Name: "patients",
		Fields: map[string]*FieldDefinition{
			"Id":      {Type: FieldTypeInt64},
			"Deleted": {Type: FieldTypeBoolean},
			"Name":    {Type: FieldTypeString, Nullable: true},
		},
	}
	d, err := NewDocumentDescriptor(def)
	require.NoError(t, err)
	assert.Equal(t, "patients", d.Entity())

	name, err := d.Resolve("Name")
	require.NoError(t, err)
	assert.True(t, name.Nullable)

	doc := Document{"Id": 3, "Name": "Eve", "Deleted": false}
	v, err := name.Value(doc)
	require.NoError(t, err)
	assert.Equal(t, "Eve", v)

	id, _ := d.Resolve("Id")
	v, err = id.Value(doc)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	require.NoError(t, d.MarkDeleted(&doc))
	assert.Equal(t, true, doc["Deleted"])

	_, err = NewDocumentDescriptor(nil)
	assert.Error(t, err)
}
