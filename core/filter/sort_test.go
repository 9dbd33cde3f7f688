package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MBrOssss/RESTApi/core/query"
	"github.com/MBrOssss/RESTApi/core/schema"
)

func TestCompileSort(t *testing.T) {
	tests := []struct {
		field, direction string
		want             query.SortConfiguration
	}{
		{"name", "ASC", query.SortConfiguration{Field: "Name", Direction: query.SortDirectionAsc}},
		{"Name", "DESC", query.SortConfiguration{Field: "Name", Direction: query.SortDirectionDesc}},
		{"rating", "asc", query.SortConfiguration{Field: "Rating", Direction: query.SortDirectionDesc}},
		{"lastVisit", "", query.SortConfiguration{Field: "LastVisit", Direction: query.SortDirectionDesc}},
	}
	for _, tt := range tests {
		t.Run(tt.field+" "+tt.direction, func(t *testing.T) {
			got, err := CompileSort(doctorDescriptor, tt.field, tt.direction)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown field", func(t *testing.T) {
		_, err := CompileSort(doctorDescriptor, "specialty", "ASC")
		assert.True(t, errors.Is(err, schema.ErrFieldNotFound))
	})

	t.Run("only the first letter is normalized", func(t *testing.T) {
		_, err := CompileSort(doctorDescriptor, "lastvisit", "ASC")
		assert.True(t, errors.Is(err, schema.ErrFieldNotFound))
	})
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "", capitalize(""))
	assert.Equal(t, "A", capitalize("a"))
	assert.Equal(t, "Łódź", capitalize("łódź"))
	assert.Equal(t, "Id", capitalize("Id"))
}
