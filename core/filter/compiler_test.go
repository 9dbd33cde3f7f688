package filter

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MBrOssss/RESTApi/core/query"
	"github.com/MBrOssss/RESTApi/core/schema"
)

func newTestCompiler(t *testing.T, opts ...Option) *Compiler[doctor] {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	c, err := NewCompiler(doctorDescriptor, opts...)
	require.NoError(t, err)
	return c
}

func apply(t *testing.T, f *query.QueryFilter) []int32 {
	t.Helper()
	got, err := query.NewEvaluator(doctorDescriptor, nil).Filter(doctors(), f)
	require.NoError(t, err)
	ids := make([]int32, 0, len(got))
	for _, d := range got {
		ids = append(ids, d.Id)
	}
	return ids
}

func TestCompiler_Compile(t *testing.T) {
	all := []int32{1, 2, 3, 4, 5}

	tests := []struct {
		name    string
		mapping *Mapping
		want    []int32
	}{
		{"nil mapping applies the guard", nil, all},
		{"empty mapping applies the guard", NewMapping(), all},
		{"unrecognized prefixes are ignored", NewMapping("like_Name", "anna", "sort", "Name", "Equal_Id", "1"), all},
		{"in list", NewMapping("in_Id", "1,2,3"), []int32{1, 2, 3}},
		{"in list never returns deleted records", NewMapping("in_Id", "1,6"), []int32{1}},
		{"in list with only blanks", NewMapping("in_Id", " , ,"), all},
		{"in list of uuids", NewMapping("in_ClinicId", clinicB.String()), []int32{2, 4}},
		{"in list of strings", NewMapping("in_Name", "Jan Kowalski, Anna Nowak"), []int32{1, 2}},
		{"not in list", NewMapping("notin_Id", "1,2"), []int32{3, 4, 5}},
		{"date equal covers the whole day", NewMapping("date_LastVisit", "2024-05-01"), []int32{1, 2}},
		{"date equal ignores time of day", NewMapping("date_LastVisit", "2024-05-01T18:30:00"), []int32{1, 2}},
		{"date to is inclusive of midnight", NewMapping("date_to_LastVisit", "2024-05-01"), []int32{1, 5}},
		{"date from", NewMapping("date_from_LastVisit", "2024-05-01"), []int32{1, 2, 3}},
		{"datetime from", NewMapping("datetime_from_LastVisit", "2024-05-01T23:59:59.999Z"), []int32{2, 3}},
		{"datetime to", NewMapping("datetime_to_LastVisit", "2024-05-01T00:00:00Z"), []int32{1, 5}},
		{"active windows", NewMapping("date_between_LicenseFrom%LicenseTo", "true"), []int32{1, 4}},
		{"inactive windows", NewMapping("date_between_LicenseFrom%LicenseTo", "False"), []int32{2, 3, 5}},
		{"free text search", NewMapping("q", "CARDIO"), []int32{1, 3}},
		{"string contains", NewMapping("string_Name", "nOwAk"), []int32{1}},
		{"equal truthy bool", NewMapping("equal_Approved", "yes"), []int32{1, 3, 5}},
		{"equal false bool", NewMapping("equal_Approved", "nope"), []int32{2, 4}},
		{"equal uuid", NewMapping("equal_ClinicId", clinicB.String()), []int32{2, 4}},
		{"not equal uuid", NewMapping("notequal_ClinicId", clinicA.String()), []int32{2, 4}},
		{"not equal string", NewMapping("notequal_Name", "Anna Nowak"), []int32{2, 3, 4, 5}},
		{"equal float", NewMapping("equal_Rating", "4.5"), []int32{1}},
		{"empty operand on nullable number means null", NewMapping("equal_Rating", ""), []int32{2, 4}},
		{"not equal null", NewMapping("notequal_Rating", ""), []int32{1, 3, 5}},
		{"empty uuid sentinel is skipped", NewMapping("equal_ClinicId", "00000000-0000-0000-0000-000000000000"), all},
		{"int min sentinel is skipped", NewMapping("notequal_Id", "-2147483648"), all},
		{"not null true", NewMapping("not_null_Rating", "true"), []int32{1, 3, 5}},
		{"not null false", NewMapping("not_null_Rating", "FALSE"), []int32{2, 4}},
		{"not null without value is skipped", NewMapping("not_null_Rating", ""), all},
		{"keys are anded", NewMapping("q", "cardiology", "equal_ClinicId", clinicA.String(), "in_Id", "3,5"), []int32{3}},
	}

	c := newTestCompiler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := c.Compile(tt.mapping)
			require.NoError(t, err)
			assert.Equal(t, tt.want, apply(t, f))
		})
	}
}

func TestCompiler_CompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		mapping *Mapping
		want    error
	}{
		{"bad integer", NewMapping("equal_Id", "abc"), ErrParse},
		{"int32 overflow", NewMapping("equal_Id", "4294967296"), ErrParse},
		{"bad uuid list element", NewMapping("in_ClinicId", "not-a-uuid"), ErrParse},
		{"short date", NewMapping("date_LastVisit", "2024"), ErrParse},
		{"bad timestamp", NewMapping("datetime_from_LastVisit", "yesterday"), ErrParse},
		{"range without second field", NewMapping("date_between_LicenseFrom", "true"), ErrParse},
		{"range flag must be a boolean", NewMapping("date_between_LicenseFrom%LicenseTo", "yes"), ErrParse},
		{"date on string field", NewMapping("date_Name", "2024-01-01"), ErrUnsupportedType},
		{"equality on datetime field", NewMapping("equal_LicenseFrom", "2024-01-01"), ErrUnsupportedType},
		{"list on float field", NewMapping("in_Rating", "1,2"), ErrUnsupportedType},
		{"contains on bool field", NewMapping("string_Approved", "t"), ErrUnsupportedType},
		{"unknown field", NewMapping("equal_Missing", "1"), schema.ErrFieldNotFound},
		{"unknown second range field", NewMapping("date_between_LicenseFrom%Nope", "true"), schema.ErrFieldNotFound},
	}

	c := newTestCompiler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compile(tt.mapping)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestCompiler_Idempotent(t *testing.T) {
	c := newTestCompiler(t, WithPlanCacheSize(0))
	m := NewMapping("q", "a", "notin_Id", "2", "date_between_LicenseFrom%LicenseTo", "false")

	first, err := c.Compile(m)
	require.NoError(t, err)
	second, err := c.Compile(m)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, apply(t, first), apply(t, second))
}

func TestCompiler_PlanCache(t *testing.T) {
	t.Run("stable plans are reused", func(t *testing.T) {
		c := newTestCompiler(t)
		first, err := c.Compile(NewMapping("in_Id", "1,2"))
		require.NoError(t, err)
		second, err := c.Compile(NewMapping("in_Id", "1,2"))
		require.NoError(t, err)
		assert.Same(t, first, second)
		assert.Equal(t, 1, c.plans.Len())
	})

	t.Run("key order is part of the plan", func(t *testing.T) {
		c := newTestCompiler(t)
		_, err := c.Compile(NewMapping("in_Id", "1", "q", "x"))
		require.NoError(t, err)
		_, err = c.Compile(NewMapping("q", "x", "in_Id", "1"))
		require.NoError(t, err)
		assert.Equal(t, 2, c.plans.Len())
	})

	t.Run("separator bytes in values do not collide", func(t *testing.T) {
		c := newTestCompiler(t)
		single, err := c.Compile(NewMapping("q", "x\x1estring_Name\x00y"))
		require.NoError(t, err)
		pair, err := c.Compile(NewMapping("q", "x", "string_Name", "y"))
		require.NoError(t, err)
		assert.NotEqual(t, single, pair)
		assert.Equal(t, 2, c.plans.Len())
	})

	t.Run("time dependent plans are not cached", func(t *testing.T) {
		now := fixedNow
		c := newTestCompiler(t, WithClock(func() time.Time {
			now = now.Add(time.Minute)
			return now
		}))
		m := NewMapping("date_between_LicenseFrom%LicenseTo", "true")
		first, err := c.Compile(m)
		require.NoError(t, err)
		second, err := c.Compile(m)
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
		assert.Equal(t, 0, c.plans.Len())
	})

	t.Run("failed compiles are not cached", func(t *testing.T) {
		c := newTestCompiler(t)
		_, err := c.Compile(NewMapping("equal_Id", "x"))
		require.Error(t, err)
		assert.Equal(t, 0, c.plans.Len())
	})

	t.Run("disabled", func(t *testing.T) {
		c := newTestCompiler(t, WithPlanCacheSize(0))
		assert.Nil(t, c.plans)
	})

	t.Run("concurrent compiles agree", func(t *testing.T) {
		c := newTestCompiler(t)
		m := NewMapping("in_Id", "1,3", "q", "cardio")
		want, err := c.Compile(m)
		require.NoError(t, err)

		var wg sync.WaitGroup
		results := make([]*query.QueryFilter, 16)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], _ = c.Compile(NewMapping("in_Id", "1,3", "q", "cardio"))
			}(i)
		}
		wg.Wait()
		for _, got := range results {
			assert.Equal(t, want, got)
		}
	})
}

func TestCompiler_LogsIgnoredKeys(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := newTestCompiler(t, WithLogger(zap.New(core)), WithPlanCacheSize(0))

	_, err := c.Compile(NewMapping("between_Id", "1", "equal_Id", "00000000-0000-0000-0000-000000000000"))
	require.NoError(t, err)

	ignored := logs.FilterMessage("Ignoring filter key with unrecognized prefix").All()
	require.Len(t, ignored, 1)
	assert.Equal(t, "between_Id", ignored[0].ContextMap()["key"])
	assert.Equal(t, 1, logs.FilterMessage("Skipping filter with empty sentinel value").Len())
}

func TestCompiler_Location(t *testing.T) {
	warsaw := time.FixedZone("CEST", 2*60*60)
	c := newTestCompiler(t, WithLocation(warsaw))

	f, err := c.Compile(NewMapping("date_from_LastVisit", "2024-05-02"))
	require.NoError(t, err)
	// Midnight in +02:00 is 22:00 UTC of the previous day.
	assert.Equal(t, []int32{2, 3}, apply(t, f))
}

func TestNewCompiler(t *testing.T) {
	_, err := NewCompiler[doctor](nil)
	assert.Error(t, err)

	c := newTestCompiler(t, WithPrefixRules([]PrefixRule{{Prefix: "eq.", Operator: OperatorEqual}}))
	f, err := c.Compile(NewMapping("eq.Id", "4", "in_Id", "1"))
	require.NoError(t, err)
	assert.Equal(t, []int32{4}, apply(t, f))
	assert.Same(t, doctorDescriptor, c.Descriptor())
}

func TestNewMapping(t *testing.T) {
	m := NewMapping("b", "1", "a", "2", "dangling")
	keys := []string{}
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key+"="+pair.Value)
	}
	assert.Equal(t, []string{"b=1", "a=2", "dangling="}, keys)
}

func TestPlanKey(t *testing.T) {
	tests := []struct {
		name string
		a, b [][2]string
	}{
		{"split inside a key", [][2]string{{"ab", "c"}}, [][2]string{{"a", "bc"}}},
		{"nul in key", [][2]string{{"q\x00x", "y"}}, [][2]string{{"q", "x\x00y"}}},
		{"one entry against two", [][2]string{{"q", "x\x1eq2\x00y"}}, [][2]string{{"q", "x"}, {"q2", "y"}}},
		{"length-like text", [][2]string{{"1:a", ""}}, [][2]string{{"1", "a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, planKey(tt.a), planKey(tt.b))
		})
	}
	assert.Equal(t, "1:q4:anna", planKey([][2]string{{"q", "anna"}}))
}
