package metrics

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MBrOssss/RESTApi/core/schema"
	"github.com/MBrOssss/RESTApi/core/search"
	"github.com/MBrOssss/RESTApi/memory"
)

type nurse struct {
	Id   int64
	Ward string
}

var nurseDescriptor = schema.MustDescriptor("Nurse",
	schema.Field[nurse]{Name: "Id", Type: schema.FieldTypeInt64, Get: func(n nurse) any { return n.Id }},
	schema.Field[nurse]{Name: "Ward", Type: schema.FieldTypeString, Get: func(n nurse) any { return n.Ward }},
)

func findFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric family %s not gathered", name)
	return nil
}

func TestRecorder_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	r.Observe(search.SearchEvent{Type: search.SearchCompleted, Entity: "Nurse", FilteredCount: 3, Duration: 2 * time.Millisecond})
	r.Observe(search.SearchEvent{Type: search.SearchCompleted, Entity: "Nurse", FilteredCount: 0})
	r.Observe(search.SearchEvent{Type: search.SearchFailed, Entity: "Nurse"})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.searchesTotal.WithLabelValues("Nurse", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.searchesTotal.WithLabelValues("Nurse", StatusError)))

	filtered := findFamily(t, reg, "restquery_search_filtered_records")
	require.Len(t, filtered.GetMetric(), 1)
	assert.Equal(t, uint64(2), filtered.GetMetric()[0].GetHistogram().GetSampleCount())
	assert.Equal(t, 3.0, filtered.GetMetric()[0].GetHistogram().GetSampleSum())
}

func TestRecorder_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewRecorder(reg)
	require.NoError(t, err)
	_, err = NewRecorder(reg)
	assert.Error(t, err)
}

func TestAttach(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)
	s, err := search.NewSearcher(nurseDescriptor)
	require.NoError(t, err)

	detach := Attach(r, s)
	source := memory.NewCollection(nurseDescriptor, []nurse{{1, "north"}, {2, "south"}}, nil)

	_, err = s.Search(context.Background(), source, search.Request{})
	require.NoError(t, err)
	_, err = s.Search(context.Background(), source, search.Request{Sort: &search.SortSpec{Field: "shift", Direction: "ASC"}})
	require.Error(t, err)

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(r.searchesTotal.WithLabelValues("Nurse", StatusOK)) == 1 &&
			testutil.ToFloat64(r.searchesTotal.WithLabelValues("Nurse", StatusError)) == 1
	}, time.Second, 10*time.Millisecond)

	detach()
}

func TestWriteText(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)
	r.Observe(search.SearchEvent{Type: search.SearchCompleted, Entity: "Nurse", FilteredCount: 1})

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, reg))
	out := buf.String()
	assert.Contains(t, out, "# TYPE restquery_search_total counter")
	assert.Contains(t, out, `restquery_search_total{entity="Nurse",status="ok"} 1`)
	assert.Contains(t, out, "restquery_search_duration_seconds_bucket")
}

func TestRecorder_AsObserver(t *testing.T) {
	r, err := NewRecorder(nil)
	require.NoError(t, err)
	s, err := search.NewSearcher(nurseDescriptor, search.WithObserver(r.Observe))
	require.NoError(t, err)

	source := memory.NewCollection(nurseDescriptor, []nurse{{1, "north"}}, nil)
	_, err = s.Search(context.Background(), source, search.Request{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.searchesTotal.WithLabelValues("Nurse", StatusOK)))
}
