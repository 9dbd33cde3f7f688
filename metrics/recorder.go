// Package metrics exposes search outcomes as Prometheus metrics. A Recorder
// subscribes to a searcher's events, so searches are measured without the
// search code knowing about Prometheus.
//
// Metrics:
//   - restquery_search_total: searches by entity and status ("ok", "error")
//   - restquery_search_duration_seconds: search duration histogram by entity
//   - restquery_search_filtered_records: filtered record count histogram by entity
package metrics

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/MBrOssss/RESTApi/core/search"
)

const (
	namespace = "restquery"

	StatusOK    = "ok"
	StatusError = "error"
)

// Recorder holds the search collectors.
type Recorder struct {
	searchesTotal   *prometheus.CounterVec
	searchDuration  *prometheus.HistogramVec
	filteredRecords *prometheus.HistogramVec
}

// NewRecorder creates the collectors and registers them with reg. A nil reg
// uses a fresh registry.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r := &Recorder{
		searchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "search_total",
				Help:      "Total number of searches by outcome",
			},
			[]string{"entity", "status"},
		),
		searchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_duration_seconds",
				Help:      "Duration of searches in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"entity"},
		),
		filteredRecords: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_filtered_records",
				Help:      "Number of records left after filtering",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"entity"},
		),
	}

	for _, c := range []prometheus.Collector{r.searchesTotal, r.searchDuration, r.filteredRecords} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register search metrics: %w", err)
		}
	}
	return r, nil
}

// Observe records one search event.
func (r *Recorder) Observe(event search.SearchEvent) {
	if event.Type == search.SearchFailed {
		r.searchesTotal.WithLabelValues(event.Entity, StatusError).Inc()
		return
	}
	r.searchesTotal.WithLabelValues(event.Entity, StatusOK).Inc()
	r.searchDuration.WithLabelValues(event.Entity).Observe(event.Duration.Seconds())
	r.filteredRecords.WithLabelValues(event.Entity).Observe(float64(event.FilteredCount))
}

// Attach subscribes the recorder to both outcomes of a searcher. The returned
// function removes the subscriptions.
func Attach[T any](r *Recorder, s *search.Searcher[T]) func() {
	handle := func(ctx context.Context, event search.SearchEvent) error {
		r.Observe(event)
		return nil
	}
	unsubscribeCompleted := s.Subscribe(search.SearchCompleted, handle)
	unsubscribeFailed := s.Subscribe(search.SearchFailed, handle)
	return func() {
		unsubscribeCompleted()
		unsubscribeFailed()
	}
}

// WriteText writes every metric family of g in the Prometheus text format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
