package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/asaidimu/go-events"
	"go.uber.org/zap"

	"github.com/MBrOssss/RESTApi/core/filter"
	"github.com/MBrOssss/RESTApi/core/query"
	"github.com/MBrOssss/RESTApi/core/schema"
)

// Result is one page of a search with its counts. TotalCount is taken before
// any filtering, including the soft-delete guard; FilteredCount after
// filtering and before paging.
type Result[T any] struct {
	Items         []T
	FilteredCount int
	TotalCount    int
}

type settings struct {
	logger          *zap.Logger
	compilerOptions []filter.Option
	observers       []func(SearchEvent)
}

// Option configures a Searcher.
type Option func(*settings)

// WithLogger sets the logger of the searcher and its filter compiler.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithCompilerOptions passes options to the underlying filter compiler.
func WithCompilerOptions(opts ...filter.Option) Option {
	return func(s *settings) { s.compilerOptions = append(s.compilerOptions, opts...) }
}

// WithObserver registers a function called synchronously with every search
// event before Search returns. Bus subscribers may run later.
func WithObserver(observer func(SearchEvent)) Option {
	return func(s *settings) { s.observers = append(s.observers, observer) }
}

// Searcher runs searches over collections of one entity type. It is safe for
// concurrent use.
type Searcher[T any] struct {
	descriptor *schema.Descriptor[T]
	compiler   *filter.Compiler[T]
	logger     *zap.Logger
	bus        *events.TypedEventBus[SearchEvent]
	observers  []func(SearchEvent)

	subMu         sync.Mutex
	subscriptions map[string]*SubscriptionInfo
}

// NewSearcher creates a searcher for the entity described by descriptor.
func NewSearcher[T any](descriptor *schema.Descriptor[T], opts ...Option) (*Searcher[T], error) {
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	compilerOptions := append([]filter.Option{filter.WithLogger(s.logger)}, s.compilerOptions...)
	compiler, err := filter.NewCompiler(descriptor, compilerOptions...)
	if err != nil {
		return nil, err
	}

	bus, err := events.NewTypedEventBus[SearchEvent](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}

	return &Searcher[T]{
		descriptor:    descriptor,
		compiler:      compiler,
		logger:        s.logger,
		bus:           bus,
		observers:     s.observers,
		subscriptions: make(map[string]*SubscriptionInfo),
	}, nil
}

// Compiler returns the filter compiler used by the searcher.
func (s *Searcher[T]) Compiler() *filter.Compiler[T] {
	return s.compiler
}

// Search counts the source, applies the soft-delete guard and the request's
// filters, counts again, then orders and pages the result when the request
// asks for it. The source is never modified.
func (s *Searcher[T]) Search(ctx context.Context, source query.Queryable[T], req Request) (*Result[T], error) {
	startTime := time.Now()
	result, err := s.search(ctx, source, req)

	event := SearchEvent{
		Type:       SearchCompleted,
		Entity:     s.descriptor.Entity(),
		FilterKeys: req.FilterKeys(),
		Sorted:     req.Sort != nil,
		Paged:      req.Paged(),
		Duration:   time.Since(startTime),
		Timestamp:  startTime.UnixMilli(),
	}
	if err != nil {
		errStr := err.Error()
		event.Type = SearchFailed
		event.Error = &errStr
		s.logger.Debug("Search failed",
			zap.String("entity", event.Entity),
			zap.Strings("filterKeys", event.FilterKeys),
			zap.Error(err))
		s.emit(event)
		return nil, err
	}

	event.FilteredCount = result.FilteredCount
	event.TotalCount = result.TotalCount
	event.Returned = len(result.Items)
	s.logger.Debug("Search completed",
		zap.String("entity", event.Entity),
		zap.Int("totalCount", result.TotalCount),
		zap.Int("filteredCount", result.FilteredCount),
		zap.Int("returned", event.Returned),
		zap.Duration("duration", event.Duration))
	s.emit(event)
	return result, nil
}

func (s *Searcher[T]) search(ctx context.Context, source query.Queryable[T], req Request) (*Result[T], error) {
	if source == nil {
		return nil, fmt.Errorf("%w: no collection to search", ErrInvalidRequest)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	predicate, err := s.compiler.Compile(req.Filter)
	if err != nil {
		return nil, err
	}
	var ordering *query.SortConfiguration
	if req.Sort != nil {
		cfg, err := filter.CompileSort(s.descriptor, req.Sort.Field, req.Sort.Direction)
		if err != nil {
			return nil, err
		}
		ordering = &cfg
	}

	totalCount, err := source.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	plan := query.NewQueryBuilder().Filter(predicate)
	filteredCount, err := query.Apply(source, plan.Build()).Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count filtered records: %w", err)
	}

	if ordering != nil {
		plan.Sort(*ordering)
	}
	if req.Paged() {
		w := PageWindow(*req.Page, *req.PerPage, filteredCount)
		plan.Page(w.Skip, w.Take)
	}

	items, err := query.Apply(source, plan.Build()).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return &Result[T]{Items: items, FilteredCount: filteredCount, TotalCount: totalCount}, nil
}
