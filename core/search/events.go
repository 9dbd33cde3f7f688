package search

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// SearchEventType names the events emitted by a Searcher.
type SearchEventType string

const (
	SearchCompleted SearchEventType = "search.completed"
	SearchFailed    SearchEventType = "search.failed"
)

// SearchEvent describes the outcome of one search.
type SearchEvent struct {
	Type          SearchEventType `json:"type"`
	Entity        string          `json:"entity"`
	FilterKeys    []string        `json:"filterKeys,omitempty"`
	Sorted        bool            `json:"sorted"`
	Paged         bool            `json:"paged"`
	FilteredCount int             `json:"filteredCount"`
	TotalCount    int             `json:"totalCount"`
	Returned      int             `json:"returned"`
	Duration      time.Duration   `json:"duration"`
	Error         *string         `json:"error,omitempty"`
	Timestamp     int64           `json:"timestamp"` // Unix milliseconds.
}

// EventCallback handles a search event.
type EventCallback func(ctx context.Context, event SearchEvent) error

// SubscriptionInfo describes a registered subscription.
type SubscriptionInfo struct {
	Id          string          `json:"id"`
	Event       SearchEventType `json:"event"`
	Label       string          `json:"label,omitempty"`
	Unsubscribe func()          `json:"-"`
}

func (s *Searcher[T]) emit(event SearchEvent) {
	for _, observe := range s.observers {
		observe(event)
	}
	if s.bus != nil {
		s.bus.Emit(string(event.Type), event)
	}
}

// Subscribe registers a callback for one event type. The returned function
// removes the subscription.
func (s *Searcher[T]) Subscribe(event SearchEventType, callback EventCallback) func() {
	return s.bus.Subscribe(string(event), func(ctx context.Context, e SearchEvent) error {
		return callback(ctx, e)
	})
}

// RegisterSubscription registers a labelled callback and returns an ID that
// can be used to unregister it later.
func (s *Searcher[T]) RegisterSubscription(event SearchEventType, label string, callback EventCallback) string {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := uuid.New().String()
	s.subscriptions[id] = &SubscriptionInfo{
		Id:          id,
		Event:       event,
		Label:       label,
		Unsubscribe: s.Subscribe(event, callback),
	}
	return id
}

// UnregisterSubscription removes a subscription by its ID.
func (s *Searcher[T]) UnregisterSubscription(id string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if info, ok := s.subscriptions[id]; ok {
		info.Unsubscribe()
		delete(s.subscriptions, id)
	}
}

// Subscriptions returns the registered subscriptions ordered by label and ID.
func (s *Searcher[T]) Subscriptions() []SubscriptionInfo {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	out := make([]SubscriptionInfo, 0, len(s.subscriptions))
	for _, info := range s.subscriptions {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Id < out[j].Id
	})
	return out
}
