package search

import "math"

// Window is the skip/take slice of one page.
type Window struct {
	Skip int
	Take int
}

// PageWindow computes the window of a zero-based page. Take is clamped to the
// filtered count but never drops below one, so an empty result still issues a
// one-record page. Skip saturates at math.MaxInt.
func PageWindow(page, perPage, filteredCount int) Window {
	take := perPage
	if filteredCount < take {
		take = filteredCount
	}
	if take < 1 {
		take = 1
	}
	skip := math.MaxInt
	if perPage <= 0 || page <= math.MaxInt/perPage {
		skip = page * perPage
	}
	return Window{Skip: skip, Take: take}
}
