package search

// DefaultMessage is the message of successful responses.
const DefaultMessage = "OK"

// ListResponse is the envelope a search result is returned in.
type ListResponse[T any] struct {
	Succeeded     bool   `json:"succeeded"`
	Message       string `json:"message"`
	Data          []T    `json:"data"`
	TotalCount    int    `json:"totalCount"`
	FilteredCount int    `json:"filteredCount"`
}

// NewListResponse wraps a successful result.
func NewListResponse[T any](result *Result[T]) ListResponse[T] {
	data := result.Items
	if data == nil {
		data = []T{}
	}
	return ListResponse[T]{
		Succeeded:     true,
		Message:       DefaultMessage,
		Data:          data,
		TotalCount:    result.TotalCount,
		FilteredCount: result.FilteredCount,
	}
}

// FailedListResponse reports a failed search.
func FailedListResponse[T any](err error) ListResponse[T] {
	return ListResponse[T]{Message: err.Error(), Data: []T{}}
}
