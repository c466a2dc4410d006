package domain

// Pagination is a {limit, offset} window over an ordered list.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Page is the list envelope returned by every list operation.
type Page[T any] struct {
	Data   []T   `json:"data"`
	Count  int64 `json:"count"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// NewPage builds an envelope whose Data is never nil.
func NewPage[T any](data []T, count int64, p Pagination) Page[T] {
	if data == nil {
		data = []T{}
	}
	return Page[T]{Data: data, Count: count, Limit: p.Limit, Offset: p.Offset}
}
