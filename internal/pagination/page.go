package pagination

// Page is one window of a keyset-paginated list.
type Page[T any] struct {
	Items      []T    `json:"items"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// FetchSize is the number of rows a caller must request for a page of limit.
func FetchSize(limit int) int {
	if limit < 1 {
		limit = 1
	}
	return limit + 1
}

// Paginate trims records (fetched with FetchSize) to limit and computes the
// next cursor from the last record kept.
func Paginate[T Keyed](records []T, limit int) Page[T] {
	if limit < 1 {
		limit = 1
	}
	if len(records) <= limit {
		items := records
		if items == nil {
			items = []T{}
		}
		return Page[T]{Items: items}
	}
	items := records[:limit]
	return Page[T]{
		Items:      items,
		HasMore:    true,
		NextCursor: Encode(items[limit-1]),
	}
}

// Map converts the items of a page while keeping its boundaries.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, len(p.Items))
	for i, item := range p.Items {
		out[i] = fn(item)
	}
	return Page[U]{Items: out, HasMore: p.HasMore, NextCursor: p.NextCursor}
}

// NormalizeLimit clamps limit into [1, max]; zero or negative falls back to
// def, and a missing def falls back to max.
func NormalizeLimit(limit, def, max int) int {
	if max < 1 {
		max = 1
	}
	if def < 1 {
		def = max
	}
	if limit <= 0 {
		limit = def
	}
	if limit < 1 {
		limit = 1
	}
	if limit > max {
		limit = max
	}
	return limit
}
