package core

// Search limit bounds. Requests outside the bounds are rejected, not
// clamped.
const (
	DefaultSearchLimit = 3
	MinSearchLimit     = 1
	MaxSearchLimit     = 10
)

// searchOptions holds resolved search parameters.
type searchOptions struct {
	limit    int
	category MemoryCategory
}

// SearchOption configures a search operation.
type SearchOption func(*searchOptions)

// WithLimit sets the maximum number of results. Valid values are 1 to 10;
// out-of-range values are rejected when the search runs.
func WithLimit(limit int) SearchOption {
	return func(o *searchOptions) {
		o.limit = limit
	}
}

// WithCategoryFilter restricts results to a single category.
func WithCategoryFilter(category MemoryCategory) SearchOption {
	return func(o *searchOptions) {
		o.category = category
	}
}

// newSearchOptions applies the options over the defaults.
func newSearchOptions(opts ...SearchOption) *searchOptions {
	options := &searchOptions{
		limit: DefaultSearchLimit,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
