// Package query holds the list-query pipeline used to page through listing
// collections: the query state, the filter predicate, the sort comparator
// and the paginator, plus a local fetcher that runs all three in memory.
package query

import (
	"context"

	"buyersdesk/listing"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

const (
	DefaultPageSize  = listing.DefaultPageSize
	MaxPageSize      = listing.MaxPageSize
	MaxPage          = listing.MaxPage
	DefaultSortField = "createdAt"
)

// State is the mutable set of list parameters owned by one query session.
type State struct {
	SearchText       string
	Status           string
	MinPrice         *int64
	MaxPrice         *int64
	PostedWithinDays *int
	SortField        string
	SortDirection    Direction
	Page             int
	PageSize         int
}

// ResultPage is one displayed page of a query.
type ResultPage struct {
	Items      []listing.Record
	TotalCount int
	TotalPages int
	// AllCount is the size of the collection before filtering.
	AllCount int
}

// Fetcher resolves a State to a page of results.
type Fetcher interface {
	Fetch(ctx context.Context, state State) (ResultPage, error)
}

func DefaultState() State {
	return State{
		SortField:     DefaultSortField,
		SortDirection: Desc,
		Page:          1,
		PageSize:      DefaultPageSize,
	}
}

// Normalize applies the same paging and sort defaults the backend uses.
func (s State) Normalize() State {
	if s.Page <= 0 {
		s.Page = 1
	}
	if s.Page > MaxPage {
		s.Page = MaxPage
	}
	if s.PageSize <= 0 || s.PageSize > MaxPageSize {
		s.PageSize = DefaultPageSize
	}
	s.SortField = canonicalField(s.SortField)
	if s.SortDirection != Asc && s.SortDirection != Desc {
		s.SortDirection = Desc
	}
	return s
}

// Filters converts the state into the repository search input.
func (s State) Filters() listing.Filters {
	s = s.Normalize()
	return listing.Filters{
		Text:             s.SearchText,
		Status:           s.Status,
		MinPrice:         s.MinPrice,
		MaxPrice:         s.MaxPrice,
		PostedWithinDays: s.PostedWithinDays,
		Page:             s.Page,
		PageSize:         s.PageSize,
		SortKey:          s.SortField,
		SortOrder:        string(s.SortDirection),
	}
}

// FromFilters is the inverse of Filters.
func FromFilters(f listing.Filters) State {
	return State{
		SearchText:       f.Text,
		Status:           f.Status,
		MinPrice:         f.MinPrice,
		MaxPrice:         f.MaxPrice,
		PostedWithinDays: f.PostedWithinDays,
		SortField:        f.SortKey,
		SortDirection:    Direction(f.SortOrder),
		Page:             f.Page,
		PageSize:         f.PageSize,
	}.Normalize()
}

// Equal compares by value, dereferencing the optional bounds.
func (s State) Equal(o State) bool {
	return s.SearchText == o.SearchText &&
		s.Status == o.Status &&
		equalPtr(s.MinPrice, o.MinPrice) &&
		equalPtr(s.MaxPrice, o.MaxPrice) &&
		equalPtr(s.PostedWithinDays, o.PostedWithinDays) &&
		s.SortField == o.SortField &&
		s.SortDirection == o.SortDirection &&
		s.Page == o.Page &&
		s.PageSize == o.PageSize
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
