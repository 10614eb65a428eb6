package query

import (
	"context"
	"slices"
	"time"

	"buyersdesk/listing"
)

// Run applies filter, sort and paginate to records in that order.
func Run(records []listing.Record, s State, now time.Time) ResultPage {
	s = s.Normalize()

	matched := Filter(records, BuildPredicate(s, now))
	ordered := Sort(matched, s.SortField, s.SortDirection)
	items, totalPages := Paginate(ordered, s.Page, s.PageSize)

	all := 0
	for _, rec := range records {
		if !rec.SoftDeleted() {
			all++
		}
	}

	return ResultPage{
		Items:      items,
		TotalCount: len(matched),
		TotalPages: totalPages,
		AllCount:   all,
	}
}

// LocalFetcher serves queries from an in-memory snapshot of a collection.
// It is the client-side fallback for when the search endpoint is not
// reachable or the collection was exported to a file.
type LocalFetcher struct {
	records []listing.Record
	now     func() time.Time
}

func NewLocalFetcher(records []listing.Record) *LocalFetcher {
	return &LocalFetcher{
		records: slices.Clone(records),
		now:     time.Now,
	}
}

func (f *LocalFetcher) WithClock(now func() time.Time) *LocalFetcher {
	f.now = now
	return f
}

func (f *LocalFetcher) Fetch(ctx context.Context, s State) (ResultPage, error) {
	if err := ctx.Err(); err != nil {
		return ResultPage{}, err
	}
	return Run(f.records, s, f.now()), nil
}
