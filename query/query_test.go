package query

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"
	"time"

	"buyersdesk/listing"

	"github.com/google/go-cmp/cmp"
)

func ptr[T any](v T) *T { return &v }

func addresses(recs []listing.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Address)
	}
	return out
}

var fixedNow = time.Date(2024, 10, 31, 12, 0, 0, 0, time.UTC)

func TestRun_TextAndStatusScenario(t *testing.T) {
	records := []listing.Record{
		{ID: "1", Address: "12 Smith St", Status: listing.StatusActive},
		{ID: "2", Address: "5 Jones Rd", Status: listing.StatusActive},
		{ID: "3", Address: "1 Smith Ave", Status: listing.StatusDeleted},
	}
	state := State{SearchText: "smith", Status: "active", Page: 1, PageSize: 2}

	page := Run(records, state, fixedNow)

	if diff := cmp.Diff([]string{"12 Smith St"}, addresses(page.Items)); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}
	if page.TotalCount != 1 || page.TotalPages != 1 {
		t.Fatalf("expected 1 result on 1 page, got total=%d pages=%d", page.TotalCount, page.TotalPages)
	}
	if page.AllCount != 2 {
		t.Fatalf("expected all count 2 (soft-deleted excluded), got %d", page.AllCount)
	}
}

func TestPredicate_StatusModes(t *testing.T) {
	records := []listing.Record{
		{ID: "a", Address: "A", Status: listing.StatusActive},
		{ID: "b", Address: "B", Status: listing.StatusSold},
		{ID: "c", Address: "C", Status: listing.StatusActive, Deleted: true},
		{ID: "d", Address: "D", Status: listing.StatusDeleted},
	}

	cases := []struct {
		status string
		want   []string
	}{
		{status: "", want: []string{"A", "B"}},
		{status: "all", want: []string{"A", "B", "C", "D"}},
		{status: "deleted", want: []string{"C", "D"}},
		{status: "active", want: []string{"A"}},
		{status: "sold", want: []string{"B"}},
		{status: "withdrawn", want: []string{}},
	}

	for _, tc := range cases {
		t.Run("status="+tc.status, func(t *testing.T) {
			got := Filter(records, BuildPredicate(State{Status: tc.status}, fixedNow))
			if diff := cmp.Diff(tc.want, addresses(got)); diff != "" {
				t.Fatalf("unexpected records (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPredicate_TextMatchesAgentAndPoster(t *testing.T) {
	records := []listing.Record{
		{ID: "1", Address: "7 Hume St", AgentName: ptr("Jane ALBURY")},
		{ID: "2", Address: "9 Dean St", PosterName: ptr("albury buyers club")},
		{ID: "3", Address: "3 Olive St", Suburb: "Albury"},
		{ID: "4", Address: "4 Kiewa St"},
	}

	got := Filter(records, BuildPredicate(State{SearchText: "  Albury "}, fixedNow))
	if diff := cmp.Diff([]string{"7 Hume St", "9 Dean St", "3 Olive St"}, addresses(got)); diff != "" {
		t.Fatalf("unexpected records (-want +got):\n%s", diff)
	}

	all := Filter(records, BuildPredicate(State{SearchText: ""}, fixedNow))
	if len(all) != len(records) {
		t.Fatalf("expected empty text to match all %d records, got %d", len(records), len(all))
	}
}

func TestPredicate_PriceRange(t *testing.T) {
	records := []listing.Record{
		{ID: "1", Address: "low", Price: ptr[int64](300_000)},
		{ID: "2", Address: "mid", Price: ptr[int64](450_000)},
		{ID: "3", Address: "high", Price: ptr[int64](600_000)},
		{ID: "4", Address: "unpriced"},
	}

	cases := []struct {
		name     string
		min, max *int64
		want     []string
	}{
		{name: "unbounded", want: []string{"low", "mid", "high", "unpriced"}},
		{name: "inclusive both", min: ptr[int64](300_000), max: ptr[int64](450_000), want: []string{"low", "mid"}},
		{name: "min only", min: ptr[int64](450_001), want: []string{"high"}},
		{name: "max only", max: ptr[int64](450_000), want: []string{"low", "mid"}},
		{name: "degenerate", min: ptr[int64](500_000), max: ptr[int64](400_000), want: []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Filter(records, BuildPredicate(State{MinPrice: tc.min, MaxPrice: tc.max}, fixedNow))
			if diff := cmp.Diff(tc.want, addresses(got)); diff != "" {
				t.Fatalf("unexpected records (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPredicate_PostedWithinDays(t *testing.T) {
	records := []listing.Record{
		{ID: "1", Address: "fresh", ListedAt: ptr(fixedNow.AddDate(0, 0, -2))},
		{ID: "2", Address: "stale", ListedAt: ptr(fixedNow.AddDate(0, 0, -30))},
		{ID: "3", Address: "created recently", CreatedAt: fixedNow.AddDate(0, 0, -1)},
	}

	got := Filter(records, BuildPredicate(State{PostedWithinDays: ptr(7)}, fixedNow))
	if diff := cmp.Diff([]string{"fresh", "created recently"}, addresses(got)); diff != "" {
		t.Fatalf("unexpected records (-want +got):\n%s", diff)
	}
}

func TestFilter_Idempotent(t *testing.T) {
	records := []listing.Record{
		{ID: "1", Address: "12 Smith St", Status: listing.StatusActive, Price: ptr[int64](500_000)},
		{ID: "2", Address: "14 Smith St", Status: listing.StatusSold, Price: ptr[int64](700_000)},
		{ID: "3", Address: "1 Smith Ave", Status: listing.StatusActive},
	}
	snapshot := slices.Clone(records)
	state := State{SearchText: "smith", MaxPrice: ptr[int64](600_000)}

	first := Filter(records, BuildPredicate(state, fixedNow))
	second := Filter(records, BuildPredicate(state, fixedNow))
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("filter not idempotent (-first +second):\n%s", diff)
	}
	if again := Filter(first, BuildPredicate(state, fixedNow)); cmp.Diff(first, again) != "" {
		t.Fatalf("refiltering changed the result set")
	}
	if diff := cmp.Diff(snapshot, records); diff != "" {
		t.Fatalf("input records were modified (-before +after):\n%s", diff)
	}
}

func TestCompare_MissingFieldSortsLast(t *testing.T) {
	records := []listing.Record{
		{ID: "1", Address: "no price"},
		{ID: "2", Address: "cheap", Price: ptr[int64](100)},
		{ID: "3", Address: "also no price"},
		{ID: "4", Address: "dear", Price: ptr[int64](900)},
	}

	asc := Sort(records, "price", Asc)
	if diff := cmp.Diff([]string{"cheap", "dear", "no price", "also no price"}, addresses(asc)); diff != "" {
		t.Fatalf("asc order (-want +got):\n%s", diff)
	}

	desc := Sort(records, "price", Desc)
	if diff := cmp.Diff([]string{"dear", "cheap", "no price", "also no price"}, addresses(desc)); diff != "" {
		t.Fatalf("desc order (-want +got):\n%s", diff)
	}

	for _, dir := range []Direction{Asc, Desc} {
		if got := Compare(records[0], records[1], "price", dir); got != 1 {
			t.Fatalf("%s: expected missing price to sort after present, got %d", dir, got)
		}
		if got := Compare(records[1], records[0], "price", dir); got != -1 {
			t.Fatalf("%s: expected present price to sort before missing, got %d", dir, got)
		}
		if got := Compare(records[0], records[2], "price", dir); got != 0 {
			t.Fatalf("%s: expected two missing prices to tie, got %d", dir, got)
		}
	}
}

func TestCompare_TypeAwareModes(t *testing.T) {
	a := listing.Record{ID: "a", Price: ptr[int64](9), AuctionDate: ptr("2024-03-01T10:00:00+10:00"), Address: "b street"}
	b := listing.Record{ID: "b", Price: ptr[int64](10), AuctionDate: ptr("2024-03-01T01:00:00Z"), Address: "Alpha street"}

	if got := Compare(a, b, "price", Asc); got != -1 {
		t.Fatalf("expected numeric comparison 9 < 10, got %d", got)
	}
	// 10:00+10:00 is 00:00Z, before 01:00Z even though it sorts after as text.
	if got := Compare(a, b, "auctionDate", Asc); got != -1 {
		t.Fatalf("expected date comparison, got %d", got)
	}
	if got := Compare(a, b, "address", Asc); got != 1 {
		t.Fatalf("expected case-insensitive string comparison, got %d", got)
	}
	if got := Compare(a, b, "address", Desc); got != -1 {
		t.Fatalf("expected desc to flip string comparison, got %d", got)
	}

	text := listing.Record{ID: "c", AuctionDate: ptr("TBA")}
	if got := Compare(b, text, "auctionDate", Asc); got != -1 {
		t.Fatalf("expected lexicographic fallback when one side is not a date, got %d", got)
	}
}

func TestCompare_UnknownFieldUsesCreatedAt(t *testing.T) {
	older := listing.Record{ID: "1", CreatedAt: fixedNow.Add(-time.Hour)}
	newer := listing.Record{ID: "2", CreatedAt: fixedNow}
	if got := Compare(older, newer, "bogus", Asc); got != -1 {
		t.Fatalf("expected createdAt fallback, got %d", got)
	}
}

func TestPaginate_Bounds(t *testing.T) {
	for n := 0; n <= 25; n++ {
		items := make([]int, n)
		for i := range items {
			items[i] = i
		}
		for size := 1; size <= 7; size++ {
			wantPages := max(1, (n+size-1)/size)
			for page := 1; page <= wantPages+1; page++ {
				got, pages := Paginate(items, page, size)
				if len(got) > size {
					t.Fatalf("n=%d size=%d page=%d: got %d items", n, size, page, len(got))
				}
				if pages != wantPages {
					t.Fatalf("n=%d size=%d: expected %d pages, got %d", n, size, wantPages, pages)
				}
				if len(got) > 0 && got[0] != (page-1)*size {
					t.Fatalf("n=%d size=%d page=%d: page starts at %d", n, size, page, got[0])
				}
			}
		}
	}
}

func TestPaginate_HugePage(t *testing.T) {
	items := make([]int, 45)
	for _, page := range []int{math.MaxInt, math.MaxInt/20 + 2, math.MaxInt / 2} {
		got, pages := Paginate(items, page, 20)
		if len(got) != 0 || pages != 3 {
			t.Fatalf("page %d: expected empty page of 3, got %d items %d pages", page, len(got), pages)
		}
	}
}

func TestRun_HugePageIsCapped(t *testing.T) {
	recs := []listing.Record{{ID: "1", Address: "12 Smith St", Status: listing.StatusActive}}
	s := DefaultState()
	s.Page = math.MaxInt

	res := Run(recs, s, time.Now())
	if len(res.Items) != 0 || res.TotalCount != 1 || res.TotalPages != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := s.Normalize().Page; got != MaxPage {
		t.Fatalf("expected page capped at %d, got %d", MaxPage, got)
	}
	if got := s.Filters().Page; got != MaxPage {
		t.Fatalf("expected filter page capped at %d, got %d", MaxPage, got)
	}
}

func TestPaginate_EmptyHasOnePage(t *testing.T) {
	got, pages := Paginate([]string{}, 1, 10)
	if len(got) != 0 || pages != 1 {
		t.Fatalf("expected empty page and 1 total page, got %d items %d pages", len(got), pages)
	}
}

func TestParseBound(t *testing.T) {
	cases := []struct {
		raw     string
		want    *int64
		invalid bool
	}{
		{raw: "", want: nil},
		{raw: "   ", want: nil},
		{raw: "450000", want: ptr[int64](450_000)},
		{raw: "$450,000", want: ptr[int64](450_000)},
		{raw: "1234.6", want: ptr[int64](1235)},
		{raw: "abc", invalid: true},
		{raw: "NaN", invalid: true},
		{raw: "-5", invalid: true},
		{raw: "1e30", invalid: true},
	}

	for _, tc := range cases {
		got, err := ParseBound("minPrice", tc.raw)
		if tc.invalid {
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("%q: expected ValidationError, got %v", tc.raw, err)
			}
			if verr.Field != "minPrice" {
				t.Fatalf("%q: expected field minPrice, got %s", tc.raw, verr.Field)
			}
			if CoerceBound("minPrice", tc.raw) != nil {
				t.Fatalf("%q: expected coerced bound to be unbounded", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tc.raw, err)
		}
		if !equalPtr(got, tc.want) {
			t.Fatalf("%q: expected %v got %v", tc.raw, tc.want, got)
		}
	}
}

func TestStateNormalizeAndFilters(t *testing.T) {
	s := State{Page: -3, PageSize: 500, SortField: "nope", SortDirection: "sideways"}.Normalize()
	want := State{Page: 1, PageSize: DefaultPageSize, SortField: DefaultSortField, SortDirection: Desc}
	if !s.Equal(want) {
		t.Fatalf("expected %+v got %+v", want, s)
	}

	orig := State{SearchText: "albury", Status: "active", MinPrice: ptr[int64](1), PostedWithinDays: ptr(14),
		SortField: "price", SortDirection: Asc, Page: 2, PageSize: 10}
	if back := FromFilters(orig.Filters()); !back.Equal(orig) {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, orig)
	}
}

func TestLocalFetcher(t *testing.T) {
	records := make([]listing.Record, 0, 5)
	for i := range 5 {
		records = append(records, listing.Record{
			ID:        string(rune('a' + i)),
			Address:   string(rune('A'+i)) + " Street",
			Status:    listing.StatusActive,
			Price:     ptr(int64(100 * (i + 1))),
			CreatedAt: fixedNow.Add(time.Duration(i) * time.Minute),
		})
	}

	f := NewLocalFetcher(records).WithClock(func() time.Time { return fixedNow })
	page, err := f.Fetch(context.Background(), State{SortField: "price", SortDirection: Desc, Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if diff := cmp.Diff([]string{"C Street", "B Street"}, addresses(page.Items)); diff != "" {
		t.Fatalf("unexpected page (-want +got):\n%s", diff)
	}
	if page.TotalPages != 3 || page.TotalCount != 5 {
		t.Fatalf("expected 5 results over 3 pages, got %d over %d", page.TotalCount, page.TotalPages)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Fetch(ctx, DefaultState()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
