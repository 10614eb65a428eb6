package search

import (
	"encoding/json"
	"testing"

	"buyersdesk/listing"
	"buyersdesk/query"

	"github.com/google/go-cmp/cmp"
)

func TestBound_Decode(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want *int64
	}{
		{"null", `null`, nil},
		{"number", `450000`, ptr(int64(450000))},
		{"fraction rounds", `99.6`, ptr(int64(100))},
		{"numeric string", `"$1,250,000"`, ptr(int64(1250000))},
		{"garbage string", `"abc"`, nil},
		{"negative", `-5`, nil},
		{"object", `{"x":1}`, nil},
		{"bool", `true`, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var b Bound
			if err := json.Unmarshal([]byte(tc.in), &b); err != nil {
				t.Fatalf("expected malformed bounds to decode silently, got %v", err)
			}
			if diff := cmp.Diff(tc.want, b.Value); diff != "" {
				t.Fatalf("bound mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRequest_WireShape(t *testing.T) {
	days := 7
	s := query.State{
		SearchText:       "smith",
		Status:           "active",
		MaxPrice:         ptr(int64(900000)),
		PostedWithinDays: &days,
		Page:             2,
		PageSize:         10,
		SortField:        "price",
		SortDirection:    query.Asc,
	}

	body, err := json.Marshal(NewRequest(s))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := map[string]any{
		"address":          "smith",
		"minPrice":         nil,
		"maxPrice":         float64(900000),
		"postedWithinDays": float64(7),
		"status":           "active",
		"page":             float64(2),
		"limit":            float64(10),
		"sortKey":          "price",
		"sortOrder":        "asc",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("request body mismatch (-want +got):\n%s", diff)
	}
}

func TestRequest_StateNormalizesLooseInput(t *testing.T) {
	var req Request
	body := `{"address":"jones","minPrice":"oops","maxPrice":"500000","page":0,"limit":1000,"sortOrder":"sideways"}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	s := req.State()
	if s.MinPrice != nil {
		t.Fatalf("expected malformed minPrice to be unbounded, got %d", *s.MinPrice)
	}
	if s.MaxPrice == nil || *s.MaxPrice != 500000 {
		t.Fatalf("expected maxPrice 500000, got %v", s.MaxPrice)
	}
	if s.Page != 1 || s.PageSize != query.DefaultPageSize {
		t.Fatalf("expected defaults for page and size, got %d/%d", s.Page, s.PageSize)
	}
	if s.SortField != query.DefaultSortField || s.SortDirection != query.Desc {
		t.Fatalf("expected default sort, got %s %s", s.SortField, s.SortDirection)
	}
}

func TestResponse_EmptyResultsEncodeAsArray(t *testing.T) {
	body, err := json.Marshal(NewResponse(query.ResultPage{TotalPages: 1}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(body) != `{"results":[],"totalPages":1,"totalCount":0,"allCount":0}` {
		t.Fatalf("unexpected body %s", body)
	}

	var resp Response
	if err := json.Unmarshal([]byte(`{"results":[{"id":"a","address":"1 Main St"}],"totalPages":0}`), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	page := resp.Page()
	if page.TotalPages != 1 {
		t.Fatalf("expected total pages floored at 1, got %d", page.TotalPages)
	}
	if diff := cmp.Diff([]listing.Record{{ID: "a", Address: "1 Main St"}}, page.Items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}

func ptr[T any](v T) *T { return &v }
