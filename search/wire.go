package search

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"buyersdesk/listing"
	"buyersdesk/query"
)

// Bound is an optional non-negative whole number on the wire. It decodes
// from null, a number or a numeric string; anything else decodes as an
// absent bound.
type Bound struct {
	Value *int64
}

func (b Bound) MarshalJSON() ([]byte, error) {
	if b.Value == nil {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(*b.Value, 10)), nil
}

func (b *Bound) UnmarshalJSON(data []byte) error {
	b.Value = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil
	}

	switch v := raw.(type) {
	case json.Number:
		b.Value = query.CoerceBound("bound", v.String())
	case string:
		b.Value = query.CoerceBound("bound", v)
	}
	return nil
}

func boundOf(v *int64) Bound { return Bound{Value: v} }

func intBound(v *int) Bound {
	if v == nil {
		return Bound{}
	}
	n := int64(*v)
	return Bound{Value: &n}
}

func (b Bound) intPtr() *int {
	if b.Value == nil || *b.Value > math.MaxInt32 {
		return nil
	}
	n := int(*b.Value)
	return &n
}

// Request is the body of POST /api/listings/search.
type Request struct {
	Address          string `json:"address"`
	MinPrice         Bound  `json:"minPrice"`
	MaxPrice         Bound  `json:"maxPrice"`
	PostedWithinDays Bound  `json:"postedWithinDays"`
	Status           string `json:"status"`
	Page             int    `json:"page"`
	Limit            int    `json:"limit"`
	SortKey          string `json:"sortKey"`
	SortOrder        string `json:"sortOrder"`
}

// Response is the success body of POST /api/listings/search.
type Response struct {
	Results    []listing.Record `json:"results"`
	TotalPages int              `json:"totalPages"`
	TotalCount int              `json:"totalCount"`
	AllCount   int              `json:"allCount"`
}

func NewRequest(s query.State) Request {
	s = s.Normalize()
	return Request{
		Address:          s.SearchText,
		MinPrice:         boundOf(s.MinPrice),
		MaxPrice:         boundOf(s.MaxPrice),
		PostedWithinDays: intBound(s.PostedWithinDays),
		Status:           s.Status,
		Page:             s.Page,
		Limit:            s.PageSize,
		SortKey:          s.SortField,
		SortOrder:        string(s.SortDirection),
	}
}

// State converts a decoded request back into a normalized query state.
func (r Request) State() query.State {
	return query.State{
		SearchText:       r.Address,
		Status:           r.Status,
		MinPrice:         r.MinPrice.Value,
		MaxPrice:         r.MaxPrice.Value,
		PostedWithinDays: r.PostedWithinDays.intPtr(),
		SortField:        r.SortKey,
		SortDirection:    query.Direction(r.SortOrder),
		Page:             r.Page,
		PageSize:         r.Limit,
	}.Normalize()
}

// NewResponse builds the wire response for a result page.
func NewResponse(page query.ResultPage) Response {
	results := page.Items
	if results == nil {
		results = []listing.Record{}
	}
	return Response{
		Results:    results,
		TotalPages: page.TotalPages,
		TotalCount: page.TotalCount,
		AllCount:   page.AllCount,
	}
}

func (r Response) Page() query.ResultPage {
	return query.ResultPage{
		Items:      r.Results,
		TotalCount: r.TotalCount,
		TotalPages: max(1, r.TotalPages),
		AllCount:   r.AllCount,
	}
}
