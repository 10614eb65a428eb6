package brief

import (
	"strings"
	"time"

	"buyersdesk/listing"
	"buyersdesk/query"
)

type Status string

const (
	StatusOpen   Status = "open"
	StatusPaused Status = "paused"
	StatusClosed Status = "closed"
)

// Brief is a buyer client's search mandate.
type Brief struct {
	ID           string
	ClientName   string
	Regions      []string
	PriceMin     int64
	PriceMax     int64
	PropertyType string
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Filters struct {
	Status    Status
	Region    string
	Page      int
	PageSize  int
	SortKey   string
	SortOrder string
}

// ListingQuery is the listing search that answers the brief: active
// listings inside the price range, narrowed to the region when the brief
// names exactly one.
func (b Brief) ListingQuery() query.State {
	s := query.DefaultState()
	s.Status = string(listing.StatusActive)
	if b.PriceMin > 0 {
		v := b.PriceMin
		s.MinPrice = &v
	}
	if b.PriceMax > 0 {
		v := b.PriceMax
		s.MaxPrice = &v
	}
	if len(b.Regions) == 1 {
		s.SearchText = strings.TrimSpace(b.Regions[0])
	}
	s.SortField = "price"
	s.SortDirection = query.Asc
	return s
}

func validStatus(s Status) bool {
	return s == StatusOpen || s == StatusPaused || s == StatusClosed
}
