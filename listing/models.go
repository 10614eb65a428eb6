package listing

import "time"

type Status string

const (
	StatusActive     Status = "active"
	StatusUnderOffer Status = "under_offer"
	StatusSold       Status = "sold"
	StatusOffMarket  Status = "off_market"
	StatusDeleted    Status = "deleted"
)

// Decision is the triage label a buyer's agent assigns to a listing.
type Decision string

const (
	DecisionUndecided Decision = "undecided"
	DecisionPursue    Decision = "pursue"
	DecisionOnHold    Decision = "on_hold"
)

// Record is a property listing as held by the desk. Optional columns are
// pointers so an absent value is distinguishable from a zero one.
type Record struct {
	ID            string     `json:"id"`
	Address       string     `json:"address"`
	Suburb        string     `json:"suburb,omitempty"`
	Price         *int64     `json:"price"`
	Yield         *float64   `json:"yield"`
	Status        Status     `json:"status"`
	Decision      Decision   `json:"decision"`
	Deleted       bool       `json:"deleted"`
	AgentID       *string    `json:"agentId"`
	AgentName     *string    `json:"agentName"`
	PosterName    *string    `json:"posterName"`
	ClientBriefID *string    `json:"clientBriefId"`
	AuctionDate   *string    `json:"auctionDate"`
	ListedAt      *time.Time `json:"listedAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// SoftDeleted reports whether the record is hidden from default views.
func (r Record) SoftDeleted() bool {
	return r.Deleted || r.Status == StatusDeleted
}

// PostedAt is ListedAt when known, otherwise CreatedAt.
func (r Record) PostedAt() time.Time {
	if r.ListedAt != nil {
		return *r.ListedAt
	}
	return r.CreatedAt
}

// Filters is the server-side search input. Nil bounds are unbounded.
type Filters struct {
	Text             string
	Status           string
	MinPrice         *int64
	MaxPrice         *int64
	PostedWithinDays *int
	Page             int
	PageSize         int
	SortKey          string
	SortOrder        string
}

type SearchResult struct {
	Items      []Record
	TotalCount int
	AllCount   int
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusUnderOffer, StatusSold, StatusOffMarket, StatusDeleted:
		return true
	default:
		return false
	}
}

func ValidDecision(d Decision) bool {
	switch d {
	case DecisionUndecided, DecisionPursue, DecisionOnHold:
		return true
	default:
		return false
	}
}
