package query

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"buyersdesk/listing"
)

type valueKind int

const (
	kindString valueKind = iota
	kindNumber
	kindTime
)

type value struct {
	kind valueKind
	str  string
	num  float64
	at   time.Time
}

var sortFields = map[string]struct{}{
	"address":     {},
	"suburb":      {},
	"price":       {},
	"yield":       {},
	"status":      {},
	"decision":    {},
	"agentName":   {},
	"auctionDate": {},
	"listedAt":    {},
	"createdAt":   {},
	"updatedAt":   {},
}

func canonicalField(field string) string {
	if _, ok := sortFields[field]; ok {
		return field
	}
	return DefaultSortField
}

// fieldValue extracts a sortable value. ok is false when the record has no
// value for the field.
func fieldValue(rec listing.Record, field string) (value, bool) {
	switch field {
	case "address":
		return stringValue(rec.Address)
	case "suburb":
		return stringValue(rec.Suburb)
	case "status":
		return stringValue(string(rec.Status))
	case "decision":
		return stringValue(string(rec.Decision))
	case "agentName":
		return optionalString(rec.AgentName)
	case "auctionDate":
		return optionalString(rec.AuctionDate)
	case "price":
		if rec.Price == nil {
			return value{}, false
		}
		return value{kind: kindNumber, num: float64(*rec.Price)}, true
	case "yield":
		if rec.Yield == nil {
			return value{}, false
		}
		return value{kind: kindNumber, num: *rec.Yield}, true
	case "listedAt":
		if rec.ListedAt == nil {
			return value{}, false
		}
		return timeValue(*rec.ListedAt)
	case "updatedAt":
		return timeValue(rec.UpdatedAt)
	default:
		return timeValue(rec.CreatedAt)
	}
}

func stringValue(s string) (value, bool) {
	if strings.TrimSpace(s) == "" {
		return value{}, false
	}
	return value{kind: kindString, str: s}, true
}

func optionalString(s *string) (value, bool) {
	if s == nil {
		return value{}, false
	}
	return stringValue(*s)
}

func timeValue(t time.Time) (value, bool) {
	if t.IsZero() {
		return value{}, false
	}
	return value{kind: kindTime, at: t}, true
}

var isoLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseISODate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func compareValues(a, b value) int {
	switch {
	case a.kind == kindNumber && b.kind == kindNumber:
		return cmp.Compare(a.num, b.num)
	case a.kind == kindTime && b.kind == kindTime:
		return a.at.Compare(b.at)
	}

	ta, okA := parseISODate(a.str)
	tb, okB := parseISODate(b.str)
	if okA && okB {
		return ta.Compare(tb)
	}
	if c := strings.Compare(strings.ToLower(a.str), strings.ToLower(b.str)); c != 0 {
		return c
	}
	return strings.Compare(a.str, b.str)
}

// Compare orders two records by field. A record missing the field sorts
// after one that has it in both directions; desc flips everything else.
func Compare(a, b listing.Record, field string, dir Direction) int {
	field = canonicalField(field)
	va, okA := fieldValue(a, field)
	vb, okB := fieldValue(b, field)

	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	}

	c := compareValues(va, vb)
	if dir == Desc {
		c = -c
	}
	return c
}

// Sort returns a sorted copy of records. Equal keys fall back to ID order.
func Sort(records []listing.Record, field string, dir Direction) []listing.Record {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b listing.Record) int {
		if c := Compare(a, b, field, dir); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
