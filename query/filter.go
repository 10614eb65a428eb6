package query

import (
	"strings"
	"time"

	"buyersdesk/listing"
)

// Predicate reports whether a record belongs in the result set.
type Predicate func(rec listing.Record) bool

// BuildPredicate composes the free-text, status, price and recency filters
// of a state. now anchors the PostedWithinDays window.
func BuildPredicate(s State, now time.Time) Predicate {
	if s.MinPrice != nil && s.MaxPrice != nil && *s.MinPrice > *s.MaxPrice {
		return func(listing.Record) bool { return false }
	}

	needle := strings.ToLower(strings.TrimSpace(s.SearchText))
	status := s.Status
	minPrice, maxPrice := s.MinPrice, s.MaxPrice

	var cutoff time.Time
	if s.PostedWithinDays != nil {
		cutoff = now.AddDate(0, 0, -*s.PostedWithinDays)
	}

	return func(rec listing.Record) bool {
		if !matchesText(rec, needle) {
			return false
		}
		if !matchesStatus(rec, status) {
			return false
		}
		if minPrice != nil || maxPrice != nil {
			if rec.Price == nil {
				return false
			}
			if minPrice != nil && *rec.Price < *minPrice {
				return false
			}
			if maxPrice != nil && *rec.Price > *maxPrice {
				return false
			}
		}
		if !cutoff.IsZero() && rec.PostedAt().Before(cutoff) {
			return false
		}
		return true
	}
}

func matchesText(rec listing.Record, needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(rec.Address), needle) ||
		strings.Contains(strings.ToLower(rec.Suburb), needle) {
		return true
	}
	for _, name := range []*string{rec.AgentName, rec.PosterName} {
		if name != nil && strings.Contains(strings.ToLower(*name), needle) {
			return true
		}
	}
	return false
}

func matchesStatus(rec listing.Record, status string) bool {
	switch status {
	case "":
		return !rec.SoftDeleted()
	case listing.StatusFilterAll:
		return true
	case string(listing.StatusDeleted):
		return rec.SoftDeleted()
	default:
		return !rec.SoftDeleted() && string(rec.Status) == status
	}
}

// Filter returns the records accepted by p, in their original order. The
// input slice is not modified.
func Filter(records []listing.Record, p Predicate) []listing.Record {
	out := make([]listing.Record, 0, len(records))
	for _, rec := range records {
		if p(rec) {
			out = append(out, rec)
		}
	}
	return out
}
