package quotes

import (
	"net/url"
	"strconv"
	"strings"
)

// SortOrder selects the result ordering policy.
type SortOrder string

const (
	SortDefault SortOrder = "default"
	SortNewest  SortOrder = "newest"
	SortOldest  SortOrder = "oldest"
)

const (
	// MinTermLength is the minimum trimmed search-term length; shorter terms
	// are defined to match nothing.
	MinTermLength = 3

	// MaxLimit caps the page size.
	MaxLimit = 50

	// DefaultLimit is the page size used when the caller supplies none.
	DefaultLimit = 10
)

// FilterCriteria is the immutable search input. Zero values mean "no filter":
// empty GameName/Channel behave as "all", empty Year adds no year predicate.
type FilterCriteria struct {
	SearchTerm  string
	ExactPhrase bool
	GameName    string
	Channel     string
	Year        string
	Sort        SortOrder
	Page        int
	Limit       int
}

// Normalize returns a copy with page coerced to >= 1, limit clamped to
// [1, MaxLimit] (DefaultLimit when unset), defaulted filter dimensions and a
// validated sort order.
func (c FilterCriteria) Normalize() FilterCriteria {
	if c.Page < 1 {
		c.Page = 1
	}
	if c.Limit == 0 {
		c.Limit = DefaultLimit
	}
	if c.Limit < 1 {
		c.Limit = 1
	}
	if c.Limit > MaxLimit {
		c.Limit = MaxLimit
	}
	if c.GameName == "" {
		c.GameName = "all"
	}
	if c.Channel == "" {
		c.Channel = "all"
	}
	switch c.Sort {
	case SortDefault, SortNewest, SortOldest:
	default:
		c.Sort = SortDefault
	}
	return c
}

// Offset returns the pagination offset for a normalized criteria value.
func (c FilterCriteria) Offset() int {
	return (c.Page - 1) * c.Limit
}

// ParseFilterCriteria parses HTTP query parameters into FilterCriteria.
// Missing or malformed values fall back to defaults; parsing never fails.
//
// Supported parameters: search, strict, game, channel, year, sort, page.
// The page size is fixed server-side and not caller-supplied.
func ParseFilterCriteria(queryParams url.Values) FilterCriteria {
	fc := FilterCriteria{
		SearchTerm: queryParams.Get("search"),
		GameName:   queryParams.Get("game"),
		Channel:    queryParams.Get("channel"),
		Year:       queryParams.Get("year"),
		Sort:       SortOrder(queryParams.Get("sort")),
		Page:       1,
	}

	if queryParams.Get("strict") == "true" {
		fc.ExactPhrase = true
	}

	if pageStr := queryParams.Get("page"); pageStr != "" {
		if parsed, err := strconv.Atoi(pageStr); err == nil && parsed > 0 {
			fc.Page = parsed
		}
	}

	// Values arrive decoded; re-decoding here would corrupt names that
	// legitimately contain '+' or '%'.
	fc.GameName = strings.TrimSpace(fc.GameName)

	return fc.Normalize()
}
