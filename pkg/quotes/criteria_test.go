package quotes

import (
	"net/url"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	fc := FilterCriteria{}.Normalize()

	if fc.Page != 1 {
		t.Errorf("Expected page 1, got %d", fc.Page)
	}
	if fc.Limit != DefaultLimit {
		t.Errorf("Expected limit %d, got %d", DefaultLimit, fc.Limit)
	}
	if fc.GameName != "all" {
		t.Errorf("Expected game 'all', got %q", fc.GameName)
	}
	if fc.Channel != "all" {
		t.Errorf("Expected channel 'all', got %q", fc.Channel)
	}
	if fc.Sort != SortDefault {
		t.Errorf("Expected default sort, got %q", fc.Sort)
	}
}

func TestNormalizeClamps(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		limit     int
		wantPage  int
		wantLimit int
	}{
		{"negative page", -5, 10, 1, 10},
		{"zero page", 0, 10, 1, 10},
		{"limit above cap", 1, 500, 1, MaxLimit},
		{"negative limit", 1, -1, 1, 1},
		{"limit at cap", 1, MaxLimit, 1, MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := FilterCriteria{Page: tt.page, Limit: tt.limit}.Normalize()
			if fc.Page != tt.wantPage {
				t.Errorf("Expected page %d, got %d", tt.wantPage, fc.Page)
			}
			if fc.Limit != tt.wantLimit {
				t.Errorf("Expected limit %d, got %d", tt.wantLimit, fc.Limit)
			}
		})
	}
}

func TestNormalizeInvalidSort(t *testing.T) {
	fc := FilterCriteria{Sort: "relevance-ish"}.Normalize()
	if fc.Sort != SortDefault {
		t.Errorf("Expected invalid sort to fall back to default, got %q", fc.Sort)
	}
}

func TestOffset(t *testing.T) {
	fc := FilterCriteria{Page: 3, Limit: 10}.Normalize()
	if got := fc.Offset(); got != 20 {
		t.Errorf("Expected offset 20, got %d", got)
	}

	fc = FilterCriteria{Page: 1, Limit: 25}.Normalize()
	if got := fc.Offset(); got != 0 {
		t.Errorf("Expected offset 0, got %d", got)
	}
}

func TestParseFilterCriteria(t *testing.T) {
	// Raw form encoding; ParseQuery turns '+' into spaces before we see it
	params, err := url.ParseQuery("search=elk+meat&strict=true&game=Age+of+Empires&channel=joerogan&year=2020&sort=newest&page=2")
	if err != nil {
		t.Fatalf("Failed to parse query: %v", err)
	}

	fc := ParseFilterCriteria(params)

	if fc.SearchTerm != "elk meat" {
		t.Errorf("Expected search term 'elk meat', got %q", fc.SearchTerm)
	}
	if !fc.ExactPhrase {
		t.Error("Expected exact phrase mode")
	}
	if fc.GameName != "Age of Empires" {
		t.Errorf("Expected game 'Age of Empires', got %q", fc.GameName)
	}
	if fc.Channel != "joerogan" {
		t.Errorf("Expected channel joerogan, got %q", fc.Channel)
	}
	if fc.Year != "2020" {
		t.Errorf("Expected year 2020, got %q", fc.Year)
	}
	if fc.Sort != SortNewest {
		t.Errorf("Expected newest sort, got %q", fc.Sort)
	}
	if fc.Page != 2 {
		t.Errorf("Expected page 2, got %d", fc.Page)
	}
	if fc.Limit != DefaultLimit {
		t.Errorf("Expected server-side limit %d, got %d", DefaultLimit, fc.Limit)
	}
}

func TestParseFilterCriteriaGameWithPlus(t *testing.T) {
	// A literal '+' reaches us already decoded from %2B; it must survive
	params, err := url.ParseQuery("search=checkmate&game=C%2B%2B")
	if err != nil {
		t.Fatalf("Failed to parse query: %v", err)
	}

	fc := ParseFilterCriteria(params)
	if fc.GameName != "C++" {
		t.Errorf("Expected game 'C++', got %q", fc.GameName)
	}
}

func TestParseFilterCriteriaMalformed(t *testing.T) {
	params := url.Values{}
	params.Set("page", "not-a-number")
	params.Set("strict", "yes")
	params.Set("sort", "sideways")

	fc := ParseFilterCriteria(params)

	if fc.Page != 1 {
		t.Errorf("Expected malformed page to fall back to 1, got %d", fc.Page)
	}
	if fc.ExactPhrase {
		t.Error("Expected strict values other than 'true' to stay off")
	}
	if fc.Sort != SortDefault {
		t.Errorf("Expected malformed sort to fall back to default, got %q", fc.Sort)
	}
}
