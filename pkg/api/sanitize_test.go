package api

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/quotegrep/quotegrep/pkg/notify"
)

func TestSanitizeFlagReport(t *testing.T) {
	report := sanitizeFlagReport(notify.FlagReport{
		SearchTerm: "  <script>alert(1)</script>elk meat  ",
		Quote:      "have you <b>ever</b> tried elk meat",
		Feedback:   strings.Repeat("x", 600),
		Timestamp:  -3,
	})

	if report.SearchTerm != "alert(1)elk meat" {
		t.Errorf("Expected tags stripped and trimmed, got %q", report.SearchTerm)
	}
	if report.Quote != "have you ever tried elk meat" {
		t.Errorf("Expected inline tags stripped, got %q", report.Quote)
	}
	if len(report.Feedback) != maxFlagFieldLen {
		t.Errorf("Expected feedback capped at %d, got %d", maxFlagFieldLen, len(report.Feedback))
	}
	if report.Timestamp != 0 {
		t.Errorf("Expected negative timestamp zeroed, got %f", report.Timestamp)
	}
}

func TestSanitizeMultibyteTruncation(t *testing.T) {
	// 3-byte runes straddle the byte cap; the cut must land on a rune boundary
	report := sanitizeFlagReport(notify.FlagReport{Feedback: strings.Repeat("…", 200)})

	if len(report.Feedback) > maxFlagFieldLen {
		t.Errorf("Expected feedback capped at %d bytes, got %d", maxFlagFieldLen, len(report.Feedback))
	}
	if !utf8.ValidString(report.Feedback) {
		t.Error("Expected truncated feedback to remain valid UTF-8")
	}
}

func TestSanitizeVideoID(t *testing.T) {
	valid := sanitizeFlagReport(notify.FlagReport{VideoID: "dQw4w9WgXcQ"})
	if valid.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("Expected valid video id to survive, got %q", valid.VideoID)
	}

	for _, id := range []string{"short", "has spaces!!", "dQw4w9WgXcQextra", "<script>aaa"} {
		cleaned := sanitizeFlagReport(notify.FlagReport{VideoID: id})
		if cleaned.VideoID != "" {
			t.Errorf("Expected invalid video id %q to be cleared, got %q", id, cleaned.VideoID)
		}
	}
}

func TestLooksLikeSpam(t *testing.T) {
	if !looksLikeSpam("buy cheap stuff at https://spam.example") {
		t.Error("Expected link feedback to be rejected")
	}
	if !looksLikeSpam("visit www.spam.example now") {
		t.Error("Expected www feedback to be rejected")
	}
	if looksLikeSpam("the timestamp is off by ten seconds") {
		t.Error("Expected normal feedback to pass")
	}
}
