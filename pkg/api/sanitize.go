package api

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/quotegrep/quotegrep/pkg/notify"
)

const maxFlagFieldLen = 500

var (
	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)
	urlPattern     = regexp.MustCompile(`(?i)https?://|www\.`)
	videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// cleanFlagField strips markup and caps the length of one user-supplied flag
// field. Flag text is relayed verbatim into a chat embed, so markup has no
// business surviving.
func cleanFlagField(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if len(s) > maxFlagFieldLen {
		// Back up to a rune boundary so the cut never produces invalid UTF-8
		cut := maxFlagFieldLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}

func sanitizeFlagReport(r notify.FlagReport) notify.FlagReport {
	r.SearchTerm = cleanFlagField(r.SearchTerm)
	r.VideoTitle = cleanFlagField(r.VideoTitle)
	r.Quote = cleanFlagField(r.Quote)
	r.Feedback = cleanFlagField(r.Feedback)
	r.PageURL = cleanFlagField(r.PageURL)
	if !videoIDPattern.MatchString(r.VideoID) {
		r.VideoID = ""
	}
	if r.Timestamp < 0 {
		r.Timestamp = 0
	}
	return r
}

// looksLikeSpam flags feedback carrying links, the dominant spam shape seen in
// flag submissions.
func looksLikeSpam(feedback string) bool {
	return urlPattern.MatchString(feedback)
}
