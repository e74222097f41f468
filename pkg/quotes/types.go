// Package quotes implements the search core: filter normalization, query
// compilation against the FTS-indexed quote corpus, guarded execution through
// a bounded connection pool, and assembly of grouped results.
package quotes

// Quote is a single transcribed line as stored in the corpus. Used by the
// importer and the random-sample endpoint.
type Quote struct {
	VideoID        string  `json:"video_id"`
	Title          string  `json:"title"`
	UploadDate     string  `json:"upload_date"`
	ChannelSource  string  `json:"channel_source"`
	GameName       string  `json:"game_name,omitempty"`
	Text           string  `json:"text"`
	LineNumber     int     `json:"line_number"`
	TimestampStart float64 `json:"timestamp_start"`
}

// QuoteLine is one matched occurrence inside a video group. Video-level
// metadata is repeated per line so each quote is self-describing for clients.
type QuoteLine struct {
	Text           string  `json:"text"`
	LineNumber     int     `json:"line_number"`
	TimestampStart float64 `json:"timestamp_start"`
	Title          string  `json:"title"`
	UploadDate     string  `json:"upload_date"`
	ChannelSource  string  `json:"channel_source"`
}

// VideoGroup holds all matched quote occurrences within one source video,
// ordered by line number.
type VideoGroup struct {
	VideoID       string      `json:"video_id"`
	Title         string      `json:"title"`
	UploadDate    string      `json:"upload_date"`
	ChannelSource string      `json:"channel_source"`
	Quotes        []QuoteLine `json:"quotes"`
}

// SearchResult is the externally visible search outcome.
//
// Total counts distinct videos matching the filters independent of
// pagination; TotalQuotes sums per-video match counts. Both come from the
// count query and are zeroed when that query degrades on timeout.
type SearchResult struct {
	Data        []VideoGroup `json:"data"`
	Total       int          `json:"total"`
	TotalQuotes int          `json:"totalQuotes"`
	QueryTimeMs int64        `json:"queryTime"`
}
