package quotes

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// scanVideoGroups maps raw grouped rows into VideoGroups. Rows arrive already
// grouped server-side (one row per video, quotes aggregated as JSON ordered
// by line number); no re-grouping happens here. hasRank selects the row shape
// produced by the compiler.
func scanVideoGroups(rows *sql.Rows, hasRank bool) ([]VideoGroup, error) {
	groups := []VideoGroup{}
	for rows.Next() {
		var g VideoGroup
		var quotesJSON string
		var rank float64

		var err error
		if hasRank {
			err = rows.Scan(&g.VideoID, &g.Title, &g.UploadDate, &g.ChannelSource, &rank, &quotesJSON)
		} else {
			err = rows.Scan(&g.VideoID, &g.Title, &g.UploadDate, &g.ChannelSource, &quotesJSON)
		}
		if err != nil {
			return nil, fmt.Errorf("scanning video group row: %w", err)
		}

		if err := json.Unmarshal([]byte(quotesJSON), &g.Quotes); err != nil {
			return nil, fmt.Errorf("unmarshaling quotes for video %s: %w", g.VideoID, err)
		}

		groups = append(groups, g)
	}

	return groups, rows.Err()
}

// assemble builds the final SearchResult from grouped rows and the count-row
// totals. Latency is measured by the executor and attached here.
func assemble(groups []VideoGroup, totalVideos, totalQuotes int, latencyMs int64) *SearchResult {
	return &SearchResult{
		Data:        groups,
		Total:       totalVideos,
		TotalQuotes: totalQuotes,
		QueryTimeMs: latencyMs,
	}
}
