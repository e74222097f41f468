package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/quotegrep/quotegrep/pkg/quotes"
)

// ImportQuotes stores a batch of quote lines in a single transaction,
// updating the FTS index alongside the content table. Re-importing a video
// replaces its existing lines.
func (s *Store) ImportQuotes(ctx context.Context, batch []quotes.Quote) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			s.logger.Warnf("rolling back import transaction: %v", err)
		}
	}()

	// Clear existing rows for the videos in this batch so re-imports replace
	// cleanly. The FTS rows must go first while the rowids still resolve.
	seen := make(map[string]bool)
	for _, q := range batch {
		if seen[q.VideoID] {
			continue
		}
		seen[q.VideoID] = true

		_, err := tx.ExecContext(ctx,
			"DELETE FROM quotes_fts WHERE rowid IN (SELECT rowid FROM quotes WHERE video_id = ?)",
			q.VideoID)
		if err != nil {
			return fmt.Errorf("clearing FTS rows for video %s: %w", q.VideoID, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM quotes WHERE video_id = ?", q.VideoID); err != nil {
			return fmt.Errorf("clearing quotes for video %s: %w", q.VideoID, err)
		}
	}

	quoteStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO quotes
		(video_id, title, upload_date, channel_source, game_name, text, line_number, timestamp_start)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing quote statement: %w", err)
	}
	defer func() {
		if err := quoteStmt.Close(); err != nil {
			s.logger.Warnf("closing quote statement: %v", err)
		}
	}()

	ftsStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO quotes_fts (rowid, text) VALUES (?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing FTS statement: %w", err)
	}
	defer func() {
		if err := ftsStmt.Close(); err != nil {
			s.logger.Warnf("closing FTS statement: %v", err)
		}
	}()

	for _, q := range batch {
		var gameName any
		if q.GameName != "" {
			gameName = q.GameName
		}

		res, err := quoteStmt.ExecContext(ctx,
			q.VideoID, q.Title, q.UploadDate, q.ChannelSource,
			gameName, q.Text, q.LineNumber, q.TimestampStart)
		if err != nil {
			return fmt.Errorf("inserting quote %s:%d: %w", q.VideoID, q.LineNumber, err)
		}

		rowid, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("fetching rowid for %s:%d: %w", q.VideoID, q.LineNumber, err)
		}

		if _, err := ftsStmt.ExecContext(ctx, rowid, q.Text); err != nil {
			return fmt.Errorf("indexing quote %s:%d: %w", q.VideoID, q.LineNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing import: %w", err)
	}

	s.logger.Debugf("imported %d quotes", len(batch))
	return nil
}

// GameList returns the distinct non-empty game names in the corpus, sorted
// alphabetically.
func (s *Store) GameList(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT game_name FROM quotes
		WHERE game_name IS NOT NULL AND game_name != ''
		ORDER BY game_name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying game list: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Warnf("closing game list rows: %v", err)
		}
	}()

	games := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning game name: %w", err)
		}
		games = append(games, name)
	}
	return games, rows.Err()
}

// RandomQuotes samples up to limit quote lines uniformly from the corpus,
// each wrapped as its own single-quote video group so clients can render them
// with the same shape as search results.
func (s *Store) RandomQuotes(ctx context.Context, limit int) ([]quotes.VideoGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT video_id, title, upload_date, channel_source, text, line_number, timestamp_start
		FROM quotes
		ORDER BY random()
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying random quotes: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Warnf("closing random quote rows: %v", err)
		}
	}()

	groups := []quotes.VideoGroup{}
	for rows.Next() {
		var g quotes.VideoGroup
		var line quotes.QuoteLine
		err := rows.Scan(&g.VideoID, &g.Title, &g.UploadDate, &g.ChannelSource,
			&line.Text, &line.LineNumber, &line.TimestampStart)
		if err != nil {
			return nil, fmt.Errorf("scanning random quote: %w", err)
		}
		line.Title = g.Title
		line.UploadDate = g.UploadDate
		line.ChannelSource = g.ChannelSource
		g.Quotes = []quotes.QuoteLine{line}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// ChannelStats summarizes one channel's share of the corpus.
type ChannelStats struct {
	Channel     string `json:"channel_source"`
	VideoCount  int    `json:"videoCount"`
	TotalQuotes int    `json:"totalQuotes"`
}

// Stats reports per-channel video and quote counts, largest channel first.
func (s *Store) Stats(ctx context.Context) ([]ChannelStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT channel_source, COUNT(DISTINCT video_id) AS video_count, COUNT(*) AS total_quotes
		FROM quotes
		WHERE channel_source IS NOT NULL AND channel_source != ''
		GROUP BY channel_source
		ORDER BY video_count DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying channel stats: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Warnf("closing channel stats rows: %v", err)
		}
	}()

	stats := []ChannelStats{}
	for rows.Next() {
		var cs ChannelStats
		if err := rows.Scan(&cs.Channel, &cs.VideoCount, &cs.TotalQuotes); err != nil {
			return nil, fmt.Errorf("scanning channel stats: %w", err)
		}
		stats = append(stats, cs)
	}
	return stats, rows.Err()
}

// QuoteCount returns the total number of quote lines in the corpus.
func (s *Store) QuoteCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM quotes").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting quotes: %w", err)
	}
	return count, nil
}
