package quotes

import (
	"strconv"
	"strings"
	"sync"
)

// QueryPlan pairs a query template with its ordered bound parameters.
// Placeholder positions in SQL correspond one-to-one with Args; both are
// derived together from the same predicate list, never adjusted by hand.
type QueryPlan struct {
	SQL  string
	Args []any
}

// CompiledQuery is the output of a successful compilation: a data query that
// returns grouped, paginated rows and an independent count query over the
// same active predicates.
type CompiledQuery struct {
	Data  QueryPlan
	Count QueryPlan

	// HasRank reports whether the data query selects a relevance rank column
	// (exact-phrase search with an active term). The scanner needs this to
	// know the row shape.
	HasRank bool
}

// predicate is one conjunctive WHERE condition with its bound values.
// Both query plans append clauses and args from the same ordered list, which
// keeps placeholder positions and parameter order aligned by construction.
type predicate struct {
	clause string
	args   []any
}

// Compiler turns FilterCriteria into a (data, count) query plan pair.
// Compilation is deterministic and performs no I/O. The channel allow-list is
// the only mutable state; it can be swapped at runtime on config reload.
type Compiler struct {
	mu       sync.RWMutex
	channels []string
}

// NewCompiler creates a compiler with the given channel allow-list. Channel
// filters outside the allow-list are dropped silently.
func NewCompiler(channels []string) *Compiler {
	return &Compiler{channels: channels}
}

// SetChannels replaces the channel allow-list.
func (c *Compiler) SetChannels(channels []string) {
	c.mu.Lock()
	c.channels = channels
	c.mu.Unlock()
}

// Compile builds both query plans for normalized criteria. It returns
// ok=false when the request cannot possibly match (search term shorter than
// MinTermLength after trimming); callers must then produce an empty result
// without touching the store. This is policy, not an error.
func (c *Compiler) Compile(fc FilterCriteria) (CompiledQuery, bool) {
	term := strings.TrimSpace(fc.SearchTerm)
	if len(term) < MinTermLength {
		return CompiledQuery{}, false
	}

	preds := c.predicates(fc, term)
	rankActive := fc.ExactPhrase

	return CompiledQuery{
		Data:    c.dataPlan(fc, preds, rankActive),
		Count:   c.countPlan(preds),
		HasRank: rankActive,
	}, true
}

// predicates builds the ordered conjunctive predicate list. Each filter
// dimension contributes at most one entry, added only when active. The text
// predicate always comes first so the FTS join stays adjacent to its MATCH.
func (c *Compiler) predicates(fc FilterCriteria, term string) []predicate {
	preds := []predicate{{
		clause: "quotes_fts MATCH ?",
		args:   []any{matchExpression(term, fc.ExactPhrase)},
	}}

	if fc.GameName != "all" {
		// Basic protection: the value is bound, but strip quote characters
		// anyway so junk input degrades to "no filter".
		cleanGame := strings.TrimSpace(strings.Map(dropQuoteChars, fc.GameName))
		if len(cleanGame) > 2 {
			preds = append(preds, predicate{
				clause: "q.game_name = ?",
				args:   []any{cleanGame},
			})
		}
	}

	if fc.Channel != "all" {
		lower := strings.ToLower(fc.Channel)
		if c.knownChannel(lower) {
			preds = append(preds, predicate{
				clause: "LOWER(q.channel_source) = ?",
				args:   []any{lower},
			})
		}
	}

	if year := strings.TrimSpace(fc.Year); year != "" {
		if yearInt, err := strconv.Atoi(year); err == nil {
			preds = append(preds, predicate{
				clause: "CAST(strftime('%Y', q.upload_date) AS INTEGER) = ?",
				args:   []any{yearInt},
			})
		}
	}

	return preds
}

// dataPlan renders the display query: matched lines grouped per video with a
// highlighted snippet per line, ordered per the sort policy, paginated with
// trailing LIMIT/OFFSET parameters.
//
// FTS5 auxiliary functions (snippet, bm25) only resolve next to the table
// they rank, not inside an aggregate over a grouped join, so the inner query
// computes them per matched line and the outer query does the per-video
// grouping.
func (c *Compiler) dataPlan(fc FilterCriteria, preds []predicate, rankActive bool) QueryPlan {
	var b strings.Builder
	var args []any

	b.WriteString("SELECT q.video_id, q.title, q.upload_date, q.channel_source")
	if rankActive {
		// bm25 scores ascend as relevance descends; a video ranks as well as
		// its best matching line.
		b.WriteString(", MIN(q.rank) AS rank")
	}
	b.WriteString(`, json_group_array(json_object(
	'text', q.snippet,
	'line_number', q.line_number,
	'timestamp_start', q.timestamp_start,
	'title', q.title,
	'upload_date', q.upload_date,
	'channel_source', q.channel_source
) ORDER BY q.line_number) AS quotes
FROM (
	SELECT q.video_id, q.title, q.upload_date, q.channel_source, q.line_number, q.timestamp_start,
		snippet(quotes_fts, 0, '<b>', '</b>', '…', 8) AS snippet`)
	if rankActive {
		b.WriteString(",\n\t\tbm25(quotes_fts) AS rank")
	}
	b.WriteString("\n\tFROM quotes q\n\tJOIN quotes_fts ON q.rowid = quotes_fts.rowid")

	clauses := make([]string, len(preds))
	for i, p := range preds {
		clauses[i] = p.clause
		args = append(args, p.args...)
	}
	b.WriteString("\n\tWHERE ")
	b.WriteString(strings.Join(clauses, " AND "))

	b.WriteString("\n) q")
	b.WriteString("\nGROUP BY q.video_id, q.title, q.upload_date, q.channel_source")

	switch {
	case fc.Sort == SortDefault && rankActive:
		b.WriteString("\nORDER BY rank")
	case fc.Sort == SortNewest && rankActive:
		b.WriteString("\nORDER BY rank, q.upload_date DESC")
	case fc.Sort == SortOldest && rankActive:
		b.WriteString("\nORDER BY rank, q.upload_date ASC")
	case fc.Sort == SortNewest:
		b.WriteString("\nORDER BY q.upload_date DESC")
	case fc.Sort == SortOldest:
		b.WriteString("\nORDER BY q.upload_date ASC")
	}

	b.WriteString("\nLIMIT ? OFFSET ?")
	args = append(args, fc.Limit, fc.Offset())

	return QueryPlan{SQL: b.String(), Args: args}
}

// countPlan renders the count query: distinct matching videos and summed
// per-video match counts under the same predicates, without display grouping,
// ordering or pagination. Deriving it from the shared predicate list keeps it
// filter-equivalent to the data plan.
func (c *Compiler) countPlan(preds []predicate) QueryPlan {
	var b strings.Builder
	var args []any

	b.WriteString(`SELECT COUNT(*) AS total_videos, COALESCE(SUM(quote_count), 0) AS total_quotes
FROM (
	SELECT q.video_id, COUNT(*) AS quote_count
	FROM quotes q
	JOIN quotes_fts ON q.rowid = quotes_fts.rowid`)

	clauses := make([]string, len(preds))
	for i, p := range preds {
		clauses[i] = p.clause
		args = append(args, p.args...)
	}
	b.WriteString("\n\tWHERE ")
	b.WriteString(strings.Join(clauses, " AND "))

	b.WriteString("\n\tGROUP BY q.video_id\n) video_counts")

	return QueryPlan{SQL: b.String(), Args: args}
}

func (c *Compiler) knownChannel(lower string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.channels {
		if strings.ToLower(ch) == lower {
			return true
		}
	}
	return false
}

func dropQuoteChars(r rune) rune {
	switch r {
	case '\'', '"', ';':
		return -1
	}
	return r
}

// matchExpression builds the FTS5 MATCH expression for a trimmed term.
// Exact-phrase searches become a single quoted phrase; free-text searches
// quote each token individually so FTS5 operators in user input stay inert.
func matchExpression(term string, exact bool) string {
	if exact {
		term = strings.Trim(term, `"`)
		return `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	}

	fields := strings.Fields(strings.ReplaceAll(term, `"`, " "))
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + f + `"`
	}
	return strings.Join(quoted, " ")
}
