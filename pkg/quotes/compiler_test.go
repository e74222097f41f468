package quotes

import (
	"reflect"
	"strings"
	"testing"
)

func testCompiler() *Compiler {
	return NewCompiler([]string{"joerogan"})
}

func compile(t *testing.T, fc FilterCriteria) CompiledQuery {
	t.Helper()
	compiled, ok := testCompiler().Compile(fc.Normalize())
	if !ok {
		t.Fatalf("Expected compilation to succeed for %+v", fc)
	}
	return compiled
}

func TestCompileShortTerm(t *testing.T) {
	for _, term := range []string{"", "  ", "ab", " ab "} {
		if _, ok := testCompiler().Compile(FilterCriteria{SearchTerm: term}.Normalize()); ok {
			t.Errorf("Expected term %q to be rejected as too short", term)
		}
	}
}

func TestCompileMinimumTerm(t *testing.T) {
	compiled := compile(t, FilterCriteria{SearchTerm: "elk"})

	if !strings.Contains(compiled.Data.SQL, "quotes_fts MATCH ?") {
		t.Error("Expected data query to contain an FTS match predicate")
	}
	if compiled.Data.Args[0] != `"elk"` {
		t.Errorf("Expected quoted match token, got %v", compiled.Data.Args[0])
	}
}

func TestCompilePlansShareArgs(t *testing.T) {
	fc := FilterCriteria{
		SearchTerm: "elk meat",
		GameName:   "Chess",
		Channel:    "JoeRogan",
		Year:       "2020",
		Page:       2,
	}
	compiled := compile(t, fc)

	// Data args are the shared predicate args plus trailing limit and offset
	n := len(compiled.Count.Args)
	if len(compiled.Data.Args) != n+2 {
		t.Fatalf("Expected data args to be count args plus limit/offset, got %d vs %d",
			len(compiled.Data.Args), n)
	}
	if !reflect.DeepEqual(compiled.Data.Args[:n], compiled.Count.Args) {
		t.Errorf("Expected shared predicate args, got %v vs %v",
			compiled.Data.Args[:n], compiled.Count.Args)
	}

	limit := compiled.Data.Args[n]
	offset := compiled.Data.Args[n+1]
	if limit != DefaultLimit || offset != DefaultLimit {
		t.Errorf("Expected limit %d offset %d, got %v %v", DefaultLimit, DefaultLimit, limit, offset)
	}

	// Placeholder count must match the bound args on both plans
	if got := strings.Count(compiled.Data.SQL, "?"); got != len(compiled.Data.Args) {
		t.Errorf("Data plan has %d placeholders for %d args", got, len(compiled.Data.Args))
	}
	if got := strings.Count(compiled.Count.SQL, "?"); got != len(compiled.Count.Args) {
		t.Errorf("Count plan has %d placeholders for %d args", got, len(compiled.Count.Args))
	}
}

func TestCompileCountPlanShape(t *testing.T) {
	compiled := compile(t, FilterCriteria{SearchTerm: "wild", Sort: SortNewest, Page: 4})

	count := compiled.Count.SQL
	if strings.Contains(count, "LIMIT") || strings.Contains(count, "OFFSET") {
		t.Error("Count query must not paginate")
	}
	if strings.Contains(count, "ORDER BY") {
		t.Error("Count query must not order")
	}
	if strings.Contains(count, "snippet(") {
		t.Error("Count query must not build display columns")
	}
}

func TestCompileRankColumn(t *testing.T) {
	exact := compile(t, FilterCriteria{SearchTerm: "elk meat", ExactPhrase: true})
	if !exact.HasRank {
		t.Error("Expected rank column for exact-phrase search")
	}
	if !strings.Contains(exact.Data.SQL, "bm25(quotes_fts) AS rank") {
		t.Error("Expected bm25 rank column in exact-phrase data query")
	}

	loose := compile(t, FilterCriteria{SearchTerm: "elk meat"})
	if loose.HasRank {
		t.Error("Expected no rank column for free-text search")
	}
	if strings.Contains(loose.Data.SQL, "bm25(") {
		t.Error("Expected no bm25 column in free-text data query")
	}
}

func TestCompileOrdering(t *testing.T) {
	tests := []struct {
		name  string
		fc    FilterCriteria
		want  string
		avoid string
	}{
		{"default exact", FilterCriteria{SearchTerm: "elk meat", ExactPhrase: true}, "ORDER BY rank", "upload_date"},
		{"newest exact", FilterCriteria{SearchTerm: "elk meat", ExactPhrase: true, Sort: SortNewest}, "ORDER BY rank, q.upload_date DESC", ""},
		{"oldest exact", FilterCriteria{SearchTerm: "elk meat", ExactPhrase: true, Sort: SortOldest}, "ORDER BY rank, q.upload_date ASC", ""},
		{"newest loose", FilterCriteria{SearchTerm: "elk meat", Sort: SortNewest}, "ORDER BY q.upload_date DESC", "rank"},
		{"oldest loose", FilterCriteria{SearchTerm: "elk meat", Sort: SortOldest}, "ORDER BY q.upload_date ASC", "rank"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compiled := compile(t, tt.fc)
			if !strings.Contains(compiled.Data.SQL, tt.want) {
				t.Errorf("Expected ordering %q in:\n%s", tt.want, compiled.Data.SQL)
			}
			if tt.avoid != "" {
				// The trailing ORDER BY; json_group_array carries its own.
				order := compiled.Data.SQL[strings.LastIndex(compiled.Data.SQL, "ORDER BY"):]
				if strings.Contains(order, tt.avoid) {
					t.Errorf("Did not expect %q in ordering clause:\n%s", tt.avoid, order)
				}
			}
		})
	}
}

func TestCompileSnippetComputedPerLine(t *testing.T) {
	compiled := compile(t, FilterCriteria{SearchTerm: "elk meat", ExactPhrase: true})
	sql := compiled.Data.SQL

	inner := strings.Index(sql, "FROM (")
	if inner < 0 {
		t.Fatalf("Expected a two-level data query:\n%s", sql)
	}

	// snippet() and bm25() are FTS5 auxiliary functions; they only work next
	// to the FTS table, so the grouping level must read precomputed columns.
	outer := sql[:inner]
	if strings.Contains(outer, "snippet(") || strings.Contains(outer, "bm25(") {
		t.Errorf("Expected the grouping level to read precomputed columns:\n%s", outer)
	}
	if !strings.Contains(sql[inner:], "snippet(quotes_fts") {
		t.Error("Expected the inner query to compute the snippet per matched line")
	}
	if !strings.Contains(sql[inner:], "bm25(quotes_fts) AS rank") {
		t.Error("Expected the inner query to compute the rank per matched line")
	}
}

func TestCompileDefaultLooseHasNoOrdering(t *testing.T) {
	compiled := compile(t, FilterCriteria{SearchTerm: "elk meat"})
	if strings.Contains(compiled.Data.SQL, "ORDER BY q.upload_date") ||
		strings.Contains(compiled.Data.SQL, "ORDER BY rank") {
		t.Errorf("Expected no top-level ordering for default free-text search:\n%s", compiled.Data.SQL)
	}
}

func TestCompileChannelAllowList(t *testing.T) {
	allowed := compile(t, FilterCriteria{SearchTerm: "wild", Channel: "JoeRogan"})
	if !strings.Contains(allowed.Data.SQL, "LOWER(q.channel_source) = ?") {
		t.Error("Expected channel predicate for allow-listed channel")
	}
	if !containsArg(allowed.Data.Args, "joerogan") {
		t.Errorf("Expected lowercased channel arg, got %v", allowed.Data.Args)
	}

	unknown := compile(t, FilterCriteria{SearchTerm: "wild", Channel: "someoneelse"})
	if strings.Contains(unknown.Data.SQL, "channel_source") {
		t.Error("Expected unknown channel filter to be dropped")
	}
}

func TestCompileGameFilter(t *testing.T) {
	compiled := compile(t, FilterCriteria{SearchTerm: "wild", GameName: `Che'ss;"`})
	if !containsArg(compiled.Data.Args, "Chess") {
		t.Errorf("Expected quote characters stripped from game arg, got %v", compiled.Data.Args)
	}

	// Too short after cleaning means no predicate at all
	short := compile(t, FilterCriteria{SearchTerm: "wild", GameName: `a'b`})
	if strings.Contains(short.Data.SQL, "game_name") {
		t.Error("Expected short game filter to be dropped")
	}
}

func TestCompileYearFilter(t *testing.T) {
	compiled := compile(t, FilterCriteria{SearchTerm: "wild", Year: "2020"})
	if !strings.Contains(compiled.Data.SQL, "strftime('%Y', q.upload_date)") {
		t.Error("Expected year predicate")
	}
	if !containsArg(compiled.Data.Args, 2020) {
		t.Errorf("Expected integer year arg, got %v", compiled.Data.Args)
	}

	junk := compile(t, FilterCriteria{SearchTerm: "wild", Year: "20x0"})
	if strings.Contains(junk.Data.SQL, "strftime") {
		t.Error("Expected non-numeric year filter to be dropped")
	}
}

func TestMatchExpression(t *testing.T) {
	tests := []struct {
		term  string
		exact bool
		want  string
	}{
		{"elk meat", true, `"elk meat"`},
		{"elk meat", false, `"elk" "meat"`},
		{`"already quoted"`, true, `"already quoted"`},
		{`drop "operators NEAR`, false, `"drop" "operators" "NEAR"`},
		{"single", false, `"single"`},
	}

	for _, tt := range tests {
		if got := matchExpression(tt.term, tt.exact); got != tt.want {
			t.Errorf("matchExpression(%q, %v) = %q, want %q", tt.term, tt.exact, got, tt.want)
		}
	}
}

func containsArg(args []any, want any) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}
