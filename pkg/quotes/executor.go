package quotes

import (
	"context"
	"database/sql"
	"time"

	"github.com/quotegrep/quotegrep/pkg/log"
)

// ConnSource provides pooled database connections. Acquisition honors the
// context deadline; released connections go back to the pool.
type ConnSource interface {
	Acquire(ctx context.Context) (*sql.Conn, error)
}

// ExecutorConfig holds the per-stage deadlines. Zero values fall back to the
// defaults below.
type ExecutorConfig struct {
	AcquireTimeout    time.Duration
	DataQueryTimeout  time.Duration
	CountQueryTimeout time.Duration
}

const (
	defaultAcquireTimeout    = 5 * time.Second
	defaultDataQueryTimeout  = 10 * time.Second
	defaultCountQueryTimeout = 5 * time.Second
)

// Executor orchestrates a search request: compile, acquire a connection,
// run the data query, run the count query, release, assemble.
//
// Each request holds at most one pooled connection and runs both queries
// sequentially on it, so store-side concurrency stays bounded by the pool.
type Executor struct {
	pool     ConnSource
	compiler *Compiler
	cfg      ExecutorConfig
	logger   *log.Logger
}

// NewExecutor creates an executor over the given connection source and
// compiler.
func NewExecutor(pool ConnSource, compiler *Compiler, cfg ExecutorConfig) *Executor {
	if cfg.AcquireTimeout == 0 {
		cfg.AcquireTimeout = defaultAcquireTimeout
	}
	if cfg.DataQueryTimeout == 0 {
		cfg.DataQueryTimeout = defaultDataQueryTimeout
	}
	if cfg.CountQueryTimeout == 0 {
		cfg.CountQueryTimeout = defaultCountQueryTimeout
	}
	return &Executor{
		pool:     pool,
		compiler: compiler,
		cfg:      cfg,
		logger:   log.ForComponent("executor"),
	}
}

// Execute runs one search request end to end. Connection acquisition and the
// data query are fail-fast; the count query degrades to zeroed totals on
// timeout. The connection is released on every exit path.
func (e *Executor) Execute(ctx context.Context, fc FilterCriteria) (*SearchResult, error) {
	fc = fc.Normalize()

	compiled, ok := e.compiler.Compile(fc)
	if !ok {
		// Short terms are defined to match nothing; the store is not touched.
		return emptyResult(), nil
	}

	e.logger.Debugf("search: term=%q exact=%v game=%q channel=%q year=%q sort=%s page=%d limit=%d",
		fc.SearchTerm, fc.ExactPhrase, fc.GameName, fc.Channel, fc.Year, fc.Sort, fc.Page, fc.Limit)

	var conn *sql.Conn
	err := guard(ctx, StageAcquire, e.cfg.AcquireTimeout, func(stageCtx context.Context) error {
		var acquireErr error
		conn, acquireErr = e.pool.Acquire(stageCtx)
		return acquireErr
	})
	if err != nil {
		e.logger.Errorf("%v", err)
		return nil, err
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			e.logger.Warnf("releasing connection: %v", closeErr)
		}
	}()

	start := time.Now()

	var groups []VideoGroup
	err = guard(ctx, StageDataQuery, e.cfg.DataQueryTimeout, func(stageCtx context.Context) error {
		rows, queryErr := conn.QueryContext(stageCtx, compiled.Data.SQL, compiled.Data.Args...)
		if queryErr != nil {
			return queryErr
		}
		defer func() {
			if closeErr := rows.Close(); closeErr != nil {
				e.logger.Warnf("closing rows: %v", closeErr)
			}
		}()

		var scanErr error
		groups, scanErr = scanVideoGroups(rows, compiled.HasRank)
		return scanErr
	})
	if err != nil {
		e.logger.Errorf("%v", err)
		return nil, err
	}

	var totalVideos, totalQuotes int
	degraded, err := guardDegrade(ctx, StageCountQuery, e.cfg.CountQueryTimeout, func(stageCtx context.Context) error {
		row := conn.QueryRowContext(stageCtx, compiled.Count.SQL, compiled.Count.Args...)
		return row.Scan(&totalVideos, &totalQuotes)
	})
	if err != nil {
		e.logger.Errorf("%v", err)
		return nil, err
	}
	if degraded {
		// Matched groups are worth more than an exact count.
		e.logger.Warnf("count query exceeded %s, serving zeroed totals", e.cfg.CountQueryTimeout)
		totalVideos, totalQuotes = 0, 0
	}

	latency := time.Since(start).Milliseconds()

	return assemble(groups, totalVideos, totalQuotes, latency), nil
}

func emptyResult() *SearchResult {
	return &SearchResult{Data: []VideoGroup{}}
}
