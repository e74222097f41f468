// Package store owns the SQLite quotes database and its bounded connection
// pool: acquisition, idle eviction, startup warm-up, health checking and the
// non-search corpus operations (import, stats, random sample, game list).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/quotegrep/quotegrep/pkg/log"
)

// PoolConfig bounds the connection pool. MinIdleConnections keeps warm
// standing connections; IdleTimeout recycles the rest.
type PoolConfig struct {
	MaxConnections     int
	MinIdleConnections int
	IdleTimeout        time.Duration
	ConnectTimeout     time.Duration
}

// Store wraps the pooled database handle. The pool's occupancy counters are
// process-wide state owned here and exposed only through HealthCheck; nothing
// else reads or mutates them.
type Store struct {
	db             *sql.DB
	connectTimeout time.Duration
	logger         *log.Logger
}

// Open opens (creating if needed) the quotes database at dbPath and applies
// the performance pragmas and pool bounds.
func Open(dbPath string, cfg PoolConfig) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Apply performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA cache_size = -64000", // 64MB cache
		"PRAGMA temp_store = memory",
		"PRAGMA optimize",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MinIdleConnections)
	db.SetConnMaxIdleTime(cfg.IdleTimeout)

	return &Store{
		db:             db,
		connectTimeout: cfg.ConnectTimeout,
		logger:         log.ForComponent("store"),
	}, nil
}

// Acquire checks a connection out of the pool. Requests beyond the pool's
// maximum wait here until a connection is released or the context expires;
// this wait is the system's only backpressure mechanism. Callers release by
// closing the returned connection.
func (s *Store) Acquire(ctx context.Context) (*sql.Conn, error) {
	if s.connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.connectTimeout)
		defer cancel()
	}
	return s.db.Conn(ctx)
}

// Warmup performs the startup acquisition and schema check. Failure is
// reported to the caller, which logs and continues; the pool still serves
// later requests on demand.
func (s *Store) Warmup(ctx context.Context) error {
	conn, err := s.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("warm-up acquisition: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Warnf("releasing warm-up connection: %v", err)
		}
	}()

	var tableExists bool
	err = conn.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM sqlite_master
			WHERE type = 'table' AND name = 'quotes'
		)
	`).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("checking quotes table: %w", err)
	}
	if !tableExists {
		return fmt.Errorf("quotes table missing, run migrations")
	}

	var quoteCount int
	if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM quotes").Scan(&quoteCount); err != nil {
		return fmt.Errorf("counting quotes: %w", err)
	}

	s.logger.Infof("database connected successfully with %d quotes", quoteCount)
	return nil
}

// PoolInfo is a snapshot of the pool's occupancy counters.
type PoolInfo struct {
	TotalConnections int   `json:"totalConnections"`
	IdleConnections  int   `json:"idleConnections"`
	WaitingCount     int64 `json:"waitingCount"`
}

// HealthStatus is the outcome of a health check.
type HealthStatus struct {
	Healthy      bool
	ResponseTime time.Duration
	ServerTime   string
	PoolInfo     PoolInfo
	Err          error
}

// HealthCheck verifies database connectivity and reports round-trip latency,
// server time and pool occupancy. It never returns an error; failures are
// carried inside the status.
func (s *Store) HealthCheck(ctx context.Context) HealthStatus {
	conn, err := s.Acquire(ctx)
	if err != nil {
		s.logger.Errorf("health check failed: %v", err)
		return HealthStatus{Err: err}
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Warnf("releasing health-check connection: %v", err)
		}
	}()

	start := time.Now()
	var one int
	var serverTime string
	if err := conn.QueryRowContext(ctx, "SELECT 1, datetime('now')").Scan(&one, &serverTime); err != nil {
		s.logger.Errorf("health check failed: %v", err)
		return HealthStatus{Err: err}
	}

	stats := s.db.Stats()
	return HealthStatus{
		Healthy:      true,
		ResponseTime: time.Since(start),
		ServerTime:   serverTime,
		PoolInfo: PoolInfo{
			TotalConnections: stats.OpenConnections,
			IdleConnections:  stats.Idle,
			WaitingCount:     stats.WaitCount,
		},
	}
}

// DB returns the underlying database handle for migrations and the analytics
// recorder.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Optimize() error {
	_, err := s.db.Exec("PRAGMA optimize")
	return err
}

func (s *Store) WALCheckpoint() error {
	_, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}
