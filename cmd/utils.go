package cmd

import (
	"fmt"

	"github.com/quotegrep/quotegrep/pkg/config"
	"github.com/quotegrep/quotegrep/pkg/db"
	"github.com/quotegrep/quotegrep/pkg/store"
)

// openStore opens the quotes database from config and applies pending
// migrations.
func openStore(cfg *config.Config) (*store.Store, error) {
	s, err := store.Open(cfg.DBPath, store.PoolConfig{
		MaxConnections:     cfg.Pool.MaxConnections,
		MinIdleConnections: cfg.Pool.MinIdleConnections,
		IdleTimeout:        cfg.Pool.IdleTimeout.Duration,
		ConnectTimeout:     cfg.Pool.ConnectTimeout.Duration,
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	if err := db.InitializeDatabase(s.DB()); err != nil {
		closeStore(s)
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	return s, nil
}

func closeStore(s *store.Store) {
	if err := s.Close(); err != nil {
		fmt.Printf("Warning: failed to close store: %v\n", err)
	}
}

// loadConfigOrDefault loads the config file, falling back to defaults when it
// does not exist.
func loadConfigOrDefault(configPath string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
