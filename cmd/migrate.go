package cmd

import (
	"context"
	"fmt"

	"github.com/quotegrep/quotegrep/pkg/db"
	"github.com/quotegrep/quotegrep/pkg/store"
	"github.com/urfave/cli/v3"
)

// MigrateCommand creates the migrate command
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage database schema migrations",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply pending migrations",
				Action: func(ctx context.Context, c *cli.Command) error {
					return migrateUp(c.String("config"))
				},
			},
			{
				Name:  "status",
				Usage: "Show migration status",
				Action: func(ctx context.Context, c *cli.Command) error {
					return migrateStatus(c.String("config"))
				},
			},
		},
	}
}

func openRawStore(configPath string) (*store.Store, error) {
	cfg, err := loadConfigOrDefault(configPath)
	if err != nil {
		return nil, err
	}

	s, err := store.Open(cfg.DBPath, store.PoolConfig{
		MaxConnections:     cfg.Pool.MaxConnections,
		MinIdleConnections: cfg.Pool.MinIdleConnections,
		IdleTimeout:        cfg.Pool.IdleTimeout.Duration,
		ConnectTimeout:     cfg.Pool.ConnectTimeout.Duration,
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return s, nil
}

func migrateUp(configPath string) error {
	s, err := openRawStore(configPath)
	if err != nil {
		return err
	}
	defer closeStore(s)

	manager := db.NewMigrationManager(s.DB())
	if err := manager.ApplyPendingMigrations(); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

func migrateStatus(configPath string) error {
	s, err := openRawStore(configPath)
	if err != nil {
		return err
	}
	defer closeStore(s)

	manager := db.NewMigrationManager(s.DB())
	status, err := manager.GetMigrationStatus()
	if err != nil {
		return fmt.Errorf("getting migration status: %w", err)
	}

	fmt.Printf("Applied migrations: %d\n", len(status.Applied))
	for _, m := range status.Applied {
		fmt.Printf("  %03d %s (applied %s)\n", m.Version, m.Name, m.AppliedAt.Format("2006-01-02 15:04:05"))
	}

	fmt.Printf("Pending migrations: %d\n", len(status.Pending))
	for _, m := range status.Pending {
		fmt.Printf("  %03d %s\n", m.Version, m.Name)
	}

	return nil
}
