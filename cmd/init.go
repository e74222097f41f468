package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/quotegrep/quotegrep/pkg/config"
	"github.com/urfave/cli/v3"
)

// InitCommand creates the init command
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create a default configuration file and an empty database",
		Action: func(ctx context.Context, c *cli.Command) error {
			return initConfig(c.String("config"))
		},
	}
}

func initConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config file already exists at %s\n", configPath)
	} else {
		cfg, err := config.GetDefaultConfig()
		if err != nil {
			return fmt.Errorf("building default config: %w", err)
		}
		if err := cfg.SaveTemplateConfig(configPath); err != nil {
			return fmt.Errorf("writing config template: %w", err)
		}
		fmt.Printf("Created config file at %s\n", configPath)
	}

	cfg, err := loadConfigOrDefault(configPath)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	fmt.Printf("Initialized database at %s\n", cfg.DBPath)
	return nil
}
