package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StatsCommand creates the stats command
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show corpus statistics",
		Action: func(ctx context.Context, c *cli.Command) error {
			return showStats(ctx, c.String("config"))
		},
	}
}

func showStats(ctx context.Context, configPath string) error {
	cfg, err := loadConfigOrDefault(configPath)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	channels, err := st.Stats(ctx)
	if err != nil {
		return fmt.Errorf("getting stats: %w", err)
	}

	if len(channels) == 0 {
		fmt.Println("No quotes imported yet.")
		return nil
	}

	titler := cases.Title(language.English)
	totalVideos := 0
	totalQuotes := 0
	fmt.Println("Channel statistics:")
	for _, ch := range channels {
		fmt.Printf("  %s: %d videos, %d quotes\n", titler.String(ch.Channel), ch.VideoCount, ch.TotalQuotes)
		totalVideos += ch.VideoCount
		totalQuotes += ch.TotalQuotes
	}
	fmt.Printf("\nTotal: %d videos, %d quotes\n", totalVideos, totalQuotes)

	return nil
}
