package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/quotegrep/quotegrep/pkg/quotes"
	"github.com/urfave/cli/v3"
)

// Define styles using lipgloss
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	videoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	quoteStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Margin(0, 0, 0, 2)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("32")).
			Margin(1, 0, 0, 0)

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the quote corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "query",
				Usage: "Search term",
			},
			&cli.BoolFlag{
				Name:  "exact",
				Usage: "Match the term as an exact phrase",
			},
			&cli.StringFlag{
				Name:  "game",
				Usage: "Filter by game name",
			},
			&cli.StringFlag{
				Name:  "channel",
				Usage: "Filter by channel",
			},
			&cli.StringFlag{
				Name:  "year",
				Usage: "Filter by upload year",
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "Sort order: default, newest or oldest",
				Value: "default",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of videos",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Result page",
				Value: 1,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			fc := quotes.FilterCriteria{
				SearchTerm:  c.String("query"),
				ExactPhrase: c.Bool("exact"),
				GameName:    c.String("game"),
				Channel:     c.String("channel"),
				Year:        c.String("year"),
				Sort:        quotes.SortOrder(c.String("sort")),
				Page:        c.Int("page"),
				Limit:       c.Int("limit"),
			}
			return searchQuotes(ctx, c.String("config"), fc)
		},
	}
}

func searchQuotes(ctx context.Context, configPath string, fc quotes.FilterCriteria) error {
	cfg, err := loadConfigOrDefault(configPath)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	compiler := quotes.NewCompiler(cfg.Channels)
	executor := quotes.NewExecutor(st, compiler, quotes.ExecutorConfig{
		AcquireTimeout:    cfg.Timeouts.Acquire.Duration,
		DataQueryTimeout:  cfg.Timeouts.DataQuery.Duration,
		CountQueryTimeout: cfg.Timeouts.CountQuery.Duration,
	})

	result, err := executor.Execute(ctx, fc)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Results for %q", fc.SearchTerm)))

	if len(result.Data) == 0 {
		fmt.Println(noDataStyle.Render("No matches found."))
		return nil
	}

	for _, group := range result.Data {
		header := fmt.Sprintf("%s  %s", group.Title, metaStyle.Render(group.UploadDate))
		fmt.Println(videoStyle.Render(header))
		for _, q := range group.Quotes {
			line := stripHighlight(q.Text)
			meta := metaStyle.Render(fmt.Sprintf("line %d at %.0fs", q.LineNumber, q.TimestampStart))
			fmt.Println(quoteStyle.Render(line + "\n" + meta))
		}
	}

	fmt.Println(summaryStyle.Render(fmt.Sprintf(
		"%d videos, %d quotes (%dms)", result.Total, result.TotalQuotes, result.QueryTimeMs)))

	return nil
}

// stripHighlight removes the HTML highlight markers the search snippets carry
// for web clients.
func stripHighlight(s string) string {
	s = strings.ReplaceAll(s, "<b>", "")
	return strings.ReplaceAll(s, "</b>", "")
}
