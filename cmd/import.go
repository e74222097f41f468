package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/quotegrep/quotegrep/pkg/quotes"
	"github.com/urfave/cli/v3"
)

// importBatchSize bounds transaction size during bulk import.
const importBatchSize = 5000

// ImportCommand creates the import command
func ImportCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import quotes from a JSON file",
		ArgsUsage: "<file.json>",
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one JSON file argument")
			}
			return importQuotes(ctx, c.String("config"), c.Args().First())
		},
	}
}

func importQuotes(ctx context.Context, configPath, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filePath, err)
	}

	var batch []quotes.Quote
	if err := json.Unmarshal(data, &batch); err != nil {
		return fmt.Errorf("parsing %s: %w", filePath, err)
	}
	if len(batch) == 0 {
		fmt.Println("Nothing to import.")
		return nil
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

	for start := 0; start < len(batch); start += importBatchSize {
		end := start + importBatchSize
		if end > len(batch) {
			end = len(batch)
		}
		if err := st.ImportQuotes(ctx, batch[start:end]); err != nil {
			return fmt.Errorf("importing quotes %d-%d: %w", start, end, err)
		}
		fmt.Printf("Imported %d/%d quotes\n", end, len(batch))
	}

	if err := st.Optimize(); err != nil {
		fmt.Printf("Warning: optimize failed: %v\n", err)
	}
	if err := st.WALCheckpoint(); err != nil {
		fmt.Printf("Warning: WAL checkpoint failed: %v\n", err)
	}

	count, err := st.QuoteCount(ctx)
	if err != nil {
		return fmt.Errorf("counting quotes: %w", err)
	}
	fmt.Printf("Done. Corpus now holds %d quotes.\n", count)

	return nil
}
