package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/briangreenhill/steamstats/internal/manual"
)

func newRootCmd() *cobra.Command {
	var manualDir string

	cmd := &cobra.Command{
		Use:   "yirimport <html_path> <year> <steamid>",
		Short: "Imports a saved Steam Year in Review page as a manual override.",
		Long: "Reads a Year in Review page saved from a logged-in browser (HTML or MHTML),\n" +
			"extracts the year's summary and writes it to the manual directory, where the\n" +
			"API serves it in place of live data.",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			year, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("year must be a number: %q", args[1])
			}

			store, err := manual.NewStore(manualDir)
			if err != nil {
				return err
			}
			logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
			rec, path, err := manual.NewImporter(store, manual.WithLogger(logger)).Import(page, year, args[2])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d games, %d new, %d months)\n",
				path, rec.GamesPlayed, rec.NewGames, len(rec.Timeline))
			return nil
		},
	}
	cmd.Flags().StringVar(&manualDir, "manual-dir", envOr("MANUAL_DIR", "./manual"), "directory holding manual overrides")
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
