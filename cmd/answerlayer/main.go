package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/answerlayer/internal/config"
	"github.com/kalambet/answerlayer/internal/watermark"
)

var version = "dev"

var (
	noColor     bool
	flagDate    string
	flagRoot    string
	flagNoHistory bool
)

var rootCmd = &cobra.Command{
	Use:   "answerlayer",
	Short: "Refresh the site watermark and write the daily script",
	Long: `Refresh the date and fingerprint watermark of index.html, sitemap.xml and
feed.json (when present), then write the day's video script to
DAILY_VIDEO_SCRIPTS/.

Run with no arguments from the site checkout, once per day.`,
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdate(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&flagDate, "date", "", "stamp this date (YYYY-MM-DD) instead of today")
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "site root (default: site.root from config)")
	rootCmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "do not record this run in the history database")

	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(fingerprintCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads config and applies the persistent flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if flagRoot != "" {
		cfg.Site.Root = flagRoot
	}
	return cfg, nil
}

func setupLogging(cfg config.Config) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// runDate returns the --date value, or today's local calendar date.
func runDate() (time.Time, error) {
	s := flagDate
	if s == "" {
		s = time.Now().Format(watermark.ISODate)
	}
	d, err := watermark.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}
