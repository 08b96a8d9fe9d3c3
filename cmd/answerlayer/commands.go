package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/answerlayer/internal/audit"
	"github.com/kalambet/answerlayer/internal/config"
	"github.com/kalambet/answerlayer/internal/site"
	"github.com/kalambet/answerlayer/internal/storage"
	"github.com/kalambet/answerlayer/internal/watermark"
)

// --- verify ---

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that index.html carries the current watermark",
	Long: `Parse index.html and report every watermark field that is missing or
does not carry the expected date and fingerprint.

The expected fingerprint is taken from the latest recorded run for the date.
Without history, the fingerprint in the meta tag is used and the other
fields are checked against it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		setupLogging(cfg)

		date, err := runDate()
		if err != nil {
			return err
		}
		iso := date.Format(watermark.ISODate)

		var fp string
		if store := openHistory(cfg); store != nil {
			run, err := store.LatestCompleted(iso)
			switch {
			case err == nil:
				fp = run.Fingerprint
			case !errors.Is(err, storage.ErrNotFound):
				printWarning("could not read run history: %v", err)
			}
			store.Close()
		}

		s := site.Site{Root: cfg.Site.Root}
		f, err := os.Open(s.Path(cfg.Site.IndexFile))
		if err != nil {
			return fmt.Errorf("reading %s: %w", cfg.Site.IndexFile, err)
		}
		defer f.Close()

		rep, err := audit.CheckHTML(f, audit.Expect{Date: date, Fingerprint: fp, Domain: cfg.Site.Domain})
		if err != nil {
			return err
		}

		source := "recorded run"
		if fp == "" {
			source = "meta tag"
		}
		printStatus("Date", "%s", iso)
		printStatus("Hash", "%s (from %s)", rep.Fingerprint, source)

		out := cmd.OutOrStdout()
		for _, finding := range rep.Findings {
			status := string(finding.Status)
			switch finding.Status {
			case audit.StatusOK:
				status = colorize(colorGreen, status)
			case audit.StatusStale:
				status = colorize(colorYellow, status)
			case audit.StatusMissing:
				status = colorize(colorRed, status)
			}
			line := fmt.Sprintf("%-8s %s", status, finding.Field)
			if finding.Status == audit.StatusStale {
				line += fmt.Sprintf(" (got %q, want %q)", finding.Got, finding.Want)
			}
			fmt.Fprintln(out, line)
		}

		if !rep.OK() {
			n := len(rep.Findings) - len(rep.Filter(audit.StatusOK))
			return fmt.Errorf("%d watermark field(s) not current for %s", n, iso)
		}
		printSuccess("Watermark current for %s (hash %s)", iso, rep.Fingerprint)
		return nil
	},
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded update runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		runs, err := store.RecentRuns(limit)
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs recorded.")
			return nil
		}

		for _, r := range runs {
			status := colorize(colorGreen, r.Status)
			if r.Status != storage.StatusCompleted {
				status = colorize(colorRed, r.Status)
			}
			fp := r.Fingerprint
			if fp == "" {
				fp = "-"
			}
			fmt.Fprintf(out, "%s  %s  %-10s  %s",
				colorize(colorCyan, shortID(r.ID)),
				r.RunDate,
				fp,
				status,
			)
			if r.MissingMarkers != "" && r.MissingMarkers != "[]" {
				fmt.Fprintf(out, "  missing=%s", r.MissingMarkers)
			}
			if r.Error != "" {
				fmt.Fprintf(out, "  %s", r.Error)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
}

// --- fingerprint ---

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Print the fingerprint of the current index.html without writing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		date, err := runDate()
		if err != nil {
			return err
		}

		fp, err := newRunner(cfg, nil).Fingerprint(date)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), fp)
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value.\n\nValid keys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			printError("%v", err)
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
