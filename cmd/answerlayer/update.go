package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kalambet/answerlayer/internal/config"
	"github.com/kalambet/answerlayer/internal/pipeline"
	"github.com/kalambet/answerlayer/internal/site"
	"github.com/kalambet/answerlayer/internal/storage"
	"github.com/kalambet/answerlayer/internal/watermark"
)

func newRunner(cfg config.Config, rec pipeline.Recorder) *pipeline.Runner {
	s := site.Site{
		Root:        cfg.Site.Root,
		IndexFile:   cfg.Site.IndexFile,
		SitemapFile: cfg.Site.SitemapFile,
		FeedFile:    cfg.Site.FeedFile,
	}
	return pipeline.NewRunner(pipeline.Options{
		Site:      s,
		Domain:    cfg.Site.Domain,
		ScriptDir: cfg.ScriptDir(),
		WrapWidth: cfg.Script.WrapWidth,
	}, rec)
}

// openHistory opens the run history store. History is optional, so failures
// are logged and reported as a nil store.
func openHistory(cfg config.Config) *storage.Store {
	if !cfg.History.Enabled {
		return nil
	}
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		slog.Warn("run history unavailable", "data_dir", cfg.Storage.DataDir, "error", err)
		return nil
	}
	return store
}

func runUpdate(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	date, err := runDate()
	if err != nil {
		return err
	}

	var rec pipeline.Recorder
	if !flagNoHistory {
		if store := openHistory(cfg); store != nil {
			defer func() {
				if err := store.Close(); err != nil {
					slog.Warn("closing run history", "error", err)
				}
			}()
			rec = store
		}
	}

	res, err := newRunner(cfg, rec).Run(date)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Generated video script: %s\n", res.ScriptPath)
	fmt.Fprintf(out, "Updated date to %s and hash to %s\n", date.Format(watermark.ISODate), res.Fingerprint)
	return nil
}
