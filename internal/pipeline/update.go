// Package pipeline runs the daily watermark update: fingerprint the page,
// patch the page, sitemap and feed, then write the day's script.
package pipeline

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/answerlayer/internal/audit"
	"github.com/kalambet/answerlayer/internal/script"
	"github.com/kalambet/answerlayer/internal/site"
	"github.com/kalambet/answerlayer/internal/storage"
	"github.com/kalambet/answerlayer/internal/watermark"
)

// Recorder persists the outcome of a run.
type Recorder interface {
	SaveRun(r storage.Run) error
}

// Options configures a Runner.
type Options struct {
	Site      site.Site
	Domain    string
	ScriptDir string
	WrapWidth int
}

// Result describes a completed run.
type Result struct {
	Date        time.Time
	Fingerprint string
	ScriptPath  string
	FeedPatched bool
	Changes     []watermark.Change
	Audit       audit.Report
}

// MissingMarkers lists the markers that matched nothing during the run.
func (r Result) MissingMarkers() []string {
	return watermark.Missing(r.Changes)
}

// Runner executes the update sequence. It is not safe to run two updates
// against the same site at once.
type Runner struct {
	opts     Options
	patcher  *watermark.Patcher
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewRunner creates a Runner. recorder may be nil to skip run history.
func NewRunner(opts Options, recorder Recorder) *Runner {
	return &Runner{
		opts:     opts,
		patcher:  watermark.NewPatcher(opts.Domain),
		recorder: recorder,
		logger:   slog.Default(),
		now:      time.Now,
	}
}

// Fingerprint computes the fingerprint of the current page for date without
// modifying anything.
func (r *Runner) Fingerprint(date time.Time) (string, error) {
	content, err := r.opts.Site.Read(r.opts.Site.IndexFile)
	if err != nil {
		return "", err
	}
	return watermark.Fingerprint(content, date.Format(watermark.ISODate), r.opts.Domain), nil
}

// Run stamps the site with date. A failure leaves earlier documents
// patched; there is no rollback across files.
func (r *Runner) Run(date time.Time) (Result, error) {
	res, err := r.run(date)
	r.record(res, err)
	return res, err
}

func (r *Runner) run(date time.Time) (Result, error) {
	s := r.opts.Site
	res := Result{Date: date}

	fp, err := r.Fingerprint(date)
	if err != nil {
		return res, err
	}
	res.Fingerprint = fp
	r.logger.Debug("computed fingerprint", "date", date.Format(watermark.ISODate), "fingerprint", fp)

	var patched string
	err = s.Rewrite(s.IndexFile, func(text string) string {
		var changes []watermark.Change
		patched, changes = r.patcher.ApplyHTML(text, date, fp)
		res.Changes = append(res.Changes, changes...)
		return patched
	})
	if err != nil {
		return res, err
	}

	err = s.Rewrite(s.SitemapFile, func(text string) string {
		out, changes := watermark.ApplySitemap(text, date)
		res.Changes = append(res.Changes, changes...)
		return out
	})
	if err != nil {
		return res, err
	}

	res.FeedPatched, err = s.RewriteOptional(s.FeedFile, func(text string) string {
		out, changes := watermark.ApplyFeed(text, date)
		res.Changes = append(res.Changes, changes...)
		return out
	})
	if err != nil {
		return res, err
	}
	if !res.FeedPatched {
		r.logger.Debug("feed not present, skipping", "file", s.FeedFile)
	}

	for _, m := range res.MissingMarkers() {
		r.logger.Warn("watermark marker not found, left unchanged", "marker", m)
	}

	rep, err := audit.CheckHTML(strings.NewReader(patched), audit.Expect{
		Date:        date,
		Fingerprint: fp,
		Domain:      r.opts.Domain,
	})
	if err != nil {
		r.logger.Warn("auditing patched page", "error", err)
	} else {
		res.Audit = rep
		for _, f := range rep.Findings {
			if f.Status != audit.StatusOK {
				r.logger.Warn("watermark field not current after patch", "field", f.Field, "status", f.Status, "got", f.Got)
			}
		}
	}

	body := script.Render(date, fp, script.Options{Domain: r.opts.Domain, Width: r.opts.WrapWidth})
	res.ScriptPath, err = script.Write(r.opts.ScriptDir, date, body)
	if err != nil {
		return res, err
	}

	return res, nil
}

// record stores the run outcome. History is best effort: a failure here
// never fails the update.
func (r *Runner) record(res Result, runErr error) {
	if r.recorder == nil {
		return
	}

	missing := res.MissingMarkers()
	if missing == nil {
		missing = []string{}
	}
	missingJSON, err := json.Marshal(missing)
	if err != nil {
		missingJSON = []byte("[]")
	}

	run := storage.Run{
		ID:             uuid.New().String(),
		CreatedAt:      r.now().UTC(),
		RunDate:        res.Date.Format(watermark.ISODate),
		Fingerprint:    res.Fingerprint,
		ScriptPath:     res.ScriptPath,
		FeedPatched:    res.FeedPatched,
		MissingMarkers: string(missingJSON),
		Status:         storage.StatusCompleted,
	}
	if runErr != nil {
		run.Status = storage.StatusFailed
		run.Error = runErr.Error()
	}

	if err := r.recorder.SaveRun(run); err != nil {
		r.logger.Warn("recording run history", "error", fmt.Errorf("saving run %s: %w", run.ID, err))
	}
}
