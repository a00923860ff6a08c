// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/pdiddy/paper-fetch/internal/index"
	"github.com/pdiddy/paper-fetch/internal/manifest"
	"github.com/pdiddy/paper-fetch/pkg/types"
)

// Result holds the outcome of a fetch run.
type Result struct {
	// Attempted counts GET requests issued.
	Attempted  int
	Downloaded int
	Skipped    int
	Failed     int

	// Files is the number of paper files in the output directory after the run.
	Files int

	// Downloads lists the papers written this run, in manifest order.
	Downloads []types.Download
}

// HasFailures reports whether any paper failed.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Runner drives a fetch run.
type Runner struct {
	Client *http.Client

	// Index records finished downloads and supplies the skip-set. Nil runs
	// without one, relying on the filename scan alone.
	Index *index.Index

	// Out receives per-paper status lines and the summary.
	Out io.Writer

	// Progress receives the progress bar. Nil hides it.
	Progress io.Writer
}

// Cap returns the first limit entries, or all of them when limit <= 0.
func Cap(entries []types.Entry, limit int) []types.Entry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

// Run fetches entries into cfg.OutputDir. Only the first cfg.Limit entries
// are considered. Unless cfg.Force is set, identifiers already present in
// the index or in the directory listing taken at start are skipped; the
// listing is not refreshed during the run.
//
// Request failures are counted and the run continues. Any other error, or
// cancellation of ctx, stops the run and is returned with the partial
// result.
func (r *Runner) Run(ctx context.Context, entries []types.Entry, cfg types.FetchConfig) (Result, error) {
	var result Result
	out := r.Out
	if out == nil {
		out = io.Discard
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return result, fmt.Errorf("creating directory %s: %w", cfg.OutputDir, err)
	}

	selected := Cap(entries, cfg.Limit)
	todo := selected
	if !cfg.Force {
		skip, err := r.skipSet(ctx, cfg.OutputDir)
		if err != nil {
			return result, err
		}
		var skipped []types.Entry
		todo, skipped = manifest.Exclude(selected, skip)
		for _, e := range skipped {
			fmt.Fprintf(out, "skipped:    %s (already downloaded)\n", e.ID)
		}
		result.Skipped = len(skipped)
	}

	if err := r.fetchAll(ctx, todo, cfg, out, &result); err != nil {
		return result, err
	}

	n, err := index.CountFiles(cfg.OutputDir)
	if err != nil {
		return result, err
	}
	result.Files = n

	fmt.Fprintf(out, "\nSummary: %d downloaded, %d skipped, %d failed; %d file(s) in %s\n",
		result.Downloaded, result.Skipped, result.Failed, result.Files, cfg.OutputDir)
	return result, nil
}

// fetchAll fetches todo in order, updating result. The progress bar is
// completed on success and closed at its current position on an early return.
func (r *Runner) fetchAll(ctx context.Context, todo []types.Entry, cfg types.FetchConfig, out io.Writer, result *Result) (err error) {
	if len(todo) == 0 {
		return nil
	}
	bar := newProgressBar(r.Progress, len(todo))
	defer func() {
		if err != nil {
			bar.Exit()
			return
		}
		bar.Finish()
	}()

	for _, e := range todo {
		if err := ctx.Err(); err != nil {
			return err
		}

		result.Attempted++
		d, err := FetchPaper(ctx, r.Client, e, cfg, out)
		if barErr := bar.Add(1); barErr != nil {
			fmt.Fprintf(out, "  warning: progress bar: %v\n", barErr)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			var reqErr *RequestError
			if errors.As(err, &reqErr) {
				result.Failed++
				continue
			}
			return err
		}

		result.Downloaded++
		result.Downloads = append(result.Downloads, d)
		if r.Index != nil {
			if err := r.Index.Record(ctx, d); err != nil {
				return err
			}
		}
	}
	return nil
}

// skipSet merges the index with a one-time scan of dir.
func (r *Runner) skipSet(ctx context.Context, dir string) (manifest.SkipSet, error) {
	skip, err := index.ScanDir(dir)
	if err != nil {
		return nil, err
	}
	if r.Index == nil {
		return skip, nil
	}
	indexed, err := r.Index.SkipSet(ctx)
	if err != nil {
		return nil, err
	}
	return skip.Union(indexed), nil
}

func newProgressBar(w io.Writer, n int) *progressbar.ProgressBar {
	if w == nil {
		w = io.Discard
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("Downloading papers"),
		progressbar.OptionThrottle(80*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}
