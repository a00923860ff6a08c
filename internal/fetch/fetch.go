// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads the PDFs listed in a manifest.
//
// Papers are fetched one at a time in manifest order. A failed request is
// reported and the run moves on; anything else (a link that cannot be
// resolved, a directory that cannot be written) stops the run and is
// returned to the caller.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/paper-fetch/internal/httputil"
	"github.com/pdiddy/paper-fetch/pkg/types"
)

// RequestError reports a network or HTTP status failure for one paper.
// The driver counts these and continues.
type RequestError struct {
	ID  string
	URL string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// FetchPaper downloads entry into cfg.OutputDir as
// {year}_{id}_{basename(link)}, overwriting any file already there.
// It prints one status line to w. Request failures come back as
// *RequestError; other errors are fatal to the run.
func FetchPaper(ctx context.Context, client *http.Client, entry types.Entry, cfg types.FetchConfig, w io.Writer) (types.Download, error) {
	pdfURL, err := ResolveURL(cfg.BaseURL, entry.Link)
	if err != nil {
		return types.Download{}, err
	}
	name, err := FileName(cfg.Year, entry.ID, entry.Link)
	if err != nil {
		return types.Download{}, fmt.Errorf("naming %s: %w", entry.ID, err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return types.Download{}, fmt.Errorf("creating directory %s: %w", cfg.OutputDir, err)
	}
	destPath := filepath.Join(cfg.OutputDir, name)

	body, err := get(ctx, client, pdfURL, cfg.UserAgent)
	if err != nil {
		reqErr := &RequestError{ID: entry.ID, URL: pdfURL, Err: err}
		fmt.Fprintf(w, "failed:     %s (%v)\n", entry.ID, reqErr)
		return types.Download{}, reqErr
	}

	if err := writeFile(destPath, body); err != nil {
		return types.Download{}, fmt.Errorf("saving %s: %w", entry.ID, err)
	}

	fmt.Fprintf(w, "downloaded: %s\n", destPath)
	return types.Download{
		ID:        entry.ID,
		SourceURL: pdfURL,
		Path:      destPath,
		Bytes:     int64(len(body)),
		FetchedAt: time.Now(),
	}, nil
}

// get returns the full response body for url.
func get(ctx context.Context, client *http.Client, url, userAgent string) ([]byte, error) {
	resp, err := httputil.Get(ctx, client, url, userAgent)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// writeFile writes data to a temp file beside destPath and renames it into
// place, so an interrupted run never leaves a truncated PDF at destPath.
func writeFile(destPath string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
