// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index records which papers have been downloaded and where.
//
// The index is a SQLite database mapping each submission identifier to the
// file written for it, so a rerun can skip finished papers without parsing
// identifiers back out of filenames. ScanDir remains for directories
// populated before the index existed.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-fetch/internal/manifest"
	"github.com/pdiddy/paper-fetch/pkg/types"
)

// Index manages the download index database.
type Index struct {
	db   *sql.DB
	path string
}

// Open opens or creates the index at path, creating its parent directory
// and schema as needed.
func Open(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}

	idx := &Index{db: db, path: path}
	if err := idx.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return idx, nil
}

// Close releases the database connection.
func (x *Index) Close() error {
	return x.db.Close()
}

// Path returns the database file location.
func (x *Index) Path() string { return x.path }

func (x *Index) createSchema() error {
	_, err := x.db.Exec(`CREATE TABLE IF NOT EXISTS downloads (
		id TEXT PRIMARY KEY,
		source_url TEXT NOT NULL DEFAULT '',
		path TEXT NOT NULL,
		bytes INTEGER NOT NULL DEFAULT 0,
		fetched_at TEXT NOT NULL
	)`)
	return err
}

// Record inserts d, replacing any previous row for the same identifier.
func (x *Index) Record(ctx context.Context, d types.Download) error {
	if d.FetchedAt.IsZero() {
		d.FetchedAt = time.Now()
	}
	_, err := x.db.ExecContext(ctx,
		`INSERT INTO downloads (id, source_url, path, bytes, fetched_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   source_url = excluded.source_url,
		   path = excluded.path,
		   bytes = excluded.bytes,
		   fetched_at = excluded.fetched_at`,
		d.ID, d.SourceURL, d.Path, d.Bytes, d.FetchedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", d.ID, err)
	}
	return nil
}

// Lookup returns the row for id. The boolean is false when id is not indexed.
func (x *Index) Lookup(ctx context.Context, id string) (types.Download, bool, error) {
	row := x.db.QueryRowContext(ctx,
		`SELECT id, source_url, path, bytes, fetched_at FROM downloads WHERE id = ?`, id)
	d, err := scanDownload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Download{}, false, nil
	}
	if err != nil {
		return types.Download{}, false, fmt.Errorf("looking up %s: %w", id, err)
	}
	return d, true, nil
}

// List returns every indexed download ordered by identifier.
func (x *Index) List(ctx context.Context) ([]types.Download, error) {
	rows, err := x.db.QueryContext(ctx,
		`SELECT id, source_url, path, bytes, fetched_at FROM downloads ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing downloads: %w", err)
	}
	defer rows.Close()

	var out []types.Download
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning download: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SkipSet returns the identifiers whose indexed file still exists.
func (x *Index) SkipSet(ctx context.Context) (manifest.SkipSet, error) {
	all, err := x.List(ctx)
	if err != nil {
		return nil, err
	}
	skip := manifest.SkipSet{}
	for _, d := range all {
		if fileExists(d.Path) {
			skip.Add(d.ID)
		}
	}
	return skip, nil
}

// Prune deletes rows whose file no longer exists and returns their
// identifiers.
func (x *Index) Prune(ctx context.Context) ([]string, error) {
	all, err := x.List(ctx)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, d := range all {
		if fileExists(d.Path) {
			continue
		}
		if _, err := x.db.ExecContext(ctx, `DELETE FROM downloads WHERE id = ?`, d.ID); err != nil {
			return removed, fmt.Errorf("pruning %s: %w", d.ID, err)
		}
		removed = append(removed, d.ID)
	}
	return removed, nil
}

// Adopt indexes files in dir named {year}_{id}_{name} that have no row yet.
// It returns the adopted identifiers in directory order.
func (x *Index) Adopt(ctx context.Context, dir string, year int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	prefix := strconv.Itoa(year)
	var adopted []string
	for _, e := range entries {
		if !isPaperFile(e) {
			continue
		}
		parts := strings.SplitN(e.Name(), "_", 3)
		if len(parts) < 3 || parts[0] != prefix {
			continue
		}
		id := parts[1]
		if _, ok, err := x.Lookup(ctx, id); err != nil {
			return adopted, err
		} else if ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return adopted, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		d := types.Download{
			ID:        id,
			Path:      filepath.Join(dir, e.Name()),
			Bytes:     info.Size(),
			FetchedAt: info.ModTime(),
		}
		if err := x.Record(ctx, d); err != nil {
			return adopted, err
		}
		adopted = append(adopted, id)
	}
	return adopted, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDownload(r rowScanner) (types.Download, error) {
	var d types.Download
	var fetchedAt string
	if err := r.Scan(&d.ID, &d.SourceURL, &d.Path, &d.Bytes, &fetchedAt); err != nil {
		return types.Download{}, err
	}
	if t, err := time.Parse(time.RFC3339Nano, fetchedAt); err == nil {
		d.FetchedAt = t
	}
	return d, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
