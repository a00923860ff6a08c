// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-fetch/pkg/types"
)

func openTestIndex(t *testing.T) (*Index, string) {
	t.Helper()
	dir := t.TempDir()
	idx, err := Open(filepath.Join(dir, types.DefaultIndexName))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx, dir
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))
}

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "index.db")
	idx, err := Open(path)
	require.NoError(t, err)
	defer idx.Close()

	assert.Equal(t, path, idx.Path())
	assert.FileExists(t, path)
}

func TestRecordAndLookup(t *testing.T) {
	idx, dir := openTestIndex(t)
	ctx := context.Background()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	d := types.Download{
		ID:        "forum1",
		SourceURL: "https://openreview.net/pdf/xyz.pdf",
		Path:      filepath.Join(dir, "2023_forum1_xyz.pdf"),
		Bytes:     42,
		FetchedAt: at,
	}
	require.NoError(t, idx.Record(ctx, d))

	got, ok, err := idx.Lookup(ctx, "forum1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, d.SourceURL, got.SourceURL)
	assert.Equal(t, d.Path, got.Path)
	assert.Equal(t, int64(42), got.Bytes)
	assert.True(t, at.Equal(got.FetchedAt))

	_, ok, err = idx.Lookup(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecord_Upserts(t *testing.T) {
	idx, dir := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Record(ctx, types.Download{ID: "a", Path: filepath.Join(dir, "old"), Bytes: 1}))
	require.NoError(t, idx.Record(ctx, types.Download{ID: "a", Path: filepath.Join(dir, "new"), Bytes: 2}))

	all, err := idx.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, filepath.Join(dir, "new"), all[0].Path)
	assert.Equal(t, int64(2), all[0].Bytes)
	assert.False(t, all[0].FetchedAt.IsZero())
}

func TestList_OrderedByID(t *testing.T) {
	idx, _ := openTestIndex(t)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, idx.Record(ctx, types.Download{ID: id, Path: id}))
	}
	all, err := idx.List(ctx)
	require.NoError(t, err)

	var ids []string
	for _, d := range all {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestSkipSetAndPrune(t *testing.T) {
	idx, dir := openTestIndex(t)
	ctx := context.Background()

	present := filepath.Join(dir, "2023_here_a.pdf")
	touch(t, present)
	require.NoError(t, idx.Record(ctx, types.Download{ID: "here", Path: present}))
	require.NoError(t, idx.Record(ctx, types.Download{ID: "gone", Path: filepath.Join(dir, "2023_gone_b.pdf")}))

	skip, err := idx.SkipSet(ctx)
	require.NoError(t, err)
	assert.True(t, skip.Has("here"))
	assert.False(t, skip.Has("gone"))

	removed, err := idx.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"gone"}, removed)

	all, err := idx.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "here", all[0].ID)
}

func TestAdopt(t *testing.T) {
	idx, dir := openTestIndex(t)
	ctx := context.Background()

	touch(t, filepath.Join(dir, "2023_abcd_paper.pdf"))
	touch(t, filepath.Join(dir, "2022_old_paper.pdf"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "2023_known_x.pdf"))
	require.NoError(t, idx.Record(ctx, types.Download{ID: "known", Path: "elsewhere"}))

	adopted, err := idx.Adopt(ctx, dir, 2023)
	require.NoError(t, err)
	assert.Equal(t, []string{"abcd"}, adopted)

	d, ok, err := idx.Lookup(ctx, "abcd")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "2023_abcd_paper.pdf"), d.Path)
	assert.Equal(t, int64(4), d.Bytes)

	// Existing rows are left alone.
	d, _, err = idx.Lookup(ctx, "known")
	require.NoError(t, err)
	assert.Equal(t, "elsewhere", d.Path)
}

func TestAdopt_MissingDir(t *testing.T) {
	idx, dir := openTestIndex(t)
	adopted, err := idx.Adopt(context.Background(), filepath.Join(dir, "absent"), 2023)
	require.NoError(t, err)
	assert.Empty(t, adopted)
}
