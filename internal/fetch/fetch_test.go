// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-fetch/internal/httputil"
	"github.com/pdiddy/paper-fetch/pkg/types"
)

// pdfServer serves "pdf:<name>" for /pdf/<name> and 404 for names
// starting with "missing". It counts requests.
type pdfServer struct {
	*httptest.Server
	calls int32
}

func newPDFServer(t *testing.T) *pdfServer {
	t.Helper()
	s := &pdfServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.calls, 1)
		name := strings.TrimPrefix(r.URL.Path, "/pdf/")
		switch {
		case !strings.HasPrefix(r.URL.Path, "/pdf/"), strings.HasPrefix(name, "missing"):
			http.NotFound(w, r)
		case strings.HasPrefix(name, "broken"):
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.Header().Set("Content-Type", "application/pdf")
			fmt.Fprintf(w, "pdf:%s", name)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *pdfServer) Calls() int { return int(atomic.LoadInt32(&s.calls)) }

func testConfig(t *testing.T, baseURL string) types.FetchConfig {
	t.Helper()
	cfg := types.FetchConfig{
		BaseURL:   baseURL,
		Year:      2023,
		OutputDir: filepath.Join(t.TempDir(), "out"),
		Limit:     5,
	}
	cfg.Resolve()
	return cfg
}

// roundTripFunc lets a test serve any host from an in-process handler.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestFetchPaper_WritesVerbatimBody(t *testing.T) {
	content := []byte("%PDF-1.7\x00\x01binary")
	var gotURL string
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		gotURL = r.URL.String()
		rec := httptest.NewRecorder()
		rec.Write(content)
		return rec.Result(), nil
	})}

	cfg := testConfig(t, "https://openreview.net")
	var buf bytes.Buffer
	d, err := FetchPaper(context.Background(), client,
		types.Entry{ID: "forum1", Link: "https://openreview.net/pdf/xyz.pdf"}, cfg, &buf)
	require.NoError(t, err)

	assert.Equal(t, "https://openreview.net/pdf/xyz.pdf", gotURL)
	wantPath := filepath.Join(cfg.OutputDir, "2023_forum1_xyz.pdf")
	assert.Equal(t, wantPath, d.Path)
	assert.Equal(t, "forum1", d.ID)
	assert.Equal(t, int64(len(content)), d.Bytes)

	data, err := os.ReadFile(wantPath)
	require.NoError(t, err)
	assert.Equal(t, content, data)
	assert.Contains(t, buf.String(), "downloaded: "+wantPath)
}

func TestFetchPaper_RelativeLink(t *testing.T) {
	ts := newPDFServer(t)
	cfg := testConfig(t, ts.URL)

	d, err := FetchPaper(context.Background(), ts.Client(),
		types.Entry{ID: "abc", Link: "/pdf/hash123.pdf"}, cfg, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, ts.URL+"/pdf/hash123.pdf", d.SourceURL)
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "2023_abc_hash123.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "pdf:hash123.pdf", string(data))
}

func TestFetchPaper_NotFound(t *testing.T) {
	ts := newPDFServer(t)
	cfg := testConfig(t, ts.URL)

	var buf bytes.Buffer
	_, err := FetchPaper(context.Background(), ts.Client(),
		types.Entry{ID: "gone", Link: "/pdf/missing.pdf"}, cfg, &buf)
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "gone", reqErr.ID)

	var statusErr *httputil.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)

	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "2023_gone_missing.pdf"))
	assert.Contains(t, buf.String(), "failed:")

	// No temp files left behind.
	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetchPaper_ConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	base := ts.URL
	ts.Close()

	cfg := testConfig(t, base)
	_, err := FetchPaper(context.Background(), http.DefaultClient,
		types.Entry{ID: "x", Link: "/pdf/x.pdf"}, cfg, &bytes.Buffer{})

	var reqErr *RequestError
	assert.True(t, errors.As(err, &reqErr), "want *RequestError, got %v", err)
}

func TestFetchPaper_MalformedLinkIsFatal(t *testing.T) {
	ts := newPDFServer(t)
	cfg := testConfig(t, ts.URL)

	_, err := FetchPaper(context.Background(), ts.Client(),
		types.Entry{ID: "x", Link: "http://[::1"}, cfg, &bytes.Buffer{})
	require.Error(t, err)

	var reqErr *RequestError
	assert.False(t, errors.As(err, &reqErr))
	assert.Equal(t, 0, ts.Calls())
}

func TestFetchPaper_IdentifierCannotLeaveOutputDir(t *testing.T) {
	ts := newPDFServer(t)
	cfg := testConfig(t, ts.URL)
	parent := filepath.Dir(cfg.OutputDir)

	_, err := FetchPaper(context.Background(), ts.Client(),
		types.Entry{ID: "x/../../../escaped", Link: "/pdf/a.pdf"}, cfg, &bytes.Buffer{})
	require.Error(t, err)

	var reqErr *RequestError
	assert.False(t, errors.As(err, &reqErr), "naming errors are fatal, not request failures")
	assert.Equal(t, 0, ts.Calls())

	matches, err := filepath.Glob(filepath.Join(parent, "*escaped*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
	matches, err = filepath.Glob(filepath.Join(filepath.Dir(parent), "*escaped*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFetchPaper_Overwrites(t *testing.T) {
	ts := newPDFServer(t)
	cfg := testConfig(t, ts.URL)
	path := filepath.Join(cfg.OutputDir, "2023_a_a.pdf")

	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0o755))
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	_, err := FetchPaper(context.Background(), ts.Client(),
		types.Entry{ID: "a", Link: "/pdf/a.pdf"}, cfg, &bytes.Buffer{})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pdf:a.pdf", string(data))
}
