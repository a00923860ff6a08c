// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest reads paper manifests and selects the entries to fetch.
//
// A manifest is a JSON array of objects produced by an upstream crawler.
// Only two keys matter here: the submission identifier and the relative
// link to its PDF. Their names differ between dataset versions, so callers
// pass them in.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pdiddy/paper-fetch/pkg/types"
)

// Record is one manifest object as decoded from JSON.
type Record map[string]any

// ParseError reports a manifest that could not be read or decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing manifest %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads path and decodes it as a JSON array of objects, preserving
// order. A missing file or malformed JSON yields a *ParseError.
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return records, nil
}

// Select projects records to entries in manifest order. A record missing
// either field, or holding a non-string value in it, fails the whole
// selection.
func Select(records []Record, idField, linkField string) ([]types.Entry, error) {
	entries := make([]types.Entry, 0, len(records))
	for i, r := range records {
		id, err := stringField(r, idField)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		link, err := stringField(r, linkField)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		entries = append(entries, types.Entry{ID: id, Link: link})
	}
	return entries, nil
}

func stringField(r Record, field string) (string, error) {
	v, ok := r[field]
	if !ok {
		return "", fmt.Errorf("missing field %q", field)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q is %T, want string", field, v)
	}
	return s, nil
}

// SkipSet holds identifiers that must not be fetched again.
type SkipSet map[string]struct{}

// Add inserts id.
func (s SkipSet) Add(id string) { s[id] = struct{}{} }

// Has reports whether id is in the set.
func (s SkipSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Union adds every identifier in other to s and returns s.
func (s SkipSet) Union(other SkipSet) SkipSet {
	for id := range other {
		s[id] = struct{}{}
	}
	return s
}

// Exclude splits entries into those to fetch and those already present,
// preserving order in both.
func Exclude(entries []types.Entry, skip SkipSet) (keep, skipped []types.Entry) {
	for _, e := range entries {
		if skip.Has(e.ID) {
			skipped = append(skipped, e)
			continue
		}
		keep = append(keep, e)
	}
	return keep, skipped
}
