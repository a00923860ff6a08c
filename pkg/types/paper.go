// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Entry is one manifest item selected for fetching.
type Entry struct {
	// ID is the opaque submission identifier (OpenReview forum ID).
	ID string `json:"id" yaml:"id"`

	// Link is the PDF path or URL fragment, resolved against the base host.
	Link string `json:"link" yaml:"link"`
}

// Download records a paper written to the output directory.
type Download struct {
	// ID is the submission identifier.
	ID string `json:"id" yaml:"id"`

	// SourceURL is the absolute URL the PDF was fetched from.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// Path is the local file the response body was written to.
	Path string `json:"path" yaml:"path"`

	// Bytes is the size of the written file.
	Bytes int64 `json:"bytes" yaml:"bytes"`

	// FetchedAt is when the download completed.
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}
