// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Defaults for a fetch run. These match the NeurIPS 2023 dataset layout the
// manifests are produced in.
const (
	DefaultYear       = 2023
	DefaultConference = "neurips"
	DefaultBaseURL    = "https://openreview.net"
	DefaultLimit      = 5
	DefaultIDField    = "forum"
	DefaultLinkField  = "paper_pdf_link"
	DefaultTimeout    = 60 * time.Second
	DefaultUserAgent  = "paper-fetch/0.1"

	// DefaultIndexName is the index file created inside the output directory.
	DefaultIndexName = ".paper-fetch.db"
)

// HTTPConfig holds HTTP settings for the fetcher.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// FetchConfig holds everything a fetch run needs. Zero-valued path fields
// are derived from Year and Conference by Resolve.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Year prefixes every output filename.
	Year int `json:"year" yaml:"year" mapstructure:"year"`

	// Conference names the venue; used only to derive default paths.
	Conference string `json:"conference" yaml:"conference" mapstructure:"conference"`

	// BaseURL is the host that relative manifest links are resolved against.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// ManifestPath is the JSON manifest to read
	// (default final_dataset/{conference}_{year}_all_final_dataset.json).
	ManifestPath string `json:"manifest" yaml:"manifest" mapstructure:"manifest"`

	// OutputDir receives the PDFs (default pdf_dataset/{conference}/{year}).
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// IndexPath is the SQLite download index (default {output_dir}/.paper-fetch.db).
	IndexPath string `json:"index" yaml:"index" mapstructure:"index"`

	// Limit caps how many manifest entries are considered. Zero or negative
	// means no cap.
	Limit int `json:"limit" yaml:"limit" mapstructure:"limit"`

	// IDField and LinkField name the manifest keys holding the identifier
	// and the relative PDF link.
	IDField   string `json:"id_field" yaml:"id_field" mapstructure:"id_field"`
	LinkField string `json:"link_field" yaml:"link_field" mapstructure:"link_field"`

	// Force disables the skip-set: every entry is fetched and existing
	// files are overwritten.
	Force bool `json:"force" yaml:"force" mapstructure:"force"`
}

// DefaultFetchConfig returns a config with every field set to its default.
func DefaultFetchConfig() FetchConfig {
	cfg := FetchConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   DefaultTimeout,
			UserAgent: DefaultUserAgent,
		},
		Year:       DefaultYear,
		Conference: DefaultConference,
		BaseURL:    DefaultBaseURL,
		Limit:      DefaultLimit,
		IDField:    DefaultIDField,
		LinkField:  DefaultLinkField,
	}
	cfg.Resolve()
	return cfg
}

// Resolve fills empty fields with defaults and derives the manifest,
// output, and index paths from Year and Conference.
func (c *FetchConfig) Resolve() {
	if c.Year == 0 {
		c.Year = DefaultYear
	}
	if c.Conference == "" {
		c.Conference = DefaultConference
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.IDField == "" {
		c.IDField = DefaultIDField
	}
	if c.LinkField == "" {
		c.LinkField = DefaultLinkField
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	conf := strings.ToLower(c.Conference)
	if c.ManifestPath == "" {
		c.ManifestPath = filepath.Join("final_dataset",
			fmt.Sprintf("%s_%d_all_final_dataset.json", conf, c.Year))
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join("pdf_dataset", conf, fmt.Sprint(c.Year))
	}
	if c.IndexPath == "" {
		c.IndexPath = filepath.Join(c.OutputDir, DefaultIndexName)
	}
}
