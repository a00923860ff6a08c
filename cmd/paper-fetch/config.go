// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-fetch/pkg/types"
)

// configKeys maps viper keys (matching FetchConfig's mapstructure tags) to
// flag names. Commands register whichever subset they need.
var configKeys = map[string]string{
	"year":       "year",
	"conference": "conference",
	"base_url":   "base-url",
	"manifest":   "manifest",
	"output_dir": "output-dir",
	"index":      "index",
	"limit":      "limit",
	"id_field":   "id-field",
	"link_field": "link-field",
	"force":      "force",
	"timeout":    "timeout",
	"user_agent": "user-agent",
}

// addLocationFlags registers the flags that locate the output directory
// and index.
func addLocationFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("year", types.DefaultYear, "conference year; prefixes every filename")
	f.String("conference", types.DefaultConference, "conference name used to derive default paths")
	f.String("output-dir", "", "directory for downloaded PDFs (default pdf_dataset/{conference}/{year})")
	f.String("index", "", "download index database (default {output-dir}/"+types.DefaultIndexName+")")
}

// addFetchFlags registers every flag a fetch run reads.
func addFetchFlags(cmd *cobra.Command) {
	addLocationFlags(cmd)
	f := cmd.Flags()
	f.String("base-url", types.DefaultBaseURL, "host that relative manifest links are resolved against")
	f.String("manifest", "", "JSON manifest (default final_dataset/{conference}_{year}_all_final_dataset.json)")
	f.Int("limit", types.DefaultLimit, "fetch at most this many manifest entries; 0 for all")
	f.String("id-field", types.DefaultIDField, "manifest key holding the paper identifier")
	f.String("link-field", types.DefaultLinkField, "manifest key holding the relative PDF link")
	f.Bool("force", false, "download every entry, overwriting existing files")
	f.Duration("timeout", types.DefaultTimeout, "HTTP request timeout")
	f.String("user-agent", types.DefaultUserAgent, "User-Agent header sent with requests")
	f.Bool("no-progress", false, "hide the progress bar")
}

// loadConfig binds cmd's flags into viper and decodes the merged flag,
// environment, and config file values into a resolved FetchConfig.
func loadConfig(cmd *cobra.Command) (types.FetchConfig, error) {
	for key, name := range configKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return types.FetchConfig{}, fmt.Errorf("binding flag %s: %w", name, err)
		}
	}

	cfg := types.DefaultFetchConfig()
	// Derived paths must follow the configured year and conference.
	cfg.ManifestPath, cfg.OutputDir, cfg.IndexPath = "", "", ""
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.FetchConfig{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Resolve()
	return cfg, nil
}
