// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-fetch/internal/fetch"
	"github.com/pdiddy/paper-fetch/internal/index"
	"github.com/pdiddy/paper-fetch/internal/manifest"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the papers listed in the manifest",
	Long: `Fetch loads the manifest, takes the first --limit entries, and downloads
each paper not already in the output directory. A failed download is
reported and the run continues; a manifest that cannot be read or an
entry without an identifier or link stops the run.`,
	SilenceUsage: true,
	RunE:         runFetch,
}

func init() {
	addFetchFlags(fetchCmd)

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Manifest: %s\n", cfg.ManifestPath)
	records, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Papers in manifest: %d\n", len(records))

	if err := manifest.Validate(records, cfg.IDField, cfg.LinkField); err != nil {
		return err
	}
	entries, err := manifest.Select(records, cfg.IDField, cfg.LinkField)
	if err != nil {
		return err
	}

	idx, err := index.Open(cfg.IndexPath)
	if err != nil {
		return err
	}
	defer idx.Close()

	fmt.Fprintf(w, "Output directory: %s\n", cfg.OutputDir)

	var progress io.Writer = cmd.ErrOrStderr()
	if noProgress, _ := cmd.Flags().GetBool("no-progress"); noProgress {
		progress = nil
	}

	r := &fetch.Runner{
		Client:   &http.Client{Timeout: cfg.Timeout},
		Index:    idx,
		Out:      w,
		Progress: progress,
	}
	_, err = r.Run(cmd.Context(), entries, cfg)
	return err
}
