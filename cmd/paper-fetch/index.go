// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-fetch/internal/index"
	"github.com/pdiddy/paper-fetch/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect and maintain the download index",
	Long: `The download index records each paper written to the output directory,
keyed by identifier. Fetch consults it to skip finished papers.`,
}

var indexListCmd = &cobra.Command{
	Use:          "list",
	Short:        "List indexed downloads (YAML, or JSON with --json)",
	SilenceUsage: true,
	RunE:         runIndexList,
}

var indexPruneCmd = &cobra.Command{
	Use:          "prune",
	Short:        "Drop index entries whose file no longer exists",
	SilenceUsage: true,
	RunE:         runIndexPrune,
}

var indexAdoptCmd = &cobra.Command{
	Use:   "adopt",
	Short: "Index files already in the output directory",
	Long: `Adopt scans the output directory for files named {year}_{identifier}_{name}
that have no index entry and records them, so later runs skip them without
relying on filename parsing.`,
	SilenceUsage: true,
	RunE:         runIndexAdopt,
}

func init() {
	for _, c := range []*cobra.Command{indexListCmd, indexPruneCmd, indexAdoptCmd} {
		addLocationFlags(c)
		indexCmd.AddCommand(c)
	}
	indexListCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(indexCmd)
}

func openIndex(cmd *cobra.Command) (*index.Index, types.FetchConfig, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, err
	}
	idx, err := index.Open(cfg.IndexPath)
	return idx, cfg, err
}

func runIndexList(cmd *cobra.Command, args []string) error {
	idx, _, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer idx.Close()

	downloads, err := idx.List(cmd.Context())
	if err != nil {
		return err
	}
	if downloads == nil {
		downloads = []types.Download{}
	}

	w := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(downloads)
	}
	data, err := yaml.Marshal(downloads)
	if err != nil {
		return fmt.Errorf("marshaling index: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func runIndexPrune(cmd *cobra.Command, args []string) error {
	idx, _, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer idx.Close()

	removed, err := idx.Prune(cmd.Context())
	for _, id := range removed {
		fmt.Fprintf(cmd.OutOrStdout(), "pruned: %s\n", id)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d entr(ies) pruned\n", len(removed))
	return nil
}

func runIndexAdopt(cmd *cobra.Command, args []string) error {
	idx, cfg, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer idx.Close()

	adopted, err := idx.Adopt(cmd.Context(), cfg.OutputDir, cfg.Year)
	for _, id := range adopted {
		fmt.Fprintf(cmd.OutOrStdout(), "adopted: %s\n", id)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d file(s) adopted from %s\n", len(adopted), cfg.OutputDir)
	return nil
}
