// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-fetch CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command. Run with no subcommand it performs a fetch.
var rootCmd = &cobra.Command{
	Use:   "paper-fetch",
	Short: "Download the PDFs listed in a paper manifest",
	Long: `paper-fetch reads a JSON manifest of conference papers and downloads each
paper's PDF from OpenReview into a local directory, naming every file
{year}_{identifier}_{name}. Papers already downloaded are skipped.

Running paper-fetch with no subcommand is the same as "paper-fetch fetch".`,
	SilenceUsage: true,
	RunE:         runFetch,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paper-fetch.yaml or ~/.config/paper-fetch/paper-fetch.yaml)")
	addFetchFlags(rootCmd)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-fetch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-fetch"))
		}
	}

	viper.SetEnvPrefix("PAPER_FETCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
