// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the wikifacts CLI.
//
// wikifacts turns the pages of one or more wiki categories, pinned to the
// revisions current at a cutoff date, into a sentence-level vector index.
// The build command writes the paragraph corpus; the index command
// decomposes it into sentences and stores them.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/wikifacts/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys from .secrets/ and the environment.
var loadedSecrets secrets.Set

// rootCmd is the base command for the wikifacts CLI.
var rootCmd = &cobra.Command{
	Use:   "wikifacts",
	Short: "Build a sentence-level fact index from wiki categories",
	Long: `wikifacts ingests the pages of wiki categories as they stood at a cutoff
date and turns them into a searchable index of short factual sentences.

The work is split in two so the slow network phase and the slow model phase
can be rerun independently:

  wikifacts build Blocks Items --as-of 2021-01-01   # pages -> corpus.json
  wikifacts index                                    # corpus.json -> index

Every flag can also be set in wikifacts.yaml or as WIKIFACTS_<FLAG>.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		setupLogging(verbose)

		if err := secrets.LoadDotenv(""); err != nil {
			return err
		}
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if names := s.Names(); len(names) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", names)
		}

		return viper.BindPFlags(cmd.Flags())
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./wikifacts.yaml or ~/.config/wikifacts/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug output to stderr")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("wikifacts")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "wikifacts"))
		}
	}

	viper.SetEnvPrefix("WIKIFACTS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func logger(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
