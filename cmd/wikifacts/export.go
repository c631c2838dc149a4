// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/wikifacts/internal/vectorindex"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the indexed sentences to YAML or JSON",
	Long: `Export writes every indexed sentence with its page title and source URL,
in insertion order, to stdout or --output. Embeddings are not exported.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("db", defaultDB, "SQLite vector index")
	exportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	exportCmd.Flags().String("title", "", "export only sentences of this page")
	exportCmd.Flags().String("output", "", "write to this file instead of stdout")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	embedder, err := newEmbedder()
	if err != nil {
		return err
	}
	store, err := vectorindex.Open(ctx, indexConfig(), embedder)
	if err != nil {
		return err
	}
	defer store.Close()

	var w io.Writer = os.Stdout
	output := viper.GetString("output")
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	if err := store.Export(ctx, w, vectorindex.Format(viper.GetString("format")), viper.GetString("title")); err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(os.Stderr, "Exported to %s\n", output)
	}
	return nil
}
