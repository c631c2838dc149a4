// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/wikifacts/internal/pagecache"
	"github.com/pdiddy/wikifacts/internal/vectorindex"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print index and page cache counts",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().String("db", defaultDB, "SQLite vector index")
	statsCmd.Flags().String("cache-dir", "", "page cache directory to count")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	embedder, err := newEmbedder()
	if err != nil {
		return err
	}
	store, err := vectorindex.Open(cmd.Context(), indexConfig(), embedder)
	if err != nil {
		return err
	}
	defer store.Close()

	st, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Sentences:  %d\n", st.Sentences)
	fmt.Printf("Paragraphs: %d\n", st.Paragraphs)
	fmt.Printf("Pages:      %d\n", st.Pages)
	fmt.Printf("Dimension:  %d\n", st.Dimension)

	if dir := viper.GetString("cache-dir"); dir != "" {
		cache, err := pagecache.Open(dir, false)
		if err != nil {
			return err
		}
		defer cache.Close()
		n, err := cache.Len()
		if err != nil {
			return err
		}
		fmt.Printf("Cached revisions: %d\n", n)
	}
	return nil
}
