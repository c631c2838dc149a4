// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/wikifacts/internal/vectorindex"
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Find the indexed sentences closest to a query",
	Long: `Query embeds the text with the same embedder used for indexing and returns
the nearest sentences by cosine similarity. With --lexical it runs an FTS5
full-text match instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().String("db", defaultDB, "SQLite vector index")
	queryCmd.Flags().Int("k", 0, "number of results (default 5)")
	queryCmd.Flags().Bool("lexical", false, "use full-text match instead of vector similarity")
	queryCmd.Flags().Bool("json", false, "output results as JSON")
	queryCmd.Flags().String("embedder", "hash", "embedding backend used to build the index: hash or llm")
	queryCmd.Flags().String("embedding-model", "", "embedding model for the llm embedder")
	queryCmd.Flags().String("embedding-url", "", "OpenAI-compatible embeddings endpoint")
	queryCmd.Flags().Int("dimension", 0, "vector size of the hash embedder (default 512)")

	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	text := strings.Join(args, " ")

	embedder, err := newEmbedder()
	if err != nil {
		return err
	}
	store, err := vectorindex.Open(ctx, indexConfig(), embedder)
	if err != nil {
		return err
	}
	defer store.Close()

	k := viper.GetInt("k")
	var hits []vectorindex.Hit
	if viper.GetBool("lexical") {
		hits, err = store.Match(ctx, text, k)
	} else {
		hits, err = store.Query(ctx, text, k)
	}
	if err != nil {
		return err
	}

	return formatHits(hits, viper.GetBool("json"))
}

func formatHits(hits []vectorindex.Hit, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-7s  %-60s  %s\n", "Rank", "Score", "Sentence", "Page")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for i, h := range hits {
		text := h.Text
		if len(text) > 60 {
			text = text[:57] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-7.3f  %-60s  %s\n", i+1, h.Score, text, h.Title)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(hits))
	return nil
}
