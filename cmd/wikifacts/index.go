// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/wikifacts/internal/corpus"
	"github.com/pdiddy/wikifacts/internal/decompose"
	"github.com/pdiddy/wikifacts/internal/pipeline"
	"github.com/pdiddy/wikifacts/internal/vectorindex"
	"github.com/pdiddy/wikifacts/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Decompose the corpus into sentences and add them to the index",
	Long: `Index reads the corpus written by build, asks the rewriting model to split
each paragraph into short standalone sentences, embeds every sentence and
adds it to the SQLite vector index with the page title and source URL.

Sentences already in the index are reported as duplicates. Paragraphs a
previous run finished are skipped unless --force is given, so an
interrupted run can simply be restarted.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().String("corpus", defaultCorpus, "corpus file to read")
	indexCmd.Flags().String("db", defaultDB, "SQLite vector index")
	indexCmd.Flags().String("backend", string(types.BackendLLM), "rewriting backend: llm or claude")
	indexCmd.Flags().String("model", "", "rewriting model (default llama3.1:8b for llm)")
	indexCmd.Flags().String("llm-url", "", "OpenAI-compatible endpoint for the llm backend (default "+defaultLLMURL+")")
	indexCmd.Flags().String("api-key", "", "API key for the rewriting backend")
	indexCmd.Flags().Duration("ai-timeout", 0, "timeout of a single rewriting call (default 2m)")
	indexCmd.Flags().Int("max-retries", 0, "retries per paragraph when the rewriter fails (default 3)")
	indexCmd.Flags().String("delimiter", decompose.DefaultDelimiter, "marker ending a reasoning preamble in responses")
	indexCmd.Flags().String("embedder", string(types.EmbeddingHash), "embedding backend: hash or llm")
	indexCmd.Flags().String("embedding-model", "", "embedding model for the llm embedder (default nomic-embed-text)")
	indexCmd.Flags().String("embedding-url", "", "OpenAI-compatible embeddings endpoint")
	indexCmd.Flags().Int("dimension", 0, "vector size of the hash embedder (default 512)")
	indexCmd.Flags().Bool("force", false, "re-decompose paragraphs indexed by an earlier run")
	indexCmd.Flags().String("report", "", "write the run report as YAML to this path")

	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	corpusPath := stringOr("corpus", defaultCorpus)
	if _, err := os.Stat(corpusPath); err != nil {
		return fmt.Errorf("reading corpus: %w (run wikifacts build first)", err)
	}

	aiCfg := aiConfig()
	backend, err := newBackend(aiCfg)
	if err != nil {
		return err
	}
	d := decompose.New(backend, aiCfg, decompose.WithLogger(logger("decompose")))

	embedder, err := newEmbedder()
	if err != nil {
		return err
	}
	store, err := vectorindex.Open(ctx, indexConfig(), embedder, vectorindex.WithLogger(logger("vectorindex")))
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Fprintf(os.Stderr, "Indexing %s with %s/%s\n", corpusPath, aiCfg.Backend, aiCfg.Model)
	report, err := pipeline.Index(ctx, corpus.Each(corpusPath), d, store, pipeline.Options{
		Out:    os.Stdout,
		Logger: logger("pipeline"),
		Force:  viper.GetBool("force"),
	})
	pipeline.PrintSummary(os.Stdout, report)
	saveReport(report)
	if err != nil {
		return err
	}

	if n := report.Count(types.SkipDecompose) + report.Count(types.SkipIndexInsert); n > 0 {
		return fmt.Errorf("%d item(s) failed indexing", n)
	}
	return nil
}
