// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/wikifacts/internal/corpus"
	"github.com/pdiddy/wikifacts/internal/pagecache"
	"github.com/pdiddy/wikifacts/internal/paragraph"
	"github.com/pdiddy/wikifacts/internal/pipeline"
	"github.com/pdiddy/wikifacts/internal/wiki"
	"github.com/pdiddy/wikifacts/pkg/types"
)

var buildCmd = &cobra.Command{
	Use:   "build [categories...]",
	Short: "Fetch category pages and write the paragraph corpus",
	Long: `Build lists the member pages of each category, resolves every page to its
newest revision at or before --as-of, fetches that revision and keeps the
body paragraphs that pass the filters. Paragraphs are written to the corpus
file, which only replaces an earlier corpus once the run completes.

Categories may be given with or without the "Category:" prefix, or set as
"categories" in the config file.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().String("as-of", "", "cutoff date, YYYY-MM-DD or RFC 3339 (default now)")
	buildCmd.Flags().String("corpus", defaultCorpus, "corpus file to write")
	buildCmd.Flags().String("api-url", defaultAPIURL, "MediaWiki API endpoint")
	buildCmd.Flags().String("page-url", defaultPageURL, "prefix for rendered page URLs")
	buildCmd.Flags().Int("limit", 0, "category listing page size (default 500)")
	buildCmd.Flags().Duration("delay", 0, "minimum delay between wiki requests (default 1s)")
	buildCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	buildCmd.Flags().Int("http-retries", 0, "retries on HTTP 429/503 (default 5)")
	buildCmd.Flags().String("user-agent", "", "User-Agent header sent to the wiki")
	buildCmd.Flags().String("cache-dir", "", "directory of the revision-pinned page cache (disabled when empty)")
	buildCmd.Flags().String("selector", paragraph.DefaultSelector, "CSS selector for body paragraphs")
	buildCmd.Flags().Int("min-length", 0, "drop paragraphs this short or shorter (default 30)")
	buildCmd.Flags().String("report", "", "write the run report as YAML to this path")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	categories := args
	if len(categories) == 0 {
		categories = viper.GetStringSlice("categories")
	}
	if len(categories) == 0 {
		return fmt.Errorf("provide one or more categories (e.g. Blocks Items)")
	}

	asOf, err := parseAsOf(viper.GetString("as-of"))
	if err != nil {
		return err
	}

	cfg := wikiConfig()
	opts := []wiki.Option{wiki.WithLogger(logger("wiki"))}
	if cfg.CacheDir != "" {
		cache, err := pagecache.Open(cfg.CacheDir, false)
		if err != nil {
			return err
		}
		defer cache.Close()
		opts = append(opts, wiki.WithCache(cache))
	}

	client := wiki.NewClient(nil, cfg, opts...)
	extractor := paragraph.NewExtractor(cfg.ContentSelector, paragraph.NewFilter(filterConfig()))
	src := wiki.NewSource(client, extractor, categories, asOf)

	corpusPath := stringOr("corpus", defaultCorpus)
	w, err := corpus.Create(corpusPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Building corpus from %v as of %s\n", categories, asOf.Format("2006-01-02 15:04:05 MST"))
	report, err := pipeline.Build(cmd.Context(), src, w, pipeline.Options{Out: os.Stdout, Logger: logger("pipeline")})
	if err != nil {
		w.Abort()
		saveReport(report)
		return err
	}
	if err := w.Commit(); err != nil {
		return err
	}

	pipeline.PrintSummary(os.Stdout, report)
	fmt.Printf("Wrote %d paragraphs to %s\n", w.Count(), corpusPath)
	saveReport(report)

	if n := report.Count(types.SkipFetchFailed) + report.Count(types.SkipRevisionLookup); n > 0 {
		return fmt.Errorf("%d page(s) failed", n)
	}
	return nil
}
