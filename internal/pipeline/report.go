// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/wikifacts/pkg/types"
)

// NewReport starts a report for stage with a fresh run id.
func NewReport(stage types.Stage) types.RunReport {
	return types.RunReport{
		RunID:     uuid.NewString(),
		Stage:     stage,
		StartedAt: time.Now().UTC(),
		Skipped:   []types.SkipRecord{},
	}
}

// PrintSummary writes the closing counts of a run.
func PrintSummary(w io.Writer, r types.RunReport) {
	switch r.Stage {
	case types.StageBuild:
		fmt.Fprintf(w, "\npages: %d, fetched: %d, paragraphs: %d, dropped: %d\n",
			r.PagesAttempted, r.PagesFetched, r.ParagraphsExtracted, r.ParagraphsDropped)
		fmt.Fprintf(w, "no revision: %d, lookup failed: %d, fetch failed: %d, empty: %d\n",
			r.Count(types.SkipNoRevision), r.Count(types.SkipRevisionLookup),
			r.Count(types.SkipFetchFailed), r.Count(types.SkipEmptyContent))
	case types.StageIndex:
		fmt.Fprintf(w, "\nparagraphs: %d, decomposed: %d, resumed: %d, failed: %d\n",
			r.ParagraphsRead, r.ParagraphsDecomposed, r.ParagraphsResumed, r.Count(types.SkipDecompose))
		fmt.Fprintf(w, "sentences indexed: %d, duplicate: %d, failed: %d\n",
			r.SentencesIndexed, r.SentencesDuplicate, r.Count(types.SkipIndexInsert))
	}
	fmt.Fprintf(w, "run %s took %s\n", r.RunID, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
}

// WriteReport saves r as YAML at path, replacing any earlier report.
func WriteReport(path string, r types.RunReport) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing report: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming report: %w", err)
	}
	return nil
}
