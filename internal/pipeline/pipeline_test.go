// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/wikifacts/internal/decompose"
	"github.com/pdiddy/wikifacts/internal/embed"
	"github.com/pdiddy/wikifacts/internal/vectorindex"
	"github.com/pdiddy/wikifacts/pkg/types"
)

// --- fakes ---

type fakeSource struct {
	pages   []types.PageRef
	results map[string]types.PageResult
	lookup  map[string]error
	enumErr error
}

func (s *fakeSource) Enumerate(context.Context) iter.Seq2[types.PageRef, error] {
	return func(yield func(types.PageRef, error) bool) {
		for _, p := range s.pages {
			if !yield(p, nil) {
				return
			}
		}
		if s.enumErr != nil {
			yield(types.PageRef{}, s.enumErr)
		}
	}
}

func (s *fakeSource) Materialize(_ context.Context, page types.PageRef) (types.PageResult, error) {
	if err := s.lookup[page.Title]; err != nil {
		return types.PageResult{Page: page}, err
	}
	return s.results[page.Title], nil
}

type sliceWriter struct {
	records []types.ParagraphRecord
	failOn  int
}

func (w *sliceWriter) Write(p types.ParagraphRecord) error {
	if w.failOn > 0 && len(w.records)+1 == w.failOn {
		return errors.New("disk full")
	}
	w.records = append(w.records, p)
	return nil
}

// fakeDecomposer splits on ". " and fails for texts listed in fail.
type fakeDecomposer struct {
	fail  map[string]bool
	calls int
}

func (d *fakeDecomposer) Decompose(ctx context.Context, p types.ParagraphRecord) ([]string, error) {
	d.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.fail[p.Text] {
		return nil, &decompose.Failure{Title: p.PageTitle, Text: p.Text, Attempts: 3, Err: context.DeadlineExceeded}
	}
	return strings.Split(strings.TrimSuffix(p.Text, "."), ". "), nil
}

func page(title string) types.PageRef {
	return types.PageRef{Title: title, CanonicalURL: "https://minecraft.wiki/w/" + title}
}

func para(title, text string) types.ParagraphRecord {
	return types.ParagraphRecord{PageTitle: title, SourceURL: "https://minecraft.wiki/w/" + title + "?oldid=7", Text: text}
}

func records(ps []types.ParagraphRecord) iter.Seq2[types.ParagraphRecord, error] {
	return func(yield func(types.ParagraphRecord, error) bool) {
		for _, p := range ps {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func openIndex(t *testing.T) *vectorindex.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wikifacts.db")
	store, err := vectorindex.Open(context.Background(), types.IndexConfig{DBPath: path}, embed.NewHashing(256))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// --- Build ---

func TestBuild(t *testing.T) {
	stone := []types.ParagraphRecord{
		para("Stone", "Stone is a block found in the Overworld."),
		para("Stone", "Stone can be mined with any pickaxe."),
	}
	src := &fakeSource{
		pages: []types.PageRef{page("Stone"), page("Dirt"), page("Grass"), page("Sand"), page("Gravel")},
		results: map[string]types.PageResult{
			"Stone": {
				Status:     types.PageExtracted,
				Fetched:    types.FetchedPage{Content: []byte("<p/>"), SourceURL: stone[0].SourceURL},
				Paragraphs: stone,
				Rejected:   []types.Rejection{{Text: "Short.", Reason: types.RejectTooShort}},
			},
			"Dirt": {Status: types.PageNoRevision},
			"Sand": {Status: types.PageFetchFailed, Fetched: types.FetchedPage{Err: "status 404"}},
			"Gravel": {
				Status:   types.PageEmpty,
				Fetched:  types.FetchedPage{Content: []byte("<p/>")},
				Rejected: []types.Rejection{{Reason: types.RejectColonSuffix}, {Reason: types.RejectBoilerplate}},
			},
		},
		lookup: map[string]error{"Grass": errors.New("status 500")},
	}

	var w sliceWriter
	var out bytes.Buffer
	report, err := Build(context.Background(), src, &w, Options{Out: &out})
	require.NoError(t, err)

	assert.Equal(t, stone, w.records)
	assert.Equal(t, types.StageBuild, report.Stage)
	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.FinishedAt.IsZero())
	assert.Equal(t, 5, report.PagesAttempted)
	assert.Equal(t, 2, report.PagesFetched)
	assert.Equal(t, 2, report.ParagraphsExtracted)
	assert.Equal(t, 3, report.ParagraphsDropped)
	assert.Equal(t, 1, report.Count(types.SkipNoRevision))
	assert.Equal(t, 1, report.Count(types.SkipRevisionLookup))
	assert.Equal(t, 1, report.Count(types.SkipFetchFailed))
	assert.Equal(t, 1, report.Count(types.SkipEmptyContent))
	assert.True(t, report.HasFailures())

	assert.Contains(t, out.String(), "fetched Stone (2 paragraphs, 1 dropped)")
	assert.Contains(t, out.String(), "skipped Dirt: no revision")
	assert.Contains(t, out.String(), "failed  Grass: status 500")
	assert.Contains(t, out.String(), "failed  Sand: status 404")
}

func TestBuildEnumerationErrorAborts(t *testing.T) {
	src := &fakeSource{
		pages: []types.PageRef{page("Stone")},
		results: map[string]types.PageResult{
			"Stone": {Status: types.PageExtracted, Paragraphs: []types.ParagraphRecord{para("Stone", "Stone is a block found in the Overworld.")}},
		},
		enumErr: errors.New("listing Blocks page 2: status 502"),
	}

	var w sliceWriter
	report, err := Build(context.Background(), src, &w, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enumerating pages")
	assert.Equal(t, 1, report.PagesAttempted)
	assert.Len(t, w.records, 1)
}

func TestBuildWriteErrorAborts(t *testing.T) {
	src := &fakeSource{
		pages: []types.PageRef{page("Stone")},
		results: map[string]types.PageResult{
			"Stone": {Status: types.PageExtracted, Paragraphs: []types.ParagraphRecord{
				para("Stone", "one paragraph long enough to keep"),
				para("Stone", "two paragraphs long enough to keep"),
			}},
		},
	}
	_, err := Build(context.Background(), src, &sliceWriter{failOn: 2}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestBuildCancelled(t *testing.T) {
	src := &fakeSource{pages: []types.PageRef{page("Stone"), page("Dirt")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Build(ctx, src, &sliceWriter{}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, report.PagesAttempted)
}

// --- Index ---

func fiftyParagraphs() []types.ParagraphRecord {
	ps := make([]types.ParagraphRecord, 50)
	for i := range ps {
		title := fmt.Sprintf("Block %d", i/5)
		ps[i] = para(title, fmt.Sprintf("Paragraph %d describes ore veins underground. Paragraph %d mentions lava lakes nearby.", i, i))
	}
	return ps
}

func TestIndexSurvivesOneDecomposeFailure(t *testing.T) {
	ps := fiftyParagraphs()
	d := &fakeDecomposer{fail: map[string]bool{ps[17].Text: true}}
	store := openIndex(t)

	var out bytes.Buffer
	report, err := Index(context.Background(), records(ps), d, store, Options{Out: &out})
	require.NoError(t, err)

	assert.Equal(t, 50, report.ParagraphsRead)
	assert.Equal(t, 49, report.ParagraphsDecomposed)
	assert.Equal(t, 98, report.SentencesIndexed)
	require.Equal(t, 1, report.Count(types.SkipDecompose))
	skip := report.Skipped[0]
	assert.Equal(t, ps[17].PageTitle, skip.Title)
	assert.Equal(t, ps[17].Text, skip.Text)
	assert.Contains(t, out.String(), "failed  "+ps[17].PageTitle)

	st, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 98, st.Sentences)
	assert.Equal(t, 49, st.Paragraphs)
}

func TestIndexResumeAndForce(t *testing.T) {
	ps := fiftyParagraphs()[:6]
	store := openIndex(t)
	ctx := context.Background()

	first := &fakeDecomposer{fail: map[string]bool{ps[2].Text: true}}
	_, err := Index(ctx, records(ps), first, store, Options{})
	require.NoError(t, err)

	// The failed paragraph is the only one retried.
	second := &fakeDecomposer{}
	report, err := Index(ctx, records(ps), second, store, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 5, report.ParagraphsResumed)
	assert.Equal(t, 2, report.SentencesIndexed)
	assert.False(t, report.HasFailures())

	forced := &fakeDecomposer{}
	report, err = Index(ctx, records(ps), forced, store, Options{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 6, forced.calls)
	assert.Zero(t, report.ParagraphsResumed)
	assert.Zero(t, report.SentencesIndexed)
	assert.Equal(t, 12, report.SentencesDuplicate)
}

// flakyIndex rejects sentences containing reject and records marks.
type flakyIndex struct {
	reject string
	marked []string
	added  int
}

func (f *flakyIndex) Add(_ context.Context, u types.SentenceUnit) types.InsertResult {
	if strings.Contains(u.Text, f.reject) {
		return types.InsertResult{Status: types.InsertFailed, Err: errors.New("database is locked")}
	}
	f.added++
	return types.InsertResult{Status: types.InsertOK}
}

func (f *flakyIndex) ParagraphIndexed(context.Context, string) (bool, error) {
	return false, nil
}

func (f *flakyIndex) MarkParagraph(_ context.Context, p types.ParagraphRecord, _ int) error {
	f.marked = append(f.marked, p.Text)
	return nil
}

func TestIndexInsertFailure(t *testing.T) {
	ps := []types.ParagraphRecord{
		para("Stone", "Stone is grey. Stone drops cobblestone."),
		para("Water", "Water flows. Water can be collected with a bucket."),
	}
	idx := &flakyIndex{reject: "cobblestone"}

	var out bytes.Buffer
	report, err := Index(context.Background(), records(ps), &fakeDecomposer{}, idx, Options{Out: &out})
	require.NoError(t, err)

	assert.Equal(t, 3, report.SentencesIndexed)
	require.Equal(t, 1, report.Count(types.SkipIndexInsert))
	skip := report.Skipped[0]
	assert.Equal(t, "Stone drops cobblestone", skip.Text)
	assert.Equal(t, "Stone", skip.Title)
	assert.Equal(t, ps[0].SourceURL, skip.SourceURL)
	assert.Equal(t, "database is locked", skip.Detail)

	assert.Equal(t, []string{ps[1].Text}, idx.marked, "partially indexed paragraph must not be marked")
	assert.Contains(t, out.String(), "partial Stone: 1 indexed, 0 duplicate, 1 failed")
}

func TestIndexReadErrorAborts(t *testing.T) {
	bad := func(yield func(types.ParagraphRecord, error) bool) {
		if !yield(para("Stone", "Stone is grey."), nil) {
			return
		}
		yield(types.ParagraphRecord{}, errors.New("unexpected EOF"))
	}
	report, err := Index(context.Background(), bad, &fakeDecomposer{}, &flakyIndex{reject: "\x00"}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading corpus")
	assert.Equal(t, 1, report.ParagraphsRead)
}

func TestIndexCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := &fakeDecomposer{}
	_, err := Index(ctx, records(fiftyParagraphs()), d, &flakyIndex{reject: "\x00"}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, d.calls)
}

// --- report ---

func TestWriteReport(t *testing.T) {
	r := NewReport(types.StageIndex)
	r.ParagraphsRead = 3
	r.Skip(types.SkipRecord{Kind: types.SkipDecompose, Title: "Stone", Text: "Stone is grey.", Detail: "timeout"})

	path := filepath.Join(t.TempDir(), "reports", "index.yaml")
	require.NoError(t, WriteReport(path, r))
	require.NoError(t, WriteReport(path, r), "overwriting an existing report")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got types.RunReport
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, r.RunID, got.RunID)
	assert.Equal(t, 3, got.ParagraphsRead)
	assert.Equal(t, 1, got.Count(types.SkipDecompose))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"index.yaml"}, names, "temporary files left behind")
}

func TestNewReportIDsDiffer(t *testing.T) {
	a, b := NewReport(types.StageBuild), NewReport(types.StageBuild)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestPrintSummary(t *testing.T) {
	r := NewReport(types.StageIndex)
	r.ParagraphsRead = 50
	r.ParagraphsDecomposed = 49
	r.SentencesIndexed = 98
	r.Skip(types.SkipRecord{Kind: types.SkipDecompose})
	r.FinishedAt = r.StartedAt

	var buf bytes.Buffer
	PrintSummary(&buf, r)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "paragraphs: 50, decomposed: 49, resumed: 0, failed: 1", lines[0])
	assert.Equal(t, "sentences indexed: 98, duplicate: 0, failed: 0", lines[1])
	assert.True(t, slices.Contains(strings.Fields(lines[2]), r.RunID))
}
