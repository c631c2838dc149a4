package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/embeddings"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/wikifacts/internal/embed"
	"github.com/pdiddy/wikifacts/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index", "wikifacts.db")
	store, err := Open(context.Background(), types.IndexConfig{DBPath: path}, embed.NewHashing(512))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store, path
}

func unit(title, text string) types.SentenceUnit {
	return types.SentenceUnit{
		Text: text,
		Metadata: types.SentenceMetadata{
			Title:     title,
			SourceURL: "https://minecraft.wiki/w/" + title + "?oldid=1",
		},
	}
}

// failingEmbedder errors on every call.
type failingEmbedder struct{}

func (failingEmbedder) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedding service unavailable")
}

func (failingEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedding service unavailable")
}

// fixedEmbedder returns vectors of a fixed size.
type fixedEmbedder struct{ dim int }

func (f fixedEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec()
	}
	return out, nil
}

func (f fixedEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return f.vec(), nil
}

func (f fixedEmbedder) vec() []float32 {
	v := make([]float32, f.dim)
	if f.dim > 0 {
		v[0] = 1
	}
	return v
}

// --- Add ---

func TestAddInsertsAndDetectsDuplicates(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	first := store.Add(ctx, unit("Stone", "Stone is a block"))
	if first.Status != types.InsertOK || first.Err != nil {
		t.Fatalf("first add = %+v, want inserted", first)
	}

	again := store.Add(ctx, unit("Stone", "  Stone is a block "))
	if again.Status != types.InsertDuplicate {
		t.Errorf("second add status = %s, want duplicate", again.Status)
	}
	if again.ID != first.ID {
		t.Errorf("duplicate id = %s, want %s", again.ID, first.ID)
	}

	other := store.Add(ctx, unit("Dirt", "Stone is a block"))
	if other.Status != types.InsertOK {
		t.Errorf("same text on another page = %s, want inserted", other.Status)
	}

	st, err := store.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Sentences != 2 || st.Pages != 2 || st.Dimension != 512 {
		t.Errorf("stats = %+v, want 2 sentences, 2 pages, dimension 512", st)
	}
}

func TestAddFailures(t *testing.T) {
	tests := []struct {
		name     string
		embedder embeddings.Embedder
		text     string
		wantErr  error
	}{
		{"blank text", embed.NewHashing(8), "   ", ErrEmptySentence},
		{"embedder error", failingEmbedder{}, "Stone is a block", nil},
		{"zero vector", fixedEmbedder{dim: 0}, "Stone is a block", ErrBadEmbedding},
		{"punctuation only", embed.NewHashing(8), "...", ErrBadEmbedding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "wikifacts.db")
			store, err := Open(context.Background(), types.IndexConfig{DBPath: path}, tt.embedder)
			if err != nil {
				t.Fatal(err)
			}
			defer store.Close()

			res := store.Add(context.Background(), unit("Stone", tt.text))
			if res.Status != types.InsertFailed {
				t.Fatalf("status = %s, want failed", res.Status)
			}
			if res.Err == nil {
				t.Fatal("failed result carries no error")
			}
			if tt.wantErr != nil && !errors.Is(res.Err, tt.wantErr) {
				t.Errorf("err = %v, want %v", res.Err, tt.wantErr)
			}
		})
	}
}

func TestAddRejectsDimensionChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wikifacts.db")
	ctx := context.Background()

	store, err := Open(ctx, types.IndexConfig{DBPath: path}, fixedEmbedder{dim: 4})
	if err != nil {
		t.Fatal(err)
	}
	if res := store.Add(ctx, unit("Stone", "Stone is a block")); res.Status != types.InsertOK {
		t.Fatalf("add = %+v", res)
	}
	store.Close()

	store, err = Open(ctx, types.IndexConfig{DBPath: path}, fixedEmbedder{dim: 8})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	res := store.Add(ctx, unit("Dirt", "Dirt is a block"))
	if !errors.Is(res.Err, ErrBadEmbedding) {
		t.Errorf("err = %v, want ErrBadEmbedding", res.Err)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	store, path := testStore(t)
	ctx := context.Background()

	store.Add(ctx, unit("Stone", "Stone is a block"))
	store.Add(ctx, unit("Stone", "Stone can be mined with a pickaxe"))
	store.Close()

	reopened, err := Open(ctx, types.IndexConfig{DBPath: path}, embed.NewHashing(512))
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	if res := reopened.Add(ctx, unit("Stone", "Stone is a block")); res.Status != types.InsertDuplicate {
		t.Errorf("re-add after reopen = %s, want duplicate", res.Status)
	}
	st, err := reopened.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Sentences != 2 {
		t.Errorf("sentences = %d, want 2", st.Sentences)
	}
}

// --- paragraphs ---

func TestParagraphTracking(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()
	p := types.ParagraphRecord{PageTitle: "Stone", SourceURL: "u", Text: "Stone is a block found in the Overworld."}
	id := ParagraphID(p.PageTitle, p.Text)

	done, err := store.ParagraphIndexed(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Fatal("paragraph indexed before marking")
	}

	if err := store.MarkParagraph(ctx, p, 2); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkParagraph(ctx, p, 3); err != nil {
		t.Fatalf("re-marking: %v", err)
	}

	done, err = store.ParagraphIndexed(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Error("paragraph not indexed after marking")
	}
}

func TestContentIDs(t *testing.T) {
	if SentenceID("Stone", "a") == SentenceID("Dirt", "a") {
		t.Error("different titles produced the same id")
	}
	if SentenceID("ab", "c") == SentenceID("a", "bc") {
		t.Error("title/text boundary is ambiguous")
	}
	if got := len(SentenceID("Stone", "a")); got != 32 {
		t.Errorf("id length = %d, want 32", got)
	}
}

// --- Query / Match ---

func seed(t *testing.T, store *Store) {
	t.Helper()
	for _, u := range []types.SentenceUnit{
		unit("Stone", "Stone can be mined with a pickaxe"),
		unit("Water", "Water flows downhill"),
		unit("Sand", "Sand falls when unsupported"),
	} {
		if res := store.Add(context.Background(), u); res.Status != types.InsertOK {
			t.Fatalf("seeding %q: %+v", u.Text, res)
		}
	}
}

func TestQuery(t *testing.T) {
	store, _ := testStore(t)
	seed(t, store)

	hits, err := store.Query(context.Background(), "stone mined with a pickaxe", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Title != "Stone" {
		t.Errorf("top hit = %q, want Stone", hits[0].Title)
	}
	if hits[0].Score < hits[1].Score {
		t.Error("hits not sorted by score")
	}
}

func TestQueryDefaultLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wikifacts.db")
	store, err := Open(context.Background(), types.IndexConfig{DBPath: path, MaxResults: 1}, embed.NewHashing(64))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	seed(t, store)

	hits, err := store.Query(context.Background(), "sand", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Errorf("got %d hits, want 1", len(hits))
	}
}

func TestMatch(t *testing.T) {
	store, _ := testStore(t)
	if !store.fullText {
		t.Skip("sqlite built without fts5")
	}
	seed(t, store)

	hits, err := store.Match(context.Background(), "flows", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Title != "Water" {
		t.Errorf("hits = %+v, want one Water hit", hits)
	}
}

// --- Export ---

func TestExport(t *testing.T) {
	store, _ := testStore(t)
	seed(t, store)
	ctx := context.Background()

	var buf bytes.Buffer
	if err := store.Export(ctx, &buf, FormatYAML, ""); err != nil {
		t.Fatal(err)
	}
	var entries []ExportEntry
	if err := yaml.Unmarshal(buf.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 || entries[0].Title != "Stone" || entries[2].Title != "Sand" {
		t.Errorf("yaml export = %+v", entries)
	}

	buf.Reset()
	if err := store.Export(ctx, &buf, FormatJSON, "Water"); err != nil {
		t.Fatal(err)
	}
	entries = nil
	if err := json.Unmarshal(buf.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Text != "Water flows downhill" {
		t.Errorf("json export = %+v", entries)
	}
	if strings.Contains(buf.String(), "embedding") {
		t.Error("export includes embeddings")
	}

	if err := store.Export(ctx, &buf, Format("csv"), ""); err == nil {
		t.Error("unknown format accepted")
	}
}
