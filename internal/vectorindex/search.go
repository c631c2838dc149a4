// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vectorindex

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"slices"
)

// Hit is one query result.
type Hit struct {
	ID        string  `json:"id" yaml:"id"`
	Text      string  `json:"text" yaml:"text"`
	Title     string  `json:"title" yaml:"title"`
	SourceURL string  `json:"source_url" yaml:"source_url"`
	Score     float64 `json:"score" yaml:"score"`
}

// Query returns the k sentences nearest to text by cosine similarity,
// best first. k <= 0 uses the configured default.
func (s *Store) Query(ctx context.Context, text string, k int) ([]Hit, error) {
	if k <= 0 {
		k = s.maxResults
	}

	q, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if s.dim != 0 && len(q) != s.dim {
		return nil, fmt.Errorf("%w: query dimension %d, index holds %d", ErrBadEmbedding, len(q), s.dim)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, text, title, source_url, embedding FROM sentences`)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			h    Hit
			blob []byte
		)
		if err := rows.Scan(&h.ID, &h.Text, &h.Title, &h.SourceURL, &blob); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		h.Score = cosine(q, decodeVector(blob))
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(hits, func(a, b Hit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Match runs an FTS5 query over sentence text, ranked by bm25. Scores are
// negated ranks so that larger is better, as with Query.
func (s *Store) Match(ctx context.Context, query string, k int) ([]Hit, error) {
	if !s.fullText {
		return nil, ErrNoFullText
	}
	if k <= 0 {
		k = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.text, s.title, s.source_url, sentences_fts.rank
		FROM sentences_fts
		JOIN sentences s ON s.rowid = sentences_fts.rowid
		WHERE sentences_fts MATCH ?
		ORDER BY sentences_fts.rank
		LIMIT ?`, query, k)
	if err != nil {
		return nil, fmt.Errorf("matching %q: %w", query, err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			h    Hit
			rank float64
		)
		if err := rows.Scan(&h.ID, &h.Text, &h.Title, &h.SourceURL, &rank); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		h.Score = -rank
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// encodeVector stores a vector as little-endian float32s.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
