// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/bbalet/stopwords"
	"github.com/tmc/langchaingo/embeddings"
)

const defaultDimension = 512

// Hashing embeds text by feature hashing its content words and adjacent
// word pairs into a fixed number of buckets, then L2-normalizing. It needs
// no model or network and is deterministic, which makes it suitable for
// tests and offline runs. Similarity is lexical only.
type Hashing struct {
	dim int
}

var _ embeddings.Embedder = (*Hashing)(nil)

// NewHashing returns a Hashing embedder with dim buckets (512 when dim <= 0).
func NewHashing(dim int) *Hashing {
	if dim <= 0 {
		dim = defaultDimension
	}
	return &Hashing{dim: dim}
}

// Dimension returns the vector size.
func (h *Hashing) Dimension() int {
	return h.dim
}

// EmbedDocuments embeds each text.
func (h *Hashing) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = h.embed(t)
	}
	return out, nil
}

// EmbedQuery embeds one text.
func (h *Hashing) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return h.embed(text), nil
}

func (h *Hashing) embed(text string) []float32 {
	vec := make([]float32, h.dim)
	words := tokens(text)
	for i, w := range words {
		h.add(vec, w, 1)
		if i > 0 {
			h.add(vec, words[i-1]+" "+w, 0.5)
		}
	}
	normalize(vec)
	return vec
}

// add hashes feature into a bucket; one hash bit picks the sign so
// collisions tend to cancel rather than accumulate.
func (h *Hashing) add(vec []float32, feature string, weight float32) {
	f := fnv.New64a()
	f.Write([]byte(feature))
	sum := f.Sum64()
	bucket := int(sum % uint64(h.dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[bucket] += weight
}

// tokens returns the lowercased content words of text. When text consists
// only of stop words those are kept, so short sentences still embed.
func tokens(text string) []string {
	split := func(s string) []string {
		return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
	}
	if words := split(stopwords.CleanString(text, "en", false)); len(words) > 0 {
		return words
	}
	return split(text)
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
