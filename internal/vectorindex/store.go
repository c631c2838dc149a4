// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vectorindex persists sentence embeddings in a SQLite file and
// answers nearest-neighbour and full-text queries over them. Sentences are
// content-addressed by (title, text), so adding the same sentence twice is
// reported as a duplicate rather than stored twice.
package vectorindex

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/pdiddy/wikifacts/pkg/types"
)

const defaultMaxResults = 5

var (
	// ErrEmptySentence rejects blank sentence text.
	ErrEmptySentence = errors.New("empty sentence")

	// ErrBadEmbedding rejects an embedding that is empty, all zeros, or of
	// a different dimension than the vectors already stored.
	ErrBadEmbedding = errors.New("unusable embedding")

	// ErrNoFullText is returned by Match when the SQLite build lacks FTS5.
	ErrNoFullText = errors.New("full-text search unavailable")
)

// Store is the persistent vector index.
type Store struct {
	db         *sql.DB
	embedder   embeddings.Embedder
	maxResults int
	dim        int
	fullText   bool
	logger     *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open opens or creates the index at cfg.DBPath and its schema.
func Open(ctx context.Context, cfg types.IndexConfig, embedder embeddings.Embedder, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{
		db:         db,
		embedder:   embedder,
		maxResults: cfg.MaxResults,
		logger:     slog.Default().With("component", "vectorindex"),
	}
	if s.maxResults <= 0 {
		s.maxResults = defaultMaxResults
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.createSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	if err := s.loadDimension(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sentences (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			text TEXT NOT NULL,
			title TEXT NOT NULL,
			source_url TEXT NOT NULL,
			embedding BLOB NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sentences_title ON sentences(title)`,
		`CREATE TABLE IF NOT EXISTS paragraphs (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			source_url TEXT NOT NULL,
			sentences INTEGER NOT NULL,
			indexed_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='sentences_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		s.fullText = true
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE sentences_fts USING fts5(text, content=sentences, content_rowid=rowid)`,
		`CREATE TRIGGER sentences_ai AFTER INSERT ON sentences BEGIN
			INSERT INTO sentences_fts(rowid, text) VALUES (new.rowid, new.text);
		END`,
		`CREATE TRIGGER sentences_ad AFTER DELETE ON sentences BEGIN
			INSERT INTO sentences_fts(sentences_fts, rowid, text) VALUES('delete', old.rowid, old.text);
		END`,
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, stmt := range ftsStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			if strings.Contains(err.Error(), "no such module") {
				s.logger.Warn("sqlite built without fts5, lexical search disabled")
				return nil
			}
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.fullText = true
	return nil
}

func (s *Store) loadDimension(ctx context.Context) error {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'dimension'`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading index dimension: %w", err)
	}
	s.dim, err = strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parsing index dimension %q: %w", v, err)
	}
	return nil
}

// SentenceID is the identity of a sentence: a hash of its page title and
// text.
func SentenceID(title, text string) string {
	return contentID(title, text)
}

// ParagraphID is the identity of a paragraph: a hash of its page title and
// text.
func ParagraphID(title, text string) string {
	return contentID(title, text)
}

func contentID(title, text string) string {
	h := sha256.New()
	h.Write([]byte(title))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Add embeds and stores one sentence. Failures are reported in the result
// with their cause, never as a panic or a separate error.
func (s *Store) Add(ctx context.Context, u types.SentenceUnit) types.InsertResult {
	text := strings.TrimSpace(u.Text)
	id := SentenceID(u.Metadata.Title, text)
	fail := func(err error) types.InsertResult {
		return types.InsertResult{Status: types.InsertFailed, ID: id, Err: err}
	}

	if text == "" {
		return fail(ErrEmptySentence)
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM sentences WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return fail(fmt.Errorf("checking sentence: %w", err))
	}
	if exists > 0 {
		return types.InsertResult{Status: types.InsertDuplicate, ID: id}
	}

	vecs, err := s.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return fail(fmt.Errorf("embedding sentence: %w", err))
	}
	if len(vecs) != 1 {
		return fail(fmt.Errorf("%w: got %d vectors for one sentence", ErrBadEmbedding, len(vecs)))
	}
	vec := vecs[0]
	if err := s.checkVector(vec); err != nil {
		return fail(err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fail(fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback()

	if s.dim == 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO meta(key, value) VALUES ('dimension', ?)
			ON CONFLICT(key) DO NOTHING`, strconv.Itoa(len(vec))); err != nil {
			return fail(fmt.Errorf("recording dimension: %w", err))
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sentences (id, text, title, source_url, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		id, text, u.Metadata.Title, u.Metadata.SourceURL, encodeVector(vec),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fail(fmt.Errorf("inserting sentence: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return fail(fmt.Errorf("committing sentence: %w", err))
	}
	if s.dim == 0 {
		s.dim = len(vec)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return types.InsertResult{Status: types.InsertDuplicate, ID: id}
	}
	return types.InsertResult{Status: types.InsertOK, ID: id}
}

func (s *Store) checkVector(vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("%w: empty vector", ErrBadEmbedding)
	}
	if s.dim != 0 && len(vec) != s.dim {
		return fmt.Errorf("%w: dimension %d, index holds %d", ErrBadEmbedding, len(vec), s.dim)
	}
	for _, v := range vec {
		if v != 0 {
			return nil
		}
	}
	return fmt.Errorf("%w: zero vector", ErrBadEmbedding)
}

// ParagraphIndexed reports whether the paragraph with id was fully indexed
// by an earlier run.
func (s *Store) ParagraphIndexed(ctx context.Context, id string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM paragraphs WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("checking paragraph: %w", err)
	}
	return n > 0, nil
}

// MarkParagraph records that every sentence of p is in the index.
func (s *Store) MarkParagraph(ctx context.Context, p types.ParagraphRecord, sentences int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO paragraphs (id, title, source_url, sentences, indexed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sentences = excluded.sentences,
			indexed_at = excluded.indexed_at`,
		ParagraphID(p.PageTitle, p.Text), p.PageTitle, p.SourceURL, sentences,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("marking paragraph: %w", err)
	}
	return nil
}

// Stats holds index-wide counts.
type Stats struct {
	Sentences  int `json:"sentences" yaml:"sentences"`
	Paragraphs int `json:"paragraphs" yaml:"paragraphs"`
	Pages      int `json:"pages" yaml:"pages"`
	Dimension  int `json:"dimension" yaml:"dimension"`
}

// Stats returns index-wide counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Dimension: s.dim}
	err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT count(*) FROM sentences),
			(SELECT count(*) FROM paragraphs),
			(SELECT count(DISTINCT title) FROM sentences)`,
	).Scan(&st.Sentences, &st.Paragraphs, &st.Pages)
	if err != nil {
		return Stats{}, fmt.Errorf("counting index: %w", err)
	}
	return st, nil
}
