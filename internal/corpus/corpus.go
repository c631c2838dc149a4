// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus persists the paragraph checkpoint between the build and
// index phases. The file is a JSON array of
//
//	{"text": "...", "metadata": {"title": "...", "source": "..."}}
//
// records in insertion order. Writes go to a temporary file in the target
// directory and are renamed into place on commit, so readers never see a
// half-written corpus.
package corpus

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"

	"github.com/pdiddy/wikifacts/pkg/types"
)

// ErrClosed is returned by Write after Commit or Abort.
var ErrClosed = errors.New("corpus writer closed")

// record is the on-disk shape of one paragraph.
type record struct {
	Text     string   `json:"text"`
	Metadata metadata `json:"metadata"`
}

type metadata struct {
	Title  string `json:"title"`
	Source string `json:"source"`
}

func toRecord(p types.ParagraphRecord) record {
	return record{Text: p.Text, Metadata: metadata{Title: p.PageTitle, Source: p.SourceURL}}
}

func (r record) paragraph() types.ParagraphRecord {
	return types.ParagraphRecord{PageTitle: r.Metadata.Title, SourceURL: r.Metadata.Source, Text: r.Text}
}

// Writer streams paragraphs into a new corpus file.
type Writer struct {
	path  string
	tmp   *os.File
	buf   *bufio.Writer
	enc   *json.Encoder
	count int
	done  bool
}

// Create starts a corpus at path. Nothing is visible at path until Commit.
func Create(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating corpus directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}

	buf := bufio.NewWriter(tmp)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)

	w := &Writer{path: path, tmp: tmp, buf: buf, enc: enc}
	if _, err := buf.WriteString("[\n"); err != nil {
		w.Abort()
		return nil, fmt.Errorf("writing corpus header: %w", err)
	}
	return w, nil
}

// Write appends one paragraph.
func (w *Writer) Write(p types.ParagraphRecord) error {
	if w.done {
		return ErrClosed
	}
	if w.count > 0 {
		if _, err := w.buf.WriteString(","); err != nil {
			return fmt.Errorf("writing corpus: %w", err)
		}
	}
	// Encode terminates each record with a newline.
	if err := w.enc.Encode(toRecord(p)); err != nil {
		return fmt.Errorf("encoding paragraph from %s: %w", p.PageTitle, err)
	}
	w.count++
	return nil
}

// Count returns the number of paragraphs written so far.
func (w *Writer) Count() int {
	return w.count
}

// Commit finishes the array, syncs and atomically renames the file into
// place.
func (w *Writer) Commit() error {
	if w.done {
		return ErrClosed
	}
	w.done = true

	tmpPath := w.tmp.Name()
	fail := func(err error) error {
		w.tmp.Close()
		os.Remove(tmpPath)
		return err
	}

	if _, err := w.buf.WriteString("]\n"); err != nil {
		return fail(fmt.Errorf("writing corpus trailer: %w", err))
	}
	if err := w.buf.Flush(); err != nil {
		return fail(fmt.Errorf("flushing corpus: %w", err))
	}
	if err := w.tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing corpus: %w", err))
	}
	if err := w.tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing corpus: %w", err)
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming corpus into place: %w", err)
	}
	return nil
}

// Abort discards everything written. It is safe to call after Commit, in
// which case it does nothing.
func (w *Writer) Abort() {
	if w.done {
		return
	}
	w.done = true
	w.tmp.Close()
	os.Remove(w.tmp.Name())
}

// Save writes snapshot to path atomically.
func Save(path string, snapshot types.CorpusSnapshot) error {
	w, err := Create(path)
	if err != nil {
		return err
	}
	for _, p := range snapshot {
		if err := w.Write(p); err != nil {
			w.Abort()
			return err
		}
	}
	return w.Commit()
}

// Load reads the whole corpus at path.
func Load(path string) (types.CorpusSnapshot, error) {
	snapshot := types.CorpusSnapshot{}
	for p, err := range Each(path) {
		if err != nil {
			return nil, err
		}
		snapshot = append(snapshot, p)
	}
	return snapshot, nil
}

// Each streams the corpus at path one paragraph at a time. A read or
// decode failure is yielded once and ends the sequence.
func Each(path string) iter.Seq2[types.ParagraphRecord, error] {
	return func(yield func(types.ParagraphRecord, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(types.ParagraphRecord{}, fmt.Errorf("opening corpus: %w", err))
			return
		}
		defer f.Close()

		dec := json.NewDecoder(bufio.NewReader(f))
		tok, err := dec.Token()
		if err != nil {
			yield(types.ParagraphRecord{}, fmt.Errorf("reading corpus %s: %w", path, err))
			return
		}
		if d, ok := tok.(json.Delim); !ok || d != '[' {
			yield(types.ParagraphRecord{}, fmt.Errorf("reading corpus %s: expected JSON array", path))
			return
		}

		for i := 0; dec.More(); i++ {
			var r record
			if err := dec.Decode(&r); err != nil {
				yield(types.ParagraphRecord{}, fmt.Errorf("decoding corpus %s record %d: %w", path, i, err))
				return
			}
			if !yield(r.paragraph(), nil) {
				return
			}
		}

		if _, err := dec.Token(); err != nil {
			yield(types.ParagraphRecord{}, fmt.Errorf("reading corpus %s: %w", path, err))
			return
		}
		if _, err := dec.Token(); err != io.EOF {
			yield(types.ParagraphRecord{}, fmt.Errorf("reading corpus %s: trailing data after array", path))
		}
	}
}
