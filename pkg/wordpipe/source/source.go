// Package source supplies candidate words to the processing pipeline as
// lazy, ordered sequences, highest-frequency first. A sequence is
// exhausted exactly once; every call to Words returns a fresh one.
package source

import (
	"bufio"
	"os"
	"strings"
)

// Entry is a single candidate word with its source metadata. Metadata
// carries at least a "rank" key when the source knows the word's rank.
type Entry struct {
	Text     string
	Metadata map[string]any
}

// Rank returns the entry's source rank, 0 when absent.
func (e Entry) Rank() int {
	if r, ok := e.Metadata["rank"].(int); ok {
		return r
	}
	return 0
}

// Iterator yields entries until exhausted, then reports false forever.
type Iterator func() (Entry, bool)

// WordSource produces fresh candidate sequences.
type WordSource interface {
	Words() Iterator
}

// SliceSource serves a fixed, pre-ordered word list. Ranks are assigned
// from position (1-based) unless the entries carry their own.
type SliceSource struct {
	entries []Entry
}

// FromWords builds a SliceSource from bare words, ranked by position.
func FromWords(words []string) *SliceSource {
	entries := make([]Entry, len(words))
	for i, w := range words {
		entries[i] = Entry{Text: w, Metadata: map[string]any{"rank": i + 1}}
	}
	return &SliceSource{entries: entries}
}

// FromEntries builds a SliceSource from prepared entries.
func FromEntries(entries []Entry) *SliceSource {
	return &SliceSource{entries: entries}
}

// Words implements WordSource.
func (s *SliceSource) Words() Iterator {
	i := 0
	return func() (Entry, bool) {
		if i >= len(s.entries) {
			return Entry{}, false
		}
		e := s.entries[i]
		i++
		if e.Metadata == nil {
			e.Metadata = map[string]any{"rank": i}
		}
		return e, true
	}
}

// FileSource streams a frequency-list file ("word count" per line,
// descending). Each Words call reopens the file, so consumers never
// share iterator state.
type FileSource struct {
	path    string
	maxRank int
}

// NewFileSource creates a FileSource. maxRank 0 means unbounded.
func NewFileSource(path string, maxRank int) *FileSource {
	return &FileSource{path: path, maxRank: maxRank}
}

// Words implements WordSource. An unreadable file yields an empty
// sequence; the caller validates the path up front via Check.
func (s *FileSource) Words() Iterator {
	f, err := os.Open(s.path)
	if err != nil {
		return func() (Entry, bool) { return Entry{}, false }
	}

	scanner := bufio.NewScanner(f)
	rank := 0
	done := false

	return func() (Entry, bool) {
		if done {
			return Entry{}, false
		}
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			word := strings.Fields(line)[0]
			rank++
			if s.maxRank > 0 && rank > s.maxRank {
				break
			}
			return Entry{Text: word, Metadata: map[string]any{"rank": rank}}, true
		}
		done = true
		f.Close()
		return Entry{}, false
	}
}

// Check verifies the backing file is readable.
func (s *FileSource) Check() error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	return f.Close()
}
