// Package memstore is an in-memory store.Store for tests and dry runs.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cognicore/wordpipe/pkg/wordpipe/internalerr"
	"github.com/cognicore/wordpipe/pkg/wordpipe/store"
	"github.com/cognicore/wordpipe/pkg/wordpipe/vocab"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu       sync.RWMutex
	batches  map[string]store.Batch
	words    map[string][]vocab.Word
	filtered map[string][]vocab.FilteredWord
	stats    map[string][]store.StatRow
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		batches:  make(map[string]store.Batch),
		words:    make(map[string][]vocab.Word),
		filtered: make(map[string][]vocab.FilteredWord),
		stats:    make(map[string][]store.StatRow),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveVocabulary implements store.Store.
func (s *Store) SaveVocabulary(ctx context.Context, batch store.Batch, v *vocab.Vocabulary) error {
	if batch.ID == "" {
		return internalerr.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batches[batch.ID] = batch
	s.words[batch.ID] = append([]vocab.Word(nil), v.Words...)
	s.filtered[batch.ID] = append([]vocab.FilteredWord(nil), v.FilteredWords...)

	var rows []store.StatRow
	if v.Stats != nil {
		for key, count := range v.Stats.ByCategory {
			rows = append(rows, store.StatRow{
				Stage:    key.Stage,
				Reason:   key.Reason,
				Count:    count,
				Examples: append([]string(nil), v.Stats.Examples[key]...),
			})
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].Stage != rows[j].Stage {
				return rows[i].Stage < rows[j].Stage
			}
			return rows[i].Reason < rows[j].Reason
		})
	}
	s.stats[batch.ID] = rows
	return nil
}

// GetBatch implements store.Store.
func (s *Store) GetBatch(ctx context.Context, id string) (store.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.batches[id]
	if !ok {
		return store.Batch{}, internalerr.ErrNotFound
	}
	return b, nil
}

// ListBatches implements store.Store.
func (s *Store) ListBatches(ctx context.Context, languageCode string) ([]store.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Batch
	for _, b := range s.batches {
		if languageCode == "" || b.LanguageCode == languageCode {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteBatch implements store.Store.
func (s *Store) DeleteBatch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.batches[id]; !ok {
		return internalerr.ErrNotFound
	}
	delete(s.batches, id)
	delete(s.words, id)
	delete(s.filtered, id)
	delete(s.stats, id)
	return nil
}

// GetWords implements store.Store.
func (s *Store) GetWords(ctx context.Context, batchID string) ([]vocab.Word, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.batches[batchID]; !ok {
		return nil, internalerr.ErrNotFound
	}
	return append([]vocab.Word(nil), s.words[batchID]...), nil
}

// GetFilteredWords implements store.Store.
func (s *Store) GetFilteredWords(ctx context.Context, batchID string) ([]vocab.FilteredWord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.batches[batchID]; !ok {
		return nil, internalerr.ErrNotFound
	}
	return append([]vocab.FilteredWord(nil), s.filtered[batchID]...), nil
}

// GetStats implements store.Store.
func (s *Store) GetStats(ctx context.Context, batchID string) ([]store.StatRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.batches[batchID]; !ok {
		return nil, internalerr.ErrNotFound
	}
	return append([]store.StatRow(nil), s.stats[batchID]...), nil
}

// ExistingLemmas implements store.Store.
func (s *Store) ExistingLemmas(ctx context.Context, languageCode string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for id, b := range s.batches {
		if b.LanguageCode != languageCode {
			continue
		}
		for _, w := range s.words[id] {
			if w.Lemma != "" {
				seen[w.Lemma] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for lemma := range seen {
		out = append(out, lemma)
	}
	sort.Strings(out)
	return out, nil
}
