package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/cognicore/wordpipe/pkg/wordpipe/internalerr"
	"github.com/cognicore/wordpipe/pkg/wordpipe/store"
	"github.com/cognicore/wordpipe/pkg/wordpipe/vocab"
)

func sampleVocabulary() *vocab.Vocabulary {
	stats := vocab.NewStats(5)
	stats.AddFiltered("xx", "validate", "too_short")
	stats.TotalAnalyzed = 3
	stats.TotalFiltered = 1
	return &vocab.Vocabulary{
		LanguageCode: "en",
		Words: []vocab.Word{
			{Word: "cat", Lemma: "cat", POSTag: "NOUN", Category: "essential_nouns", Frequency: 0.02, Rank: 1},
			{Word: "dog", Lemma: "dog", POSTag: "NOUN", Category: "essential_nouns", Frequency: 0.01, Rank: 2},
		},
		TotalWords:    2,
		FilteredCount: 1,
		Stats:         stats,
		FilteredWords: []vocab.FilteredWord{
			{Word: "xx", FilterStage: "validate", FilterReason: "too_short"},
		},
	}
}

func TestSaveAndReadBack(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	batch := store.Batch{ID: "b1", LanguageCode: "en", Level: "a1", TargetCount: 2}
	if err := s.SaveVocabulary(ctx, batch, sampleVocabulary()); err != nil {
		t.Fatalf("SaveVocabulary: %v", err)
	}

	got, err := s.GetBatch(ctx, "b1")
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if got.LanguageCode != "en" || got.Level != "a1" {
		t.Errorf("batch = %+v", got)
	}

	words, err := s.GetWords(ctx, "b1")
	if err != nil {
		t.Fatalf("GetWords: %v", err)
	}
	if len(words) != 2 || words[0].Word != "cat" {
		t.Errorf("words = %+v", words)
	}

	filtered, err := s.GetFilteredWords(ctx, "b1")
	if err != nil {
		t.Fatalf("GetFilteredWords: %v", err)
	}
	if len(filtered) != 1 || filtered[0].FilterReason != "too_short" {
		t.Errorf("filtered = %+v", filtered)
	}

	rows, err := s.GetStats(ctx, "b1")
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if len(rows) != 1 || rows[0].Stage != "validate" || rows[0].Count != 1 {
		t.Errorf("stats = %+v", rows)
	}
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.GetBatch(ctx, "missing"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("GetBatch err = %v", err)
	}
	if _, err := s.GetWords(ctx, "missing"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("GetWords err = %v", err)
	}
	if err := s.DeleteBatch(ctx, "missing"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("DeleteBatch err = %v", err)
	}
}

func TestExistingLemmasAcrossBatches(t *testing.T) {
	ctx := context.Background()
	s := New()

	v1 := sampleVocabulary()
	if err := s.SaveVocabulary(ctx, store.Batch{ID: "b1", LanguageCode: "en"}, v1); err != nil {
		t.Fatal(err)
	}
	v2 := &vocab.Vocabulary{
		LanguageCode: "en",
		Words:        []vocab.Word{{Word: "bird", Lemma: "bird"}},
	}
	if err := s.SaveVocabulary(ctx, store.Batch{ID: "b2", LanguageCode: "en"}, v2); err != nil {
		t.Fatal(err)
	}
	other := &vocab.Vocabulary{
		LanguageCode: "de",
		Words:        []vocab.Word{{Word: "Hund", Lemma: "Hund"}},
	}
	if err := s.SaveVocabulary(ctx, store.Batch{ID: "b3", LanguageCode: "de"}, other); err != nil {
		t.Fatal(err)
	}

	lemmas, err := s.ExistingLemmas(ctx, "en")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"bird", "cat", "dog"}
	if len(lemmas) != len(want) {
		t.Fatalf("lemmas = %v, want %v", lemmas, want)
	}
	for i := range want {
		if lemmas[i] != want[i] {
			t.Fatalf("lemmas = %v, want %v", lemmas, want)
		}
	}
}

func TestDeleteBatchRemovesContents(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.SaveVocabulary(ctx, store.Batch{ID: "b1", LanguageCode: "en"}, sampleVocabulary()); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteBatch(ctx, "b1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetWords(ctx, "b1"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("words survived delete: %v", err)
	}
}
