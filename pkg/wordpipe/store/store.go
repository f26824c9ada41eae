// Package store persists generated vocabularies. A batch is one
// pipeline run's output for a language (optionally a CEFR level);
// admitted words, rejected words, and filtering statistics are stored
// under the batch so later runs can seed their existing-word sets.
package store

import (
	"context"
	"time"

	"github.com/cognicore/wordpipe/pkg/wordpipe/vocab"
)

// Batch identifies one persisted vocabulary run.
type Batch struct {
	ID           string
	LanguageCode string
	Level        string
	TargetCount  int
	CreatedAt    time.Time
}

// StatRow is one (stage, reason) rejection bucket of a stored batch.
type StatRow struct {
	Stage    string
	Reason   string
	Count    int
	Examples []string
}

// Store is the persistence interface for vocabulary batches.
type Store interface {
	Close() error

	// SaveVocabulary stores the batch header, the admitted and
	// rejected words, and the filtering statistics in one transaction.
	SaveVocabulary(ctx context.Context, batch Batch, v *vocab.Vocabulary) error

	GetBatch(ctx context.Context, id string) (Batch, error)
	ListBatches(ctx context.Context, languageCode string) ([]Batch, error)
	DeleteBatch(ctx context.Context, id string) error

	GetWords(ctx context.Context, batchID string) ([]vocab.Word, error)
	GetFilteredWords(ctx context.Context, batchID string) ([]vocab.FilteredWord, error)
	GetStats(ctx context.Context, batchID string) ([]StatRow, error)

	// ExistingLemmas returns every distinct lemma admitted in any
	// batch of the language, for seeding ProcessOptions.ExistingWords.
	ExistingLemmas(ctx context.Context, languageCode string) ([]string, error)
}
