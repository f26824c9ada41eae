// Package export renders processed vocabularies to JSON documents and
// persists them as store batches. File output is what downstream quiz
// tooling consumes; batch persistence is what later runs seed their
// existing-word sets from.
package export

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/wordpipe/pkg/wordpipe/internalerr"
	"github.com/cognicore/wordpipe/pkg/wordpipe/store"
	"github.com/cognicore/wordpipe/pkg/wordpipe/vocab"
)

// maxFilteredExamples bounds the per-bucket sample size in filtered
// word reports so a noisy run cannot balloon the report file.
const maxFilteredExamples = 50

// WordEntry is one admitted word in a vocabulary document.
type WordEntry struct {
	Rank       int               `json:"rank"`
	Word       string            `json:"word"`
	Lemma      string            `json:"lemma"`
	Frequency  float64           `json:"frequency"`
	POS        string            `json:"pos"`
	Category   string            `json:"category"`
	Morphology map[string]string `json:"morphology,omitempty"`
	Reason     string            `json:"reason,omitempty"`
}

// VocabularyDoc is the JSON document written for one language run.
type VocabularyDoc struct {
	Language        string         `json:"language"`
	LanguageName    string         `json:"language_name"`
	TotalWords      int            `json:"total_words"`
	FilteredCount   int            `json:"filtered_count"`
	GeneratedAt     time.Time      `json:"generated_at"`
	Words           []WordEntry    `json:"words"`
	CategorySummary map[string]int `json:"category_summary"`
}

// FilteredEntry is one rejected candidate in a filtered-word report.
type FilteredEntry struct {
	Word      string  `json:"word"`
	Lemma     string  `json:"lemma,omitempty"`
	POS       string  `json:"pos,omitempty"`
	Frequency float64 `json:"frequency"`
	Rank      int     `json:"rank"`
}

// FilteredBucket groups rejections sharing a stage and reason.
type FilteredBucket struct {
	Count    int             `json:"count"`
	Examples []FilteredEntry `json:"examples"`
}

// FilteredDoc is the JSON report of everything a run rejected, bucketed
// by "stage:reason".
type FilteredDoc struct {
	Language      string                    `json:"language"`
	LanguageName  string                    `json:"language_name"`
	TotalFiltered int                       `json:"total_filtered"`
	GeneratedAt   time.Time                 `json:"generated_at"`
	ByCategory    map[string]FilteredBucket `json:"by_category"`
}

// Exporter writes vocabulary documents and persists batches. It is not
// safe for concurrent use; batch IDs come from a monotonic ULID source.
type Exporter struct {
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewExporter creates an Exporter with a monotonic ULID source.
func NewExporter() *Exporter {
	return &Exporter{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// NewBatchID returns a fresh ULID for a batch.
func (e *Exporter) NewBatchID() string {
	return ulid.MustNew(ulid.Now(), e.entropy).String()
}

// BuildDoc converts a vocabulary into its JSON document form.
func (e *Exporter) BuildDoc(v *vocab.Vocabulary, languageName string) VocabularyDoc {
	doc := VocabularyDoc{
		Language:        v.LanguageCode,
		LanguageName:    languageName,
		TotalWords:      v.TotalWords,
		FilteredCount:   v.FilteredCount,
		GeneratedAt:     e.now(),
		Words:           make([]WordEntry, 0, len(v.Words)),
		CategorySummary: make(map[string]int, len(v.Categories)),
	}
	for _, w := range v.Words {
		doc.Words = append(doc.Words, WordEntry{
			Rank:       w.Rank,
			Word:       w.Word,
			Lemma:      w.Lemma,
			Frequency:  w.Frequency,
			POS:        w.POSTag,
			Category:   w.Category,
			Morphology: w.Morphology,
			Reason:     w.Reason,
		})
	}
	for category, words := range v.Categories {
		doc.CategorySummary[category] = len(words)
	}
	return doc
}

// WriteVocabulary writes the vocabulary document to path, creating
// parent directories as needed.
func (e *Exporter) WriteVocabulary(v *vocab.Vocabulary, languageName, path string) error {
	return writeJSON(path, e.BuildDoc(v, languageName))
}

// WriteWordList writes one lemma per line, the flat format translation
// tooling ingests.
func (e *Exporter) WriteWordList(v *vocab.Vocabulary, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	var sb strings.Builder
	for _, w := range v.Words {
		sb.WriteString(w.Lemma)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write word list: %w", err)
	}
	return nil
}

// BuildFilteredDoc groups rejected words by stage and reason. Buckets
// keep at most maxFilteredExamples sample entries each.
func (e *Exporter) BuildFilteredDoc(filtered []vocab.FilteredWord, languageCode, languageName string) FilteredDoc {
	doc := FilteredDoc{
		Language:      languageCode,
		LanguageName:  languageName,
		TotalFiltered: len(filtered),
		GeneratedAt:   e.now(),
		ByCategory:    make(map[string]FilteredBucket),
	}
	for _, fw := range filtered {
		key := fw.FilterStage + ":" + fw.FilterReason
		bucket := doc.ByCategory[key]
		bucket.Count++
		if len(bucket.Examples) < maxFilteredExamples {
			bucket.Examples = append(bucket.Examples, FilteredEntry{
				Word:      fw.Word,
				Lemma:     fw.Lemma,
				POS:       fw.POSTag,
				Frequency: fw.Frequency,
				Rank:      fw.Rank,
			})
		}
		doc.ByCategory[key] = bucket
	}
	return doc
}

// WriteFiltered writes the rejected-word report to path.
func (e *Exporter) WriteFiltered(filtered []vocab.FilteredWord, languageCode, languageName, path string) error {
	return writeJSON(path, e.BuildFilteredDoc(filtered, languageCode, languageName))
}

// SaveBatch persists the vocabulary under a fresh ULID batch ID and
// returns the stored batch header.
func (e *Exporter) SaveBatch(ctx context.Context, st store.Store, v *vocab.Vocabulary, level string, targetCount int) (store.Batch, error) {
	if st == nil {
		return store.Batch{}, fmt.Errorf("%w: nil store", internalerr.ErrInvalidConfig)
	}
	batch := store.Batch{
		ID:           e.NewBatchID(),
		LanguageCode: v.LanguageCode,
		Level:        level,
		TargetCount:  targetCount,
		CreatedAt:    e.now(),
	}
	if err := st.SaveVocabulary(ctx, batch, v); err != nil {
		return store.Batch{}, fmt.Errorf("save batch %s: %w", batch.ID, err)
	}
	return batch, nil
}

// VocabularyPath returns the conventional output filename for a
// language and level, e.g. "de_b1_vocabulary.json". Level may be empty.
func VocabularyPath(dir, languageCode, level string) string {
	name := languageCode
	if level != "" {
		name += "_" + level
	}
	return filepath.Join(dir, name+"_vocabulary.json")
}

// FilteredPath returns the conventional rejected-word report filename
// for a language, e.g. "de_filtered.json".
func FilteredPath(dir, languageCode string) string {
	return filepath.Join(dir, languageCode+"_filtered.json")
}

// SortedBucketKeys returns the filtered-report bucket keys ordered by
// descending count, ties alphabetical. Reporting helpers use it to show
// the loudest filters first.
func (d FilteredDoc) SortedBucketKeys() []string {
	keys := make([]string, 0, len(d.ByCategory))
	for k := range d.ByCategory {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := d.ByCategory[keys[i]].Count, d.ByCategory[keys[j]].Count
		if ci != cj {
			return ci > cj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func writeJSON(path string, doc any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export document: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export document: %w", err)
	}
	return nil
}
