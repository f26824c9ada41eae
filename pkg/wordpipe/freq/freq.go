// Package freq provides the corpus-frequency capability consumed by the
// processing pipeline: raw proportional frequency plus the log-scale
// zipf value (bounded 0.0–8.0) used by the foreign-language filter.
package freq

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Source provides frequency lookups for one language. Frequency is a
// proportion of the corpus (0 for unknown words); Zipf is
// log10(frequency per billion tokens), clamped to [0, 8].
type Source interface {
	Frequency(word string) float64
	Zipf(word string) float64
}

// Table is a map-backed Source built from a frequency list file with
// one "word count" entry per line, sorted descending by count.
type Table struct {
	lang   string
	freqs  map[string]float64
	total  float64
	sorted []string
}

// LoadTable reads a frequency list file into a Table.
func LoadTable(path, languageCode string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frequency list: %w", err)
	}
	defer f.Close()

	counts := make(map[string]float64)
	var total float64

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		count, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil || count <= 0 {
			continue
		}
		word := strings.ToLower(strings.Join(fields[:len(fields)-1], " "))
		counts[word] += count
		total += count
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read frequency list: %w", err)
	}

	return NewTable(languageCode, counts, total), nil
}

// NewTable builds a Table from raw counts. Total defaults to the sum of
// counts when zero.
func NewTable(languageCode string, counts map[string]float64, total float64) *Table {
	if total <= 0 {
		for _, c := range counts {
			total += c
		}
	}
	if total <= 0 {
		total = 1
	}

	freqs := make(map[string]float64, len(counts))
	words := make([]string, 0, len(counts))
	for w, c := range counts {
		freqs[w] = c / total
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freqs[words[i]] != freqs[words[j]] {
			return freqs[words[i]] > freqs[words[j]]
		}
		return words[i] < words[j]
	})

	return &Table{lang: languageCode, freqs: freqs, total: total, sorted: words}
}

// LanguageCode returns the language this table covers.
func (t *Table) LanguageCode() string { return t.lang }

// Frequency returns the word's proportion of the corpus, 0 when unknown.
func (t *Table) Frequency(word string) float64 {
	return t.freqs[strings.ToLower(word)]
}

// Zipf returns the zipf value for the word, clamped to [0, 8].
func (t *Table) Zipf(word string) float64 {
	f := t.Frequency(word)
	if f <= 0 {
		return 0
	}
	z := math.Log10(f * 1e9)
	if z < 0 {
		return 0
	}
	if z > 8 {
		return 8
	}
	return z
}

// Words returns all known words in descending frequency order.
func (t *Table) Words() []string {
	out := make([]string, len(t.sorted))
	copy(out, t.sorted)
	return out
}

// Len returns the number of distinct words in the table.
func (t *Table) Len() int { return len(t.freqs) }
