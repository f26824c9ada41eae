// Package dedup owns the per-run seen-lemma index. Exactly one
// admitted entry exists per canonical lemma key; conflicts are
// resolved deterministically and every losing entry is recorded in
// statistics.
package dedup

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cognicore/wordpipe/pkg/wordpipe/plugin"
	"github.com/cognicore/wordpipe/pkg/wordpipe/vocab"
)

// CanonicalKey lowercases the lemma and strips every rune that is not
// a letter, digit, or underscore. Unicode letters survive, so umlauts
// and Cyrillic do not collapse keys.
func CanonicalKey(lemma string) string {
	lower := strings.ToLower(strings.TrimSpace(lemma))
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Engine is the mutable dedup state for one processing run. It is not
// safe for concurrent use; parallel runs each own their own Engine.
type Engine struct {
	margin float64
	plugin plugin.Plugin
	stats  *vocab.Stats

	words      []vocab.Word
	categories map[string][]vocab.Word
	seen       map[string]vocab.Word
	filtered   int
}

// NewEngine builds an empty engine. margin is the frequency factor a
// newcomer must exceed to displace an equally-inflected duplicate;
// stats may be nil.
func NewEngine(margin float64, p plugin.Plugin, stats *vocab.Stats) *Engine {
	if p == nil {
		p = plugin.Default{}
	}
	return &Engine{
		margin:     margin,
		plugin:     p,
		stats:      stats,
		categories: make(map[string][]vocab.Word),
		seen:       make(map[string]vocab.Word),
	}
}

// Admit offers a fully-analyzed word to the index. It returns true
// when the word is part of the result set after the call, false when
// an existing entry won.
func (e *Engine) Admit(w vocab.Word) bool {
	key := CanonicalKey(w.Lemma)

	if existing, ok := e.seen[key]; ok {
		return e.resolveDuplicate(w, key, existing)
	}

	if m := e.plugin.CanonicalLemma(w.Lemma, e.seen); m != nil {
		existingKey := CanonicalKey(m.MatchedLemma)
		if existing, ok := e.seen[existingKey]; ok {
			if len([]rune(w.Lemma)) < len([]rune(existing.Lemma)) {
				e.remove(existingKey, existing)
				e.record(existing.Word, "canonical", m.ReplaceReason+":"+w.Lemma)
			} else {
				e.filtered++
				e.record(w.Word, "canonical", m.FilterReason+":"+m.MatchedLemma)
				return false
			}
		}
	}

	e.insert(key, w)
	return true
}

// resolveDuplicate applies the exact-lemma conflict rules: a
// lemma-form surface beats an inflected one, otherwise the newcomer
// needs a frequency edge beyond the margin.
func (e *Engine) resolveDuplicate(w vocab.Word, key string, existing vocab.Word) bool {
	currentIsLemma := strings.EqualFold(w.Word, w.Lemma)
	existingIsLemma := strings.EqualFold(existing.Word, existing.Lemma)

	var reason string
	switch {
	case currentIsLemma && !existingIsLemma:
		reason = "replaced_by_lemma:" + w.Lemma
	case !currentIsLemma && existingIsLemma:
		e.filtered++
		e.record(w.Word, "dedupe", "lemma_exists:"+w.Lemma)
		return false
	case w.Frequency > existing.Frequency*e.margin:
		reason = fmt.Sprintf("replaced_by_higher_freq:%s:freq=%.6f", w.Lemma, w.Frequency)
	default:
		e.filtered++
		e.record(w.Word, "dedupe", "lower_freq:"+w.Lemma)
		return false
	}

	e.remove(CanonicalKey(existing.Lemma), existing)
	e.insert(key, w)
	e.record(existing.Word, "dedupe", reason)
	return true
}

func (e *Engine) insert(key string, w vocab.Word) {
	e.words = append(e.words, w)
	e.categories[w.Category] = append(e.categories[w.Category], w)
	e.seen[key] = w
}

func (e *Engine) remove(key string, existing vocab.Word) {
	kept := e.words[:0]
	for _, w := range e.words {
		if CanonicalKey(w.Lemma) != key {
			kept = append(kept, w)
		}
	}
	e.words = kept

	cat := e.categories[existing.Category][:0]
	for _, w := range e.categories[existing.Category] {
		if CanonicalKey(w.Lemma) != key {
			cat = append(cat, w)
		}
	}
	e.categories[existing.Category] = cat

	delete(e.seen, key)
}

func (e *Engine) record(word, stage, reason string) {
	if e.stats != nil {
		e.stats.AddFiltered(word, stage, reason)
	}
}

// Words returns admitted words in admission order.
func (e *Engine) Words() []vocab.Word { return e.words }

// Categories returns admitted words grouped by study category.
func (e *Engine) Categories() map[string][]vocab.Word { return e.categories }

// Seen reports whether a lemma already has an admitted entry.
func (e *Engine) Seen(lemma string) bool {
	_, ok := e.seen[CanonicalKey(lemma)]
	return ok
}

// FilteredCount is the number of offered words rejected by the index.
// Displaced former winners are not counted; they appear in stats only.
func (e *Engine) FilteredCount() int { return e.filtered }

// Truncate keeps only the first n admitted words. Input order is
// frequency-descending, so truncation keeps the most frequent entries.
func (e *Engine) Truncate(n int) {
	if n < 0 || n >= len(e.words) {
		return
	}
	dropped := e.words[n:]
	e.words = e.words[:n]
	for _, w := range dropped {
		key := CanonicalKey(w.Lemma)
		cat := e.categories[w.Category][:0]
		for _, cw := range e.categories[w.Category] {
			if CanonicalKey(cw.Lemma) != key {
				cat = append(cat, cw)
			}
		}
		e.categories[w.Category] = cat
		delete(e.seen, key)
	}
}
