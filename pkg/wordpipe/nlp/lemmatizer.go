package nlp

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/kljensen/snowball"
)

// DictLemmatizer resolves lemmas through, in order: a per-language
// exceptions map, a surface→lemma dictionary, and a fallback table
// consulted only when the dictionary returned the surface form itself.
// Unknown words lemmatize to themselves, which keeps the mapping
// idempotent.
type DictLemmatizer struct {
	exceptions map[string]string
	dict       map[string]string
	fallback   map[string]string
}

// NewDictLemmatizer builds a lemmatizer. Any of the maps may be nil.
func NewDictLemmatizer(exceptions, dict, fallback map[string]string) *DictLemmatizer {
	return &DictLemmatizer{
		exceptions: lowerKeys(exceptions),
		dict:       lowerKeys(dict),
		fallback:   lowerKeys(fallback),
	}
}

// LoadLemmaDict reads a "surface lemma" pairs file into a map.
func LoadLemmaDict(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lemma dict: %w", err)
	}
	defer f.Close()

	dict := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		dict[strings.ToLower(fields[0])] = strings.ToLower(fields[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read lemma dict: %w", err)
	}
	return dict, nil
}

// Lemmatize implements Lemmatizer.
func (l *DictLemmatizer) Lemmatize(word string) (string, error) {
	lower := strings.ToLower(word)

	if lemma, ok := l.exceptions[lower]; ok {
		return lemma, nil
	}

	lemma := lower
	if mapped, ok := l.dict[lower]; ok {
		lemma = mapped
	}

	// The fallback table covers words the dictionary could not reduce,
	// e.g. irregular verb forms missing from the main dict.
	if lemma == lower {
		if mapped, ok := l.fallback[lower]; ok {
			lemma = mapped
		}
	}

	return lemma, nil
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = strings.ToLower(v)
	}
	return out
}

// snowballLanguages maps ISO codes to snowball stemmer names.
var snowballLanguages = map[string]string{
	"en": "english",
	"es": "spanish",
	"fr": "french",
	"ru": "russian",
	"sv": "swedish",
	"no": "norwegian",
	"hu": "hungarian",
}

// SnowballLemmatizer approximates lemmatization with a snowball
// stemmer. Usable as the terminal fallback where no lemma dictionary
// exists for the language.
type SnowballLemmatizer struct {
	language string
}

// NewSnowballLemmatizer creates a stemmer-backed lemmatizer, or an
// error for languages snowball does not cover.
func NewSnowballLemmatizer(languageCode string) (*SnowballLemmatizer, error) {
	lang, ok := snowballLanguages[languageCode]
	if !ok {
		return nil, fmt.Errorf("no snowball stemmer for language %q", languageCode)
	}
	return &SnowballLemmatizer{language: lang}, nil
}

// Lemmatize implements Lemmatizer.
func (l *SnowballLemmatizer) Lemmatize(word string) (string, error) {
	stem, err := snowball.Stem(strings.ToLower(word), l.language, false)
	if err != nil {
		return "", fmt.Errorf("snowball stem: %w", err)
	}
	return stem, nil
}

// ChainLemmatizer consults lemmatizers in order and returns the first
// result that differs from the input, or the lowercased input when none
// does.
type ChainLemmatizer struct {
	chain []Lemmatizer
}

// NewChainLemmatizer composes lemmatizers.
func NewChainLemmatizer(chain ...Lemmatizer) *ChainLemmatizer {
	return &ChainLemmatizer{chain: chain}
}

// Lemmatize implements Lemmatizer.
func (l *ChainLemmatizer) Lemmatize(word string) (string, error) {
	lower := strings.ToLower(word)
	for _, lem := range l.chain {
		lemma, err := lem.Lemmatize(lower)
		if err != nil {
			return "", err
		}
		if lemma != "" && lemma != lower {
			return lemma, nil
		}
	}
	return lower, nil
}
