// Package plugin holds per-language morphological canonicalization
// strategies consulted by the dedup engine after exact lemma matching.
package plugin

import (
	"strings"

	"github.com/cognicore/wordpipe/pkg/wordpipe/config"
	"github.com/cognicore/wordpipe/pkg/wordpipe/vocab"
)

// Match reports that a lemma is a morphological variant of an
// already-seen lemma. MatchedLemma is the seen entry's lemma in its
// original casing; the reasons label the dedup engine's stats records
// for the two possible outcomes.
type Match struct {
	MatchedLemma  string
	ReplaceReason string
	FilterReason  string
}

// Plugin is a stateless per-language canonicalization strategy. It
// never mutates the seen index; it only decides equivalence.
type Plugin interface {
	LanguageCode() string

	// CanonicalLemma returns a Match when lemma is a variant of a
	// lemma already in seen, nil otherwise. Keys of seen are the
	// entries' canonical lemma keys (lowercased word runes), not
	// their surface lemmas.
	CanonicalLemma(lemma string, seen map[string]vocab.Word) *Match
}

// Default performs no canonicalization beyond exact lemma equality.
type Default struct {
	Code string
}

func (d Default) LanguageCode() string { return d.Code }

func (d Default) CanonicalLemma(string, map[string]vocab.Word) *Match { return nil }

// German unifies singular and plural noun forms that differ by a
// plural suffix and optional umlaut alternation (Katze/Katzen,
// Haus/Häuser). Direction does not matter: a plural candidate matches
// a seen singular and vice versa.
type German struct {
	// SuffixPairs lists (plural suffix, singular suffix) pairs; the
	// plural suffix may be longer than the singular one it replaces.
	SuffixPairs    [][2]string
	UmlautPairs    map[string]string
	ReverseUmlauts map[string]string
}

// NewGerman builds the plugin from the language's morphology tables.
// When reverse_umlauts is absent it is derived by inverting
// umlaut_pairs.
func NewGerman(m config.Morphology) *German {
	pairs := make([][2]string, 0, len(m.PluralSingularSuffixPairs))
	for _, p := range m.PluralSingularSuffixPairs {
		if len(p) == 2 {
			pairs = append(pairs, [2]string{p[0], p[1]})
		}
	}
	reverse := m.ReverseUmlauts
	if len(reverse) == 0 && len(m.UmlautPairs) > 0 {
		reverse = make(map[string]string, len(m.UmlautPairs))
		for umlaut, vowel := range m.UmlautPairs {
			reverse[vowel] = umlaut
		}
	}
	return &German{
		SuffixPairs:    pairs,
		UmlautPairs:    m.UmlautPairs,
		ReverseUmlauts: reverse,
	}
}

func (g *German) LanguageCode() string { return "de" }

func (g *German) CanonicalLemma(lemma string, seen map[string]vocab.Word) *Match {
	seenLower := make(map[string]string, len(seen))
	for k := range seen {
		seenLower[strings.ToLower(k)] = k
	}

	// A plural candidate matching a seen singular: keeping the
	// candidate would replace the singular with its plural.
	for _, variant := range g.singularVariants(lemma) {
		if matched, ok := seenLower[variant]; ok {
			return &Match{
				MatchedLemma:  matched,
				ReplaceReason: "replaced_by_plural",
				FilterReason:  "singular_exists",
			}
		}
	}

	for _, variant := range g.pluralVariants(lemma) {
		if matched, ok := seenLower[variant]; ok {
			return &Match{
				MatchedLemma:  matched,
				ReplaceReason: "replaced_by_singular",
				FilterReason:  "plural_exists",
			}
		}
	}

	return nil
}

// singularVariants treats the word as a possible plural and produces
// singular candidates, de-umlauting the stem where applicable.
func (g *German) singularVariants(word string) []string {
	lower := strings.ToLower(word)
	var variants []string
	for _, pair := range g.SuffixPairs {
		plural, singular := pair[0], pair[1]
		if !strings.HasSuffix(lower, plural) {
			continue
		}
		base := strings.TrimSuffix(lower, plural)
		if candidate := base + singular; len([]rune(candidate)) >= 2 {
			variants = append(variants, candidate)
		}
		for umlaut, vowel := range g.UmlautPairs {
			if strings.Contains(base, umlaut) {
				variants = append(variants, strings.ReplaceAll(base, umlaut, vowel)+singular)
			}
		}
	}
	return variants
}

// pluralVariants treats the word as a singular and produces plural
// candidates, re-umlauting the stem where applicable.
func (g *German) pluralVariants(word string) []string {
	lower := strings.ToLower(word)
	var variants []string
	for _, pair := range g.SuffixPairs {
		plural, singular := pair[0], pair[1]
		var base string
		switch {
		case singular != "" && strings.HasSuffix(lower, singular):
			base = strings.TrimSuffix(lower, singular)
		case singular == "":
			base = lower
		default:
			continue
		}
		if candidate := base + plural; len(candidate) > len(lower) {
			variants = append(variants, candidate)
		}
		for vowel, umlaut := range g.ReverseUmlauts {
			if strings.Contains(base, vowel) {
				variants = append(variants, strings.ReplaceAll(base, vowel, umlaut)+plural)
			}
		}
	}
	return variants
}

// ForLanguage selects the plugin implementation named in the language
// config. Plugin names are validated at config load, so an unknown
// name here falls back to Default rather than erroring.
func ForLanguage(code string, lang config.Language) Plugin {
	if lang.Plugin == config.PluginGerman && lang.Morphology != nil {
		return NewGerman(*lang.Morphology)
	}
	return Default{Code: code}
}
