package nlp

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// RuleTagger is a lexicon-and-suffix tagger. It covers the synthetic
// template sentences the pipeline feeds it well enough to resolve the
// target word's coarse tag: function words come from the lexicon,
// open-class words from suffix tables, capitalized mid-sentence words
// default to PROPN.
type RuleTagger struct {
	name    string
	lexicon map[string]string // lowercased word -> POS
	// suffix -> (POS, morph features); longest suffix wins
	suffixes []SuffixRule
	// default tag for words nothing else matches
	defaultPOS string
	// words tagged PROPN when capitalized anywhere but sentence start
	properByCase bool
}

// SuffixRule maps a word ending to a coarse tag with optional
// morphological features.
type SuffixRule struct {
	Suffix string
	POS    string
	Morph  map[string]string
}

// RuleTaggerConfig configures a RuleTagger.
type RuleTaggerConfig struct {
	Name         string
	Lexicon      map[string]string
	Suffixes     []SuffixRule
	DefaultPOS   string
	ProperByCase bool
}

// NewRuleTagger builds a tagger from config. DefaultPOS falls back to
// NOUN, the open-class default for unknown words.
func NewRuleTagger(cfg RuleTaggerConfig) *RuleTagger {
	lexicon := make(map[string]string, len(cfg.Lexicon))
	for w, pos := range cfg.Lexicon {
		lexicon[strings.ToLower(w)] = pos
	}
	defaultPOS := cfg.DefaultPOS
	if defaultPOS == "" {
		defaultPOS = "NOUN"
	}
	return &RuleTagger{
		name:         cfg.Name,
		lexicon:      lexicon,
		suffixes:     cfg.Suffixes,
		defaultPOS:   defaultPOS,
		properByCase: cfg.ProperByCase,
	}
}

// Name implements Tagger.
func (t *RuleTagger) Name() string { return t.name }

// TagSentences implements Tagger. Sentences are independent.
func (t *RuleTagger) TagSentences(sentences []string) ([][]Token, error) {
	out := make([][]Token, len(sentences))
	for i, s := range sentences {
		out[i] = t.tagSentence(s)
	}
	return out, nil
}

func (t *RuleTagger) tagSentence(sentence string) []Token {
	words := Tokenize(sentence)
	tokens := make([]Token, len(words))
	for i, w := range words {
		tokens[i] = t.tagWord(w, i == 0)
	}
	return tokens
}

func (t *RuleTagger) tagWord(word string, sentenceInitial bool) Token {
	lower := strings.ToLower(word)

	if pos, ok := t.lexicon[lower]; ok {
		return Token{Text: word, POS: pos}
	}

	if t.properByCase && !sentenceInitial && isCapitalized(word) {
		return Token{Text: word, POS: "PROPN"}
	}

	var best *SuffixRule
	for i := range t.suffixes {
		rule := &t.suffixes[i]
		if strings.HasSuffix(lower, rule.Suffix) {
			if best == nil || len(rule.Suffix) > len(best.Suffix) {
				best = rule
			}
		}
	}
	if best != nil {
		morph := make(map[string]string, len(best.Morph))
		for k, v := range best.Morph {
			morph[k] = v
		}
		return Token{Text: word, POS: best.POS, Morph: morph}
	}

	return Token{Text: word, POS: t.defaultPOS}
}

func isCapitalized(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return r != utf8.RuneError && unicode.IsUpper(r)
}
