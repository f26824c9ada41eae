package nlp

import (
	"strings"
	"unicode"
)

// Tokenize splits a sentence into word tokens. Letters, digits,
// hyphens, and apostrophes bind into one token; everything else
// separates. Case is preserved.
func Tokenize(sentence string) []string {
	var tokens []string
	var current strings.Builder

	for _, r := range sentence {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '\'' {
			current.WriteRune(r)
		} else if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// SplitTagger is the tokenizer-only fallback backend: it tokenizes and
// tags every token X with no entity or morphology information.
type SplitTagger struct{}

// NewSplitTagger creates the fallback tagger.
func NewSplitTagger() *SplitTagger { return &SplitTagger{} }

// Name implements Tagger.
func (t *SplitTagger) Name() string { return "tokenizer" }

// TagSentences implements Tagger.
func (t *SplitTagger) TagSentences(sentences []string) ([][]Token, error) {
	out := make([][]Token, len(sentences))
	for i, s := range sentences {
		words := Tokenize(s)
		tokens := make([]Token, len(words))
		for j, w := range words {
			tokens[j] = Token{Text: w, POS: "X"}
		}
		out[i] = tokens
	}
	return out, nil
}
