// Package kagome adapts the kagome morphological analyzer (IPA
// dictionary) to the nlp.Tagger interface, providing a tagging backend
// for Japanese word sources.
package kagome

import (
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/cognicore/wordpipe/pkg/wordpipe/nlp"
)

// IPA part-of-speech prefixes mapped to coarse UPOS tags.
var posMap = map[string]string{
	"名詞":  "NOUN",
	"動詞":  "VERB",
	"形容詞": "ADJ",
	"副詞":  "ADV",
	"助詞":  "ADP",
	"助動詞": "AUX",
	"連体詞": "DET",
	"接続詞": "CCONJ",
	"感動詞": "INTJ",
	"記号":  "PUNCT",
}

// Tagger wraps a kagome tokenizer.
type Tagger struct {
	tok *tokenizer.Tokenizer
}

// New constructs the kagome backend with the embedded IPA dictionary.
func New() (*Tagger, error) {
	tok, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("init kagome tokenizer: %w", err)
	}
	return &Tagger{tok: tok}, nil
}

// Name implements nlp.Tagger.
func (t *Tagger) Name() string { return "kagome-ipa" }

// TagSentences implements nlp.Tagger. Each sentence is analyzed
// independently.
func (t *Tagger) TagSentences(sentences []string) ([][]nlp.Token, error) {
	out := make([][]nlp.Token, len(sentences))
	for i, s := range sentences {
		ktoks := t.tok.Tokenize(s)
		tokens := make([]nlp.Token, 0, len(ktoks))
		for _, kt := range ktoks {
			pos := kt.POS()
			tokens = append(tokens, nlp.Token{
				Text:  kt.Surface,
				POS:   coarsePOS(pos),
				Morph: morphFromPOS(pos),
			})
		}
		out[i] = tokens
	}
	return out, nil
}

func coarsePOS(pos []string) string {
	if len(pos) == 0 {
		return "X"
	}
	if mapped, ok := posMap[pos[0]]; ok {
		// IPA files proper nouns under 名詞,固有名詞.
		if mapped == "NOUN" && len(pos) > 1 && pos[1] == "固有名詞" {
			return "PROPN"
		}
		return mapped
	}
	return "X"
}

// morphFromPOS keeps the fine-grained IPA categories as features so the
// inflection filter sees a non-empty morphology for analyzed words.
func morphFromPOS(pos []string) map[string]string {
	if len(pos) < 2 || pos[1] == "*" {
		return nil
	}
	return map[string]string{"Subcat": strings.Join(pos[1:], ",")}
}
