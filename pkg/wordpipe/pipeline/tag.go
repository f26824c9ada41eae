package pipeline

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cognicore/wordpipe/pkg/wordpipe/config"
	"github.com/cognicore/wordpipe/pkg/wordpipe/freq"
	"github.com/cognicore/wordpipe/pkg/wordpipe/nlp"
)

// Per-language templates used when the language config leaves them
// unset. The noun slot places the word where a noun reads naturally;
// the verb slot (when present) where a verb does.
var defaultTemplates = map[string]config.Templates{
	"en": {Noun: "I saw the {w}.", Verb: "They will {w} it."},
	"de": {Noun: "Ich sehe das {w}.", Verb: "Wir {w} jetzt."},
	"es": {Noun: "Veo el {w}.", Verb: "Ellos {w} ahora."},
	"ru": {Noun: "Это {w}."},
}

// Suffix evidence for the noun/verb disambiguation heuristics.
var nounSuffixes = map[string][]string{
	"en": {"tion", "ment", "ness", "ship", "ity", "ance", "ence", "er", "or", "ist", "ism"},
	"de": {"ung", "heit", "keit", "tion", "tät", "schaft", "chen", "lein", "nis", "ling", "in"},
	"es": {"ción", "sión", "dad", "tad", "aje", "ista", "miento", "ura", "ez"},
	"ru": {"ость", "ние", "тель", "ция", "ство", "ка"},
}

var verbSuffixes = map[string][]string{
	"es": {"ar", "er", "ir"},
	"de": {"en", "ern", "eln"},
	"ru": {"ть", "ать", "ять", "еть", "ить"},
}

// NounSuffixes returns the noun suffix evidence for a language code.
func NounSuffixes(languageCode string) []string { return nounSuffixes[languageCode] }

// VerbSuffixes returns the verb suffix evidence for a language code.
func VerbSuffixes(languageCode string) []string { return verbSuffixes[languageCode] }

// DefaultTemplates returns the built-in templates for a language code.
// Unknown languages get a bare noun slot and no verb template.
func DefaultTemplates(languageCode string) config.Templates {
	if t, ok := defaultTemplates[languageCode]; ok {
		return t
	}
	return config.Templates{Noun: "{w}."}
}

// TagStage resolves part-of-speech, entity type, and morphology for
// each word by tagging short synthetic context sentences, then applies
// the proper-noun/named-entity admission policy. Batches are tagged in
// one call; results are identical to per-word tagging.
type TagStage struct {
	tagger       nlp.Tagger
	languageCode string
	nounTpl      string
	verbTpl      string
	nerThreshold float64
	nerWhitelist map[string]struct{}
	freqs        *freq.Cache
}

// TagStageConfig collects the stage's dependencies.
type TagStageConfig struct {
	Tagger       nlp.Tagger
	LanguageCode string
	Templates    config.Templates
	NERThreshold float64
	NERWhitelist []string
	Frequencies  *freq.Cache
}

// NewTagStage builds the stage. Empty templates fall back to the
// built-in per-language defaults.
func NewTagStage(cfg TagStageConfig) *TagStage {
	tpl := cfg.Templates
	if tpl.Noun == "" {
		tpl = DefaultTemplates(cfg.LanguageCode)
	}
	whitelist := make(map[string]struct{}, len(cfg.NERWhitelist))
	for _, w := range cfg.NERWhitelist {
		whitelist[strings.ToLower(w)] = struct{}{}
	}
	return &TagStage{
		tagger:       cfg.Tagger,
		languageCode: cfg.LanguageCode,
		nounTpl:      tpl.Noun,
		verbTpl:      tpl.Verb,
		nerThreshold: cfg.NERThreshold,
		nerWhitelist: whitelist,
		freqs:        cfg.Frequencies,
	}
}

// Name implements Stage.
func (s *TagStage) Name() config.StageName { return config.StageNLP }

// Process implements Stage for single-word invocation.
func (s *TagStage) Process(c *Context) {
	s.ProcessBatch([]*Context{c})
}

// ProcessBatch implements BatchStage: one batched tagging call for the
// noun-context sentences, a second for the suspicious subset.
func (s *TagStage) ProcessBatch(cs []*Context) {
	if len(cs) == 0 {
		return
	}

	nounSentences := make([]string, len(cs))
	for i, c := range cs {
		nounSentences[i] = fill(s.nounTpl, c.Word)
	}
	nounDocs, err := s.tagger.TagSentences(nounSentences)
	if err != nil {
		for _, c := range cs {
			c.Filter(s.Name(), "failed_parse")
		}
		return
	}

	chosen := make([]*nlp.Token, len(cs))
	var recheck []int

	for i, c := range cs {
		tok := findTarget(nounDocs[i], c.Word)
		if tok == nil {
			continue
		}
		if s.suspicious(tok.POS, c.Word) && s.verbTpl != "" {
			chosen[i] = tok
			recheck = append(recheck, i)
		} else {
			chosen[i] = tok
		}
	}

	if len(recheck) > 0 && s.verbTpl != "" {
		verbSentences := make([]string, len(recheck))
		for j, i := range recheck {
			verbSentences[j] = fill(s.verbTpl, cs[i].Word)
		}
		verbDocs, err := s.tagger.TagSentences(verbSentences)
		if err == nil {
			for j, i := range recheck {
				tok1 := chosen[i]
				tok2 := findTarget(verbDocs[j], cs[i].Word)
				chosen[i] = disambiguate(tok1, tok2)
			}
		}
	}

	for i, c := range cs {
		s.apply(c, chosen[i])
	}
}

// fill inserts the word into a template's {w} slot.
func fill(template, word string) string {
	return strings.ReplaceAll(template, "{w}", word)
}

// findTarget locates the token matching the word case-insensitively,
// falling back to the fixed sentence position.
func findTarget(doc []nlp.Token, word string) *nlp.Token {
	lower := strings.ToLower(word)
	for i := range doc {
		if strings.ToLower(doc[i].Text) == lower {
			return &doc[i]
		}
	}
	if len(doc) > 2 {
		return &doc[2]
	}
	if len(doc) > 0 {
		return &doc[0]
	}
	return nil
}

// suspicious flags tags that contradict surface evidence: verb-tagged
// words that look like nouns, and adverb-tagged capitalized words.
func (s *TagStage) suspicious(pos, word string) bool {
	if (pos == "VERB" || pos == "AUX") && s.looksLikeNoun(word) {
		return true
	}
	return pos == "ADV" && isCapitalized(word)
}

// looksLikeNoun checks surface noun evidence: capitalization for
// German, otherwise a noun suffix that no verb suffix also matches.
func (s *TagStage) looksLikeNoun(word string) bool {
	if s.languageCode == "de" && isCapitalized(word) {
		return true
	}
	lower := strings.ToLower(word)
	for _, suffix := range nounSuffixes[s.languageCode] {
		if strings.HasSuffix(lower, suffix) {
			for _, vs := range verbSuffixes[s.languageCode] {
				if strings.HasSuffix(lower, vs) {
					return false
				}
			}
			return true
		}
	}
	return false
}

// disambiguate picks between the noun-context and verb-context results.
// Unmatched combinations keep the noun-context result.
func disambiguate(tok1, tok2 *nlp.Token) *nlp.Token {
	if tok2 == nil {
		return tok1
	}
	if isNounLike(tok1.POS) || tok2.POS == "VERB" || tok2.POS == "AUX" {
		return tok1
	}
	if isNounLike(tok2.POS) {
		return tok2
	}
	return tok1
}

func isNounLike(pos string) bool {
	return pos == "NOUN" || pos == "PROPN" || pos == "ADJ"
}

func isCapitalized(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

// apply writes the chosen token onto the context and enforces the
// entity admission policy.
func (s *TagStage) apply(c *Context, tok *nlp.Token) {
	if tok == nil {
		c.Filter(s.Name(), "failed_parse")
		return
	}

	c.POSTag = tok.POS
	c.Morphology = copyMorph(tok.Morph)
	c.Frequency = s.freqs.Frequency(c.Word)
	c.FrequencyKnown = true

	if _, ok := s.nerWhitelist[strings.ToLower(c.Word)]; ok {
		return
	}

	if c.POSTag == "PROPN" {
		// High-frequency PROPN tags are assumed mistagged and kept.
		if s.nerThreshold > 0 && c.Frequency < s.nerThreshold {
			c.Filter(s.Name(), "proper_noun")
		}
		return
	}

	if tok.EntType != "" && tok.EntType != "ORDINAL" && tok.EntType != "CARDINAL" &&
		s.nerThreshold > 0 && c.Frequency < s.nerThreshold {
		c.Filter(s.Name(), "named_entity:"+tok.EntType)
	}
}

func copyMorph(m map[string]string) map[string]string {
	if len(m) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
