package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cognicore/wordpipe/pkg/wordpipe/config"
	"github.com/cognicore/wordpipe/pkg/wordpipe/freq"
)

// InflectionStage drops inflected forms whose base form already covers
// them: either the lemma is present in the caller's existing word set,
// or the word matches a configured inflection pattern that the lemma
// does not. Both checks require the inflected form to be rarer than the
// base form by the configured ratio.
type InflectionStage struct {
	exceptions map[string]struct{}
	patterns   []*regexp.Regexp
	ratio      float64
	existing   map[string]struct{}
	freqs      *freq.Cache
}

// InflectionStageConfig collects the stage's dependencies. Patterns
// must already be compiled case-insensitively.
type InflectionStageConfig struct {
	ExceptionWords []string
	Patterns       []*regexp.Regexp
	FrequencyRatio float64
	ExistingWords  []string
	Frequencies    *freq.Cache
}

func NewInflectionStage(cfg InflectionStageConfig) *InflectionStage {
	exceptions := make(map[string]struct{}, len(cfg.ExceptionWords))
	for _, w := range cfg.ExceptionWords {
		exceptions[strings.ToLower(w)] = struct{}{}
	}
	existing := make(map[string]struct{}, len(cfg.ExistingWords))
	for _, w := range cfg.ExistingWords {
		existing[strings.ToLower(w)] = struct{}{}
	}
	return &InflectionStage{
		exceptions: exceptions,
		patterns:   cfg.Patterns,
		ratio:      cfg.FrequencyRatio,
		existing:   existing,
		freqs:      cfg.Frequencies,
	}
}

// Name implements Stage.
func (s *InflectionStage) Name() config.StageName { return config.StageInflectionFilter }

// Process implements Stage.
func (s *InflectionStage) Process(c *Context) {
	word := strings.ToLower(c.Word)
	if _, ok := s.exceptions[word]; ok {
		return
	}
	if c.Lemma == "" || len(c.Morphology) == 0 {
		return
	}

	lemma := strings.ToLower(c.Lemma)
	if lemma != word {
		if _, ok := s.existing[lemma]; ok {
			if ratio, rarer := s.lemmaRatio(c, lemma); rarer {
				c.Filter(s.Name(), fmt.Sprintf("existing_lemma:%s:freq_ratio=%.2f", lemma, ratio))
				return
			}
		}
	}

	for _, re := range s.patterns {
		if re.MatchString(word) && !re.MatchString(lemma) {
			if ratio, rarer := s.lemmaRatio(c, lemma); rarer {
				c.Filter(s.Name(), fmt.Sprintf("pattern_match:%s:freq_ratio=%.2f", lemma, ratio))
			}
			return
		}
	}
}

// lemmaRatio reports the word/lemma frequency ratio and whether the
// word is rarer than the lemma by the configured margin.
func (s *InflectionStage) lemmaRatio(c *Context, lemma string) (float64, bool) {
	wordFreq := c.Frequency
	if !c.FrequencyKnown {
		wordFreq = s.freqs.Frequency(c.Word)
	}
	lemmaFreq := s.freqs.Frequency(lemma)
	if lemmaFreq <= 0 {
		return 0, false
	}
	return wordFreq / lemmaFreq, wordFreq < lemmaFreq*s.ratio
}
