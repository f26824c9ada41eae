package wordpipe

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/cognicore/wordpipe/pkg/wordpipe/config"
	"github.com/cognicore/wordpipe/pkg/wordpipe/freq"
	"github.com/cognicore/wordpipe/pkg/wordpipe/internalerr"
	"github.com/cognicore/wordpipe/pkg/wordpipe/nlp"
	"github.com/cognicore/wordpipe/pkg/wordpipe/nlp/kagome"
	"github.com/cognicore/wordpipe/pkg/wordpipe/pipeline"
	"github.com/cognicore/wordpipe/pkg/wordpipe/plugin"
)

// Capabilities lets callers inject tagging, lemmatization, and
// frequency backends. Zero-value fields are filled from the language
// configuration and the built-in backends.
type Capabilities struct {
	// Tagger overrides backend selection entirely.
	Tagger nlp.Tagger

	// Registry supplies tagger backends tried in the order of the
	// language's taggers list. Nil uses the built-in registry.
	Registry *nlp.Registry

	// Lemmatizer overrides the configured lemmatizer chain.
	Lemmatizer nlp.Lemmatizer

	// Frequencies maps frequency-list codes to sources. The entry for
	// the language's own freq_code serves normalization-independent
	// lookups; additional entries back foreign-language filters.
	Frequencies map[string]freq.Source
}

// NewProcessor resolves the language's configuration into a ready
// Processor. Backend selection failures surface here, before any word
// is processed.
func NewProcessor(cfg *config.Config, languageCode string, caps Capabilities) (*Processor, error) {
	lang, err := cfg.Language(languageCode)
	if err != nil {
		return nil, err
	}

	tagger := caps.Tagger
	if tagger == nil {
		registry := caps.Registry
		if registry == nil {
			registry = DefaultRegistry(languageCode, lang)
		}
		tagger, err = registry.Load(lang.Taggers, true)
		if err != nil {
			return nil, fmt.Errorf("load tagger for %s: %w", languageCode, err)
		}
	}

	lemmatizer := caps.Lemmatizer
	if lemmatizer == nil {
		lemmatizer, err = buildLemmatizer(languageCode, lang)
		if err != nil {
			return nil, fmt.Errorf("build lemmatizer for %s: %w", languageCode, err)
		}
	}

	native := caps.Frequencies[lang.FreqCode]
	if native == nil {
		native = freq.NewTable(lang.FreqCode, nil, 0)
	}

	var foreignRules []pipeline.ForeignRule
	for _, f := range lang.Filtering.ForeignLanguageFilters {
		src, ok := caps.Frequencies[f.Language]
		if !ok {
			continue
		}
		foreignRules = append(foreignRules, pipeline.ForeignRule{
			Language:       f.Language,
			Source:         src,
			MinForeignZipf: f.MinForeignZipf,
			MaxNativeZipf:  f.MaxNativeZipf,
			MinZipfDelta:   f.MinZipfDelta,
		})
	}

	inflectionPatterns, err := compileInflectionPatterns(lang.InflectionPatterns)
	if err != nil {
		return nil, err
	}
	excludePatterns, err := compilePatterns(lang.Filtering.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	maxLen := lang.MaxWordLength
	if maxLen == 0 {
		maxLen = cfg.AnalysisDefaults.MaxWordLength
	}
	if maxLen == 0 {
		maxLen = 20
	}
	minLen := lang.Filtering.MinWordLength
	if minLen == 0 {
		minLen = 2
	}

	nerThreshold := cfg.AnalysisDefaults.NERFrequencyThreshold
	if lang.Filtering.NERFrequencyThreshold != nil {
		nerThreshold = *lang.Filtering.NERFrequencyThreshold
	}

	margin := cfg.AnalysisDefaults.DedupReplacementMargin
	if margin == 0 {
		margin = 1.2
	}

	return &Processor{
		cfg:          cfg,
		lang:         lang,
		languageCode: languageCode,
		tagger:       tagger,
		lemmatizer:   lemmatizer,
		native:       native,
		foreignRules: foreignRules,
		plugin:       plugin.ForLanguage(languageCode, lang),

		minWordLength:      minLen,
		maxWordLength:      maxLen,
		nerThreshold:       nerThreshold,
		dedupMargin:        margin,
		inflectionPatterns: inflectionPatterns,
		excludePatterns:    excludePatterns,
	}, nil
}

// DefaultRegistry registers the built-in tagger backends for a
// language: the heuristic rule tagger under "rule-<code>", kagome for
// Japanese, and the bare tokenizer.
func DefaultRegistry(languageCode string, lang config.Language) *nlp.Registry {
	r := nlp.NewRegistry()
	r.Register("rule-"+languageCode, func() (nlp.Tagger, error) {
		return ruleTaggerFor(languageCode, lang), nil
	})
	if languageCode == "ja" {
		r.Register("kagome-ipa", func() (nlp.Tagger, error) { return kagome.New() })
	}
	r.Register("tokenizer", func() (nlp.Tagger, error) { return nlp.NewSplitTagger(), nil })
	return r
}

// ruleTaggerFor derives suffix rules from the shared noun/verb suffix
// evidence so the heuristic backend agrees with the disambiguation
// tables.
func ruleTaggerFor(languageCode string, lang config.Language) *nlp.RuleTagger {
	var suffixes []nlp.SuffixRule
	for _, s := range pipeline.NounSuffixes(languageCode) {
		suffixes = append(suffixes, nlp.SuffixRule{Suffix: s, POS: "NOUN"})
	}
	for _, s := range pipeline.VerbSuffixes(languageCode) {
		suffixes = append(suffixes, nlp.SuffixRule{Suffix: s, POS: "VERB", Morph: map[string]string{"VerbForm": "Inf"}})
	}
	// Longer suffixes match first.
	sort.SliceStable(suffixes, func(i, j int) bool {
		return len(suffixes[i].Suffix) > len(suffixes[j].Suffix)
	})
	return nlp.NewRuleTagger(nlp.RuleTaggerConfig{
		Name:         "rule-" + languageCode,
		Suffixes:     suffixes,
		DefaultPOS:   "NOUN",
		ProperByCase: languageCode != "de",
	})
}

// buildLemmatizer chains the configured exception map, optional lemma
// dictionary file, fallback table, and a snowball stemmer when the
// language has one.
func buildLemmatizer(languageCode string, lang config.Language) (nlp.Lemmatizer, error) {
	var dict map[string]string
	if path := lang.Lemmatization.LemmaDictPath; path != "" {
		loaded, err := nlp.LoadLemmaDict(path)
		if err != nil {
			return nil, err
		}
		dict = loaded
	}

	chain := []nlp.Lemmatizer{
		nlp.NewDictLemmatizer(lang.Lemmatization.ExceptionsMap, dict, lang.Lemmatization.LemmaFallback),
	}
	if sb, err := nlp.NewSnowballLemmatizer(languageCode); err == nil {
		chain = append(chain, sb)
	}
	return nlp.NewChainLemmatizer(chain...), nil
}

func compileInflectionPatterns(groups map[string][]string) ([]*regexp.Regexp, error) {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []*regexp.Regexp
	for _, name := range names {
		for _, pattern := range groups[name] {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return nil, fmt.Errorf("%w: inflection pattern %s/%q: %v",
					internalerr.ErrInvalidConfig, name, pattern, err)
			}
			out = append(out, re)
		}
	}
	return out, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	var out []*regexp.Regexp
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: exclude pattern %q: %v", internalerr.ErrInvalidConfig, pattern, err)
		}
		out = append(out, re)
	}
	return out, nil
}
