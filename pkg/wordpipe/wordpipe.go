// Package wordpipe turns raw word-frequency lists into curated,
// deduplicated vocabularies: candidate words flow through a staged
// classifier (normalization, validation, lemmatization, tagging,
// inflection and entity filtering) and a canonicalizing dedup index
// that admits at most one entry per lemma.
package wordpipe

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/cognicore/wordpipe/pkg/wordpipe/config"
	"github.com/cognicore/wordpipe/pkg/wordpipe/dedup"
	"github.com/cognicore/wordpipe/pkg/wordpipe/freq"
	"github.com/cognicore/wordpipe/pkg/wordpipe/nlp"
	"github.com/cognicore/wordpipe/pkg/wordpipe/pipeline"
	"github.com/cognicore/wordpipe/pkg/wordpipe/plugin"
	"github.com/cognicore/wordpipe/pkg/wordpipe/source"
	"github.com/cognicore/wordpipe/pkg/wordpipe/vocab"
)

// Processor runs the vocabulary pipeline for one language. It holds
// only immutable configuration and backends; every ProcessWords call
// owns its own mutable state, so a Processor is safe to reuse but a
// single call is strictly sequential.
type Processor struct {
	cfg          *config.Config
	lang         config.Language
	languageCode string
	tagger       nlp.Tagger
	lemmatizer   nlp.Lemmatizer
	native       freq.Source
	foreignRules []pipeline.ForeignRule
	plugin       plugin.Plugin

	minWordLength      int
	maxWordLength      int
	nerThreshold       float64
	dedupMargin        float64
	inflectionPatterns []*regexp.Regexp
	excludePatterns    []*regexp.Regexp
}

// LanguageCode returns the code the processor was built for.
func (p *Processor) LanguageCode() string { return p.languageCode }

// ProcessOptions control one ProcessWords run.
type ProcessOptions struct {
	// ExistingWords are lemmas already known to the caller; inflected
	// forms of these are dropped when FilterInflections is set.
	ExistingWords []string

	// FilterInflections enables the inflection filter stage's checks.
	FilterInflections bool

	// TargetCount caps the admitted result; zero means unbounded.
	TargetCount int

	// CollectStats retains per-reason counters and rejected words.
	CollectStats bool

	// StrictLemmaOnly rejects any word whose lowercased surface form
	// differs from its lemma.
	StrictLemmaOnly bool

	// BatchSize is the tagging batch size; zero means 1000.
	BatchSize int

	// PipelineOverride replaces the configured stage order for this
	// run only.
	PipelineOverride []config.StageName
}

// DefaultProcessOptions returns the options used by the CLIs.
func DefaultProcessOptions() ProcessOptions {
	return ProcessOptions{
		FilterInflections: true,
		CollectStats:      true,
		BatchSize:         1000,
	}
}

// ProcessWords consumes the source lazily in batches until it is
// exhausted or enough admissions accumulated to cover TargetCount plus
// dedup losses. Every source item ends up either admitted or filtered;
// per-word failures never abort the run.
func (p *Processor) ProcessWords(src source.WordSource, opts ProcessOptions) (*vocab.Vocabulary, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}

	var stats *vocab.Stats
	if opts.CollectStats {
		stats = vocab.NewStats(10)
	}

	// The frequency cache lives exactly as long as this run.
	cache := freq.NewCache(p.native, 0)

	pl, err := p.buildPipeline(cache, opts, stats)
	if err != nil {
		return nil, err
	}
	engine := dedup.NewEngine(p.dedupMargin, p.plugin, stats)

	var filteredWords []vocab.FilteredWord
	totalAnalyzed := 0
	filteredCount := 0

	bufferTarget := 0
	if opts.TargetCount > 0 {
		bufferTarget = int(math.Ceil(float64(opts.TargetCount) * 1.2))
	}

	next := src.Words()
	exhausted := false

	for !exhausted {
		if bufferTarget > 0 && len(engine.Words()) >= bufferTarget {
			break
		}

		batch := make([]*pipeline.Context, 0, opts.BatchSize)
		for len(batch) < opts.BatchSize {
			entry, ok := next()
			if !ok {
				exhausted = true
				break
			}
			totalAnalyzed++

			c := pipeline.NewContext(entry.Text, entry.Metadata)
			pl.RunPre(c)
			if c.ShouldFilter {
				filteredCount++
				if stats != nil {
					stats.AddFiltered(c.Word, string(c.FilterStage), c.FilterReason)
				}
				if opts.CollectStats {
					filteredWords = append(filteredWords, filteredWordFrom(c))
				}
				continue
			}
			batch = append(batch, c)
		}
		if len(batch) == 0 {
			continue
		}

		if pl.Tag != nil {
			pl.Tag.ProcessBatch(batch)
		}

		for _, c := range batch {
			pl.RunPost(c)
			if c.ShouldFilter {
				filteredCount++
				if opts.CollectStats {
					filteredWords = append(filteredWords, filteredWordFrom(c))
				}
				continue
			}

			if opts.StrictLemmaOnly && strings.ToLower(c.Word) != c.Lemma {
				filteredCount++
				reason := "inflection:" + c.Lemma
				if stats != nil {
					stats.AddFiltered(c.Word, "strict_mode", reason)
				}
				if opts.CollectStats {
					fw := filteredWordFrom(c)
					fw.FilterStage = "strict_mode"
					fw.FilterReason = reason
					filteredWords = append(filteredWords, fw)
				}
				continue
			}

			engine.Admit(p.toWord(c))
		}
	}

	filteredCount += engine.FilteredCount()

	if opts.TargetCount > 0 {
		engine.Truncate(opts.TargetCount)
	}

	words := engine.Words()
	if stats != nil {
		stats.TotalAnalyzed = totalAnalyzed
		stats.TotalFiltered = filteredCount
	}

	return &vocab.Vocabulary{
		LanguageCode:  p.languageCode,
		Words:         words,
		Categories:    engine.Categories(),
		TotalWords:    len(words),
		FilteredCount: filteredCount,
		Stats:         stats,
		FilteredWords: filteredWords,
	}, nil
}

// buildPipeline wires stages to this run's cache, options, and stats
// collector, then resolves the stage order.
func (p *Processor) buildPipeline(cache *freq.Cache, opts ProcessOptions, stats *vocab.Stats) (*pipeline.Pipeline, error) {
	validator := pipeline.NewValidator(pipeline.ValidatorConfig{
		MinWordLength:      p.minWordLength,
		MaxWordLength:      p.maxWordLength,
		ShortWordWhitelist: p.lang.Filtering.ShortWordWhitelist,
		SkipWords:          p.lang.SkipWords,
		Blacklist:          p.lang.Blacklist.Flatten(),
		ExcludePatterns:    p.excludePatterns,
	})

	inflectionCfg := pipeline.InflectionStageConfig{
		ExceptionWords: p.lang.InflectionExceptions.Words(),
		FrequencyRatio: p.lang.Filtering.InflectionFrequencyRatio,
		Frequencies:    cache,
	}
	if opts.FilterInflections {
		inflectionCfg.Patterns = p.inflectionPatterns
		inflectionCfg.ExistingWords = opts.ExistingWords
	}

	deps := pipeline.Deps{
		Normalize: pipeline.NewNormalizeStage(pipeline.NewNormalizer(p.lang.Normalization)),
		Validate:  pipeline.NewValidateStage(validator),
		Lemmatize: pipeline.NewLemmatizeStage(p.lemmatizer),
		Foreign:   pipeline.NewForeignFilterStage(p.native, p.foreignRules),
		Tag: pipeline.NewTagStage(pipeline.TagStageConfig{
			Tagger:       p.tagger,
			LanguageCode: p.languageCode,
			Templates:    p.lang.Templates,
			NERThreshold: p.nerThreshold,
			NERWhitelist: p.lang.Filtering.NERWhitelist,
			Frequencies:  cache,
		}),
		Inflection: pipeline.NewInflectionStage(inflectionCfg),
		Categorize: pipeline.NewCategorizeStage(p.lang.POSCategories),
		Stats:      pipeline.NewStatsStage(stats),
	}

	order := p.cfg.ResolvePipeline(p.lang, opts.PipelineOverride)
	return pipeline.Build(order, deps)
}

// toWord converts a surviving context into an admitted entry, applying
// German noun capitalization and the human-readable admission reason.
func (p *Processor) toWord(c *pipeline.Context) vocab.Word {
	word, lemma := p.capitalizeGermanNoun(c.Word, c.Lemma, c.POSTag)
	return vocab.Word{
		Word:       word,
		Lemma:      lemma,
		POSTag:     c.POSTag,
		Category:   c.Category,
		Frequency:  c.Frequency,
		Rank:       c.Rank(),
		Morphology: c.Morphology,
		Reason:     admissionReason(c.Rank(), c.POSTag, c.Morphology),
		Metadata:   c.Metadata,
	}
}

// capitalizeGermanNoun uppercases the first letter of admitted German
// nouns. Hyphenated, digit-bearing, and all-caps forms pass through
// unchanged.
func (p *Processor) capitalizeGermanNoun(word, lemma, posTag string) (string, string) {
	if p.languageCode != "de" || word == "" {
		return word, lemma
	}
	if strings.ContainsRune(word, '-') || strings.ContainsFunc(word, unicode.IsDigit) {
		return word, lemma
	}
	if word == strings.ToUpper(word) {
		return word, lemma
	}

	capitalize := posTag == "NOUN" || posTag == "PROPN"
	if !capitalize {
		lower := strings.ToLower(word)
		for _, s := range pipeline.NounSuffixes("de") {
			if strings.HasSuffix(lower, s) {
				capitalize = true
				break
			}
		}
	}
	if !capitalize {
		return word, lemma
	}
	return capitalizeFirst(word), capitalizeFirst(lemma)
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

var posDescriptions = map[string]string{
	"NOUN":  "noun",
	"PROPN": "proper noun",
	"VERB":  "verb",
	"AUX":   "auxiliary verb",
	"ADJ":   "adjective",
	"ADV":   "adverb",
	"PRON":  "pronoun",
	"DET":   "determiner",
	"ADP":   "preposition",
	"NUM":   "numeral",
	"CCONJ": "conjunction",
	"SCONJ": "conjunction",
	"PART":  "particle",
	"INTJ":  "interjection",
}

// admissionReason renders the human-readable explanation stored with
// each admitted word.
func admissionReason(rank int, posTag string, morphology map[string]string) string {
	var parts []string
	if rank > 0 {
		parts = append(parts, "Top "+strconv.Itoa(rank)+" word")
	}
	if desc := morphology["Description"]; desc != "" {
		parts = append(parts, "classified as "+desc)
	} else {
		desc := posDescriptions[posTag]
		if desc == "" {
			desc = strings.ToLower(posTag)
		}
		parts = append(parts, "classified as "+desc)
	}
	if morphology["Marked"] == "yes" {
		parts = append(parts, "marked form")
	}
	return strings.Join(parts, "; ")
}

func filteredWordFrom(c *pipeline.Context) vocab.FilteredWord {
	return vocab.FilteredWord{
		Word:         c.Word,
		Lemma:        c.Lemma,
		POSTag:       c.POSTag,
		Frequency:    c.Frequency,
		Rank:         c.Rank(),
		FilterStage:  string(c.FilterStage),
		FilterReason: c.FilterReason,
	}
}
