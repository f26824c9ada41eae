package wordpipe

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/wordpipe/pkg/wordpipe/config"
	"github.com/cognicore/wordpipe/pkg/wordpipe/source"
	"github.com/cognicore/wordpipe/pkg/wordpipe/vocab"
)

// SourceFactory supplies the word source for one language run.
// fetchCount is the number of top-frequency candidates the run wants
// to consume; factories may return fewer.
type SourceFactory func(languageCode string, fetchCount int) (source.WordSource, error)

// CapabilityFactory supplies per-language backends for a generation
// run. A nil factory uses built-in backends everywhere.
type CapabilityFactory func(languageCode string) (Capabilities, error)

// GenerateOptions control a GenerateAll run.
type GenerateOptions struct {
	// Languages to process; empty means every configured language.
	Languages []string

	// Levels to emit; empty means every configured CEFR level except
	// a0, in proficiency order.
	Levels []string

	// Workers caps concurrent language runs; zero uses the
	// parallelization default from the configuration.
	Workers int

	// SurvivalRate estimates the fraction of fetched candidates that
	// survive filtering; zero means 0.35.
	SurvivalRate float64
}

// LevelSlice is one language×level cut of an admitted vocabulary.
type LevelSlice struct {
	Level       string
	TargetCount int
	Words       []vocab.Word
}

// LanguageResult is the outcome of one language's generation run.
// Levels are contiguous slices of the run's admitted words in
// frequency order, sized by each level's configured word count.
type LanguageResult struct {
	LanguageCode string
	Vocabulary   *vocab.Vocabulary
	Levels       []LevelSlice
	Err          error
}

var cefrOrder = []string{"a0", "a1", "a2", "b1", "b2", "c1", "c2"}

// GenerateAll runs one processing pass per language concurrently and
// slices each result into per-level vocabularies. Every language run
// owns its processor, dedup index, and caches; results are merged only
// after all workers finish. A per-language failure is reported in its
// LanguageResult and does not stop the other languages.
func GenerateAll(cfg *config.Config, sources SourceFactory, caps CapabilityFactory, opts GenerateOptions) ([]LanguageResult, error) {
	if sources == nil {
		return nil, fmt.Errorf("generate: nil source factory")
	}

	languages := opts.Languages
	if len(languages) == 0 {
		languages = cfg.SupportedLanguages()
		sort.Strings(languages)
	}

	levels := opts.Levels
	if len(levels) == 0 {
		for _, level := range cefrOrder {
			if level == "a0" {
				continue
			}
			if _, ok := cfg.CEFRLevels[level]; ok {
				levels = append(levels, level)
			}
		}
	}
	for _, level := range levels {
		if _, ok := cfg.CEFRLevels[level]; !ok {
			return nil, fmt.Errorf("generate: unknown CEFR level %q", level)
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = cfg.Parallelization.DefaultWorkers
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(languages) {
		workers = len(languages)
	}

	survival := opts.SurvivalRate
	if survival <= 0 {
		survival = 0.35
	}

	results := make([]LanguageResult, len(languages))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, code := range languages {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = generateLanguage(cfg, sources, caps, code, levels, survival)
		}(i, code)
	}
	wg.Wait()

	return results, nil
}

func generateLanguage(
	cfg *config.Config,
	sources SourceFactory,
	caps CapabilityFactory,
	code string,
	levels []string,
	survival float64,
) LanguageResult {
	result := LanguageResult{LanguageCode: code}

	capabilities := Capabilities{}
	if caps != nil {
		built, err := caps(code)
		if err != nil {
			result.Err = fmt.Errorf("capabilities for %s: %w", code, err)
			return result
		}
		capabilities = built
	}

	processor, err := NewProcessor(cfg, code, capabilities)
	if err != nil {
		result.Err = err
		return result
	}

	totalNeeded := 0
	for _, level := range levels {
		totalNeeded += cfg.CEFRLevels[level].Words
	}

	// Over-fetch to cover filtering losses; the buffer target inside
	// ProcessWords stops consumption early when it can.
	fetchCount := int(float64(totalNeeded) / survival * 1.5)

	src, err := sources(code, fetchCount)
	if err != nil {
		result.Err = fmt.Errorf("source for %s: %w", code, err)
		return result
	}

	opts := DefaultProcessOptions()
	opts.TargetCount = totalNeeded
	v, err := processor.ProcessWords(src, opts)
	if err != nil {
		result.Err = err
		return result
	}
	result.Vocabulary = v

	start := 0
	for _, level := range levels {
		count := cfg.CEFRLevels[level].Words
		end := start + count
		if end > len(v.Words) {
			end = len(v.Words)
		}
		var words []vocab.Word
		if start < len(v.Words) {
			words = v.Words[start:end]
		}
		result.Levels = append(result.Levels, LevelSlice{
			Level:       level,
			TargetCount: count,
			Words:       words,
		})
		start += count
	}

	return result
}
