// Package config holds the validated configuration document for the
// vocabulary pipeline: analysis defaults, CEFR level definitions, and
// per-language processing rules. Configuration is loaded once and is
// immutable afterwards; every cross-field constraint is checked at load
// time so an invalid document never reaches word processing.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/wordpipe/pkg/wordpipe/internalerr"
)

// StageName identifies a pipeline stage. The set is closed; unknown
// names fail validation at load time.
type StageName string

const (
	StageNormalize        StageName = "normalize"
	StageValidate         StageName = "validate"
	StageLemmatize        StageName = "lemmatize"
	StageForeignFilter    StageName = "foreign_filter"
	StageNLP              StageName = "nlp"
	StageInflectionFilter StageName = "inflection_filter"
	StageCategorize       StageName = "categorize"
	StageStats            StageName = "stats"
)

// DefaultPipeline is the stage order used when neither a per-run nor a
// per-language override is configured.
var DefaultPipeline = []StageName{
	StageNormalize,
	StageValidate,
	StageLemmatize,
	StageForeignFilter,
	StageNLP,
	StageInflectionFilter,
	StageCategorize,
	StageStats,
}

var knownStages = map[StageName]struct{}{
	StageNormalize:        {},
	StageValidate:         {},
	StageLemmatize:        {},
	StageForeignFilter:    {},
	StageNLP:              {},
	StageInflectionFilter: {},
	StageCategorize:       {},
	StageStats:            {},
}

// KnownStage reports whether name is a valid stage identifier.
func KnownStage(name StageName) bool {
	_, ok := knownStages[name]
	return ok
}

// Plugin identifiers form a closed set selected at load time.
const (
	PluginDefault = "default"
	PluginGerman  = "german"
)

var knownPlugins = map[string]struct{}{
	"":            {},
	PluginDefault: {},
	PluginGerman:  {},
}

// Parallelization controls the per-language fan-out.
type Parallelization struct {
	DefaultWorkers int `yaml:"default_workers"`
	BatchSize      int `yaml:"batch_size"`
}

// AnalysisDefaults are global thresholds a language config may override.
type AnalysisDefaults struct {
	MinWordLength          int         `yaml:"min_word_length"`
	MaxWordLength          int         `yaml:"max_word_length"`
	FrequencyThreshold     float64     `yaml:"frequency_threshold"`
	TopWordsCount          int         `yaml:"top_words_count"`
	NERFrequencyThreshold  float64     `yaml:"ner_frequency_threshold"`
	DedupReplacementMargin float64     `yaml:"dedup_frequency_replacement_margin"`
	MaxRank                int         `yaml:"max_rank"`
	FetchBufferMultiplier  float64     `yaml:"fetch_buffer_multiplier"`
	Pipeline               []StageName `yaml:"pipeline"`
}

// CEFRLevel describes one proficiency level's vocabulary slice.
type CEFRLevel struct {
	Words          int     `yaml:"words"`
	RankRange      []int   `yaml:"rank_range"`
	ZipfThreshold  float64 `yaml:"zipf_threshold"`
	CoverageTarget string  `yaml:"coverage_target"`
	Description    string  `yaml:"description"`
}

// Normalization holds the language's surface-form normalization rules.
type Normalization struct {
	UnicodeForm        string   `yaml:"unicode_normalization_form"`
	PreserveDiacritics bool     `yaml:"preserve_diacritics"`
	Articles           []string `yaml:"articles"`
	RemoveHyphens      bool     `yaml:"remove_hyphens"`
	CommaSeparator     bool     `yaml:"comma_separator"`
	SpecialChars       []string `yaml:"special_chars"`
}

// Morphology holds the tables the German plugin needs for
// singular/plural unification.
type Morphology struct {
	PluralSingularSuffixPairs [][]string        `yaml:"plural_singular_suffix_pairs"`
	UmlautPairs               map[string]string `yaml:"umlaut_pairs"`
	ReverseUmlauts            map[string]string `yaml:"reverse_umlauts"`
}

// InflectionExceptions lists surface forms the inflection filter must
// never suppress.
type InflectionExceptions struct {
	IrregularVerbs []string `yaml:"irregular_verbs"`
	KeepBoth       []string `yaml:"keep_both"`
	Reason         string   `yaml:"reason"`
}

// Words returns all exception words, lowercased.
func (e InflectionExceptions) Words() []string {
	out := make([]string, 0, len(e.IrregularVerbs)+len(e.KeepBoth))
	for _, w := range e.IrregularVerbs {
		out = append(out, strings.ToLower(w))
	}
	for _, w := range e.KeepBoth {
		out = append(out, strings.ToLower(w))
	}
	return out
}

// Lemmatization tunes the lemmatizer for one language.
type Lemmatization struct {
	ExceptionsMap  map[string]string `yaml:"exceptions_map"`
	ShortLemmas    []string          `yaml:"short_lemmas"`
	LemmaDictPath  string            `yaml:"lemma_dict"`
	LemmaFallback  map[string]string `yaml:"lemma_fallback"`
	ZipfDeltaLimit float64           `yaml:"word_zipf_delta_threshold"`
}

// Blacklist holds rejected words grouped by why they are rejected. The
// groups exist for curation; the validator flattens them at load time.
type Blacklist struct {
	Contractions    []string `yaml:"contractions"`
	Profanity       []string `yaml:"profanity"`
	Abbreviations   []string `yaml:"abbreviations"`
	Interjections   []string `yaml:"interjections"`
	Anglicisms      []string `yaml:"anglicisms"`
	Slang           []string `yaml:"slang"`
	ProperNouns     []string `yaml:"proper_nouns"`
	Technical       []string `yaml:"technical"`
	LemmaErrors     []string `yaml:"lemma_errors"`
	OCRErrors       []string `yaml:"ocr_errors"`
	VerbInflections []string `yaml:"verb_inflections"`
	TooShort        []string `yaml:"too_short"`
}

// Flatten returns every blacklisted word across all groups, lowercased.
func (b Blacklist) Flatten() []string {
	groups := [][]string{
		b.Contractions, b.Profanity, b.Abbreviations, b.Interjections,
		b.Anglicisms, b.Slang, b.ProperNouns, b.Technical,
		b.LemmaErrors, b.OCRErrors, b.VerbInflections, b.TooShort,
	}
	var out []string
	for _, g := range groups {
		for _, w := range g {
			out = append(out, strings.ToLower(w))
		}
	}
	return out
}

// ForeignLanguageFilter rejects candidates that are markedly more
// common in a foreign language than in the target language.
type ForeignLanguageFilter struct {
	Language       string  `yaml:"language"`
	MinForeignZipf float64 `yaml:"min_foreign_zipf"`
	MaxNativeZipf  float64 `yaml:"max_native_zipf"`
	MinZipfDelta   float64 `yaml:"min_zipf_delta"`
}

// Filtering holds per-language filter thresholds and lists.
type Filtering struct {
	MinWordLength            int                     `yaml:"min_word_length"`
	ShortWordWhitelist       []string                `yaml:"short_word_whitelist"`
	InflectionFrequencyRatio float64                 `yaml:"inflection_frequency_ratio"`
	NERFrequencyThreshold    *float64                `yaml:"ner_frequency_threshold"`
	NERWhitelist             []string                `yaml:"ner_whitelist"`
	ExcludePatterns          []string                `yaml:"exclude_patterns"`
	ForeignLanguageFilters   []ForeignLanguageFilter `yaml:"foreign_language_filters"`
	PipelineOverride         []StageName             `yaml:"pipeline_override"`
}

// POSCategories maps semantic vocabulary categories to the POS tags
// that fall into them. Order is fixed so categorization stays
// deterministic when a tag appears in more than one category.
type POSCategories struct {
	EssentialNouns      []string `yaml:"essential_nouns"`
	EssentialVerbs      []string `yaml:"essential_verbs"`
	EssentialAdjectives []string `yaml:"essential_adjectives"`
	FunctionWords       []string `yaml:"function_words"`
	Modifiers           []string `yaml:"modifiers"`
	Connectors          []string `yaml:"connectors"`
}

// CategoryTags is one named category with its POS tags.
type CategoryTags struct {
	Name string
	Tags []string
}

// Ordered returns the categories in their fixed resolution order.
func (p POSCategories) Ordered() []CategoryTags {
	return []CategoryTags{
		{Name: "essential_nouns", Tags: p.EssentialNouns},
		{Name: "essential_verbs", Tags: p.EssentialVerbs},
		{Name: "essential_adjectives", Tags: p.EssentialAdjectives},
		{Name: "function_words", Tags: p.FunctionWords},
		{Name: "modifiers", Tags: p.Modifiers},
		{Name: "connectors", Tags: p.Connectors},
	}
}

// Templates are the synthetic tagging sentences; {w} marks the word
// slot. Verb may be empty when the language has no verb-slot template.
type Templates struct {
	Noun string `yaml:"noun"`
	Verb string `yaml:"verb"`
}

// Language is the full configuration for one language.
type Language struct {
	Name          string   `yaml:"name"`
	FreqCode      string   `yaml:"freq_code"`
	Taggers       []string `yaml:"taggers"`
	MaxWordLength int      `yaml:"max_word_length"`
	Plugin        string   `yaml:"plugin"`

	Normalization        Normalization        `yaml:"normalization"`
	Templates            Templates            `yaml:"templates"`
	Morphology           *Morphology          `yaml:"morphology"`
	InflectionPatterns   map[string][]string  `yaml:"inflection_patterns"`
	InflectionExceptions InflectionExceptions `yaml:"inflection_exceptions"`
	Lemmatization        Lemmatization        `yaml:"lemmatization"`
	SkipWords            []string             `yaml:"skip_words"`
	Blacklist            Blacklist            `yaml:"blacklist"`
	Filtering            Filtering            `yaml:"filtering"`
	POSCategories        POSCategories        `yaml:"pos_categories"`
}

// Config is the root configuration document.
type Config struct {
	Parallelization      Parallelization      `yaml:"parallelization"`
	AnalysisDefaults     AnalysisDefaults     `yaml:"analysis_defaults"`
	CEFRLevels           map[string]CEFRLevel `yaml:"cefr_levels"`
	CEFRCumulativeTotals map[string]int       `yaml:"cefr_cumulative_totals"`
	Languages            map[string]Language  `yaml:"languages"`
}

// Load reads and validates a configuration file. An invalid document
// returns an error describing the first violated constraint.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", internalerr.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks every range and cross-field constraint.
func (c *Config) Validate() error {
	if c.Parallelization.DefaultWorkers < 0 || c.Parallelization.DefaultWorkers > 64 {
		return invalidf("parallelization.default_workers must be in [0, 64], got %d", c.Parallelization.DefaultWorkers)
	}
	if c.Parallelization.BatchSize != 0 && (c.Parallelization.BatchSize < 100 || c.Parallelization.BatchSize > 10000) {
		return invalidf("parallelization.batch_size must be in [100, 10000], got %d", c.Parallelization.BatchSize)
	}

	if err := c.AnalysisDefaults.validate(); err != nil {
		return err
	}
	if err := c.validateCEFR(); err != nil {
		return err
	}

	if len(c.Languages) == 0 {
		return invalidf("at least one language must be configured")
	}
	for code, lang := range c.Languages {
		if err := lang.validate(code); err != nil {
			return err
		}
	}
	return nil
}

func (d AnalysisDefaults) validate() error {
	if d.MinWordLength < 1 || d.MinWordLength > 10 {
		return invalidf("analysis_defaults.min_word_length must be in [1, 10], got %d", d.MinWordLength)
	}
	if d.MaxWordLength < 5 || d.MaxWordLength > 100 {
		return invalidf("analysis_defaults.max_word_length must be in [5, 100], got %d", d.MaxWordLength)
	}
	if d.FrequencyThreshold <= 0 {
		return invalidf("analysis_defaults.frequency_threshold must be positive, got %g", d.FrequencyThreshold)
	}
	if d.TopWordsCount < 100 {
		return invalidf("analysis_defaults.top_words_count must be at least 100, got %d", d.TopWordsCount)
	}
	if d.NERFrequencyThreshold < 0 || d.NERFrequencyThreshold > 1 {
		return invalidf("analysis_defaults.ner_frequency_threshold must be in [0, 1], got %g", d.NERFrequencyThreshold)
	}
	if d.DedupReplacementMargin != 0 && (d.DedupReplacementMargin < 1 || d.DedupReplacementMargin > 10) {
		return invalidf("analysis_defaults.dedup_frequency_replacement_margin must be in [1, 10], got %g", d.DedupReplacementMargin)
	}
	if d.MaxRank != 0 && d.MaxRank < 1000 {
		return invalidf("analysis_defaults.max_rank must be at least 1000, got %d", d.MaxRank)
	}
	if d.FetchBufferMultiplier != 0 && (d.FetchBufferMultiplier < 1 || d.FetchBufferMultiplier > 10) {
		return invalidf("analysis_defaults.fetch_buffer_multiplier must be in [1, 10], got %g", d.FetchBufferMultiplier)
	}
	if err := validateStages("analysis_defaults.pipeline", d.Pipeline); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCEFR() error {
	required := []string{"a1", "a2", "b1", "b2"}
	for _, level := range required {
		if _, ok := c.CEFRLevels[level]; !ok {
			return invalidf("missing required CEFR level %q", level)
		}
		if _, ok := c.CEFRCumulativeTotals[level]; !ok {
			return invalidf("missing required CEFR cumulative total %q", level)
		}
	}

	for name, level := range c.CEFRLevels {
		if level.Words < 0 {
			return invalidf("cefr_levels.%s.words must be non-negative, got %d", name, level.Words)
		}
		if len(level.RankRange) != 2 {
			return invalidf("cefr_levels.%s.rank_range must have exactly two entries", name)
		}
		if level.RankRange[0] >= level.RankRange[1] {
			return invalidf("cefr_levels.%s.rank_range start must be less than end", name)
		}
		if level.ZipfThreshold < 0 || level.ZipfThreshold > 10 {
			return invalidf("cefr_levels.%s.zipf_threshold must be in [0, 10], got %g", name, level.ZipfThreshold)
		}
	}

	for name, count := range c.CEFRCumulativeTotals {
		if count < 0 {
			return invalidf("cefr_cumulative_totals.%s must be non-negative, got %d", name, count)
		}
	}
	standardOrder := []string{"a0", "a1", "a2", "b1", "b2", "c1", "c2"}
	prev := -1
	for _, level := range standardOrder {
		count, ok := c.CEFRCumulativeTotals[level]
		if !ok {
			continue
		}
		if count < prev {
			return invalidf("cefr_cumulative_totals must be non-decreasing: %s=%d < previous=%d", level, count, prev)
		}
		prev = count
	}
	return nil
}

func (l Language) validate(code string) error {
	if l.Name == "" {
		return invalidf("languages.%s.name is required", code)
	}
	if l.FreqCode == "" || l.FreqCode != strings.ToLower(l.FreqCode) {
		return invalidf("languages.%s.freq_code must be a lowercase language code", code)
	}
	if len(l.Taggers) == 0 {
		return invalidf("languages.%s.taggers must list at least one tagger backend", code)
	}
	if l.MaxWordLength != 0 && (l.MaxWordLength < 5 || l.MaxWordLength > 100) {
		return invalidf("languages.%s.max_word_length must be in [5, 100], got %d", code, l.MaxWordLength)
	}
	if _, ok := knownPlugins[l.Plugin]; !ok {
		return invalidf("languages.%s.plugin %q is not a known plugin", code, l.Plugin)
	}

	switch l.Normalization.UnicodeForm {
	case "NFC", "NFD", "NFKC", "NFKD":
	default:
		return invalidf("languages.%s.normalization.unicode_normalization_form must be one of NFC, NFD, NFKC, NFKD", code)
	}

	if l.Morphology != nil {
		for i, pair := range l.Morphology.PluralSingularSuffixPairs {
			if len(pair) != 2 {
				return invalidf("languages.%s.morphology.plural_singular_suffix_pairs[%d] must be a [plural, singular] pair", code, i)
			}
		}
	}

	for group, patterns := range l.InflectionPatterns {
		for _, pattern := range patterns {
			if _, err := regexp.Compile("(?i)" + pattern); err != nil {
				return invalidf("languages.%s.inflection_patterns.%s: invalid pattern %q: %v", code, group, pattern, err)
			}
		}
	}
	for _, pattern := range l.Filtering.ExcludePatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return invalidf("languages.%s.filtering.exclude_patterns: invalid pattern %q: %v", code, pattern, err)
		}
	}

	f := l.Filtering
	if f.MinWordLength < 0 || f.MinWordLength > 10 {
		return invalidf("languages.%s.filtering.min_word_length must be in [0, 10], got %d", code, f.MinWordLength)
	}
	if f.InflectionFrequencyRatio < 0 || f.InflectionFrequencyRatio > 1 {
		return invalidf("languages.%s.filtering.inflection_frequency_ratio must be in [0, 1], got %g", code, f.InflectionFrequencyRatio)
	}
	if f.NERFrequencyThreshold != nil && (*f.NERFrequencyThreshold < 0 || *f.NERFrequencyThreshold > 1) {
		return invalidf("languages.%s.filtering.ner_frequency_threshold must be in [0, 1], got %g", code, *f.NERFrequencyThreshold)
	}
	for i, ff := range f.ForeignLanguageFilters {
		if ff.Language == "" {
			return invalidf("languages.%s.filtering.foreign_language_filters[%d].language is required", code, i)
		}
		for name, v := range map[string]float64{
			"min_foreign_zipf": ff.MinForeignZipf,
			"max_native_zipf":  ff.MaxNativeZipf,
			"min_zipf_delta":   ff.MinZipfDelta,
		} {
			if v < 0 || v > 10 {
				return invalidf("languages.%s.filtering.foreign_language_filters[%d].%s must be in [0, 10], got %g", code, i, name, v)
			}
		}
	}
	if err := validateStages(fmt.Sprintf("languages.%s.filtering.pipeline_override", code), f.PipelineOverride); err != nil {
		return err
	}

	if (l.Templates.Noun != "" || l.Templates.Verb != "") &&
		!strings.Contains(l.Templates.Noun+l.Templates.Verb, "{w}") {
		return invalidf("languages.%s.templates must contain the {w} word slot", code)
	}

	return nil
}

func validateStages(field string, stages []StageName) error {
	var invalid []string
	for _, s := range stages {
		if !KnownStage(s) {
			invalid = append(invalid, string(s))
		}
	}
	if len(invalid) > 0 {
		return invalidf("%s: invalid pipeline stage(s): %s", field, strings.Join(invalid, ", "))
	}
	return nil
}

// Language returns the configuration for code.
func (c *Config) Language(code string) (Language, error) {
	lang, ok := c.Languages[code]
	if !ok {
		return Language{}, fmt.Errorf("%w: %q", internalerr.ErrUnknownLanguage, code)
	}
	return lang, nil
}

// SupportedLanguages lists configured language codes.
func (c *Config) SupportedLanguages() []string {
	out := make([]string, 0, len(c.Languages))
	for code := range c.Languages {
		out = append(out, code)
	}
	return out
}

// CumulativeTotal returns the cumulative word total for a CEFR level,
// defaulting to 1500 when the level is not configured.
func (c *Config) CumulativeTotal(level string) int {
	if count, ok := c.CEFRCumulativeTotals[strings.ToLower(level)]; ok {
		return count
	}
	return 1500
}

// ResolvePipeline picks the stage order for a run: the per-run override
// wins, then the language override, then the analysis defaults, then
// the built-in default.
func (c *Config) ResolvePipeline(lang Language, runOverride []StageName) []StageName {
	if len(runOverride) > 0 {
		return runOverride
	}
	if len(lang.Filtering.PipelineOverride) > 0 {
		return lang.Filtering.PipelineOverride
	}
	if len(c.AnalysisDefaults.Pipeline) > 0 {
		return c.AnalysisDefaults.Pipeline
	}
	return DefaultPipeline
}
