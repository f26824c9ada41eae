package pipeline

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cognicore/wordpipe/pkg/wordpipe/config"
)

// Validator rejects words on length bounds, skip-list or blacklist
// membership, and configured exclusion patterns.
type Validator struct {
	minLength       int
	maxLength       int
	shortWhitelist  map[string]struct{}
	skipWords       map[string]struct{}
	blacklist       map[string]struct{}
	excludePatterns []*regexp.Regexp
}

// ValidatorConfig collects the validator's inputs after the config
// loader has flattened lists and resolved defaults.
type ValidatorConfig struct {
	MinWordLength      int
	MaxWordLength      int
	ShortWordWhitelist []string
	SkipWords          []string
	Blacklist          []string
	ExcludePatterns    []*regexp.Regexp
}

// NewValidator builds a Validator.
func NewValidator(cfg ValidatorConfig) *Validator {
	return &Validator{
		minLength:       cfg.MinWordLength,
		maxLength:       cfg.MaxWordLength,
		shortWhitelist:  toSet(cfg.ShortWordWhitelist),
		skipWords:       toSet(cfg.SkipWords),
		blacklist:       toSet(cfg.Blacklist),
		excludePatterns: cfg.ExcludePatterns,
	}
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

// Check returns the rejection reason for a normalized word, or "" when
// the word is acceptable.
func (v *Validator) Check(normalized string) string {
	length := utf8.RuneCountInString(normalized)

	if length < v.minLength {
		if _, ok := v.shortWhitelist[normalized]; !ok {
			return "too_short"
		}
	}
	if v.maxLength > 0 && length > v.maxLength {
		return "too_long"
	}
	if _, ok := v.skipWords[normalized]; ok {
		return "skip_word"
	}
	if _, ok := v.blacklist[normalized]; ok {
		return "blacklist"
	}
	for _, pattern := range v.excludePatterns {
		if pattern.MatchString(normalized) {
			return "excluded_pattern"
		}
	}
	return ""
}

// ValidateStage applies the Validator to each context.
type ValidateStage struct {
	validator *Validator
}

// NewValidateStage wraps a Validator as a pipeline stage.
func NewValidateStage(v *Validator) *ValidateStage {
	return &ValidateStage{validator: v}
}

// Name implements Stage.
func (s *ValidateStage) Name() config.StageName { return config.StageValidate }

// Process implements Stage.
func (s *ValidateStage) Process(c *Context) {
	if c.Normalized == "" {
		c.Filter(s.Name(), "no_normalized")
		return
	}
	if reason := s.validator.Check(c.Normalized); reason != "" {
		c.Filter(s.Name(), reason)
	}
}
