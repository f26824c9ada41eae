package pipeline

import (
	"strings"

	"github.com/cognicore/wordpipe/pkg/wordpipe/config"
	"github.com/cognicore/wordpipe/pkg/wordpipe/freq"
)

// ForeignRule is one compiled foreign-language filter: a candidate is
// rejected when it is common in the foreign language, uncommon
// natively, and the zipf gap is wide enough.
type ForeignRule struct {
	Language       string
	Source         freq.Source
	MinForeignZipf float64
	MaxNativeZipf  float64
	MinZipfDelta   float64
}

// ForeignFilterStage rejects likely loanwords. The first matching rule
// wins; rules are never averaged.
type ForeignFilterStage struct {
	native freq.Source
	rules  []ForeignRule
}

// NewForeignFilterStage builds the stage. With no rules the stage is a
// no-op.
func NewForeignFilterStage(native freq.Source, rules []ForeignRule) *ForeignFilterStage {
	return &ForeignFilterStage{native: native, rules: rules}
}

// Name implements Stage.
func (s *ForeignFilterStage) Name() config.StageName { return config.StageForeignFilter }

// Process implements Stage.
func (s *ForeignFilterStage) Process(c *Context) {
	if len(s.rules) == 0 {
		return
	}

	candidate := c.Lemma
	if candidate == "" {
		candidate = c.Normalized
	}
	if candidate == "" {
		candidate = c.Word
	}
	candidate = strings.ToLower(candidate)
	if candidate == "" {
		return
	}

	var nativeZipf float64
	if s.native != nil {
		nativeZipf = s.native.Zipf(candidate)
	}

	for _, rule := range s.rules {
		foreignZipf := rule.Source.Zipf(candidate)
		if foreignZipf >= rule.MinForeignZipf &&
			nativeZipf <= rule.MaxNativeZipf &&
			foreignZipf-nativeZipf >= rule.MinZipfDelta {
			c.Filter(s.Name(), "foreign_language:"+rule.Language)
			return
		}
	}
}
