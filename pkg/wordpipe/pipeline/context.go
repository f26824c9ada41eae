// Package pipeline implements the word-processing stages: each
// candidate word flows through a configured stage order carried by a
// Context, short-circuiting at the first stage that filters it.
package pipeline

import (
	"github.com/cognicore/wordpipe/pkg/wordpipe/config"
)

// Context is the per-word record threaded through one pipeline run. It
// is owned by that run; Word is fixed at creation and the filter fields
// are set at most once.
type Context struct {
	Word     string
	Metadata map[string]any

	Normalized string
	Lemma      string
	POSTag     string
	Morphology map[string]string
	Category   string

	// Frequency is unresolved until the tagging stage runs;
	// FrequencyKnown separates "zero" from "never looked up".
	Frequency      float64
	FrequencyKnown bool

	ShouldFilter bool
	FilterStage  string
	FilterReason string
}

// NewContext creates a Context for one candidate word.
func NewContext(word string, metadata map[string]any) *Context {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Context{Word: word, Metadata: metadata}
}

// Filter marks the context rejected. The first call wins; later calls
// are ignored so no stage can overwrite another's decision.
func (c *Context) Filter(stage config.StageName, reason string) {
	if c.ShouldFilter {
		return
	}
	c.ShouldFilter = true
	c.FilterStage = string(stage)
	c.FilterReason = reason
}

// Rank returns the source rank from metadata, 0 when absent.
func (c *Context) Rank() int {
	if r, ok := c.Metadata["rank"].(int); ok {
		return r
	}
	return 0
}

// Stage consumes and mutates a Context. Stages must not touch a
// context that is already filtered; the runner short-circuits before
// calling them.
type Stage interface {
	Name() config.StageName
	Process(c *Context)
}

// BatchStage additionally supports processing a group of contexts in
// one call. Batch results must match sequential per-word results; the
// batching exists only for throughput.
type BatchStage interface {
	Stage
	ProcessBatch(cs []*Context)
}
