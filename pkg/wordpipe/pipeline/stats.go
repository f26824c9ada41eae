package pipeline

import (
	"github.com/cognicore/wordpipe/pkg/wordpipe/config"
	"github.com/cognicore/wordpipe/pkg/wordpipe/vocab"
)

// StatsStage records filtered words into a Stats collector. It is a
// terminal observer: it never filters and never mutates analysis
// fields, so its position after the other stages sees every rejection
// made earlier in the run.
type StatsStage struct {
	stats *vocab.Stats
}

func NewStatsStage(stats *vocab.Stats) *StatsStage {
	return &StatsStage{stats: stats}
}

// Name implements Stage.
func (s *StatsStage) Name() config.StageName { return config.StageStats }

// Process implements Stage.
func (s *StatsStage) Process(c *Context) {
	if s.stats == nil || !c.ShouldFilter {
		return
	}
	s.stats.AddFiltered(c.Word, string(c.FilterStage), c.FilterReason)
}
