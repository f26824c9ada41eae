package pipeline

import (
	"fmt"

	"github.com/cognicore/wordpipe/pkg/wordpipe/config"
	"github.com/cognicore/wordpipe/pkg/wordpipe/internalerr"
)

// Deps holds every constructed stage a pipeline may use. Build wires
// them into execution order; stages absent from the requested order
// are simply not run.
type Deps struct {
	Normalize  *NormalizeStage
	Validate   *ValidateStage
	Lemmatize  *LemmatizeStage
	Foreign    *ForeignFilterStage
	Tag        *TagStage
	Inflection *InflectionStage
	Categorize *CategorizeStage
	Stats      *StatsStage
}

// Pipeline is a resolved stage order split around the batched tagging
// stage: Pre runs per word before tagging, Post runs per word after.
type Pipeline struct {
	Pre  []Stage
	Tag  *TagStage
	Post []Stage
}

// Build resolves a stage name order against the constructed stages.
// Unknown names are rejected; nil stages for requested names are an
// error so a misconfigured run fails loudly instead of silently
// skipping analysis.
func Build(order []config.StageName, deps Deps) (*Pipeline, error) {
	p := &Pipeline{}
	seenTag := false
	for _, name := range order {
		var st Stage
		switch name {
		case config.StageNormalize:
			st = deps.Normalize
		case config.StageValidate:
			st = deps.Validate
		case config.StageLemmatize:
			st = deps.Lemmatize
		case config.StageForeignFilter:
			st = deps.Foreign
		case config.StageNLP:
			if deps.Tag == nil {
				return nil, fmt.Errorf("%w: stage %q not constructed", internalerr.ErrInvalidConfig, name)
			}
			p.Tag = deps.Tag
			seenTag = true
			continue
		case config.StageInflectionFilter:
			st = deps.Inflection
		case config.StageCategorize:
			st = deps.Categorize
		case config.StageStats:
			st = deps.Stats
		default:
			return nil, fmt.Errorf("%w: unknown stage %q", internalerr.ErrInvalidConfig, name)
		}
		if st == nil || isNilStage(st) {
			return nil, fmt.Errorf("%w: stage %q not constructed", internalerr.ErrInvalidConfig, name)
		}
		if seenTag {
			p.Post = append(p.Post, st)
		} else {
			p.Pre = append(p.Pre, st)
		}
	}
	return p, nil
}

// isNilStage catches typed-nil stage pointers stored in the interface.
func isNilStage(s Stage) bool {
	switch v := s.(type) {
	case *NormalizeStage:
		return v == nil
	case *ValidateStage:
		return v == nil
	case *LemmatizeStage:
		return v == nil
	case *ForeignFilterStage:
		return v == nil
	case *InflectionStage:
		return v == nil
	case *CategorizeStage:
		return v == nil
	case *StatsStage:
		return v == nil
	}
	return false
}

// RunPre executes the pre-tagging stages for one word, stopping at the
// first rejection.
func (p *Pipeline) RunPre(c *Context) {
	for _, st := range p.Pre {
		st.Process(c)
		if c.ShouldFilter {
			return
		}
	}
}

// RunPost executes the post-tagging stages for one word. The stats
// stage still runs for already-rejected words so rejections are
// recorded; other stages are skipped once a word is rejected.
func (p *Pipeline) RunPost(c *Context) {
	for _, st := range p.Post {
		if c.ShouldFilter {
			if _, ok := st.(*StatsStage); !ok {
				continue
			}
		}
		st.Process(c)
	}
}
