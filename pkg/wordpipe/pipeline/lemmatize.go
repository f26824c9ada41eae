package pipeline

import (
	"github.com/cognicore/wordpipe/pkg/wordpipe/config"
	"github.com/cognicore/wordpipe/pkg/wordpipe/nlp"
)

// LemmatizeStage resolves each word's lemma through the lemmatization
// capability. The lemma is stored even when a later stage rejects the
// word; the inflection filter depends on it.
type LemmatizeStage struct {
	lemmatizer nlp.Lemmatizer
}

// NewLemmatizeStage wraps a lemmatizer as a pipeline stage.
func NewLemmatizeStage(l nlp.Lemmatizer) *LemmatizeStage {
	return &LemmatizeStage{lemmatizer: l}
}

// Name implements Stage.
func (s *LemmatizeStage) Name() config.StageName { return config.StageLemmatize }

// Process implements Stage. A failed or empty lemmatization rejects the
// word; it never aborts the run.
func (s *LemmatizeStage) Process(c *Context) {
	lemma, err := s.lemmatizer.Lemmatize(c.Word)
	if err != nil {
		c.Filter(s.Name(), "lemmatization_failed")
		return
	}
	if lemma == "" {
		c.Filter(s.Name(), "empty_lemma")
		return
	}
	c.Lemma = lemma
}
