package pipeline

import (
	"github.com/cognicore/wordpipe/pkg/wordpipe/config"
)

// CategorizeStage maps the universal POS tag to a study category. The
// first category whose tag set contains the tag wins; anything left
// over lands in "other".
type CategorizeStage struct {
	ordered []config.CategoryTags
}

func NewCategorizeStage(categories config.POSCategories) *CategorizeStage {
	return &CategorizeStage{ordered: categories.Ordered()}
}

// Name implements Stage.
func (s *CategorizeStage) Name() config.StageName { return config.StageCategorize }

// Process implements Stage.
func (s *CategorizeStage) Process(c *Context) {
	for _, cat := range s.ordered {
		for _, tag := range cat.Tags {
			if tag == c.POSTag {
				c.Category = cat.Name
				return
			}
		}
	}
	c.Category = "other"
}
