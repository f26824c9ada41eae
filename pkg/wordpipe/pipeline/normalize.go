package pipeline

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/cognicore/wordpipe/pkg/wordpipe/config"
)

// Normalizer applies a language's surface normalization rules:
// lowercase/trim, unicode normalization, comma cutting, article
// stripping, hyphen and special-character removal, and optional
// diacritic stripping. Normalization is deterministic and idempotent.
type Normalizer struct {
	form           norm.Form
	stripDiacritic bool
	articles       []string
	removeHyphens  bool
	commaSeparator bool
	specialChars   []string
}

// NewNormalizer builds a Normalizer from validated config.
func NewNormalizer(cfg config.Normalization) *Normalizer {
	form := norm.NFC
	switch cfg.UnicodeForm {
	case "NFD":
		form = norm.NFD
	case "NFKC":
		form = norm.NFKC
	case "NFKD":
		form = norm.NFKD
	}

	articles := make([]string, 0, len(cfg.Articles))
	for _, a := range cfg.Articles {
		a = strings.TrimSpace(strings.ToLower(a))
		if a != "" {
			articles = append(articles, a)
		}
	}

	return &Normalizer{
		form:           form,
		stripDiacritic: !cfg.PreserveDiacritics,
		articles:       articles,
		removeHyphens:  cfg.RemoveHyphens,
		commaSeparator: cfg.CommaSeparator,
		specialChars:   cfg.SpecialChars,
	}
}

// Normalize returns the normalized form of word.
func (n *Normalizer) Normalize(word string) string {
	s := strings.ToLower(strings.TrimSpace(word))

	if n.commaSeparator {
		if i := strings.IndexRune(s, ','); i >= 0 {
			s = strings.TrimSpace(s[:i])
		}
	}

	// Strip to a fixed point so stacked article prefixes reduce the
	// same way whether they arrive in one pass or several.
	for stripped := true; stripped; {
		stripped = false
		for _, article := range n.articles {
			if rest, ok := strings.CutPrefix(s, article+" "); ok {
				s = strings.TrimSpace(rest)
				stripped = true
				break
			}
		}
	}

	if n.removeHyphens {
		s = strings.ReplaceAll(s, "-", "")
	}
	for _, ch := range n.specialChars {
		s = strings.ReplaceAll(s, ch, "")
	}

	if n.stripDiacritic {
		s = removeDiacritics(s)
	}

	return n.form.String(s)
}

// removeDiacritics decomposes, drops combining marks, and recomposes.
func removeDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeStage writes the normalized form onto the context.
type NormalizeStage struct {
	normalizer *Normalizer
}

// NewNormalizeStage wraps a Normalizer as a pipeline stage.
func NewNormalizeStage(n *Normalizer) *NormalizeStage {
	return &NormalizeStage{normalizer: n}
}

// Name implements Stage.
func (s *NormalizeStage) Name() config.StageName { return config.StageNormalize }

// Process implements Stage.
func (s *NormalizeStage) Process(c *Context) {
	c.Normalized = s.normalizer.Normalize(c.Word)
}
