// Package nlp defines the external language-analysis capabilities the
// pipeline consumes: sentence tagging (part-of-speech, named-entity
// type, morphological features) and single-word lemmatization. Backends
// are selected through a registry with a prioritized fallback list.
package nlp

import (
	"fmt"
	"strings"

	"github.com/cognicore/wordpipe/pkg/wordpipe/internalerr"
)

// Token is one tagged token of a sentence. POS uses coarse UPOS-style
// tags (NOUN, VERB, ADJ, ADV, PROPN, AUX, DET, X, ...). EntType is the
// named-entity type or empty.
type Token struct {
	Text    string
	POS     string
	EntType string
	Morph   map[string]string
}

// Tagger tags whole sentences. TagSentences must treat every sentence
// independently: tagging a batch yields the same per-sentence result as
// tagging each sentence alone.
type Tagger interface {
	Name() string
	TagSentences(sentences []string) ([][]Token, error)
}

// Lemmatizer maps a single word to its dictionary form. Lemmatizing an
// already-lemmatized word returns it unchanged.
type Lemmatizer interface {
	Lemmatize(word string) (string, error)
}

// TaggerFactory constructs a tagger backend, failing when the backend's
// resources (models, dictionaries) are unavailable.
type TaggerFactory func() (Tagger, error)

// Registry holds named tagger factories.
type Registry struct {
	factories map[string]TaggerFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]TaggerFactory)}
}

// Register adds a factory under name, replacing any previous one.
func (r *Registry) Register(name string, f TaggerFactory) {
	r.factories[name] = f
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// Load tries each preference in order and returns the first tagger that
// constructs successfully. When every preference fails and fallback is
// true, a tokenizer-only tagger is returned; otherwise the error names
// every attempted option.
func (r *Registry) Load(preferences []string, fallback bool) (Tagger, error) {
	var attempts []string
	for _, name := range preferences {
		factory, ok := r.factories[name]
		if !ok {
			attempts = append(attempts, name+" (not registered)")
			continue
		}
		tagger, err := factory()
		if err != nil {
			attempts = append(attempts, fmt.Sprintf("%s (%v)", name, err))
			continue
		}
		return tagger, nil
	}

	if fallback {
		return NewSplitTagger(), nil
	}
	return nil, fmt.Errorf("%w: tried %s",
		internalerr.ErrTaggerUnavailable, strings.Join(attempts, ", "))
}
