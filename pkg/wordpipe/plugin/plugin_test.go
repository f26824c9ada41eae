package plugin

import (
	"testing"

	"github.com/cognicore/wordpipe/pkg/wordpipe/config"
	"github.com/cognicore/wordpipe/pkg/wordpipe/vocab"
)

func germanMorphology() config.Morphology {
	return config.Morphology{
		PluralSingularSuffixPairs: [][]string{
			{"n", ""},
			{"en", ""},
			{"e", ""},
			{"er", ""},
			{"s", ""},
		},
		UmlautPairs: map[string]string{"ä": "a", "ö": "o", "ü": "u"},
	}
}

func seenWith(lemmas ...string) map[string]vocab.Word {
	seen := make(map[string]vocab.Word, len(lemmas))
	for _, l := range lemmas {
		seen[l] = vocab.Word{Word: l, Lemma: l}
	}
	return seen
}

func TestDefaultNeverMatches(t *testing.T) {
	p := Default{Code: "en"}
	if m := p.CanonicalLemma("cats", seenWith("cat", "cats")); m != nil {
		t.Errorf("default plugin matched: %+v", m)
	}
}

func TestGermanPluralFindsSingular(t *testing.T) {
	p := NewGerman(germanMorphology())
	m := p.CanonicalLemma("Katzen", seenWith("katze"))
	if m == nil {
		t.Fatal("no match for Katzen against seen katze")
	}
	if m.MatchedLemma != "katze" {
		t.Errorf("MatchedLemma = %q, want katze", m.MatchedLemma)
	}
	if m.ReplaceReason != "replaced_by_plural" || m.FilterReason != "singular_exists" {
		t.Errorf("reasons = %q/%q", m.ReplaceReason, m.FilterReason)
	}
}

func TestGermanSingularFindsPlural(t *testing.T) {
	p := NewGerman(germanMorphology())
	m := p.CanonicalLemma("Katze", seenWith("Katzen"))
	if m == nil {
		t.Fatal("no match for Katze against seen Katzen")
	}
	if m.MatchedLemma != "Katzen" {
		t.Errorf("MatchedLemma = %q, want Katzen (original casing)", m.MatchedLemma)
	}
}

func TestGermanUmlautAlternation(t *testing.T) {
	p := NewGerman(germanMorphology())

	// Häuser -> de-umlauted stem haus + empty singular suffix.
	if m := p.CanonicalLemma("Häuser", seenWith("haus")); m == nil {
		t.Error("Häuser did not match seen haus")
	}

	// Haus -> re-umlauted plural häuser.
	if m := p.CanonicalLemma("Haus", seenWith("häuser")); m == nil {
		t.Error("Haus did not match seen häuser")
	}
}

func TestGermanNoFalseMatch(t *testing.T) {
	p := NewGerman(germanMorphology())
	if m := p.CanonicalLemma("Hund", seenWith("katze", "haus")); m != nil {
		t.Errorf("unrelated word matched: %+v", m)
	}
}

func TestGermanDerivesReverseUmlauts(t *testing.T) {
	m := germanMorphology()
	p := NewGerman(m)
	if len(p.ReverseUmlauts) != len(m.UmlautPairs) {
		t.Errorf("ReverseUmlauts = %v", p.ReverseUmlauts)
	}
	if p.ReverseUmlauts["a"] != "ä" {
		t.Errorf(`ReverseUmlauts["a"] = %q, want ä`, p.ReverseUmlauts["a"])
	}
}

func TestForLanguageSelection(t *testing.T) {
	morph := germanMorphology()
	de := config.Language{Plugin: config.PluginGerman, Morphology: &morph}
	if _, ok := ForLanguage("de", de).(*German); !ok {
		t.Error("german plugin not selected")
	}

	en := config.Language{Plugin: config.PluginDefault}
	p := ForLanguage("en", en)
	if _, ok := p.(Default); !ok {
		t.Error("default plugin not selected")
	}
	if p.LanguageCode() != "en" {
		t.Errorf("LanguageCode = %q", p.LanguageCode())
	}
}
