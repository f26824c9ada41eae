package dedup

import (
	"testing"

	"github.com/cognicore/wordpipe/pkg/wordpipe/config"
	"github.com/cognicore/wordpipe/pkg/wordpipe/plugin"
	"github.com/cognicore/wordpipe/pkg/wordpipe/vocab"
)

func word(surface, lemma string, freq float64) vocab.Word {
	return vocab.Word{Word: surface, Lemma: lemma, Category: "essential_nouns", Frequency: freq}
}

func TestCanonicalKey(t *testing.T) {
	cases := map[string]string{
		"  Laufen ": "laufen",
		"don't":     "dont",
		"Haus-Tür":  "haustür",
		"кошка":     "кошка",
		"foo_bar2":  "foo_bar2",
		"a b\tc":    "abc",
	}
	for in, want := range cases {
		if got := CanonicalKey(in); got != want {
			t.Errorf("CanonicalKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAdmitDistinctLemmas(t *testing.T) {
	e := NewEngine(1.2, nil, nil)
	if !e.Admit(word("cat", "cat", 0.5)) || !e.Admit(word("dog", "dog", 0.4)) {
		t.Fatal("distinct lemmas rejected")
	}
	if len(e.Words()) != 2 || e.FilteredCount() != 0 {
		t.Errorf("words=%d filtered=%d", len(e.Words()), e.FilteredCount())
	}
	if !e.Seen("cat") || e.Seen("bird") {
		t.Error("seen index wrong")
	}
}

func TestLemmaFormBeatsInflected(t *testing.T) {
	stats := vocab.NewStats(5)
	e := NewEngine(1.2, nil, stats)

	e.Admit(word("running", "run", 0.9))
	if !e.Admit(word("run", "run", 0.1)) {
		t.Fatal("lemma-form newcomer rejected")
	}
	if len(e.Words()) != 1 || e.Words()[0].Word != "run" {
		t.Errorf("words = %+v", e.Words())
	}
	key := vocab.StatsKey{Stage: "dedupe", Reason: "replaced_by_lemma:run"}
	if stats.ByCategory[key] != 1 {
		t.Errorf("displacement not recorded: %v", stats.ByCategory)
	}
	// Displacement is not a rejection of the newcomer.
	if e.FilteredCount() != 0 {
		t.Errorf("FilteredCount = %d", e.FilteredCount())
	}
}

func TestInflectedLosesToLemmaForm(t *testing.T) {
	stats := vocab.NewStats(5)
	e := NewEngine(1.2, nil, stats)

	e.Admit(word("run", "run", 0.1))
	if e.Admit(word("running", "run", 0.9)) {
		t.Fatal("inflected newcomer beat lemma-form holder")
	}
	key := vocab.StatsKey{Stage: "dedupe", Reason: "lemma_exists:run"}
	if stats.ByCategory[key] != 1 || e.FilteredCount() != 1 {
		t.Errorf("rejection not recorded: %v filtered=%d", stats.ByCategory, e.FilteredCount())
	}
}

func TestFrequencyMarginReplacement(t *testing.T) {
	e := NewEngine(1.2, nil, nil)

	e.Admit(word("colour", "colour", 0.10))
	// 0.11 is above the holder but within the 1.2 margin.
	if e.Admit(word("Colour", "colour", 0.11)) {
		t.Error("newcomer inside margin displaced holder")
	}
	if e.Words()[0].Frequency != 0.10 {
		t.Errorf("holder changed: %+v", e.Words()[0])
	}

	if !e.Admit(word("COLOUR", "colour", 0.13)) {
		t.Error("newcomer beyond margin rejected")
	}
	if len(e.Words()) != 1 || e.Words()[0].Frequency != 0.13 {
		t.Errorf("words = %+v", e.Words())
	}
}

func TestGermanCanonicalEviction(t *testing.T) {
	morph := config.Morphology{
		PluralSingularSuffixPairs: [][]string{{"n", ""}},
		UmlautPairs:               map[string]string{"ä": "a"},
	}
	stats := vocab.NewStats(5)
	e := NewEngine(1.2, plugin.NewGerman(morph), stats)

	e.Admit(word("Katzen", "Katzen", 0.3))
	if !e.Admit(word("Katze", "Katze", 0.2)) {
		t.Fatal("shorter singular rejected")
	}
	if len(e.Words()) != 1 || e.Words()[0].Lemma != "Katze" {
		t.Errorf("words = %+v", e.Words())
	}
	key := vocab.StatsKey{Stage: "canonical", Reason: "replaced_by_singular:Katze"}
	if stats.ByCategory[key] != 1 {
		t.Errorf("eviction not recorded: %v", stats.ByCategory)
	}
}

func TestGermanCanonicalRejection(t *testing.T) {
	morph := config.Morphology{
		PluralSingularSuffixPairs: [][]string{{"n", ""}},
	}
	stats := vocab.NewStats(5)
	e := NewEngine(1.2, plugin.NewGerman(morph), stats)

	e.Admit(word("Katze", "Katze", 0.3))
	if e.Admit(word("Katzen", "Katzen", 0.2)) {
		t.Fatal("longer plural admitted over seen singular")
	}
	key := vocab.StatsKey{Stage: "canonical", Reason: "singular_exists:katze"}
	if stats.ByCategory[key] != 1 || e.FilteredCount() != 1 {
		t.Errorf("rejection not recorded: %v filtered=%d", stats.ByCategory, e.FilteredCount())
	}
}

func TestCategoriesFollowReplacements(t *testing.T) {
	e := NewEngine(1.2, nil, nil)
	w1 := word("running", "run", 0.9)
	w2 := vocab.Word{Word: "run", Lemma: "run", Category: "essential_verbs", Frequency: 0.1}

	e.Admit(w1)
	e.Admit(w2)
	if got := len(e.Categories()["essential_nouns"]); got != 0 {
		t.Errorf("stale category entry survived: %d", got)
	}
	if got := len(e.Categories()["essential_verbs"]); got != 1 {
		t.Errorf("replacement category missing: %d", got)
	}
}

func TestDistinctKeysInvariant(t *testing.T) {
	e := NewEngine(1.2, nil, nil)
	for _, w := range []vocab.Word{
		word("cat", "cat", 0.5),
		word("Cat", "cat", 0.9),
		word("cats", "cat", 0.8),
		word("dog", "dog", 0.4),
	} {
		e.Admit(w)
	}
	keys := make(map[string]bool)
	for _, w := range e.Words() {
		k := CanonicalKey(w.Lemma)
		if keys[k] {
			t.Fatalf("duplicate canonical key %q in result", k)
		}
		keys[k] = true
	}
}

func TestTruncateKeepsFirstAdmissions(t *testing.T) {
	e := NewEngine(1.2, nil, nil)
	e.Admit(word("one", "one", 0.5))
	e.Admit(word("two", "two", 0.4))
	e.Admit(word("three", "three", 0.3))

	e.Truncate(2)
	if len(e.Words()) != 2 || e.Words()[1].Word != "two" {
		t.Errorf("words = %+v", e.Words())
	}
	if e.Seen("three") {
		t.Error("truncated lemma still in seen index")
	}
	if got := len(e.Categories()["essential_nouns"]); got != 2 {
		t.Errorf("category size = %d", got)
	}
}
