package pipeline

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/cognicore/wordpipe/pkg/wordpipe/config"
	"github.com/cognicore/wordpipe/pkg/wordpipe/freq"
	"github.com/cognicore/wordpipe/pkg/wordpipe/nlp"
	"github.com/cognicore/wordpipe/pkg/wordpipe/vocab"
)

// stubTagger returns a fixed POS per word (keyed lowercase) and NOUN
// for everything else. A second map can force a different tag for the
// verb-template pass.
type stubTagger struct {
	nounPass map[string]string
	verbPass map[string]string
	entTypes map[string]string
	calls    int
	fail     bool
}

func (s *stubTagger) Name() string { return "stub" }

func (s *stubTagger) TagSentences(sentences []string) ([][]nlp.Token, error) {
	s.calls++
	if s.fail {
		return nil, errors.New("tagger down")
	}
	pass := s.nounPass
	if s.calls > 1 && s.verbPass != nil {
		pass = s.verbPass
	}
	docs := make([][]nlp.Token, len(sentences))
	for i, sentence := range sentences {
		words := nlp.Tokenize(sentence)
		doc := make([]nlp.Token, len(words))
		for j, w := range words {
			pos := "NOUN"
			if p, ok := pass[strings.ToLower(w)]; ok {
				pos = p
			}
			doc[j] = nlp.Token{
				Text:    w,
				POS:     pos,
				EntType: s.entTypes[strings.ToLower(w)],
				Morph:   map[string]string{"Number": "Sing"},
			}
		}
		docs[i] = doc
	}
	return docs, nil
}

func freqCache(counts map[string]float64) *freq.Cache {
	var total float64
	for _, c := range counts {
		total += c
	}
	return freq.NewCache(freq.NewTable("en", counts, total), 64)
}

func newTestTagStage(tagger nlp.Tagger, threshold float64, whitelist []string, counts map[string]float64) *TagStage {
	return NewTagStage(TagStageConfig{
		Tagger:       tagger,
		LanguageCode: "en",
		NERThreshold: threshold,
		NERWhitelist: whitelist,
		Frequencies:  freqCache(counts),
	})
}

func TestNormalizerStripsArticlesAndDiacritics(t *testing.T) {
	n := NewNormalizer(config.Normalization{
		UnicodeForm:  "NFC",
		Articles:     []string{"the ", "a "},
		SpecialChars: []string{"!"},
	})
	cases := map[string]string{
		"The Cat":     "cat",
		"the the cat": "cat",
		"café!":       "cafe",
		"  plain ":    "plain",
	}
	for in, want := range cases {
		if got := n.Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizerIdempotent(t *testing.T) {
	n := NewNormalizer(config.Normalization{
		UnicodeForm:    "NFC",
		Articles:       []string{"el ", "la "},
		CommaSeparator: true,
		SpecialChars:   []string{".", "!"},
	})
	for _, w := range []string{"La Niña, pequeña", "el árbol", "la la casa", " güero!", "simple"} {
		once := n.Normalize(w)
		if twice := n.Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", w, once, twice)
		}
	}
}

func TestValidatorReasons(t *testing.T) {
	v := NewValidator(ValidatorConfig{
		MinWordLength:      3,
		MaxWordLength:      10,
		ShortWordWhitelist: []string{"ox"},
		SkipWords:          []string{"ersatz"},
		Blacklist:          []string{"spam"},
		ExcludePatterns:    []*regexp.Regexp{regexp.MustCompile(`\d`)},
	})
	cases := map[string]string{
		"ab":             "too_short",
		"ox":             "",
		"ersatz":         "skip_word",
		"spam":           "blacklist",
		"word2":          "excluded_pattern",
		"overlylongword": "too_long",
		"fine":           "",
	}
	for in, want := range cases {
		if got := v.Check(in); got != want {
			t.Errorf("Check(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContextFilterFirstWins(t *testing.T) {
	c := NewContext("word", nil)
	c.Filter(config.StageValidate, "too_short")
	c.Filter(config.StageNLP, "proper_noun")
	if c.FilterStage != string(config.StageValidate) || c.FilterReason != "too_short" {
		t.Errorf("second Filter overwrote first: %s/%s", c.FilterStage, c.FilterReason)
	}
}

func TestTagStageAssignsPOSAndFrequency(t *testing.T) {
	tagger := &stubTagger{nounPass: map[string]string{"cat": "NOUN"}}
	stage := newTestTagStage(tagger, 0, nil, map[string]float64{"cat": 50, "the": 950})

	c := NewContext("cat", nil)
	stage.Process(c)
	if c.ShouldFilter {
		t.Fatalf("unexpected rejection: %s/%s", c.FilterStage, c.FilterReason)
	}
	if c.POSTag != "NOUN" {
		t.Errorf("POSTag = %q, want NOUN", c.POSTag)
	}
	if !c.FrequencyKnown || c.Frequency != 0.05 {
		t.Errorf("Frequency = %v (known=%v), want 0.05", c.Frequency, c.FrequencyKnown)
	}
	if len(c.Morphology) == 0 {
		t.Error("morphology not carried over from token")
	}
}

func TestTagStageBatchSingleCall(t *testing.T) {
	tagger := &stubTagger{nounPass: map[string]string{}}
	stage := newTestTagStage(tagger, 0, nil, map[string]float64{})

	cs := []*Context{NewContext("alpha", nil), NewContext("beta", nil), NewContext("gamma", nil)}
	stage.ProcessBatch(cs)
	if tagger.calls != 1 {
		t.Errorf("batch used %d tagger calls, want 1", tagger.calls)
	}
	for _, c := range cs {
		if c.POSTag == "" {
			t.Errorf("%s left untagged", c.Word)
		}
	}
}

func TestTagStageVerbRecheckPrefersNounReading(t *testing.T) {
	// "movement" is mistagged VERB in noun context; the noun suffix
	// triggers a recheck, and the verb-context VERB reading confirms
	// keeping the first token per the disambiguation rule.
	tagger := &stubTagger{
		nounPass: map[string]string{"movement": "VERB"},
		verbPass: map[string]string{"movement": "VERB"},
	}
	stage := newTestTagStage(tagger, 0, nil, map[string]float64{})

	c := NewContext("movement", nil)
	stage.Process(c)
	if tagger.calls != 2 {
		t.Fatalf("expected verb-template recheck, got %d calls", tagger.calls)
	}
	if c.POSTag != "VERB" {
		t.Errorf("POSTag = %q, want VERB (first token kept)", c.POSTag)
	}
}

func TestTagStageVerbRecheckSwitchesToNoun(t *testing.T) {
	tagger := &stubTagger{
		nounPass: map[string]string{"happiness": "VERB"},
		verbPass: map[string]string{"happiness": "NOUN"},
	}
	stage := newTestTagStage(tagger, 0, nil, map[string]float64{})

	c := NewContext("happiness", nil)
	stage.Process(c)
	if c.POSTag != "NOUN" {
		t.Errorf("POSTag = %q, want NOUN from verb-context reading", c.POSTag)
	}
}

func TestTagStageProperNounPolicy(t *testing.T) {
	tagger := &stubTagger{nounPass: map[string]string{
		"berlin": "PROPN",
		"monday": "PROPN",
		"mol":    "PROPN",
	}}
	counts := map[string]float64{"berlin": 0.5, "monday": 400, "mol": 0.5, "filler": 599}
	stage := newTestTagStage(tagger, 0.001, []string{"mol"}, counts)

	rare := NewContext("berlin", nil)
	stage.Process(rare)
	if !rare.ShouldFilter || rare.FilterReason != "proper_noun" {
		t.Errorf("rare PROPN kept: %v %q", rare.ShouldFilter, rare.FilterReason)
	}

	common := NewContext("monday", nil)
	stage.Process(common)
	if common.ShouldFilter {
		t.Errorf("high-frequency PROPN rejected: %q", common.FilterReason)
	}

	whitelisted := NewContext("mol", nil)
	stage.Process(whitelisted)
	if whitelisted.ShouldFilter {
		t.Errorf("whitelisted word rejected: %q", whitelisted.FilterReason)
	}
}

func TestTagStageNamedEntityPolicy(t *testing.T) {
	tagger := &stubTagger{
		nounPass: map[string]string{"acme": "NOUN", "third": "ADJ"},
		entTypes: map[string]string{"acme": "ORG", "third": "ORDINAL"},
	}
	counts := map[string]float64{"acme": 0.5, "third": 0.5, "filler": 999}
	stage := newTestTagStage(tagger, 0.001, nil, counts)

	org := NewContext("acme", nil)
	stage.Process(org)
	if !org.ShouldFilter || org.FilterReason != "named_entity:ORG" {
		t.Errorf("entity not rejected: %v %q", org.ShouldFilter, org.FilterReason)
	}

	ordinal := NewContext("third", nil)
	stage.Process(ordinal)
	if ordinal.ShouldFilter {
		t.Errorf("ORDINAL entity rejected: %q", ordinal.FilterReason)
	}
}

func TestTagStageTaggerFailure(t *testing.T) {
	stage := newTestTagStage(&stubTagger{fail: true}, 0, nil, map[string]float64{})
	cs := []*Context{NewContext("one", nil), NewContext("two", nil)}
	stage.ProcessBatch(cs)
	for _, c := range cs {
		if !c.ShouldFilter || c.FilterReason != "failed_parse" {
			t.Errorf("%s: got %v %q, want failed_parse", c.Word, c.ShouldFilter, c.FilterReason)
		}
	}
}

func TestInflectionStageExistingLemma(t *testing.T) {
	cache := freqCache(map[string]float64{"run": 80, "running": 5, "filler": 915})
	stage := NewInflectionStage(InflectionStageConfig{
		FrequencyRatio: 0.5,
		ExistingWords:  []string{"run"},
		Frequencies:    cache,
	})

	c := NewContext("running", nil)
	c.Lemma = "run"
	c.Morphology = map[string]string{"VerbForm": "Part"}
	stage.Process(c)
	if !c.ShouldFilter {
		t.Fatal("inflected form kept despite existing lemma")
	}
	if c.FilterReason != "existing_lemma:run:freq_ratio=0.06" {
		t.Errorf("reason = %q", c.FilterReason)
	}
}

func TestInflectionStagePatternMatch(t *testing.T) {
	cache := freqCache(map[string]float64{"walk": 80, "walked": 5, "filler": 915})
	stage := NewInflectionStage(InflectionStageConfig{
		FrequencyRatio: 0.5,
		Patterns:       []*regexp.Regexp{regexp.MustCompile(`(?i)ed$`)},
		Frequencies:    cache,
	})

	c := NewContext("walked", nil)
	c.Lemma = "walk"
	c.Morphology = map[string]string{"Tense": "Past"}
	stage.Process(c)
	if c.FilterReason != "pattern_match:walk:freq_ratio=0.06" {
		t.Errorf("reason = %q, filtered=%v", c.FilterReason, c.ShouldFilter)
	}
}

func TestInflectionStageSkips(t *testing.T) {
	cache := freqCache(map[string]float64{"be": 100, "was": 1, "filler": 899})
	stage := NewInflectionStage(InflectionStageConfig{
		ExceptionWords: []string{"was"},
		FrequencyRatio: 0.5,
		ExistingWords:  []string{"be"},
		Frequencies:    cache,
	})

	exception := NewContext("was", nil)
	exception.Lemma = "be"
	exception.Morphology = map[string]string{"Tense": "Past"}
	stage.Process(exception)
	if exception.ShouldFilter {
		t.Errorf("exception word filtered: %q", exception.FilterReason)
	}

	noMorph := NewContext("was", nil)
	noMorph.Lemma = "be"
	stage.Process(noMorph)
	if noMorph.ShouldFilter {
		t.Error("word without morphology filtered")
	}
}

func TestInflectionStageFrequentFormSurvives(t *testing.T) {
	// The inflected form is more frequent than lemma*ratio, so it is
	// valuable on its own and stays.
	cache := freqCache(map[string]float64{"go": 50, "went": 45, "filler": 905})
	stage := NewInflectionStage(InflectionStageConfig{
		FrequencyRatio: 0.5,
		ExistingWords:  []string{"go"},
		Frequencies:    cache,
	})

	c := NewContext("went", nil)
	c.Lemma = "go"
	c.Morphology = map[string]string{"Tense": "Past"}
	stage.Process(c)
	if c.ShouldFilter {
		t.Errorf("frequent inflection filtered: %q", c.FilterReason)
	}
}

func TestCategorizeStage(t *testing.T) {
	stage := NewCategorizeStage(config.POSCategories{
		EssentialNouns: []string{"NOUN", "PROPN"},
		EssentialVerbs: []string{"VERB", "AUX"},
		Modifiers:      []string{"ADV"},
	})
	cases := map[string]string{
		"NOUN": "essential_nouns",
		"AUX":  "essential_verbs",
		"ADV":  "modifiers",
		"INTJ": "other",
	}
	for pos, want := range cases {
		c := NewContext("w", nil)
		c.POSTag = pos
		stage.Process(c)
		if c.Category != want {
			t.Errorf("category for %s = %q, want %q", pos, c.Category, want)
		}
	}
}

func TestForeignFilterStage(t *testing.T) {
	english := freq.NewTable("en", map[string]float64{"weekend": 900, "filler": 100}, 1000)
	german := freq.NewTable("de", map[string]float64{"weekend": 100, "haus": 800}, 1000)

	stage := NewForeignFilterStage(english, []ForeignRule{{
		Language:       "de",
		Source:         german,
		MinForeignZipf: 4.0,
		MaxNativeZipf:  5.0,
		MinZipfDelta:   0.5,
	}})

	loan := NewContext("haus", nil)
	loan.Normalized = "haus"
	stage.Process(loan)
	if !loan.ShouldFilter || loan.FilterReason != "foreign_language:de" {
		t.Errorf("loanword kept: %v %q", loan.ShouldFilter, loan.FilterReason)
	}

	native := NewContext("weekend", nil)
	native.Normalized = "weekend"
	stage.Process(native)
	if native.ShouldFilter {
		t.Errorf("native word rejected: %q", native.FilterReason)
	}
}

func TestStatsStageRecordsRejections(t *testing.T) {
	stats := vocab.NewStats(5)
	stage := NewStatsStage(stats)

	rejected := NewContext("spam", nil)
	rejected.Filter(config.StageValidate, "blacklist")
	stage.Process(rejected)

	kept := NewContext("fine", nil)
	stage.Process(kept)

	key := vocab.StatsKey{Stage: "validate", Reason: "blacklist"}
	if stats.ByCategory[key] != 1 {
		t.Errorf("ByCategory[%v] = %d, want 1", key, stats.ByCategory[key])
	}
	if got := len(stats.Examples[key]); got != 1 {
		t.Errorf("examples recorded = %d, want 1", got)
	}
}

func TestBuildOrdersStagesAroundTagging(t *testing.T) {
	deps := Deps{
		Normalize:  NewNormalizeStage(NewNormalizer(config.Normalization{UnicodeForm: "NFC"})),
		Validate:   NewValidateStage(NewValidator(ValidatorConfig{MinWordLength: 1, MaxWordLength: 50})),
		Tag:        newTestTagStage(&stubTagger{}, 0, nil, map[string]float64{}),
		Categorize: NewCategorizeStage(config.POSCategories{EssentialNouns: []string{"NOUN"}}),
		Stats:      NewStatsStage(vocab.NewStats(5)),
	}
	p, err := Build(config.DefaultPipeline, deps)
	if err == nil {
		t.Fatal("expected error for unconstructed stages in default order")
	}

	order := []config.StageName{
		config.StageNormalize, config.StageValidate,
		config.StageNLP,
		config.StageCategorize, config.StageStats,
	}
	p, err = Build(order, deps)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Pre) != 2 || len(p.Post) != 2 || p.Tag == nil {
		t.Errorf("split = %d pre, %d post, tag=%v", len(p.Pre), len(p.Post), p.Tag != nil)
	}

	if _, err := Build([]config.StageName{"frobnicate"}, deps); err == nil {
		t.Error("unknown stage accepted")
	}
}

func TestRunPreShortCircuits(t *testing.T) {
	deps := Deps{
		Normalize: NewNormalizeStage(NewNormalizer(config.Normalization{UnicodeForm: "NFC"})),
		Validate:  NewValidateStage(NewValidator(ValidatorConfig{MinWordLength: 5, MaxWordLength: 50})),
		Tag:       newTestTagStage(&stubTagger{}, 0, nil, map[string]float64{}),
		Stats:     NewStatsStage(vocab.NewStats(5)),
	}
	p, err := Build([]config.StageName{
		config.StageNormalize, config.StageValidate, config.StageNLP, config.StageStats,
	}, deps)
	if err != nil {
		t.Fatal(err)
	}

	c := NewContext("ab", nil)
	p.RunPre(c)
	if !c.ShouldFilter || c.FilterReason != "too_short" {
		t.Fatalf("got %v %q", c.ShouldFilter, c.FilterReason)
	}

	// Stats still runs for rejected words in the post phase.
	p.RunPost(c)
	key := vocab.StatsKey{Stage: "validate", Reason: "too_short"}
	if deps.Stats.stats.ByCategory[key] != 1 {
		t.Error("stats stage skipped for rejected word")
	}
}
