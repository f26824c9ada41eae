package vocab

// Word is an admitted vocabulary entry. Immutable once created; it is
// removed from a Vocabulary only when the dedup engine replaces it.
type Word struct {
	Word       string
	Lemma      string
	POSTag     string
	Category   string
	Frequency  float64
	Rank       int
	Morphology map[string]string
	Reason     string
	Metadata   map[string]any
}

// FilteredWord records a rejected candidate. Fields that were never
// resolved before rejection stay at their zero values.
type FilteredWord struct {
	Word         string
	Lemma        string
	POSTag       string
	Frequency    float64
	Rank         int
	FilterStage  string
	FilterReason string
}

// Vocabulary is the output of one pipeline run. The caller owns it;
// the pipeline keeps no reference after returning.
type Vocabulary struct {
	LanguageCode  string
	Words         []Word
	Categories    map[string][]Word
	TotalWords    int
	FilteredCount int
	Stats         *Stats
	FilteredWords []FilteredWord
}

// StatsKey identifies a rejection bucket.
type StatsKey struct {
	Stage  string
	Reason string
}

// Stats aggregates rejection counters for a single run. TotalAnalyzed
// and TotalFiltered are set by the orchestrator when the run finishes;
// AddFiltered only maintains the per-bucket breakdown.
type Stats struct {
	TotalAnalyzed int
	TotalFiltered int
	ByCategory    map[StatsKey]int
	Examples      map[StatsKey][]string

	maxExamples int
}

// NewStats creates an empty Stats collector keeping at most maxExamples
// sample words per (stage, reason) bucket.
func NewStats(maxExamples int) *Stats {
	if maxExamples <= 0 {
		maxExamples = 10
	}
	return &Stats{
		ByCategory:  make(map[StatsKey]int),
		Examples:    make(map[StatsKey][]string),
		maxExamples: maxExamples,
	}
}

// AddFiltered records one rejection under (stage, reason).
func (s *Stats) AddFiltered(word, stage, reason string) {
	key := StatsKey{Stage: stage, Reason: reason}
	s.ByCategory[key]++
	if len(s.Examples[key]) < s.maxExamples {
		s.Examples[key] = append(s.Examples[key], word)
	}
}
