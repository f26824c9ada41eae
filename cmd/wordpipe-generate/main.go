package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/cognicore/wordpipe/pkg/wordpipe"
	"github.com/cognicore/wordpipe/pkg/wordpipe/config"
	"github.com/cognicore/wordpipe/pkg/wordpipe/export"
	"github.com/cognicore/wordpipe/pkg/wordpipe/freq"
	"github.com/cognicore/wordpipe/pkg/wordpipe/source"
	"github.com/cognicore/wordpipe/pkg/wordpipe/store"
	"github.com/cognicore/wordpipe/pkg/wordpipe/store/sqlite"
	"github.com/cognicore/wordpipe/pkg/wordpipe/vocab"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML configuration (required)")
		freqDir    = flag.String("freq-dir", "", "Directory of '<code>.txt' frequency lists (required)")
		outDir     = flag.String("out", "output", "Directory for exported JSON files")
		dbPath     = flag.String("db", "", "Optional: SQLite database to persist batches into")
		langsFlag  = flag.String("languages", "", "Comma-separated language codes (default: all configured)")
		levelFlag  = flag.String("levels", "", "Comma-separated CEFR levels (default: a1..c2)")
		workers    = flag.Int("workers", 0, "Concurrent language runs (0 uses config default)")
		survival   = flag.Float64("survival", 0, "Estimated fraction of candidates surviving filters (0 uses 0.35)")
	)
	flag.Parse()

	if *configPath == "" {
		log.Fatal("--config required")
	}
	if *freqDir == "" {
		log.Fatal("--freq-dir required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()

	var st store.Store
	if *dbPath != "" {
		st, err = sqlite.Open(ctx, *dbPath)
		if err != nil {
			log.Fatalf("open store: %v", err)
		}
		defer st.Close()
	}

	tables := loadFrequencyTables(cfg, *freqDir)

	sources := func(languageCode string, fetchCount int) (source.WordSource, error) {
		lang, err := cfg.Language(languageCode)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(*freqDir, lang.FreqCode+".txt")
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("frequency list for %s: %w", languageCode, err)
		}
		return source.NewFileSource(path, fetchCount), nil
	}

	caps := func(languageCode string) (wordpipe.Capabilities, error) {
		return wordpipe.Capabilities{Frequencies: tables}, nil
	}

	opts := wordpipe.GenerateOptions{
		Workers:      *workers,
		SurvivalRate: *survival,
	}
	if *langsFlag != "" {
		opts.Languages = splitList(*langsFlag)
	}
	if *levelFlag != "" {
		opts.Levels = splitList(*levelFlag)
	}

	results, err := wordpipe.GenerateAll(cfg, sources, caps, opts)
	if err != nil {
		log.Fatalf("generate: %v", err)
	}

	exporter := export.NewExporter()
	failures := 0
	for _, res := range results {
		if res.Err != nil {
			log.Printf("language %s failed: %v", res.LanguageCode, res.Err)
			failures++
			continue
		}
		if err := exportLanguage(ctx, exporter, st, cfg, res, *outDir); err != nil {
			log.Printf("export %s: %v", res.LanguageCode, err)
			failures++
			continue
		}
		log.Printf("language %s: %d words admitted, %d filtered, %d levels",
			res.LanguageCode, res.Vocabulary.TotalWords, res.Vocabulary.FilteredCount, len(res.Levels))
	}
	if failures > 0 {
		os.Exit(1)
	}
}

func exportLanguage(ctx context.Context, exporter *export.Exporter, st store.Store, cfg *config.Config, res wordpipe.LanguageResult, outDir string) error {
	lang, err := cfg.Language(res.LanguageCode)
	if err != nil {
		return err
	}

	for _, level := range res.Levels {
		levelVocab := sliceVocabulary(res.Vocabulary, level.Words)
		path := export.VocabularyPath(outDir, res.LanguageCode, level.Level)
		if err := exporter.WriteVocabulary(levelVocab, lang.Name, path); err != nil {
			return err
		}
		if st != nil {
			batch, err := exporter.SaveBatch(ctx, st, levelVocab, level.Level, level.TargetCount)
			if err != nil {
				return err
			}
			log.Printf("saved batch %s (%s %s, %d words)", batch.ID, res.LanguageCode, level.Level, len(level.Words))
		}
	}

	if len(res.Vocabulary.FilteredWords) > 0 {
		path := export.FilteredPath(outDir, res.LanguageCode)
		if err := exporter.WriteFiltered(res.Vocabulary.FilteredWords, res.LanguageCode, lang.Name, path); err != nil {
			return err
		}
	}
	return nil
}

// sliceVocabulary projects one level's words out of a full run result.
// Run-wide filtering counters stay on the full result; per-level
// documents only carry the admitted cut.
func sliceVocabulary(full *vocab.Vocabulary, words []vocab.Word) *vocab.Vocabulary {
	categories := make(map[string][]vocab.Word)
	for _, w := range words {
		categories[w.Category] = append(categories[w.Category], w)
	}
	return &vocab.Vocabulary{
		LanguageCode:  full.LanguageCode,
		Words:         words,
		Categories:    categories,
		TotalWords:    len(words),
		FilteredCount: full.FilteredCount,
		Stats:         full.Stats,
	}
}

// loadFrequencyTables reads every '<code>.txt' list the configured
// languages reference, both native lists and the foreign lists that
// cross-language filters compare against. Missing lists are logged and
// skipped; the affected filters simply do not fire.
func loadFrequencyTables(cfg *config.Config, dir string) map[string]freq.Source {
	wanted := make(map[string]bool)
	for _, code := range cfg.SupportedLanguages() {
		lang, err := cfg.Language(code)
		if err != nil {
			continue
		}
		wanted[lang.FreqCode] = true
		for _, f := range lang.Filtering.ForeignLanguageFilters {
			wanted[f.Language] = true
		}
	}

	tables := make(map[string]freq.Source, len(wanted))
	for code := range wanted {
		path := filepath.Join(dir, code+".txt")
		table, err := freq.LoadTable(path, code)
		if err != nil {
			log.Printf("frequency list %s: %v (skipping)", path, err)
			continue
		}
		tables[code] = table
	}
	return tables
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
