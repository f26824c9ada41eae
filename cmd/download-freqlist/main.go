package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// entry is one scraped word with its occurrence count. Pages that list
// words by rank without counts get synthetic descending counts so the
// output still orders correctly.
type entry struct {
	Word  string
	Count float64
}

func main() {
	var (
		pageURL = flag.String("url", "", "Frequency-list page to scrape (required)")
		lang    = flag.String("lang", "", "Language code for the output filename (required)")
		outDir  = flag.String("out", "freqlists", "Output directory")
		limit   = flag.Int("limit", 50000, "Maximum words to keep")
	)
	flag.Parse()

	if *pageURL == "" {
		log.Fatal("--url required")
	}
	if *lang == "" {
		log.Fatal("--lang required")
	}

	log.Printf("Downloading frequency list from %s...", *pageURL)

	resp, err := http.Get(*pageURL)
	if err != nil {
		log.Fatal("Failed to fetch page:", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		log.Fatalf("Failed to fetch page: HTTP %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		log.Fatal("Failed to parse HTML:", err)
	}

	entries := extractEntries(doc)
	if len(entries) == 0 {
		log.Fatal("No word entries found on page")
	}
	if *limit > 0 && len(entries) > *limit {
		entries = entries[:*limit]
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatal("Failed to create output directory:", err)
	}

	outPath := filepath.Join(*outDir, *lang+".txt")
	outFile, err := os.Create(outPath)
	if err != nil {
		log.Fatal("Failed to create output file:", err)
	}
	defer outFile.Close()

	for _, e := range entries {
		fmt.Fprintf(outFile, "%s %g\n", e.Word, e.Count)
	}

	log.Printf("✓ Successfully wrote %d words to %s", len(entries), outPath)
}

// extractEntries walks the document and collects (word, count) pairs
// from table rows and list items. A row contributes the first cell that
// looks like a word and the first numeric cell as its count.
func extractEntries(doc *html.Node) []entry {
	var entries []entry
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "tr" || n.Data == "li") {
			if e, ok := rowEntry(n); ok && !seen[e.Word] {
				seen[e.Word] = true
				entries = append(entries, e)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	// Rank-ordered pages carry no counts; synthesize a descending
	// series so downstream proportions stay monotone.
	for i := range entries {
		if entries[i].Count == 0 {
			entries[i].Count = float64(len(entries) - i)
		}
	}
	return entries
}

func rowEntry(row *html.Node) (entry, bool) {
	var cells []string
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "td" || n.Data == "th") {
			cells = append(cells, nodeText(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(row)

	if len(cells) == 0 {
		// List items hold the whole entry as "word count" or "word".
		cells = strings.Fields(nodeText(row))
	}

	var e entry
	for _, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if n, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64); err == nil {
			if e.Word != "" && e.Count == 0 {
				e.Count = n
			}
			continue
		}
		if e.Word == "" && looksLikeWord(cell) {
			e.Word = strings.ToLower(cell)
		}
	}
	return e, e.Word != ""
}

func looksLikeWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && r != '-' && r != '\'' {
			return false
		}
	}
	return true
}

func nodeText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}
