package source

import (
	"os"
	"path/filepath"
	"testing"
)

func drain(it Iterator) []Entry {
	var out []Entry
	for {
		e, ok := it()
		if !ok {
			return out
		}
		out = append(out, e)
	}
}

func TestSliceSourceRanks(t *testing.T) {
	src := FromWords([]string{"the", "cat", "sat"})

	entries := drain(src.Words())
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Text != "the" || entries[0].Rank() != 1 {
		t.Errorf("first entry = %q rank %d, want \"the\" rank 1", entries[0].Text, entries[0].Rank())
	}
	if entries[2].Rank() != 3 {
		t.Errorf("third entry rank = %d, want 3", entries[2].Rank())
	}
}

func TestSliceSourceFreshIterators(t *testing.T) {
	src := FromWords([]string{"a", "b"})

	first := drain(src.Words())
	second := drain(src.Words())

	if len(first) != 2 || len(second) != 2 {
		t.Errorf("each Words call should yield a fresh sequence: %d, %d", len(first), len(second))
	}
}

func TestIteratorExhaustion(t *testing.T) {
	it := FromWords([]string{"x"}).Words()

	if _, ok := it(); !ok {
		t.Fatal("expected one entry")
	}
	for i := 0; i < 3; i++ {
		if _, ok := it(); ok {
			t.Error("exhausted iterator should keep reporting false")
		}
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "list.txt")
	content := "# header\nthe 600\ncat 300\nsat 100\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewFileSource(path, 2)
	if err := src.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}

	entries := drain(src.Words())
	if len(entries) != 2 {
		t.Fatalf("maxRank 2 should cap output, got %d entries", len(entries))
	}
	if entries[0].Text != "the" || entries[1].Text != "cat" {
		t.Errorf("unexpected entries: %+v", entries)
	}
	if entries[1].Rank() != 2 {
		t.Errorf("second entry rank = %d, want 2", entries[1].Rank())
	}
}
