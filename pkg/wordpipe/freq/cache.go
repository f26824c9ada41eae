package freq

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache memoizes frequency lookups for exactly one pipeline run. It is
// created with the run and discarded with it; nothing is shared across
// runs.
type Cache struct {
	src   Source
	freqs *lru.Cache[string, float64]
	zipfs *lru.Cache[string, float64]
}

// NewCache wraps src with an LRU memo holding up to size entries per
// lookup kind.
func NewCache(src Source, size int) *Cache {
	if size <= 0 {
		size = 50000
	}
	// lru.New only errors on size <= 0, which is excluded above.
	freqs, _ := lru.New[string, float64](size)
	zipfs, _ := lru.New[string, float64](size)
	return &Cache{src: src, freqs: freqs, zipfs: zipfs}
}

// Frequency returns the memoized frequency of word.
func (c *Cache) Frequency(word string) float64 {
	if v, ok := c.freqs.Get(word); ok {
		return v
	}
	v := c.src.Frequency(word)
	c.freqs.Add(word, v)
	return v
}

// Zipf returns the memoized zipf value of word.
func (c *Cache) Zipf(word string) float64 {
	if v, ok := c.zipfs.Get(word); ok {
		return v
	}
	v := c.src.Zipf(word)
	c.zipfs.Add(word, v)
	return v
}
