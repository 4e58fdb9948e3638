package fuzzdata

import (
	"bufio"
	"fmt"
	"os"
	"sync"
)

// Category partitions the URL-seen set the cache tracks.
type Category int

const (
	CategoryProcessed Category = iota
	CategoryRecursion
)

// Cache is the shared, concurrency-safe URL-seen set. Once a key is
// inserted it is never removed within a run (spec §3 invariant).
type Cache struct {
	mu   sync.Mutex
	sets map[Category]map[string]struct{}
}

func NewCache() *Cache {
	return &Cache{
		sets: map[Category]map[string]struct{}{
			CategoryProcessed: make(map[string]struct{}),
			CategoryRecursion: make(map[string]struct{}),
		},
	}
}

// CheckCache atomically tests membership of key in category, optionally
// inserting it. It returns whether the key was already present *before*
// this call — i.e. the first call for a given (key, category) always
// returns false, every subsequent call returns true (spec §8).
func (c *Cache) CheckCache(key string, category Category, update bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, ok := c.sets[category]
	if !ok {
		set = make(map[string]struct{})
		c.sets[category] = set
	}

	_, existed := set[key]
	if update && !existed {
		set[key] = struct{}{}
	}
	return existed
}

// LoadFromFile seeds the processed-category cache from a newline
// delimited URL list (spec §6.2 "Cache file").
func (c *Cache) LoadFromFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	c.mu.Lock()
	defer c.mu.Unlock()

	set := c.sets[CategoryProcessed]
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		set[line] = struct{}{}
	}
	return scanner.Err()
}

// SaveToFile persists the processed-category cache as a newline
// delimited URL list.
func (c *Cache) SaveToFile(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for key := range c.sets[CategoryProcessed] {
		if _, err := fmt.Fprintln(w, key); err != nil {
			return err
		}
	}
	return w.Flush()
}
