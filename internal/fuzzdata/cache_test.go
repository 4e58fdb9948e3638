package fuzzdata

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestCheckCacheFirstCallFalse(t *testing.T) {
	c := NewCache()

	if existed := c.CheckCache("http://h/a", CategoryProcessed, true); existed {
		t.Fatalf("expected first CheckCache call to return false, got true")
	}
	if existed := c.CheckCache("http://h/a", CategoryProcessed, true); !existed {
		t.Fatalf("expected second CheckCache call to return true")
	}
}

func TestCheckCacheWithoutUpdateDoesNotInsert(t *testing.T) {
	c := NewCache()

	c.CheckCache("http://h/a", CategoryRecursion, false)
	if existed := c.CheckCache("http://h/a", CategoryRecursion, false); existed {
		t.Fatalf("update=false must not insert the key")
	}
}

func TestCheckCacheCategoriesAreIndependent(t *testing.T) {
	c := NewCache()

	c.CheckCache("http://h/a", CategoryProcessed, true)
	if existed := c.CheckCache("http://h/a", CategoryRecursion, true); existed {
		t.Fatalf("categories must not share state")
	}
}

func TestCheckCacheConcurrentInsertsSeeOnlyOneFirst(t *testing.T) {
	c := NewCache()

	const n = 64
	results := make([]bool, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(idx int) {
			defer wg.Done()
			results[idx] = c.CheckCache("http://h/race", CategoryProcessed, true)
		}(i)
	}
	wg.Wait()

	falseCount := 0
	for _, existed := range results {
		if !existed {
			falseCount++
		}
	}
	if falseCount != 1 {
		t.Fatalf("expected exactly 1 caller to observe existed=false, got %d", falseCount)
	}
}

func TestCacheSaveAndLoadRoundTrip(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "cache_test")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "cache.txt")

	c := NewCache()
	c.CheckCache("http://h/a", CategoryProcessed, true)
	c.CheckCache("http://h/b", CategoryProcessed, true)

	if err := c.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	loaded := NewCache()
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if existed := loaded.CheckCache("http://h/a", CategoryProcessed, false); !existed {
		t.Fatalf("expected http://h/a to be present after reload")
	}
	if existed := loaded.CheckCache("http://h/b", CategoryProcessed, false); !existed {
		t.Fatalf("expected http://h/b to be present after reload")
	}
}
