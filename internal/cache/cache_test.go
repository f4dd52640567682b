package cache

import (
	"path/filepath"
	"testing"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), ".openacr-mcp", "cache.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache(t *testing.T) {
	t.Run("miss on empty cache", func(t *testing.T) {
		c := openTestCache(t)
		if _, ok := c.Get("include/gen/algo_gen.h", "aaaa"); ok {
			t.Error("unexpected hit")
		}
	})

	t.Run("put then get", func(t *testing.T) {
		c := openTestCache(t)
		sum := Sum([]byte("struct Foo {};"))
		if err := c.Put("include/gen/algo_gen.h", sum, `{"structs":[]}`); err != nil {
			t.Fatal(err)
		}
		got, ok := c.Get("include/gen/algo_gen.h", sum)
		if !ok || got != `{"structs":[]}` {
			t.Errorf("got %q, %v", got, ok)
		}
	})

	t.Run("changed content misses", func(t *testing.T) {
		c := openTestCache(t)
		if err := c.Put("h.h", Sum([]byte("v1")), "r1"); err != nil {
			t.Fatal(err)
		}
		if _, ok := c.Get("h.h", Sum([]byte("v2"))); ok {
			t.Error("stale entry served for changed content")
		}
	})

	t.Run("put replaces older generation", func(t *testing.T) {
		c := openTestCache(t)
		if err := c.Put("h.h", Sum([]byte("v1")), "r1"); err != nil {
			t.Fatal(err)
		}
		if err := c.Put("h.h", Sum([]byte("v2")), "r2"); err != nil {
			t.Fatal(err)
		}
		got, ok := c.Get("h.h", Sum([]byte("v2")))
		if !ok || got != "r2" {
			t.Errorf("got %q, %v", got, ok)
		}
		stats, err := c.GetStats()
		if err != nil {
			t.Fatal(err)
		}
		if stats.EntryCount != 1 {
			t.Errorf("entry count = %d", stats.EntryCount)
		}
	})

	t.Run("clear empties the cache", func(t *testing.T) {
		c := openTestCache(t)
		if err := c.Put("h.h", "s", "r"); err != nil {
			t.Fatal(err)
		}
		if err := c.Clear(); err != nil {
			t.Fatal(err)
		}
		if _, ok := c.Get("h.h", "s"); ok {
			t.Error("entry survived clear")
		}
	})

	t.Run("reopen persists entries", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.db")
		c, err := Open(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := c.Put("h.h", "s", "r"); err != nil {
			t.Fatal(err)
		}
		c.Close()

		c2, err := Open(path)
		if err != nil {
			t.Fatal(err)
		}
		defer c2.Close()
		if got, ok := c2.Get("h.h", "s"); !ok || got != "r" {
			t.Errorf("got %q, %v after reopen", got, ok)
		}
	})
}
