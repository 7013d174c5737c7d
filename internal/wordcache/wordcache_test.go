package wordcache

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "words.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutAndHas(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	if err := c.Put(ctx, "book1", "stoichiometry", "1.1"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	ok, err := c.Has(ctx, "book1", "stoichiometry")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if !ok {
		t.Error("expected word to be cached")
	}

	ok, err = c.Has(ctx, "book2", "stoichiometry")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if ok {
		t.Error("word cached per book, not globally")
	}
}

func TestPutDuplicateKeepsFirstTopic(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	if err := c.Put(ctx, "book1", "covalent bond", "1.1"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Put(ctx, "book1", "covalent bond", "2.3"); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	entries, err := c.Words(ctx, "book1")
	if err != nil {
		t.Fatalf("Words: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].TopicID != "1.1" {
		t.Errorf("TopicID = %s, want first writer 1.1", entries[0].TopicID)
	}
}

func TestWordsSortedAndCount(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	for _, w := range []string{"molecule", "atom", "ion"} {
		if err := c.Put(ctx, "book1", w, "1.1"); err != nil {
			t.Fatalf("Put %s: %v", w, err)
		}
	}

	entries, err := c.Words(ctx, "book1")
	if err != nil {
		t.Fatalf("Words: %v", err)
	}
	want := []string{"atom", "ion", "molecule"}
	if len(entries) != len(want) {
		t.Fatalf("entries = %d, want %d", len(entries), len(want))
	}
	for i, w := range want {
		if entries[i].Word != w {
			t.Errorf("entries[%d] = %s, want %s", i, entries[i].Word, w)
		}
	}

	n, err := c.Count(ctx, "book1")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}
