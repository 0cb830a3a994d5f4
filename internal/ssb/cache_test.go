package ssb

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss on empty cache")
	}
	if err := c.Put("k", []byte("v")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, ok := c.Get("k")
	if !ok || !bytes.Equal(data, []byte("v")) {
		t.Errorf("expected hit with stored value, got %q %v", data, ok)
	}
}

func TestBoltCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := NewBoltCache(path)
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}

	if err := c.Put("10235_abc", []byte(`{"value":[1]}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.Get("other"); ok {
		t.Error("expected miss for unknown key")
	}
	data, ok := c.Get("10235_abc")
	if !ok || !bytes.Equal(data, []byte(`{"value":[1]}`)) {
		t.Errorf("expected hit, got %q %v", data, ok)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("closing cache: %v", err)
	}

	// Entries survive reopening the file.
	c2, err := NewBoltCache(path)
	if err != nil {
		t.Fatalf("reopening cache: %v", err)
	}
	defer c2.Close()
	if _, ok := c2.Get("10235_abc"); !ok {
		t.Error("expected entry to persist across reopen")
	}
}
