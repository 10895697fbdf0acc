package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDiskCache_CompressesAndRestores(t *testing.T) {
	dir := t.TempDir()

	dc, err := NewDiskCache(dir, 1<<20, 3)
	if err != nil {
		t.Fatalf("NewDiskCache() error = %v", err)
	}

	// silence compresses well
	clip := make([]byte, 8192)
	if err := dc.Put("clip", clip); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if dc.Size() >= int64(len(clip)) {
		t.Errorf("Size() = %d, expected compressed size below %d", dc.Size(), len(clip))
	}
	if err := dc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewDiskCache(dir, 1<<20, 3)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close() //nolint:errcheck

	got, ok := reopened.Get("clip")
	if !ok {
		t.Fatal("clip missing after reopen")
	}
	if !bytes.Equal(got, clip) {
		t.Error("clip changed after round trip through disk")
	}
}

func TestDiskCache_SmallClipsStoredRaw(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1<<20, 3)
	if err != nil {
		t.Fatalf("NewDiskCache() error = %v", err)
	}
	defer dc.Close() //nolint:errcheck

	_ = dc.Put("small", []byte("tiny"))
	if dc.Size() != 4 {
		t.Errorf("Size() = %d, want 4", dc.Size())
	}
}

func TestDiskCache_MissingFileIsAMiss(t *testing.T) {
	dir := t.TempDir()
	dc, err := NewDiskCache(dir, 1<<20, 0)
	if err != nil {
		t.Fatalf("NewDiskCache() error = %v", err)
	}
	defer dc.Close() //nolint:errcheck

	_ = dc.Put("gone", []byte("data"))
	if err := os.Remove(filepath.Join(dir, "gone.clip")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, ok := dc.Get("gone"); ok {
		t.Error("Get() should miss when the file is gone")
	}
	if dc.Contains("gone") {
		t.Error("entry should be dropped from the index")
	}
}

func TestDiskCache_EvictsLeastRecentlyUsed(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 100, 0)
	if err != nil {
		t.Fatalf("NewDiskCache() error = %v", err)
	}
	defer dc.Close() //nolint:errcheck

	_ = dc.Put("a", make([]byte, 40))
	time.Sleep(2 * time.Millisecond)
	_ = dc.Put("b", make([]byte, 40))
	time.Sleep(2 * time.Millisecond)
	dc.Get("a")

	_ = dc.Put("c", make([]byte, 40))

	if dc.Contains("b") {
		t.Error("b should have been evicted")
	}
	if !dc.Contains("a") || !dc.Contains("c") {
		t.Error("a and c should be cached")
	}
}

func TestDiskCache_RemoveOlderThan(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1<<20, 0)
	if err != nil {
		t.Fatalf("NewDiskCache() error = %v", err)
	}
	defer dc.Close() //nolint:errcheck

	_ = dc.Put("old", []byte("1"))
	cutoff := time.Now().Add(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	_ = dc.Put("new", []byte("2"))

	if removed := dc.RemoveOlderThan(cutoff); removed != 1 {
		t.Errorf("RemoveOlderThan() = %d, want 1", removed)
	}
	if dc.Contains("old") || !dc.Contains("new") {
		t.Error("wrong entry removed")
	}
}
