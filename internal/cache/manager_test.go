package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestManager(t *testing.T, memory, disk int64) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		MemoryCapacity:   memory,
		DiskCapacity:     disk,
		DiskPath:         t.TempDir(),
		CompressionLevel: 3,
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestManager_RequiresDirectory(t *testing.T) {
	if _, err := NewManager(Config{}); err == nil {
		t.Error("expected error without a cache directory")
	}
}

func TestManager_BasicOperations(t *testing.T) {
	m := newTestManager(t, 1024, 10240)

	if err := m.Put("key", []byte("value")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	m.Flush()

	got, ok := m.Get("key")
	if !ok || string(got) != "value" {
		t.Fatalf("Get() = %q, %v", got, ok)
	}

	m.Delete("key")
	if _, ok := m.Get("key"); ok {
		t.Error("key still present after Delete")
	}
}

func TestManager_DiskHitPromotesToMemory(t *testing.T) {
	m := newTestManager(t, 100, 10240)

	_ = m.Put("first", make([]byte, 60))
	_ = m.Put("second", make([]byte, 60)) // evicts first from memory
	m.Flush()

	if m.memory.Contains("first") {
		t.Fatal("first should have left the memory tier")
	}

	if _, ok := m.Get("first"); !ok {
		t.Fatal("first should be served from disk")
	}
	if !m.memory.Contains("first") {
		t.Error("disk hit should be promoted to memory")
	}

	stats := m.Stats()
	if stats.DiskHits != 1 {
		t.Errorf("DiskHits = %d, want 1", stats.DiskHits)
	}
}

func TestManager_Stats(t *testing.T) {
	m := newTestManager(t, 1024, 10240)

	_ = m.Put("key", []byte("value"))
	m.Flush()
	m.Get("key")
	m.Get("missing")

	stats := m.Stats()
	if stats.MemoryHits != 1 || stats.Misses != 1 {
		t.Errorf("MemoryHits/Misses = %d/%d, want 1/1", stats.MemoryHits, stats.Misses)
	}
	if stats.HitRate() != 0.5 {
		t.Errorf("HitRate = %f, want 0.5", stats.HitRate())
	}
	if stats.Disk.ItemCount != 1 {
		t.Errorf("Disk.ItemCount = %d, want 1", stats.Disk.ItemCount)
	}
}

func TestManager_Clear(t *testing.T) {
	m := newTestManager(t, 1024, 10240)

	for i := 0; i < 5; i++ {
		_ = m.Put(fmt.Sprintf("key-%d", i), []byte("value"))
	}
	if err := m.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	stats := m.Stats()
	if stats.Memory.ItemCount != 0 || stats.Disk.ItemCount != 0 {
		t.Errorf("items left after Clear: memory=%d disk=%d", stats.Memory.ItemCount, stats.Disk.ItemCount)
	}
}

func TestManager_CleanupHonoursTTL(t *testing.T) {
	m, err := NewManager(Config{
		MemoryCapacity: 1024,
		DiskCapacity:   10240,
		DiskPath:       t.TempDir(),
		TTL:            10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	defer m.Close() //nolint:errcheck

	_ = m.Put("key", []byte("value"))
	m.Flush()
	time.Sleep(20 * time.Millisecond)

	m.Cleanup()

	if _, ok := m.Get("key"); ok {
		t.Error("expired entry survived cleanup")
	}
	if m.Stats().CleanupRuns != 1 {
		t.Errorf("CleanupRuns = %d, want 1", m.Stats().CleanupRuns)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := newTestManager(t, 4096, 1<<20)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("k-%d-%d", id, j%5)
				_ = m.Put(key, []byte(key))
				m.Get(key)
			}
		}(i)
	}
	wg.Wait()
	m.Flush()
}

func TestKey(t *testing.T) {
	base := Key("espeak", "en-us", "hello", 1.0, 1.0, 44100)

	tests := []struct {
		name string
		key  string
		same bool
	}{
		{"identical", Key("espeak", "en-us", "hello", 1.0, 1.0, 44100), true},
		{"rate within quantum", Key("espeak", "en-us", "hello", 1.001, 1.0, 44100), true},
		{"different rate", Key("espeak", "en-us", "hello", 1.05, 1.0, 44100), false},
		{"different pitch", Key("espeak", "en-us", "hello", 1.0, 1.1, 44100), false},
		{"different voice", Key("espeak", "de", "hello", 1.0, 1.0, 44100), false},
		{"different engine", Key("piper", "en-us", "hello", 1.0, 1.0, 44100), false},
		{"different sample rate", Key("espeak", "en-us", "hello", 1.0, 1.0, 48000), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if (tt.key == base) != tt.same {
				t.Errorf("Key equality = %v, want %v", tt.key == base, tt.same)
			}
		})
	}
}
