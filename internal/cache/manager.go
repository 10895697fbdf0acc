package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Manager layers the memory cache over the disk cache. Disk hits are
// promoted to memory; writes go to memory immediately and to disk in the
// background.
type Manager struct {
	memory *MemoryCache
	disk   *DiskCache
	config Config

	writes sync.WaitGroup

	cleanupStop chan struct{}
	cleanupDone chan struct{}

	mu    sync.Mutex
	stats ManagerStats
}

// ManagerStats aggregates both tiers.
type ManagerStats struct {
	Memory Stats
	Disk   Stats

	MemoryHits  int64
	DiskHits    int64
	Misses      int64
	CleanupRuns int64
	LastCleanup time.Time
}

// HitRate returns the combined hit rate.
func (s ManagerStats) HitRate() float64 {
	total := s.MemoryHits + s.DiskHits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.MemoryHits+s.DiskHits) / float64(total)
}

// NewManager opens the cache at config.DiskPath.
func NewManager(config Config) (*Manager, error) {
	if config.DiskPath == "" {
		return nil, fmt.Errorf("cache directory not set")
	}

	disk, err := NewDiskCache(config.DiskPath, config.DiskCapacity, config.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create disk cache: %w", err)
	}

	m := &Manager{
		memory: NewMemoryCache(config.MemoryCapacity),
		disk:   disk,
		config: config,
	}

	if config.CleanupInterval > 0 {
		m.cleanupStop = make(chan struct{})
		m.cleanupDone = make(chan struct{})
		go m.cleanupLoop()
	}

	return m, nil
}

// Get looks a clip up in memory, then on disk.
func (m *Manager) Get(key string) ([]byte, bool) {
	if data, ok := m.memory.Get(key); ok {
		m.mu.Lock()
		m.stats.MemoryHits++
		m.mu.Unlock()
		return data, true
	}

	if data, ok := m.disk.Get(key); ok {
		m.mu.Lock()
		m.stats.DiskHits++
		m.mu.Unlock()

		// best effort
		_ = m.memory.Put(key, data)
		return data, true
	}

	m.mu.Lock()
	m.stats.Misses++
	m.mu.Unlock()
	return nil, false
}

// Put stores a clip in memory and schedules the disk write.
func (m *Manager) Put(key string, value []byte) error {
	if err := m.memory.Put(key, value); err != nil && err != ErrItemTooLarge {
		return fmt.Errorf("memory cache: %w", err)
	}

	m.writes.Add(1)
	go func() {
		defer m.writes.Done()
		if err := m.disk.Put(key, value); err != nil {
			log.Debug("Disk cache write failed", "key", key, "error", err)
		}
	}()
	return nil
}

// Flush waits for pending disk writes.
func (m *Manager) Flush() {
	m.writes.Wait()
}

// Delete removes a clip from both tiers.
func (m *Manager) Delete(key string) {
	m.Flush()
	m.memory.Delete(key)
	m.disk.Delete(key)
}

// Clear empties both tiers.
func (m *Manager) Clear() error {
	m.Flush()
	m.memory.Clear()
	if err := m.disk.Clear(); err != nil {
		return fmt.Errorf("failed to clear disk cache: %w", err)
	}
	return nil
}

// Stats returns aggregated statistics.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	stats := m.stats
	m.mu.Unlock()

	stats.Memory = m.memory.Stats()
	stats.Disk = m.disk.Stats()
	return stats
}

// Cleanup drops expired entries from both tiers.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	m.stats.CleanupRuns++
	m.stats.LastCleanup = time.Now()
	m.mu.Unlock()

	if m.config.TTL <= 0 {
		return
	}
	removed := m.disk.RemoveOlderThan(time.Now().Add(-m.config.TTL))
	pruned := m.memory.Prune(m.config.TTL)
	if removed > 0 || pruned > 0 {
		log.Debug("Cache cleanup", "disk", removed, "memory", pruned)
	}
}

func (m *Manager) cleanupLoop() {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Cleanup()
		case <-m.cleanupStop:
			return
		}
	}
}

// Close stops the cleanup loop, waits for pending writes and saves the
// disk index.
func (m *Manager) Close() error {
	if m.cleanupStop != nil {
		close(m.cleanupStop)
		<-m.cleanupDone
	}
	m.Flush()

	if err := m.disk.Close(); err != nil {
		return fmt.Errorf("failed to close disk cache: %w", err)
	}
	return nil
}
