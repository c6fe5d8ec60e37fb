package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// indexEntry describes the last record this repository wrote under a key.
type indexEntry struct {
	Digest    string    `json:"digest"`
	Size      int       `json:"size"`
	WrittenAt time.Time `json:"writtenAt"`
}

// index is the persistent form of the cache.
type index struct {
	Version int                    `json:"version"`
	Entries map[string]*indexEntry `json:"entries"`
	dirty   bool
	mu      sync.RWMutex
}

// cache remembers the digest of every record written through the
// repository. The watcher uses it to tell its own writes from edits made by
// other processes, and status reporting reads the write times from it.
type cache struct {
	Path  string
	index *index
}

// newCache initializes a cache stored in {dataDir}/{systemDir}/index.json.
func newCache(dataDir, systemDir string) *cache {
	return &cache{
		Path: filepath.Join(dataDir, systemDir, "index.json"),
		index: &index{
			Version: 1,
			Entries: make(map[string]*indexEntry),
		},
	}
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Load reads the cache from disk. A missing or corrupted file yields an
// empty cache.
func (c *cache) Load() error {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()

	data, err := os.ReadFile(c.Path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	if err := json.Unmarshal(data, c.index); err != nil || c.index.Entries == nil {
		c.index.Entries = make(map[string]*indexEntry)
		return nil
	}

	c.index.dirty = false
	return nil
}

// Save persists the cache if it changed since the last Load or Save.
func (c *cache) Save() error {
	c.index.mu.RLock()
	if !c.index.dirty {
		c.index.mu.RUnlock()
		return nil
	}
	data, err := json.MarshalIndent(c.index, "", "  ")
	c.index.mu.RUnlock()

	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.Path), 0755); err != nil {
		return err
	}
	if err := writeFileAtomic(c.Path, data, 0644); err != nil {
		return err
	}

	c.index.mu.Lock()
	c.index.dirty = false
	c.index.mu.Unlock()
	return nil
}

// Record stores the digest of data as the latest write of key.
func (c *cache) Record(key string, data []byte, at time.Time) {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()

	c.index.Entries[key] = &indexEntry{Digest: digest(data), Size: len(data), WrittenAt: at}
	c.index.dirty = true
}

// Matches reports whether data is exactly what was last written under key.
func (c *cache) Matches(key string, data []byte) bool {
	c.index.mu.RLock()
	defer c.index.mu.RUnlock()

	entry, ok := c.index.Entries[key]
	return ok && entry.Digest == digest(data)
}

// Get returns the entry of key.
func (c *cache) Get(key string) (indexEntry, bool) {
	c.index.mu.RLock()
	defer c.index.mu.RUnlock()

	entry, ok := c.index.Entries[key]
	if !ok {
		return indexEntry{}, false
	}
	return *entry, true
}

// Delete forgets key.
func (c *cache) Delete(key string) {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()

	if _, ok := c.index.Entries[key]; ok {
		delete(c.index.Entries, key)
		c.index.dirty = true
	}
}

// Len returns the number of entries in the cache.
func (c *cache) Len() int {
	c.index.mu.RLock()
	defer c.index.mu.RUnlock()
	return len(c.index.Entries)
}
