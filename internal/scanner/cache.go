package scanner

import (
	"fmt"
	"os"
	"time"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/pydeps/internal/imports"
)

// cacheEntry remembers the file identity a result was computed for.
type cacheEntry struct {
	size    int64
	modTime int64
	names   []string
}

// ResultCache memoizes successful per-file extractions. An entry is only
// served while the file's size and modification time are unchanged.
type ResultCache struct {
	cache otter.Cache[string, cacheEntry]
}

// NewResultCache creates a cache holding up to maxEntries files for ttl.
func NewResultCache(maxEntries int, ttl time.Duration) (*ResultCache, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", maxEntries)
	}

	c, err := otter.MustBuilder[string, cacheEntry](maxEntries).
		CollectStats().
		WithTTL(ttl).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build result cache: %w", err)
	}

	return &ResultCache{cache: c}, nil
}

// Lookup returns the cached names for path if info still matches the entry.
func (rc *ResultCache) Lookup(path string, info os.FileInfo) (imports.NameSet, bool) {
	entry, ok := rc.cache.Get(path)
	if !ok {
		return nil, false
	}
	if entry.size != info.Size() || entry.modTime != info.ModTime().UnixNano() {
		rc.cache.Delete(path)
		return nil, false
	}
	return imports.NewNameSet(entry.names...), true
}

// Store records names for path as of info.
func (rc *ResultCache) Store(path string, info os.FileInfo, names imports.NameSet) {
	rc.cache.Set(path, cacheEntry{
		size:    info.Size(),
		modTime: info.ModTime().UnixNano(),
		names:   names.Sorted(),
	})
}

// Invalidate drops the entries for paths.
func (rc *ResultCache) Invalidate(paths ...string) {
	for _, path := range paths {
		rc.cache.Delete(path)
	}
}

// HitRatio returns the fraction of lookups served from the cache.
func (rc *ResultCache) HitRatio() float64 {
	return rc.cache.Stats().Ratio()
}

// Close releases the cache's background resources.
func (rc *ResultCache) Close() {
	rc.cache.Close()
}
