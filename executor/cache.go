package executor

import (
	"compress/gzip"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// DefaultCacheMaxBytes caps the compile cache at 64 MB.
const DefaultCacheMaxBytes = 64 * 1024 * 1024

// Cache stores compile results on disk, gzip-compressed and keyed by a hash
// of the source. Least recently used entries are evicted once the directory
// grows past MaxBytes.
type Cache struct {
	Dir      string
	MaxBytes int64
}

// DefaultCacheDir returns ~/.cache/callscope/compile.
func DefaultCacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "callscope", "compile"), nil
}

// NewCache returns a cache rooted at dir. A non-positive maxBytes selects
// DefaultCacheMaxBytes.
func NewCache(dir string, maxBytes int64) *Cache {
	if maxBytes <= 0 {
		maxBytes = DefaultCacheMaxBytes
	}
	return &Cache{Dir: dir, MaxBytes: maxBytes}
}

// cacheKey returns a hex hash key for source.
func cacheKey(source string) string {
	h := sha256.Sum256([]byte(source))
	return fmt.Sprintf("%x", h[:])[:16]
}

func (c *Cache) path(source string) string {
	return filepath.Join(c.Dir, cacheKey(source)+".json.gz")
}

// Lookup returns the cached result for source. A hit touches the entry to
// update its LRU timestamp.
func (c *Cache) Lookup(source string) (*CompileResult, bool) {
	p := c.path(source)
	f, err := os.Open(p)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, false
	}
	defer gr.Close()

	var res CompileResult
	if err := json.NewDecoder(gr).Decode(&res); err != nil {
		return nil, false
	}
	now := time.Now()
	os.Chtimes(p, now, now)
	return &res, true
}

// Store writes res for source, then evicts old entries if the cache is
// over its size cap.
func (c *Cache) Store(source string, res *CompileResult) error {
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(c.Dir, "entry-*.tmp")
	if err != nil {
		return fmt.Errorf("creating cache entry: %w", err)
	}
	defer os.Remove(tmp.Name())

	gw, err := gzip.NewWriterLevel(tmp, gzip.BestSpeed)
	if err != nil {
		tmp.Close()
		return err
	}
	if err := json.NewEncoder(gw).Encode(res); err != nil {
		gw.Close()
		tmp.Close()
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := gw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(source)); err != nil {
		return fmt.Errorf("installing cache entry: %w", err)
	}

	c.evict()
	return nil
}

// evict removes the oldest entries until the cache is under the size cap.
func (c *Cache) evict() {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		return
	}

	type entry struct {
		path    string
		size    int64
		modTime time.Time
	}

	var files []entry
	var totalSize int64
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".gz" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, entry{path: filepath.Join(c.Dir, e.Name()), size: info.Size(), modTime: info.ModTime()})
		totalSize += info.Size()
	}

	if totalSize <= c.MaxBytes {
		return
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})

	for _, f := range files {
		if totalSize <= c.MaxBytes {
			break
		}
		os.Remove(f.path)
		totalSize -= f.size
	}
}
