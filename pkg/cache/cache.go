// Package cache persists token counts keyed by content hash and encoding so
// unchanged skill files are not re-tokenized across runs.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/jingkaihe/skills-lint/pkg/logger"
	"github.com/jingkaihe/skills-lint/pkg/tokenizer"
	"github.com/pkg/errors"
)

const (
	// DefaultDir is the cache directory, relative to the working directory
	DefaultDir = ".skills-lint-cache"
	// IgnoreEntry is the .gitignore line that excludes the cache directory
	IgnoreEntry = DefaultDir + "/"
	// FileName is the cache file inside the cache directory
	FileName = "tokens.json"
	// Version is the on-disk format version; other versions are discarded
	Version = 1
)

type document struct {
	V       int            `json:"v"`
	Entries map[string]int `json:"entries"`
}

// TokenCache is a tokenizer.Counter backed by a JSON file
type TokenCache struct {
	dir     string
	counter tokenizer.Counter

	mu      sync.Mutex
	entries map[string]int
	dirty   bool
}

// Option configures a TokenCache
type Option func(*TokenCache)

// WithDir sets the cache directory
func WithDir(dir string) Option {
	return func(c *TokenCache) {
		c.dir = dir
	}
}

// WithCounter sets the counter used on cache misses
func WithCounter(counter tokenizer.Counter) Option {
	return func(c *TokenCache) {
		c.counter = counter
	}
}

// Load reads the cache from disk. A missing, corrupt or outdated file yields
// an empty cache.
func Load(ctx context.Context, opts ...Option) *TokenCache {
	c := &TokenCache{
		dir:     DefaultDir,
		counter: tokenizer.BPECounter{},
		entries: make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}

	entries, err := readEntries(c.path())
	if err != nil {
		logger.G(ctx).WithError(err).WithField("path", c.path()).Debug("starting with an empty token cache")
		return c
	}
	c.entries = entries
	logger.G(ctx).WithField("entries", len(entries)).Debug("token cache loaded")
	return c
}

func (c *TokenCache) path() string {
	return filepath.Join(c.dir, FileName)
}

func readEntries(path string) (map[string]int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read cache file")
	}

	var doc document
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse cache file")
	}
	if doc.V != Version {
		return nil, errors.Errorf("cache version %d does not match %d", doc.V, Version)
	}
	if doc.Entries == nil {
		return nil, errors.New("cache file has no entries")
	}
	for key, count := range doc.Entries {
		if count < 0 {
			return nil, errors.Errorf("negative count for %s", key)
		}
	}
	return doc.Entries, nil
}

// CountTokens returns the cached count for text, counting and storing it on a miss
func (c *TokenCache) CountTokens(text, encoding string) (int, error) {
	key := Key(text, encoding)

	c.mu.Lock()
	count, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return count, nil
	}

	count, err := c.counter.CountTokens(text, encoding)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.entries[key] = count
	c.dirty = true
	c.mu.Unlock()

	return count, nil
}

// Len returns the number of cached entries
func (c *TokenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Dirty reports whether there are entries not yet flushed
func (c *TokenCache) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// Flush writes the cache to disk if it changed. Failures are logged and
// otherwise ignored; a lost cache only costs a re-count.
func (c *TokenCache) Flush(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return
	}

	if err := c.write(); err != nil {
		logger.G(ctx).WithError(err).WithField("path", c.path()).Debug("failed to write token cache")
		return
	}
	c.dirty = false
}

func (c *TokenCache) write() error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create cache directory")
	}

	data, err := json.MarshalIndent(document{V: Version, Entries: c.entries}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode cache")
	}
	data = append(data, '\n')

	return renameio.WriteFile(c.path(), data, 0o644)
}

// Key is the first 16 hex characters of the SHA-256 of text, a colon, and the encoding
func Key(text, encoding string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16] + ":" + encoding
}
