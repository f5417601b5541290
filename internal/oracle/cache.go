package oracle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rayanino/islamic-book-processor/internal/ibptypes"
	"github.com/rayanino/islamic-book-processor/internal/runctx"
)

// Cache is an append-only, atomically-written, resumable store for oracle
// verdicts keyed by (candidate_id, model_id, prompt_hash) (§4.5). Unlike a
// general-purpose LRU/TTL cache, entries are never evicted: a run resumed
// after interruption must never re-spend a query budget on a candidate it
// already has a verdict for.
type Cache struct {
	mu      sync.Mutex
	root    string
	dataDir string
	index   map[string]string // cache key -> data file name
}

// OpenCache loads (or creates) the cache rooted at root.
func OpenCache(root string) (*Cache, error) {
	dataDir := filepath.Join(root, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	c := &Cache{root: root, dataDir: dataDir, index: map[string]string{}}
	if err := c.loadIndex(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) indexPath() string { return filepath.Join(c.root, "index.json") }

func (c *Cache) loadIndex() error {
	raw, err := os.ReadFile(c.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(raw, &c.index)
}

func (c *Cache) persistIndexLocked() error {
	return runctx.WriteJSONAtomic(c.indexPath(), c.index)
}

// Key derives the cache key string for a (candidate_id, model_id,
// prompt_hash) triple.
func Key(k ibptypes.OracleCacheKey) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x1f%s\x1f%s", k.CandidateID, k.ModelID, k.PromptHash)
	return hex.EncodeToString(h.Sum(nil))
}

// PromptHash derives a stable hash over the fully-rendered prompt text, so
// a prompt-template change invalidates cached verdicts without touching
// candidate_id.
func PromptHash(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached record for key, if any.
func (c *Cache) Get(key ibptypes.OracleCacheKey) (*ibptypes.OracleCacheRecord, bool, error) {
	c.mu.Lock()
	file, ok := c.index[Key(key)]
	c.mu.Unlock()
	if !ok {
		return nil, false, nil
	}
	raw, err := os.ReadFile(filepath.Join(c.dataDir, file))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var rec ibptypes.OracleCacheRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, err
	}
	return &rec, true, nil
}

// Put persists rec under its key. An entry whose data file already exists
// is kept as it is and never overwritten; only a missing entry is written.
// Callers must check Get before querying the oracle.
func (c *Cache) Put(rec ibptypes.OracleCacheRecord) error {
	key := Key(rec.Key)
	file := key + ".json"

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.index[key]; ok {
		if _, err := os.Stat(filepath.Join(c.dataDir, existing)); err == nil {
			return nil
		}
	}
	if err := runctx.WriteJSONAtomic(filepath.Join(c.dataDir, file), rec); err != nil {
		return err
	}
	c.index[key] = file
	return c.persistIndexLocked()
}
