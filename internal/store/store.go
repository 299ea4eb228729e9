package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/akademi/akademi/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// DefaultTTL is how long a catalog cache entry stays fresh.
const DefaultTTL = 24 * time.Hour

// Bucket names
var (
	bucketCatalog  = []byte("catalog")
	bucketProgress = []byte("progress")
	bucketPrefs    = []byte("prefs")
)

const prefsKey = "ui"

// catalogEntry wraps cached catalog data with its write timestamp.
type catalogEntry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // epoch millis
}

// Store implements domain.Store using BoltDB with an in-memory cache for
// hot-path reads. Catalog entries expire after ttl; progress records and
// preferences never expire.
type Store struct {
	db     *bolt.DB
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu    sync.RWMutex // Protects memory cache
	cache map[string][]byte
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides the catalog entry TTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New opens (or creates) the store under dir. An empty dir gives a
// memory-only store with no persistence.
func New(dir string, logger *slog.Logger, opts ...Option) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		ttl:    DefaultTTL,
		logger: logger,
		now:    time.Now,
		cache:  make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(s)
	}

	if dir == "" {
		return s, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "akademi.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketCatalog, bucketProgress, bucketPrefs} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s.db = db
	return s, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *Store) get(bucket []byte, key string) []byte {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return data
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return nil
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return data
}

// set writes a value. Failures are logged and swallowed: a full disk or a
// closed database must never surface to playback tracking.
func (s *Store) set(bucket []byte, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("store marshal failed", "bucket", string(bucket), "key", key, "error", err)
		return
	}

	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return // Memory-only mode
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
	if err != nil {
		s.logger.Warn("store write failed", "bucket", string(bucket), "key", key, "error", err)
	}
}

func (s *Store) delete(bucket []byte, key string) {
	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	delete(s.cache, cacheKey)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b != nil {
			b.Delete([]byte(key))
		}
		return nil
	})
}

func (s *Store) deletePrefix(bucket []byte, prefix string) {
	s.mu.Lock()
	cachePrefix := string(bucket) + ":" + prefix
	for k := range s.cache {
		if strings.HasPrefix(k, cachePrefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		prefixBytes := []byte(prefix)
		for k, _ := c.Seek(prefixBytes); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// === Catalog cache ===

// GetCatalog reads a cached catalog entry into dest. An entry that is
// absent, malformed, or older than the TTL is a miss; stale and corrupt
// entries are evicted on the way out.
func (s *Store) GetCatalog(key string, dest interface{}) bool {
	data := s.get(bucketCatalog, key)
	if data == nil {
		return false
	}

	var entry catalogEntry
	if err := json.Unmarshal(data, &entry); err != nil || len(entry.Data) == 0 {
		s.delete(bucketCatalog, key)
		return false
	}

	age := s.now().UnixMilli() - entry.Timestamp
	if age > s.ttl.Milliseconds() {
		s.logger.Debug("catalog entry expired", "key", key, "ageMs", age)
		s.delete(bucketCatalog, key)
		return false
	}

	if err := json.Unmarshal(entry.Data, dest); err != nil {
		s.delete(bucketCatalog, key)
		return false
	}
	return true
}

// SaveCatalog stores a catalog entry stamped with the current time.
func (s *Store) SaveCatalog(key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("catalog marshal failed", "key", key, "error", err)
		return
	}
	s.set(bucketCatalog, key, catalogEntry{
		Data:      data,
		Timestamp: s.now().UnixMilli(),
	})
}

// DeleteCatalogPrefix evicts all catalog entries under a key prefix.
func (s *Store) DeleteCatalogPrefix(prefix string) {
	s.deletePrefix(bucketCatalog, prefix)
}

// ClearCatalog wipes the entire catalog cache (explicit refresh).
func (s *Store) ClearCatalog() {
	s.deletePrefix(bucketCatalog, "")
}

// === Watch progress ===

// Progress returns the record for a course/video pair.
func (s *Store) Progress(courseID, videoID int) (domain.ProgressRecord, bool) {
	data := s.get(bucketProgress, domain.ProgressKey(courseID, videoID))
	if data == nil {
		return domain.ProgressRecord{}, false
	}
	var rec domain.ProgressRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.ProgressRecord{}, false
	}
	return rec, true
}

// SaveProgress upserts the record for a course/video pair. Completed is
// sticky: once set it is never cleared by a later save, and the first
// save marks the pair as watched.
func (s *Store) SaveProgress(courseID, videoID int, rec domain.ProgressRecord) {
	if prev, ok := s.Progress(courseID, videoID); ok && prev.Completed {
		rec.Completed = true
	}
	rec.Watched = true
	s.set(bucketProgress, domain.ProgressKey(courseID, videoID), rec)
}

// AllProgress returns every persisted progress record keyed by
// "<courseID>-<videoID>". Used for course-level aggregation.
func (s *Store) AllProgress() map[string]domain.ProgressRecord {
	out := make(map[string]domain.ProgressRecord)

	if s.db != nil {
		s.db.View(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketProgress)
			if b == nil {
				return nil
			}
			return b.ForEach(func(k, v []byte) error {
				var rec domain.ProgressRecord
				if err := json.Unmarshal(v, &rec); err == nil {
					out[string(k)] = rec
				}
				return nil
			})
		})
	}

	// Memory-only entries (or promotions newer than disk)
	s.mu.RLock()
	prefix := string(bucketProgress) + ":"
	for k, v := range s.cache {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		var rec domain.ProgressRecord
		if err := json.Unmarshal(v, &rec); err == nil {
			out[strings.TrimPrefix(k, prefix)] = rec
		}
	}
	s.mu.RUnlock()

	return out
}

// ResetProgress deletes every progress record (full local reset).
func (s *Store) ResetProgress() {
	s.deletePrefix(bucketProgress, "")
}

// === UI preferences ===

func (s *Store) Preferences() domain.Preferences {
	prefs := domain.Preferences{Language: "en", Theme: "light"}
	if data := s.get(bucketPrefs, prefsKey); data != nil {
		json.Unmarshal(data, &prefs)
	}
	return prefs
}

func (s *Store) SavePreferences(prefs domain.Preferences) {
	s.set(bucketPrefs, prefsKey, prefs)
}
