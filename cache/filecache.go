package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// File stores one JSON envelope per entry under Dir, keyed by the sha256
// hex of the cache key. Read or decode failures degrade to a miss.
type File struct {
	Dir string

	mu sync.Mutex
}

func NewFile(dir string) *File {
	return &File{Dir: dir}
}

type fileEnvelope struct {
	Key        string    `json:"key"`
	SavedAt    time.Time `json:"savedAt"`
	TTLSeconds int64     `json:"ttlSeconds"`
	Value      []byte    `json:"value"`
}

func (c *File) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.Dir, hex.EncodeToString(sum[:])+".json")
}

func (c *File) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	var envelope fileEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, false
	}
	if envelope.TTLSeconds > 0 && time.Since(envelope.SavedAt) > time.Duration(envelope.TTLSeconds)*time.Second {
		_ = os.Remove(c.path(key))
		return nil, false
	}
	return envelope.Value, true
}

func (c *File) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return
	}
	envelope := fileEnvelope{
		Key:        key,
		SavedAt:    time.Now().UTC(),
		TTLSeconds: int64(ttl / time.Second),
		Value:      value,
	}
	data, err := json.Marshal(&envelope)
	if err != nil {
		return
	}
	// Write-then-rename keeps readers off half-written entries.
	tmp := c.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return
	}
	_ = os.Rename(tmp, c.path(key))
}
