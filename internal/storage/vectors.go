// Package storage persists the embedding vector cache in SQLite.
package storage

import (
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"
)

// VectorCache stores computed embeddings keyed by a hash of model name
// and input text, so unchanged entries skip re-embedding across runs.
type VectorCache struct {
	db *sql.DB
}

// OpenVectorCache opens or creates a vector cache at the given path.
func OpenVectorCache(path string) (*VectorCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	schema := `
		CREATE TABLE IF NOT EXISTS vectors (
			text_hash  TEXT PRIMARY KEY,
			model_name TEXT NOT NULL,
			dims       INTEGER NOT NULL,
			vector     BLOB NOT NULL,
			created_at INTEGER NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &VectorCache{db: db}, nil
}

// Close closes the underlying database.
func (c *VectorCache) Close() error {
	return c.db.Close()
}

// Key derives the cache key for a model/text pair.
func Key(model, text string) string {
	h := sha256.Sum256([]byte(model + "\x00" + text))
	return fmt.Sprintf("%x", h)
}

// Get returns the cached vector for key, or nil when absent.
func (c *VectorCache) Get(key string) ([]float32, error) {
	var blob []byte
	var dims int
	err := c.db.QueryRow("SELECT vector, dims FROM vectors WHERE text_hash = ?", key).Scan(&blob, &dims)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached vector: %w", err)
	}

	if len(blob) != dims*4 {
		return nil, fmt.Errorf("corrupt cached vector: %d bytes for %d dims", len(blob), dims)
	}
	return decodeVector(blob, dims), nil
}

// Put stores a vector under key, replacing any previous value.
func (c *VectorCache) Put(key, model string, vec []float32) error {
	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO vectors (text_hash, model_name, dims, vector, created_at) VALUES (?, ?, ?, ?, ?)",
		key, model, len(vec), encodeVector(vec), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("writing cached vector: %w", err)
	}
	return nil
}

// Clear removes cached vectors for models other than keep. Passing an
// empty string clears everything.
func (c *VectorCache) Clear(keep string) error {
	var err error
	if keep == "" {
		_, err = c.db.Exec("DELETE FROM vectors")
	} else {
		_, err = c.db.Exec("DELETE FROM vectors WHERE model_name != ?", keep)
	}
	if err != nil {
		return fmt.Errorf("clearing vector cache: %w", err)
	}
	return nil
}

// Count returns the number of cached vectors.
func (c *VectorCache) Count() (int, error) {
	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM vectors").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cached vectors: %w", err)
	}
	return n, nil
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(blob []byte, dims int) []float32 {
	vec := make([]float32, dims)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec
}
