// Package cache keeps extracted document text in a bolt file keyed by the
// sha256 of the document bytes, so re-parsing the same upload skips OCR.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const bucketName = "extracted_text"

// Entry is one cached extraction.
type Entry struct {
	Text       string    `json:"text"`
	Pages      int       `json:"pages"`
	SourceType string    `json:"source_type"`
	Method     string    `json:"method"`
	Language   string    `json:"language,omitempty"`
	Confidence float32   `json:"confidence"`
	StoredAt   time.Time `json:"stored_at"`
}

// TextCache implements a content-addressed text cache on BoltDB.
type TextCache struct {
	db *bbolt.DB
}

// Open creates or opens the cache file.
func Open(path string) (*TextCache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &TextCache{db: db}, nil
}

// Get returns the entry for hash; ok is false on a miss.
func (c *TextCache) Get(hash string) (entry Entry, ok bool, err error) {
	err = c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(hash))
		if data == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("reading cache entry: %w", err)
	}
	return entry, ok, nil
}

// Put stores entry under hash, replacing any previous value.
func (c *TextCache) Put(hash string, entry Entry) error {
	if entry.StoredAt.IsZero() {
		entry.StoredAt = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(hash), data)
	})
}

// Len counts cached entries.
func (c *TextCache) Len() (int, error) {
	var n int
	err := c.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(bucketName)).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the database
func (c *TextCache) Close() error {
	return c.db.Close()
}
