// Package store provides the bbolt-backed marketplace catalog, preference
// graphs and session index, plus an in-memory chat history.
package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketItems       = []byte("items")
	bucketOrders      = []byte("orders")
	bucketPreferences = []byte("preferences")
	bucketSessions    = []byte("sessions")
	bucketSessionKeys = []byte("session_keys")
)

// DB is a bbolt database holding the catalog, preference and session buckets.
type DB struct {
	bolt *bolt.DB
}

// Open opens (or creates) the database file and its buckets.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketItems, bucketOrders, bucketPreferences, bucketSessions, bucketSessionKeys} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create buckets: %w", err)
	}
	return &DB{bolt: db}, nil
}

// Close closes the database file.
func (d *DB) Close() error {
	return d.bolt.Close()
}

// Ping reports whether the database is open.
func (d *DB) Ping() error {
	return d.bolt.View(func(*bolt.Tx) error { return nil })
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
