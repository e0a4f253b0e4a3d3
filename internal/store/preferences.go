package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/capitalize-ai/companion-chat/internal/model"
)

// Preferences stores one preference graph per user.
type Preferences struct {
	db *DB
}

// NewPreferences creates a Preferences store over an open database.
func NewPreferences(db *DB) *Preferences {
	return &Preferences{db: db}
}

// GetOrCreate returns the user's graph, creating an empty one on first use.
func (p *Preferences) GetOrCreate(ctx context.Context, owner string) (*model.PreferenceGraph, error) {
	g := &model.PreferenceGraph{Owner: owner}
	err := p.db.bolt.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPreferences)
		if v := b.Get([]byte(owner)); v != nil {
			return json.Unmarshal(v, g)
		}
		g.Graph = map[string][]string{}
		g.UpdatedAt = time.Now().UTC()
		data, err := json.Marshal(g)
		if err != nil {
			return err
		}
		return b.Put([]byte(owner), data)
	})
	if err != nil {
		return nil, fmt.Errorf("store: preferences for %s: %w", owner, err)
	}
	return g, nil
}

// Put replaces the user's graph.
func (p *Preferences) Put(ctx context.Context, g *model.PreferenceGraph) error {
	g.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return p.db.bolt.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPreferences).Put([]byte(g.Owner), data)
	})
}
