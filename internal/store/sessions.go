package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	bolt "go.etcd.io/bbolt"

	"github.com/capitalize-ai/companion-chat/internal/model"
)

// Sessions persists chat sessions, keyed by id and indexed by user and
// persona.
type Sessions struct {
	db *DB
}

// NewSessions creates a session store over an open database.
func NewSessions(db *DB) *Sessions {
	return &Sessions{db: db}
}

func sessionKey(userID string, p model.Persona) []byte {
	return []byte(userID + "/" + string(p))
}

// Create stores sess unless the user already has a session with the same
// persona, in which case that session is returned and created is false.
func (s *Sessions) Create(ctx context.Context, sess *model.Session) (*model.Session, bool, error) {
	out := *sess
	created := false
	err := s.db.bolt.Update(func(tx *bolt.Tx) error {
		keys := tx.Bucket(bucketSessionKeys)
		key := sessionKey(sess.UserID, sess.Persona)
		if id := keys.Get(key); id != nil {
			v := tx.Bucket(bucketSessions).Get(id)
			if v == nil {
				return fmt.Errorf("session index points at missing session %s", id)
			}
			return json.Unmarshal(v, &out)
		}
		if err := putSession(tx, &out); err != nil {
			return err
		}
		created = true
		return keys.Put(key, []byte(out.ID))
	})
	if err != nil {
		return nil, false, fmt.Errorf("store: create session: %w", err)
	}
	return &out, created, nil
}

// Get returns a session by id.
func (s *Sessions) Get(ctx context.Context, id string) (*model.Session, error) {
	var out *model.Session
	err := s.db.bolt.View(func(tx *bolt.Tx) error {
		var err error
		out, err = getSession(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser returns the user's sessions, most recently updated first.
func (s *Sessions) ListByUser(ctx context.Context, userID string) ([]model.Session, error) {
	sessions := []model.Session{}
	err := s.db.bolt.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).ForEach(func(_, v []byte) error {
			var sess model.Session
			if err := json.Unmarshal(v, &sess); err != nil {
				return err
			}
			if sess.UserID == userID {
				sessions = append(sessions, sess)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store: list sessions: %w", err)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].UpdatedAt.Equal(sessions[j].UpdatedAt) {
			return sessions[i].ID > sessions[j].ID
		}
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// Update applies fn to the stored session and saves the result.
func (s *Sessions) Update(ctx context.Context, id string, fn func(*model.Session)) error {
	return s.db.bolt.Update(func(tx *bolt.Tx) error {
		sess, err := getSession(tx, id)
		if err != nil {
			return err
		}
		fn(sess)
		return putSession(tx, sess)
	})
}

// Delete removes a session and its index entry.
func (s *Sessions) Delete(ctx context.Context, id string) error {
	return s.db.bolt.Update(func(tx *bolt.Tx) error {
		sess, err := getSession(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketSessionKeys).Delete(sessionKey(sess.UserID, sess.Persona)); err != nil {
			return err
		}
		return tx.Bucket(bucketSessions).Delete([]byte(id))
	})
}

func getSession(tx *bolt.Tx, id string) (*model.Session, error) {
	v := tx.Bucket(bucketSessions).Get([]byte(id))
	if v == nil {
		return nil, model.NewError(model.CodeNotFound, "session_not_found",
			fmt.Errorf("%w: chat session %s", model.ErrNotFound, id))
	}
	var sess model.Session
	if err := json.Unmarshal(v, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func putSession(tx *bolt.Tx, sess *model.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketSessions).Put([]byte(sess.ID), data)
}
