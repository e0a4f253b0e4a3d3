// Package service provides the session and chat operations behind the HTTP API.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/companion-chat/internal/model"
	"github.com/capitalize-ai/companion-chat/pkg/logger"
	"github.com/capitalize-ai/companion-chat/pkg/metrics"
)

// History is the durable record of chat turns.
type History interface {
	AppendTurn(ctx context.Context, sessionID string, turn model.ChatTurn) (uint64, error)
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]model.ChatTurn, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// SessionStore persists sessions. Create is get-or-create per user and
// persona.
type SessionStore interface {
	Create(ctx context.Context, sess *model.Session) (*model.Session, bool, error)
	Get(ctx context.Context, id string) (*model.Session, error)
	ListByUser(ctx context.Context, userID string) ([]model.Session, error)
	Update(ctx context.Context, id string, fn func(*model.Session)) error
	Delete(ctx context.Context, id string) error
}

// SessionService handles session lifecycle. There is at most one session per
// user and persona.
type SessionService struct {
	store   SessionStore
	history History
	logger  *logger.Logger
	now     func() time.Time
}

// NewSessionService creates a new session service.
func NewSessionService(store SessionStore, history History, log *logger.Logger) *SessionService {
	return &SessionService{
		store:   store,
		history: history,
		logger:  log,
		now:     time.Now,
	}
}

// Start returns the user's session with the persona, creating it on first
// use. The second result reports whether a session was created.
func (s *SessionService) Start(ctx context.Context, userID, persona string) (*model.Session, bool, error) {
	p, err := model.ParsePersona(persona)
	if err != nil {
		return nil, false, err
	}

	now := s.now().UTC()
	sess, created, err := s.store.Create(ctx, &model.Session{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    userID,
		Persona:   p,
		Title:     fmt.Sprintf("Chat with %s Friend", p.Title()),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, false, err
	}
	if !created {
		return sess, false, nil
	}

	metrics.SessionsTotal.WithLabelValues(string(p)).Inc()
	s.logger.Info("Session created",
		zap.String("session_id", sess.ID),
		zap.String("user_id", userID),
		zap.String("persona", string(p)),
	)
	return sess, true, nil
}

// Get returns one of the user's sessions.
func (s *SessionService) Get(ctx context.Context, userID, sessionID string) (*model.Session, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, sessionNotFound(sessionID)
	}
	return sess, nil
}

// List returns the user's sessions, most recently updated first.
func (s *SessionService) List(ctx context.Context, userID string) (*model.ListSessionsResponse, error) {
	sessions, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.ListSessionsResponse{Sessions: sessions, Total: len(sessions)}, nil
}

// Delete removes a session and its recorded turns.
func (s *SessionService) Delete(ctx context.Context, userID, sessionID string) error {
	if _, err := s.Get(ctx, userID, sessionID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	if err := s.history.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session history: %w", err)
	}
	s.logger.Info("Session deleted", zap.String("session_id", sessionID), zap.String("user_id", userID))
	return nil
}

// Touch records new turns on a session.
func (s *SessionService) Touch(ctx context.Context, userID, sessionID string, last *model.ChatTurn, turns int) error {
	if _, err := s.Get(ctx, userID, sessionID); err != nil {
		return err
	}
	now := s.now().UTC()
	return s.store.Update(ctx, sessionID, func(sess *model.Session) {
		sess.TurnCount += turns
		sess.LastTurn = last
		sess.UpdatedAt = now
	})
}

func sessionNotFound(id string) error {
	return model.NewError(model.CodeNotFound, "session_not_found",
		fmt.Errorf("%w: chat session %s", model.ErrNotFound, id))
}
