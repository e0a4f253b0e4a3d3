package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/companion-chat/internal/model"
	"github.com/capitalize-ai/companion-chat/internal/pipeline"
	"github.com/capitalize-ai/companion-chat/pkg/logger"
	"github.com/capitalize-ai/companion-chat/pkg/metrics"
)

// MaxMessageLength bounds a single chat message in runes.
const MaxMessageLength = 4000

// Responder produces the assistant's reply for a message.
type Responder interface {
	Respond(ctx context.Context, req pipeline.Request) pipeline.Reply
}

// ChatService records turns and runs the response pipeline.
type ChatService struct {
	sessions  *SessionService
	history   History
	responder Responder
	window    int
	logger    *logger.Logger
}

// NewChatService creates a new chat service. window is the number of prior
// turns handed to the pipeline.
func NewChatService(sessions *SessionService, history History, responder Responder, window int, log *logger.Logger) *ChatService {
	return &ChatService{
		sessions:  sessions,
		history:   history,
		responder: responder,
		window:    window,
		logger:    log,
	}
}

// ValidateContent trims a message and rejects empty or oversized content.
func ValidateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", model.Validation("empty_message", "message content is required")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return "", model.Validation("message_too_long", fmt.Sprintf("message exceeds %d characters", MaxMessageLength))
	}
	return content, nil
}

// Send records the user's message, answers it and records the answer.
func (s *ChatService) Send(ctx context.Context, userID, sessionID string, req *model.SendMessageRequest) (*model.SendMessageResponse, error) {
	content, err := ValidateContent(req.Content)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	log := s.logger.WithSession(sessionID, userID)

	history, err := s.history.RecentTurns(ctx, sessionID, s.window)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	userTurn := &model.ChatTurn{
		ID:        uuid.Must(uuid.NewV7()).String(),
		SessionID: sessionID,
		Author:    model.AuthorUser,
		Text:      content,
		Timestamp: time.Now().UTC(),
	}
	if userTurn.Sequence, err = s.history.AppendTurn(ctx, sessionID, *userTurn); err != nil {
		return nil, fmt.Errorf("failed to record user message: %w", err)
	}
	metrics.MessagesTotal.WithLabelValues(string(sess.Persona), string(model.AuthorUser)).Inc()

	reply := s.responder.Respond(ctx, pipeline.Request{
		SessionID: sessionID,
		UserID:    userID,
		Persona:   sess.Persona,
		Message:   content,
		History:   history,
	})

	aiTurn := &model.ChatTurn{
		ID:        uuid.Must(uuid.NewV7()).String(),
		SessionID: sessionID,
		Author:    model.AuthorAssistant,
		Text:      reply.Text,
		Timestamp: time.Now().UTC(),
		Metadata:  reply.Effect.Metadata(),
	}
	if aiTurn.Sequence, err = s.history.AppendTurn(ctx, sessionID, *aiTurn); err != nil {
		return nil, fmt.Errorf("failed to record assistant message: %w", err)
	}
	metrics.MessagesTotal.WithLabelValues(string(sess.Persona), string(model.AuthorAssistant)).Inc()

	if err := s.sessions.Touch(ctx, userID, sessionID, aiTurn, 2); err != nil {
		log.Warn("Session vanished during send", zap.Error(err))
	}
	log.Info("Message answered", zap.String("route", string(reply.Route.Kind)))

	resp := &model.SendMessageResponse{
		UserMessage:        userTurn,
		AIResponse:         aiTurn,
		MarketplaceResults: []model.CatalogItem{},
	}
	switch e := reply.Effect.(type) {
	case pipeline.MarketplaceResults:
		resp.MarketplaceResults = e.Items
	case pipeline.WebResults:
		res := e.Results
		resp.SearchResults = &res
	}
	return resp, nil
}

// Messages returns every recorded turn of a session.
func (s *ChatService) Messages(ctx context.Context, userID, sessionID string) (*model.ListTurnsResponse, error) {
	if _, err := s.sessions.Get(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	turns, err := s.history.RecentTurns(ctx, sessionID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return &model.ListTurnsResponse{Messages: turns}, nil
}
