package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/capitalize-ai/companion-chat/internal/model"
	"github.com/capitalize-ai/companion-chat/pkg/logger"
	"github.com/capitalize-ai/companion-chat/pkg/metrics"
)

const (
	// StreamName is the name of the chat stream.
	StreamName = "CHAT"

	// SubjectPrefix is the prefix for all chat subjects.
	SubjectPrefix = "chat"

	fetchWait = 2 * time.Second
)

// StreamManager handles JetStream stream operations.
type StreamManager struct {
	client *Client
	logger *logger.Logger
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client, log *logger.Logger) *StreamManager {
	return &StreamManager{client: client, logger: log}
}

// EnsureStream ensures the chat stream exists with proper configuration.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	} else if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream: %w", err)
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		MaxBytes:    10 * 1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		DenyDelete:  true,
		Description: "Chat turns and marketplace events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	m.logger.Info("Created JetStream stream", zap.String("stream", StreamName))
	return nil
}

// RecordStreamStats updates the stream size gauge.
func (m *StreamManager) RecordStreamStats(ctx context.Context) error {
	s, err := m.client.JetStream().Stream(ctx, StreamName)
	if err != nil {
		return err
	}
	info, err := s.Info(ctx)
	if err != nil {
		return err
	}
	metrics.NATSStreamMessages.WithLabelValues(StreamName).Set(float64(info.State.Msgs))
	return nil
}

// TurnSubject returns the subject for a chat turn.
func TurnSubject(sessionID string, author model.Author) string {
	return fmt.Sprintf("%s.%s.turn.%s", SubjectPrefix, sessionID, author)
}

// EventSubject returns the subject for a marketplace event.
func EventSubject(sessionID string, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.event.%s", SubjectPrefix, sessionID, eventType)
}

// TurnFilter matches every turn of a session.
func TurnFilter(sessionID string) string {
	return fmt.Sprintf("%s.%s.turn.>", SubjectPrefix, sessionID)
}

// SessionFilter matches everything recorded for a session.
func SessionFilter(sessionID string) string {
	return fmt.Sprintf("%s.%s.>", SubjectPrefix, sessionID)
}

// HistoryStore keeps chat turns in the JetStream stream.
type HistoryStore struct {
	streams *StreamManager
}

// NewHistoryStore creates a history store over an ensured stream.
func NewHistoryStore(streams *StreamManager) *HistoryStore {
	return &HistoryStore{streams: streams}
}

// AppendTurn publishes a turn and returns its stream sequence.
func (h *HistoryStore) AppendTurn(ctx context.Context, sessionID string, turn model.ChatTurn) (uint64, error) {
	data, err := json.Marshal(turn)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal turn: %w", err)
	}

	ack, err := h.streams.client.JetStream().Publish(ctx, TurnSubject(sessionID, turn.Author), data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish turn: %w", err)
	}
	return ack.Sequence, nil
}

// RecentTurns returns up to limit most recent turns of a session in
// chronological order. A non-positive limit returns the whole session.
//
// Bounded reads start from a window at the tail of the stream and widen it
// until it holds limit turns of the session or covers the whole stream.
func (h *HistoryStore) RecentTurns(ctx context.Context, sessionID string, limit int) ([]model.ChatTurn, error) {
	if limit <= 0 {
		return h.readFrom(ctx, sessionID, 0)
	}

	s, err := h.streams.client.JetStream().Stream(ctx, StreamName)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	info, err := s.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream info: %w", err)
	}
	if info.State.Msgs == 0 {
		return []model.ChatTurn{}, nil
	}

	span := uint64(limit) * historyWindowFactor
	for {
		start := windowStart(info.State.FirstSeq, info.State.LastSeq, span)
		turns, err := h.readFrom(ctx, sessionID, start)
		if err != nil {
			return nil, err
		}
		if len(turns) >= limit || start <= info.State.FirstSeq {
			return lastN(turns, limit), nil
		}
		span *= 4
	}
}

// historyWindowFactor sizes the first tail window relative to the number of
// turns wanted, since other sessions interleave in the same stream.
const historyWindowFactor = 16

// windowStart returns the first sequence of a window of span messages ending
// at last, clamped to first.
func windowStart(first, last, span uint64) uint64 {
	if span == 0 || last < span || last-span+1 <= first {
		return first
	}
	return last - span + 1
}

// readFrom fetches the session's turns from stream sequence start onwards;
// zero reads from the beginning.
func (h *HistoryStore) readFrom(ctx context.Context, sessionID string, start uint64) ([]model.ChatTurn, error) {
	js := h.streams.client.JetStream()

	cfg := jetstream.ConsumerConfig{
		FilterSubject:     TurnFilter(sessionID),
		AckPolicy:         jetstream.AckNonePolicy,
		DeliverPolicy:     jetstream.DeliverAllPolicy,
		InactiveThreshold: 30 * time.Second,
	}
	if start > 1 {
		cfg.DeliverPolicy = jetstream.DeliverByStartSequencePolicy
		cfg.OptStartSeq = start
	}

	consumer, err := js.CreateConsumer(ctx, StreamName, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}
	defer func() {
		_ = js.DeleteConsumer(context.WithoutCancel(ctx), StreamName, consumer.CachedInfo().Name)
	}()

	info, err := consumer.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read consumer info: %w", err)
	}
	pending := int(info.NumPending)
	if pending == 0 {
		return []model.ChatTurn{}, nil
	}

	batch, err := consumer.Fetch(pending, jetstream.FetchMaxWait(fetchWait))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch turns: %w", err)
	}

	turns := make([]model.ChatTurn, 0, pending)
	for msg := range batch.Messages() {
		var turn model.ChatTurn
		if err := json.Unmarshal(msg.Data(), &turn); err != nil {
			h.streams.logger.Warn("Skipping undecodable turn",
				zap.String("session_id", sessionID), zap.String("subject", msg.Subject()), zap.Error(err))
			continue
		}
		if meta, err := msg.Metadata(); err == nil {
			turn.Sequence = meta.Sequence.Stream
		}
		turns = append(turns, turn)
	}
	if err := batch.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, jetstream.ErrNoMessages) {
		return nil, fmt.Errorf("batch error: %w", err)
	}
	return turns, nil
}

// DeleteSession purges every turn and event of a session.
func (h *HistoryStore) DeleteSession(ctx context.Context, sessionID string) error {
	s, err := h.streams.client.JetStream().Stream(ctx, StreamName)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	if err := s.Purge(ctx, jetstream.WithPurgeSubject(SessionFilter(sessionID))); err != nil {
		return fmt.Errorf("failed to purge session: %w", err)
	}
	return nil
}

func lastN(turns []model.ChatTurn, n int) []model.ChatTurn {
	if n > 0 && len(turns) > n {
		return turns[len(turns)-n:]
	}
	return turns
}

// EventPublisher publishes marketplace events for downstream consumers.
type EventPublisher struct {
	streams *StreamManager
}

// NewEventPublisher creates an event publisher over an ensured stream.
func NewEventPublisher(streams *StreamManager) *EventPublisher {
	return &EventPublisher{streams: streams}
}

// Publish publishes a marketplace event, deduplicated by its id.
func (p *EventPublisher) Publish(ctx context.Context, event model.MarketplaceEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = p.streams.client.JetStream().Publish(ctx, EventSubject(event.SessionID, event.Type), data,
		jetstream.WithMsgID(event.ID))
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
