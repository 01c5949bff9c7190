// Package realtime pushes issue updates to live detail views over Redis pub/sub.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vital-portal/vital/internal/domain"
)

const channelPrefix = "vital:issue:"

// ErrUnavailable is returned when no Redis client is configured.
var ErrUnavailable = errors.New("realtime updates unavailable")

// IssueUpdate is the message broadcast on an issue's channel.
type IssueUpdate struct {
	IssueID   string             `json:"issueId"`
	Status    domain.IssueStatus `json:"status"`
	Action    domain.AuditAction `json:"action,omitempty"`
	ByRole    domain.Role        `json:"byRole,omitempty"`
	Comment   string             `json:"comment,omitempty"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Channel names the pub/sub channel of an issue.
func Channel(issueID string) string {
	return channelPrefix + issueID
}

// Hub publishes and subscribes to issue channels.
type Hub struct {
	client *redis.Client
	logger *zap.Logger
}

// NewHub wraps a Redis client. A nil client yields a hub whose publishes are
// dropped and whose subscriptions fail with ErrUnavailable.
func NewHub(client *redis.Client, logger *zap.Logger) *Hub {
	return &Hub{client: client, logger: logger}
}

// Publish broadcasts update to the issue's subscribers.
func (h *Hub) Publish(ctx context.Context, update IssueUpdate) error {
	if h.client == nil {
		h.logger.Debug("realtime publish dropped", zap.String("issue_id", update.IssueID))
		return nil
	}
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encode issue update: %w", err)
	}
	return h.client.Publish(ctx, Channel(update.IssueID), payload).Err()
}

// Subscribe streams updates for one issue until ctx ends or cancel is called.
// The returned channel is closed when the subscription stops.
func (h *Hub) Subscribe(ctx context.Context, issueID string) (<-chan IssueUpdate, func(), error) {
	if h.client == nil {
		return nil, nil, ErrUnavailable
	}
	pubsub := h.client.Subscribe(ctx, Channel(issueID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", issueID, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan IssueUpdate, 8)
	go func() {
		defer close(out)
		defer pubsub.Close()
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				update, err := Decode([]byte(msg.Payload))
				if err != nil {
					h.logger.Warn("dropping malformed issue update", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- update:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, cancel, nil
}

// Decode parses a broadcast payload.
func Decode(payload []byte) (IssueUpdate, error) {
	var update IssueUpdate
	if err := json.Unmarshal(payload, &update); err != nil {
		return IssueUpdate{}, err
	}
	if update.IssueID == "" {
		return IssueUpdate{}, errors.New("issue update missing issueId")
	}
	return update, nil
}

// Ping reports whether Redis is reachable.
func (h *Hub) Ping(ctx context.Context) error {
	if h.client == nil {
		return ErrUnavailable
	}
	return h.client.Ping(ctx).Err()
}
