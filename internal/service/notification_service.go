package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/vital-portal/vital/internal/config"
	"github.com/vital-portal/vital/internal/events"
	"github.com/vital-portal/vital/internal/observability"
	"github.com/vital-portal/vital/internal/realtime"
)

// UpdatePublisher pushes an issue update to live subscribers.
type UpdatePublisher interface {
	Publish(ctx context.Context, update realtime.IssueUpdate) error
}

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  UpdatePublisher
	metrics    *observability.Metrics
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, publisher UpdatePublisher, metrics *observability.Metrics, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventIssueCreated, n.handleIssueCreated)
	n.dispatcher.Subscribe(events.EventIssueStatusChanged, n.handleIssueStatusChanged)
	n.dispatcher.Subscribe(events.EventFundRequestCreated, n.handleFundRequestCreated)
	n.dispatcher.Subscribe(events.EventFundRequestDecided, n.handleFundRequestDecided)
	n.dispatcher.Subscribe(events.EventAuthorityVerified, n.handleAuthorityVerified)
}

func (n *NotificationService) handleIssueCreated(ctx context.Context, event events.Event) error {
	n.metrics.RecordEvent(string(event.Type))
	n.logger.Info("IssueCreated", zap.String("issue_id", event.IssueID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

// handleIssueStatusChanged pushes the new status to open detail views.
func (n *NotificationService) handleIssueStatusChanged(ctx context.Context, event events.Event) error {
	n.metrics.RecordEvent(string(event.Type))
	n.logger.Info("IssueStatusChanged", zap.String("issue_id", event.IssueID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)

	payload, ok := event.Payload.(events.IssueStatusChangedPayload)
	if !ok || n.publisher == nil {
		return nil
	}
	return n.publisher.Publish(ctx, realtime.IssueUpdate{
		IssueID:   event.IssueID,
		Status:    payload.NewStatus,
		Action:    payload.Action,
		ByRole:    event.Actor.Role,
		Comment:   payload.Comment,
		UpdatedAt: event.Timestamp,
	})
}

func (n *NotificationService) handleFundRequestCreated(ctx context.Context, event events.Event) error {
	n.metrics.RecordEvent(string(event.Type))
	n.logger.Info("FundRequestCreated", zap.String("fund_request_id", event.FundRequestID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleFundRequestDecided(ctx context.Context, event events.Event) error {
	n.metrics.RecordEvent(string(event.Type))
	n.logger.Info("FundRequestDecided", zap.String("fund_request_id", event.FundRequestID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleAuthorityVerified(ctx context.Context, event events.Event) error {
	n.metrics.RecordEvent(string(event.Type))
	n.logger.Info("AuthorityVerified", zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("issue_id", event.IssueID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("issue_id", event.IssueID),
		zap.String("event_type", string(event.Type)))
}
