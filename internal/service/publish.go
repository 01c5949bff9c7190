package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vital-portal/vital/internal/domain"
	"github.com/vital-portal/vital/internal/events"
	"github.com/vital-portal/vital/internal/repository"
)

// TransitionResult is the outcome of a state change. AuditWarning is set when
// the change persisted but its audit entry could not be written.
type TransitionResult struct {
	Issue        *domain.Issue
	FundRequest  *domain.FundRequest
	AuditWarning string
}

const auditWarning = "change saved, but the audit log entry could not be written"

func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, now func() time.Time, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = now()
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}

// appendAudit writes entry and returns a warning instead of an error: a
// failed audit write never undoes the change it describes.
func appendAudit(ctx context.Context, audits repository.AuditLogRepository, logger *zap.Logger, entry domain.AuditLogEntry) string {
	if audits == nil {
		return ""
	}
	if err := audits.Append(ctx, &entry); err != nil {
		fields := []zap.Field{
			zap.String("action", string(entry.Action)),
			zap.String("by_uid", entry.ByUID),
			zap.Error(err),
		}
		if entry.IssueID != nil {
			fields = append(fields, zap.String("issue_id", *entry.IssueID))
		}
		if entry.FundRequestID != nil {
			fields = append(fields, zap.String("fund_request_id", *entry.FundRequestID))
		}
		logger.Warn("audit append failed", fields...)
		return auditWarning
	}
	return ""
}
