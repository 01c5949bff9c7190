package worker

import (
	"github.com/vital-portal/vital/internal/service"
)

// StartNotificationWorker registers the handlers that turn domain events into
// log lines, stub notifications, and real-time issue updates.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
