package notification

import (
	"context"
)

// Service stores notifications, streams them over SSE and acts as a Sink.
type Service interface {
	Sink

	GetNotifications(ctx context.Context, req ListNotificationsRequest) (*NotificationListResponse, error)
	GetUnreadCount(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, userID string, req MarkAsReadRequest) error

	// SSE subscription
	Subscribe(ctx context.Context, userID string) (<-chan SSEEvent, func())

	// Lifecycle
	Stop()
}
