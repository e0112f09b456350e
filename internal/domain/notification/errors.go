package notification

import "errors"

// Notification domain errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrUnauthorized         = errors.New("unauthorized to access this notification")
	ErrQueueFull            = errors.New("notification queue is full")
	ErrRecipientRequired    = errors.New("notification recipient is required")
	ErrServiceStopped       = errors.New("notification service is stopped")
)
