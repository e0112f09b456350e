package notification

import (
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
)

// ============= Request DTOs =============

// MarkAsReadRequest marks the listed notifications, or all of them when All is set
type MarkAsReadRequest struct {
	NotificationIDs []string `json:"notification_ids"`
	All             bool     `json:"all"`
}

func (r *MarkAsReadRequest) Validate() error {
	var errs validator.ValidationErrors
	if !r.All && len(r.NotificationIDs) == 0 {
		errs.Add("notification_ids", "notification_ids is required unless all is true")
	}
	for _, id := range r.NotificationIDs {
		if !validator.IsValidUUID(id) {
			errs.Add("notification_ids", "notification_ids must contain valid UUIDs")
			break
		}
	}
	return errs.Err()
}

// ListNotificationsRequest represents a request to list notifications
type ListNotificationsRequest struct {
	UserID     string
	Page       int
	PageSize   int
	UnreadOnly bool
}

// ============= Response DTOs =============

// NotificationResponse represents a notification in API responses
type NotificationResponse struct {
	ID        string                 `json:"id"`
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Link      string                 `json:"link,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	IsRead    bool                   `json:"is_read"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// NotificationListResponse represents a paginated list of notifications
type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Total         int                    `json:"total"`
	UnreadCount   int                    `json:"unread_count"`
	Page          int                    `json:"page"`
	PageSize      int                    `json:"page_size"`
}

// UnreadCountResponse represents the unread notification count
type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// SSETokenResponse carries a short-lived token for the event stream
type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// ============= SSE Event =============

// SSEEvent represents a Server-Sent Event
type SSEEvent struct {
	Event string               `json:"event"`
	Data  NotificationResponse `json:"data"`
}
