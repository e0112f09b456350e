package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type notificationRepository struct {
	db *database.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB) notification.Repository {
	return &notificationRepository{db: db}
}

var notificationColumns = []string{
	"id", "company_id", "recipient_id", "sender_id", "type", "title", "message", "link", "data", "is_read", "created_at",
}

func notificationRow(n *notification.Notification) ([]interface{}, error) {
	if n.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate notification id: %w", err)
		}
		n.ID = id.String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	var dataJSON []byte
	if n.Data != nil {
		b, err := json.Marshal(n.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal notification data: %w", err)
		}
		dataJSON = b
	}

	return []interface{}{
		n.ID, n.CompanyID, n.RecipientID, n.SenderID, string(n.Type),
		n.Title, n.Message, n.Link, dataJSON, n.IsRead, n.CreatedAt,
	}, nil
}

// Create creates a new notification
func (r *notificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	q := GetQuerier(ctx, r.db)

	row, err := notificationRow(n)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO notifications (id, company_id, recipient_id, sender_id, type, title, message, link, data, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if _, err := q.Exec(ctx, query, row...); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// CreateBatch stores notifications with a single COPY
func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []*notification.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	q := GetQuerier(ctx, r.db)

	rows := make([][]interface{}, 0, len(notifications))
	for _, n := range notifications {
		row, err := notificationRow(n)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	if _, err := q.CopyFrom(ctx, pgx.Identifier{"notifications"}, notificationColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("failed to batch create notifications: %w", err)
	}

	return nil
}

// GetByUserID retrieves notifications for a user with pagination
func (r *notificationRepository) GetByUserID(ctx context.Context, userID string, page, pageSize int, unreadOnly bool) ([]*notification.Notification, int, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, recipient_id, sender_id, type, title, message, link, data, is_read, read_at, created_at,
			COUNT(*) OVER() AS total
		FROM notifications
		WHERE recipient_id = $1 AND ($2 = false OR is_read = false)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := q.Query(ctx, query, userID, unreadOnly, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var (
		notifications []*notification.Notification
		total         int
	)
	for rows.Next() {
		var n notification.Notification
		var dataJSON []byte
		var notifType string

		if err := rows.Scan(
			&n.ID, &n.CompanyID, &n.RecipientID, &n.SenderID, &notifType,
			&n.Title, &n.Message, &n.Link, &dataJSON, &n.IsRead, &n.ReadAt, &n.CreatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}

		n.Type = notification.NotificationType(notifType)
		if dataJSON != nil {
			if err := json.Unmarshal(dataJSON, &n.Data); err != nil {
				return nil, 0, fmt.Errorf("failed to unmarshal notification data: %w", err)
			}
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read notifications: %w", err)
	}

	return notifications, total, nil
}

// GetUnreadCount returns the count of unread notifications for a user
func (r *notificationRepository) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	q := GetQuerier(ctx, r.db)

	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = false`
	if err := q.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}

// MarkAsRead marks specific notifications as read
func (r *notificationRepository) MarkAsRead(ctx context.Context, ids []string, userID string) error {
	if len(ids) == 0 {
		return nil
	}

	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE notifications
		SET is_read = true, read_at = NOW()
		WHERE recipient_id = $1 AND id = ANY($2::uuid[]) AND is_read = false
	`
	if _, err := q.Exec(ctx, query, userID, ids); err != nil {
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}

	return nil
}

// MarkAllAsRead marks all notifications as read for a user
func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE notifications
		SET is_read = true, read_at = NOW()
		WHERE recipient_id = $1 AND is_read = false
	`
	if _, err := q.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}

	return nil
}
