package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/sse"
	"github.com/google/uuid"
)

// Config holds notification service configuration
type Config struct {
	BatchSize     int           // default: 100
	FlushInterval time.Duration // default: 5 seconds
	WorkerCount   int           // default: 2
	QueueSize     int           // default: 1000
}

type service struct {
	repo   notification.Repository
	hub    *sse.Hub[notification.NotificationResponse]
	config Config
	now    func() time.Time

	queue    chan notification.Outbound
	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewNotificationService creates a new notification service with background workers
func NewNotificationService(repo notification.Repository, hub *sse.Hub[notification.NotificationResponse], cfg Config) notification.Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}

	s := &service{
		repo:   repo,
		hub:    hub,
		config: cfg,
		now:    time.Now,
		queue:  make(chan notification.Outbound, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	slog.Info("notification service started",
		"workers", cfg.WorkerCount,
		"batch_size", cfg.BatchSize,
		"flush_interval", cfg.FlushInterval.String(),
	)

	return s
}

// worker drains the queue into batched inserts and pushes stored notifications to SSE subscribers.
func (s *service) worker(id int) {
	defer s.wg.Done()

	batch := make([]notification.Outbound, 0, s.config.BatchSize)
	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		notifications := make([]*notification.Notification, len(batch))
		for i, msg := range batch {
			notifications[i] = s.newNotification(msg)
		}

		if err := s.repo.CreateBatch(ctx, notifications); err != nil {
			slog.Error("failed to batch insert notifications", "worker", id, "count", len(notifications), "error", err)
		} else {
			slog.Debug("inserted notifications", "worker", id, "count", len(notifications))
			for _, n := range notifications {
				s.publish(n)
			}
		}

		batch = batch[:0]
	}

	for {
		select {
		case msg := <-s.queue:
			batch = append(batch, msg)
			if len(batch) >= s.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.stopCh:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case msg := <-s.queue:
					batch = append(batch, msg)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (s *service) newNotification(msg notification.Outbound) *notification.Notification {
	return &notification.Notification{
		ID:          uuid.Must(uuid.NewV7()).String(),
		CompanyID:   msg.CompanyID,
		RecipientID: msg.RecipientID,
		SenderID:    msg.SenderID,
		Type:        msg.Type,
		Title:       msg.Title,
		Message:     msg.Message,
		Link:        msg.Link,
		Data:        msg.Data,
		IsRead:      false,
		CreatedAt:   s.now().UTC(),
	}
}

func (s *service) publish(n *notification.Notification) {
	s.hub.Publish(n.RecipientID, sse.Event[notification.NotificationResponse]{
		Event: "notification",
		Data:  toResponse(n),
	})
}

// Send implements notification.Sink. Messages are queued for batched storage;
// when the queue is full the message is stored directly.
func (s *service) Send(ctx context.Context, msg notification.Outbound) error {
	if msg.RecipientID == "" {
		return notification.ErrRecipientRequired
	}

	select {
	case <-s.stopCh:
		return notification.ErrServiceStopped
	default:
	}

	select {
	case s.queue <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		slog.Warn("notification queue full, inserting directly", "recipient_id", msg.RecipientID)
		return s.directInsert(ctx, msg)
	}
}

func (s *service) directInsert(ctx context.Context, msg notification.Outbound) error {
	n := s.newNotification(msg)
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.publish(n)
	return nil
}

func toResponse(n *notification.Notification) notification.NotificationResponse {
	return notification.NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		Data:      n.Data,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

// GetNotifications retrieves paginated notifications for a user
func (s *service) GetNotifications(ctx context.Context, req notification.ListNotificationsRequest) (*notification.NotificationListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}

	notifications, total, err := s.repo.GetByUserID(ctx, req.UserID, req.Page, req.PageSize, req.UnreadOnly)
	if err != nil {
		return nil, err
	}

	unreadCount, err := s.repo.GetUnreadCount(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	responses := make([]notification.NotificationResponse, len(notifications))
	for i, n := range notifications {
		responses[i] = toResponse(n)
	}

	return &notification.NotificationListResponse{
		Notifications: responses,
		Total:         total,
		UnreadCount:   unreadCount,
		Page:          req.Page,
		PageSize:      req.PageSize,
	}, nil
}

// GetUnreadCount returns the count of unread notifications
func (s *service) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

// MarkAsRead marks the listed notifications, or all of them, as read
func (s *service) MarkAsRead(ctx context.Context, userID string, req notification.MarkAsReadRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if req.All {
		return s.repo.MarkAllAsRead(ctx, userID)
	}
	return s.repo.MarkAsRead(ctx, req.NotificationIDs, userID)
}

// Subscribe creates an SSE subscription for a user
func (s *service) Subscribe(ctx context.Context, userID string) (<-chan notification.SSEEvent, func()) {
	ch, cleanup := s.hub.Subscribe(userID)

	out := make(chan notification.SSEEvent, 10)

	go func() {
		defer close(out)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- notification.SSEEvent{Event: event.Event, Data: event.Data}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cleanup
}

// Stop flushes queued notifications and stops the workers
func (s *service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
	slog.Info("notification service stopped")
}
