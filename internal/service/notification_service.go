package service

import (
	"context"
	"time"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/Surya12v/project-s/emi-backend/internal/websocket"
	"github.com/google/uuid"
)

// NotificationPayload is the body of a notification.created event
type NotificationPayload struct {
	ID        string                  `json:"id"`
	Type      domain.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Link      string                  `json:"link,omitempty"`
	CreatedAt time.Time               `json:"createdAt"`
}

// NotificationService pushes user notifications to connected websocket clients
type NotificationService struct {
	publisher websocket.EventPublisher
}

// Ensure NotificationService implements domain.Notifier
var _ domain.Notifier = (*NotificationService)(nil)

// NewNotificationService creates a new NotificationService
func NewNotificationService(publisher websocket.EventPublisher) *NotificationService {
	if publisher == nil {
		publisher = &websocket.NoOpPublisher{}
	}
	return &NotificationService{publisher: publisher}
}

// Notify publishes a notification.created event to every connection of the user.
// Users without an open connection simply miss the push.
func (s *NotificationService) Notify(ctx context.Context, userID string, notificationType domain.NotificationType, title, message, link string) error {
	if userID == "" {
		return domain.ErrUserIDRequired
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.publisher.Publish(userID, websocket.NotificationCreated(NotificationPayload{
		ID:        uuid.New().String(),
		Type:      notificationType,
		Title:     title,
		Message:   message,
		Link:      link,
		CreatedAt: time.Now().UTC(),
	}))
	return nil
}
