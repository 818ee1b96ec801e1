package service

import (
	"context"

	"smartbin-backend/internal/events"
	"smartbin-backend/internal/models"
	"smartbin-backend/internal/repository"

	"gorm.io/gorm"
)

// Notification targets
const (
	TargetManager = "manager"
	TargetAdmin   = "admin"
)

type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	publisher        events.Publisher
}

func NewNotificationService(notificationRepo *repository.NotificationRepository, publisher events.Publisher) *NotificationService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &NotificationService{
		notificationRepo: notificationRepo,
		publisher:        publisher,
	}
}

// Record appends a notification inside the caller's transaction.
// Call Announce with the result once the transaction has committed.
func (s *NotificationService) Record(ctx context.Context, tx *gorm.DB, kind, title, description, target string) (*models.Notification, error) {
	n := &models.Notification{
		Type:        kind,
		Title:       title,
		Description: description,
		IsUnread:    true,
		Target:      target,
	}
	if err := s.notificationRepo.WithTx(tx).CreateNotification(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Announce publishes committed notifications
func (s *NotificationService) Announce(notifications ...*models.Notification) {
	for _, n := range notifications {
		if n != nil {
			s.publisher.Publish(events.SubjectNotificationCreated, n)
		}
	}
}

// List returns every notification, newest first
func (s *NotificationService) List(ctx context.Context) ([]models.Notification, error) {
	notifications, err := s.notificationRepo.GetAllNotifications(ctx)
	if err != nil {
		return nil, dbError("list notifications", err)
	}
	return notifications, nil
}

// MarkRead clears the unread flag of one notification
func (s *NotificationService) MarkRead(ctx context.Context, id uint) error {
	affected, err := s.notificationRepo.MarkRead(ctx, id)
	if err != nil {
		return dbError("mark notification read", err)
	}
	if affected > 0 {
		return nil
	}

	// MySQL reports zero rows when the flag was already cleared
	exists, err := s.notificationRepo.NotificationExists(ctx, id)
	if err != nil {
		return dbError("mark notification read", err)
	}
	if !exists {
		return notFoundError("notification not found")
	}
	return nil
}
