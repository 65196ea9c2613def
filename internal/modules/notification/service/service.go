package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"anoa.com/skillquest/internal/entity"
	notifRepo "anoa.com/skillquest/internal/modules/notification/repository"
	"anoa.com/skillquest/internal/realtime"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type NotificationService interface {
	// CreateNotification persists the notification, then pushes it to the owner.
	CreateNotification(ctx context.Context, notification *entity.Notification) error
	// Emit pushes without persisting.
	Emit(ctx context.Context, notification *entity.Notification) error
	GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error)
	MarkAsRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	CleanupRead(ctx context.Context, olderThan time.Duration) (int64, error)
	Subscribe(ctx context.Context, userID uuid.UUID) (*realtime.Subscription, error)
}

type notificationService struct {
	repo   notifRepo.NotificationRepository
	broker realtime.Broker
	log    *zap.Logger
}

func NewNotificationService(repo notifRepo.NotificationRepository, broker realtime.Broker, log *zap.Logger) NotificationService {
	return &notificationService{
		repo:   repo,
		broker: broker,
		log:    log,
	}
}

// NewData marshals v into a notification payload. It returns nil when v cannot be encoded.
func NewData(v any) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func (s *notificationService) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	if err := s.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("save notification: %w", err)
	}

	// Push failures don't undo the saved row
	if err := s.publish(ctx, notification); err != nil {
		s.log.Warn("failed to push notification",
			zap.String("user_id", notification.UserID.String()),
			zap.String("type", notification.Type),
			zap.Error(err),
		)
	}
	return nil
}

func (s *notificationService) Emit(ctx context.Context, notification *entity.Notification) error {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	return s.publish(ctx, notification)
}

func (s *notificationService) publish(ctx context.Context, notification *entity.Notification) error {
	if s.broker == nil {
		return nil
	}
	return realtime.PublishJSON(ctx, s.broker, realtime.NotificationChannel(notification.UserID), notification)
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error) {
	return s.repo.GetByUserID(ctx, userID, limit, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, userID, id)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) CleanupRead(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.repo.DeleteReadBefore(ctx, time.Now().Add(-olderThan))
}

func (s *notificationService) Subscribe(ctx context.Context, userID uuid.UUID) (*realtime.Subscription, error) {
	if s.broker == nil {
		return nil, fmt.Errorf("notification push is not configured")
	}
	return s.broker.Subscribe(ctx, realtime.NotificationChannel(userID))
}
