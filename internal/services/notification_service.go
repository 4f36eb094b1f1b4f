package services

import (
	"log/slog"
	"time"

	"github.com/tidemarkhq/ripple/backend/internal/models"
	"github.com/tidemarkhq/ripple/backend/internal/repositories"
)

// likeDedupWindow is the span within which repeated like notifications from
// the same sender on the same target collapse into one unseen record. Fixed,
// not caller-configurable.
const likeDedupWindow = 24 * time.Hour

// followRetractWindow is how long after a follow an immediate unfollow still
// silently retracts the unseen newFollower notification. Counter adjustments
// are never suppressed by this window.
const followRetractWindow = 10 * time.Minute

// NotificationService writes notification records. All of it is best-effort:
// a failed write is logged and swallowed, never surfaced to the caller of the
// triggering action, and it runs only after the triggering transaction
// committed.
type NotificationService struct {
	notifications repositories.NotificationRepository
	log           *slog.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notifications repositories.NotificationRepository, log *slog.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, log: log}
}

// Notify records a notification event. Self-notifications are never
// generated. For aggregatable types, an unseen notification with the same
// (sender, receiver, type, target) inside the dedup window suppresses the
// insert; the existing record keeps its original timestamp so recency
// reflects first occurrence.
func (s *NotificationService) Notify(senderID, receiverID, notifType, targetID, targetType string) {
	if senderID == receiverID {
		return
	}

	if models.Aggregatable(notifType) {
		existing, err := s.notifications.FindRecentUnseen(senderID, receiverID, notifType, targetID, time.Now().Add(-likeDedupWindow))
		if err != nil {
			s.log.Warn("notification dedup lookup failed", "type", notifType, "error", err)
			return
		}
		if existing != nil {
			return
		}
	}

	n := &models.Notification{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Type:       notifType,
		TargetID:   targetID,
		TargetType: targetType,
	}
	if err := s.notifications.CreateNotification(n); err != nil {
		s.log.Warn("notification write failed", "type", notifType, "error", err)
	}
}

// RetractFollow deletes a still-unseen newFollower notification if the follow
// was undone within the grace window, so the receiver is not notified about a
// follow that no longer exists.
func (s *NotificationService) RetractFollow(senderID, receiverID string) {
	err := s.notifications.DeleteRecentUnseen(senderID, receiverID, models.NotifNewFollower, time.Now().Add(-followRetractWindow))
	if err != nil {
		s.log.Warn("follow notification retraction failed", "error", err)
	}
}
