package repositories

import (
	"errors"
	"strconv"
	"time"

	"github.com/tidemarkhq/ripple/backend/internal/apperr"
	"github.com/tidemarkhq/ripple/backend/internal/models"
	"github.com/tidemarkhq/ripple/backend/internal/pagination"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(notification *models.Notification) error
	FindRecentUnseen(senderID, receiverID, notifType, targetID string, since time.Time) (*models.Notification, error)
	DeleteRecentUnseen(senderID, receiverID, notifType string, since time.Time) error
	List(receiverID string, cursor *pagination.Cursor, limit int) ([]models.Notification, error)
	UnseenCount(receiverID string) (int64, error)
	MarkSeen(id uint, receiverID string) error
	MarkAllSeen(receiverID string) error
	DeleteBatchByUser(userID string, batch int) (int64, error)
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

// NewPostgresNotificationRepository creates a NotificationRepository backed by
// PostgreSQL
func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(notification *models.Notification) error {
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	return r.db.Create(notification).Error
}

// FindRecentUnseen returns the unseen notification matching the aggregation
// key created at or after since, or nil. Used by the deduplicator to decide
// between refreshing and inserting.
func (r *postgresNotificationRepository) FindRecentUnseen(senderID, receiverID, notifType, targetID string, since time.Time) (*models.Notification, error) {
	var n models.Notification
	err := r.db.
		Where("sender_id = ? AND receiver_id = ? AND type = ? AND target_id = ? AND seen_at IS NULL AND created_at >= ?",
			senderID, receiverID, notifType, targetID, since).
		First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

// DeleteRecentUnseen removes unseen notifications of the given type from
// sender to receiver created at or after since. Deleting nothing is fine: the
// grace-window retraction is best-effort.
func (r *postgresNotificationRepository) DeleteRecentUnseen(senderID, receiverID, notifType string, since time.Time) error {
	return r.db.
		Where("sender_id = ? AND receiver_id = ? AND type = ? AND seen_at IS NULL AND created_at >= ?",
			senderID, receiverID, notifType, since).
		Delete(&models.Notification{}).Error
}

// List returns one page of the receiver's notifications, newest first,
// bounded by the cursor.
func (r *postgresNotificationRepository) List(receiverID string, cursor *pagination.Cursor, limit int) ([]models.Notification, error) {
	q := r.db.Where("receiver_id = ?", receiverID)
	if cursor != nil {
		ts, err := time.Parse(time.RFC3339Nano, cursor.Value)
		if err != nil {
			return nil, apperr.InvalidInput("malformed cursor")
		}
		id, err := strconv.ParseUint(cursor.ID, 10, 64)
		if err != nil {
			return nil, apperr.InvalidInput("malformed cursor")
		}
		q = q.Scopes(pagination.GormBoundary("created_at", ts, id, false))
	}

	var notifications []models.Notification
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&notifications).Error
	return notifications, err
}

func (r *postgresNotificationRepository) UnseenCount(receiverID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("receiver_id = ? AND seen_at IS NULL", receiverID).
		Count(&count).Error
	return count, err
}

func (r *postgresNotificationRepository) MarkSeen(id uint, receiverID string) error {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND receiver_id = ? AND seen_at IS NULL", id, receiverID).
		Update("seen_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}

func (r *postgresNotificationRepository) MarkAllSeen(receiverID string) error {
	return r.db.Model(&models.Notification{}).
		Where("receiver_id = ? AND seen_at IS NULL", receiverID).
		Update("seen_at", time.Now()).Error
}

// DeleteBatchByUser removes up to batch notifications referencing the user on
// either side, returning how many went. The cleanup job calls it until zero.
func (r *postgresNotificationRepository) DeleteBatchByUser(userID string, batch int) (int64, error) {
	sub := r.db.Model(&models.Notification{}).
		Select("id").
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Limit(batch)
	res := r.db.Where("id IN (?)", sub).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
