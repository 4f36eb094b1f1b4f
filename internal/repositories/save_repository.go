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

// SavedPostRepository defines the interface for saved post operations
type SavedPostRepository interface {
	SavePost(savedPost *models.SavedPost) error
	UnsavePost(userID, postID string, collectionID *string) error
	ListByUser(userID string, cursor *pagination.Cursor, limit int) ([]models.SavedPost, error)
	SavedSet(userID string, postIDs []string) (map[string]bool, error)
	DeleteBatchByUser(userID string, batch int) (int64, error)
}

// PostgresSavedPostRepository implements SavedPostRepository
type PostgresSavedPostRepository struct {
	db *gorm.DB
}

func NewPostgresSavedPostRepository(db *gorm.DB) *PostgresSavedPostRepository {
	return &PostgresSavedPostRepository{db: db}
}

// SavePost inserts the save record; the unique index rejects a second save of
// the same post into the same collection.
func (r *PostgresSavedPostRepository) SavePost(savedPost *models.SavedPost) error {
	if savedPost.CreatedAt.IsZero() {
		savedPost.CreatedAt = time.Now()
	}
	err := r.db.Create(savedPost).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("post already saved")
	}
	return err
}

func (r *PostgresSavedPostRepository) UnsavePost(userID, postID string, collectionID *string) error {
	q := r.db.Where("user_id = ? AND post_id = ?", userID, postID)
	if collectionID == nil {
		q = q.Where("collection_id IS NULL")
	} else {
		q = q.Where("collection_id = ?", *collectionID)
	}
	res := q.Delete(&models.SavedPost{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("saved post not found")
	}
	return nil
}

// ListByUser returns one page of the user's saves, newest first, bounded by
// the cursor.
func (r *PostgresSavedPostRepository) ListByUser(userID string, cursor *pagination.Cursor, limit int) ([]models.SavedPost, error) {
	q := r.db.Where("user_id = ?", userID)
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

	var saved []models.SavedPost
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&saved).Error
	return saved, err
}

// SavedSet reports which of the given posts the user has saved (in any
// collection), for enriching a feed page in one query.
func (r *PostgresSavedPostRepository) SavedSet(userID string, postIDs []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(postIDs) == 0 {
		return result, nil
	}
	var saved []models.SavedPost
	err := r.db.Where("user_id = ? AND post_id IN ?", userID, postIDs).Find(&saved).Error
	if err != nil {
		return nil, err
	}
	for _, s := range saved {
		result[s.PostID] = true
	}
	return result, nil
}

// DeleteBatchByUser removes up to batch of the user's saves, for the account
// cleanup job.
func (r *PostgresSavedPostRepository) DeleteBatchByUser(userID string, batch int) (int64, error) {
	sub := r.db.Model(&models.SavedPost{}).
		Select("id").
		Where("user_id = ?", userID).
		Limit(batch)
	res := r.db.Where("id IN (?)", sub).Delete(&models.SavedPost{})
	return res.RowsAffected, res.Error
}
