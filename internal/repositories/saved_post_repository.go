package repositories

import (
	"time"

	"github.com/tarhal-app/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SavedPostRepository defines the interface for bookmark data operations
type SavedPostRepository interface {
	SavePost(userID uint, postID string) error
	UnsavePost(userID uint, postID string) error
	SavedPostIDs(userID uint, postIDs []string) (map[string]bool, error)
	ListSaved(userID uint, before time.Time, limit int) ([]models.SavedPost, error)
}

// PostgresSavedPostRepository implements SavedPostRepository for PostgreSQL
type PostgresSavedPostRepository struct {
	db *gorm.DB
}

// NewPostgresSavedPostRepository creates a new PostgresSavedPostRepository
func NewPostgresSavedPostRepository(db *gorm.DB) *PostgresSavedPostRepository {
	return &PostgresSavedPostRepository{db: db}
}

func (r *PostgresSavedPostRepository) SavePost(userID uint, postID string) error {
	saved := &models.SavedPost{UserID: userID, PostID: postID}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		DoNothing: true,
	}).Create(saved).Error
}

func (r *PostgresSavedPostRepository) UnsavePost(userID uint, postID string) error {
	return r.db.Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.SavedPost{}).Error
}

// SavedPostIDs resolves the viewer's bookmarks for a whole page in one query
func (r *PostgresSavedPostRepository) SavedPostIDs(userID uint, postIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}
	var ids []string
	err := r.db.Model(&models.SavedPost{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

func (r *PostgresSavedPostRepository) ListSaved(userID uint, before time.Time, limit int) ([]models.SavedPost, error) {
	var saved []models.SavedPost
	q := r.db.Where("user_id = ?", userID)
	if !before.IsZero() {
		q = q.Where("created_at < ?", before)
	}
	err := q.Order("created_at DESC").Limit(limit).Find(&saved).Error
	return saved, err
}
