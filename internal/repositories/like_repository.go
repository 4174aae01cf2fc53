package repositories

import (
	"github.com/tarhal-app/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository defines the interface for post-like data operations
type LikeRepository interface {
	CreateLike(postID string, userID uint) (bool, error)
	DeleteLike(postID string, userID uint) (bool, error)
	HasUserLikedPost(postID string, userID uint) (bool, error)
	LikedPostIDs(userID uint, postIDs []string) (map[string]bool, error)
	ListPostLikes(postID string, limit int) ([]models.Like, error)
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

// CreateLike inserts the like if absent and reports whether a row was
// actually created, so callers only bump the counter once.
func (r *PostgresLikeRepository) CreateLike(postID string, userID uint) (bool, error) {
	like := &models.Like{PostID: postID, UserID: userID}
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(like)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresLikeRepository) DeleteLike(postID string, userID uint) (bool, error) {
	res := r.db.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresLikeRepository) HasUserLikedPost(postID string, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).Count(&count).Error
	return count > 0, err
}

// LikedPostIDs resolves the viewer's likes for a whole page in one query
func (r *PostgresLikeRepository) LikedPostIDs(userID uint, postIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}
	var ids []string
	err := r.db.Model(&models.Like{}).
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

func (r *PostgresLikeRepository) ListPostLikes(postID string, limit int) ([]models.Like, error) {
	var likes []models.Like
	err := r.db.Where("post_id = ?", postID).
		Order("created_at DESC").Limit(limit).Find(&likes).Error
	return likes, err
}
