package repositories

import (
	"time"

	"github.com/tarhal-app/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(comment *models.Comment) error
	GetCommentByID(id uint) (*models.Comment, error)
	ListByPost(postID string, before time.Time, limit int) ([]models.Comment, error)
	DeleteComment(id, userID uint) error
	CreateCommentLike(commentID, userID uint) (bool, error)
	DeleteCommentLike(commentID, userID uint) (bool, error)
	AdjustLikesCount(commentID uint, delta int) error
	CountComments() (int64, error)
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

func (r *PostgresCommentRepository) CreateComment(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

func (r *PostgresCommentRepository) GetCommentByID(id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *PostgresCommentRepository) ListByPost(postID string, before time.Time, limit int) ([]models.Comment, error) {
	var comments []models.Comment
	q := r.db.Where("post_id = ?", postID)
	if !before.IsZero() {
		q = q.Where("created_at < ?", before)
	}
	err := q.Order("created_at DESC").Limit(limit).Find(&comments).Error
	return comments, err
}

func (r *PostgresCommentRepository) DeleteComment(id, userID uint) error {
	res := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Comment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *PostgresCommentRepository) CreateCommentLike(commentID, userID uint) (bool, error) {
	like := &models.CommentLike{CommentID: commentID, UserID: userID}
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "comment_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(like)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresCommentRepository) DeleteCommentLike(commentID, userID uint) (bool, error) {
	res := r.db.Where("comment_id = ? AND user_id = ?", commentID, userID).Delete(&models.CommentLike{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AdjustLikesCount applies an atomic increment so concurrent likes do not
// lose updates.
func (r *PostgresCommentRepository) AdjustLikesCount(commentID uint, delta int) error {
	return r.db.Model(&models.Comment{}).Where("id = ?", commentID).
		Update("likes_count", gorm.Expr("likes_count + ?", delta)).Error
}

func (r *PostgresCommentRepository) CountComments() (int64, error) {
	var count int64
	err := r.db.Model(&models.Comment{}).Count(&count).Error
	return count, err
}
