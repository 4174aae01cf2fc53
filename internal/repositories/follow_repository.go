package repositories

import (
	"fmt"
	"time"

	"github.com/tarhal-app/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines the interface for follow-edge data operations
type FollowRepository interface {
	UpsertFollow(followerID, followingID uint, status models.FollowStatus) (*models.Follow, error)
	GetFollowByID(id uint) (*models.Follow, error)
	GetFollow(followerID, followingID uint) (*models.Follow, error)
	AcceptFollow(id uint) error
	DeleteFollowByID(id, followerID uint) error
	DeleteFollowByPair(followerID, followingID uint) error
	DeleteFollow(id uint) error
	IsFollowingAccepted(viewerID, ownerID uint) (bool, error)
	AcceptedFollowingIDSet(viewerID uint, ownerIDs []uint) (map[uint]bool, error)
	HasAcceptedEither(a, b uint) (bool, error)
	ListFollowers(ownerID uint, before time.Time, limit int) ([]models.Follow, error)
	ListFollowing(followerID uint, before time.Time, limit int) ([]models.Follow, error)
	ListPendingRequests(ownerID uint) ([]models.Follow, error)
	CountFollowers(ownerID uint) (int64, error)
	CountFollowing(followerID uint) (int64, error)
	CountFollows() (int64, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

// UpsertFollow creates the edge if none exists for the ordered pair and
// returns the stored edge either way. The unique index on
// (follower_id, following_id) is the correctness guarantee under concurrent
// double-submission; a lost insert race falls through to the fetch.
func (r *PostgresFollowRepository) UpsertFollow(followerID, followingID uint, status models.FollowStatus) (*models.Follow, error) {
	follow := &models.Follow{
		FollowerID:  followerID,
		FollowingID: followingID,
		Status:      status,
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "follower_id"}, {Name: "following_id"}},
		DoNothing: true,
	}).Create(follow).Error
	if err != nil {
		return nil, err
	}
	return r.GetFollow(followerID, followingID)
}

func (r *PostgresFollowRepository) GetFollowByID(id uint) (*models.Follow, error) {
	var follow models.Follow
	if err := r.db.First(&follow, id).Error; err != nil {
		return nil, err
	}
	return &follow, nil
}

func (r *PostgresFollowRepository) GetFollow(followerID, followingID uint) (*models.Follow, error) {
	var follow models.Follow
	err := r.db.Where("follower_id = ? AND following_id = ?", followerID, followingID).First(&follow).Error
	if err != nil {
		return nil, err
	}
	return &follow, nil
}

func (r *PostgresFollowRepository) AcceptFollow(id uint) error {
	res := r.db.Model(&models.Follow{}).Where("id = ?", id).Update("status", models.FollowAccepted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *PostgresFollowRepository) DeleteFollowByID(id, followerID uint) error {
	res := r.db.Where("id = ? AND follower_id = ?", id, followerID).Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("follow relationship not found")
	}
	return nil
}

func (r *PostgresFollowRepository) DeleteFollowByPair(followerID, followingID uint) error {
	return r.db.Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{}).Error
}

func (r *PostgresFollowRepository) DeleteFollow(id uint) error {
	return r.db.Delete(&models.Follow{}, id).Error
}

func (r *PostgresFollowRepository) IsFollowingAccepted(viewerID, ownerID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ? AND status = ?", viewerID, ownerID, models.FollowAccepted).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AcceptedFollowingIDSet returns, in one query, the subset of ownerIDs the
// viewer follows with accepted status.
func (r *PostgresFollowRepository) AcceptedFollowingIDSet(viewerID uint, ownerIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return result, nil
	}
	var ids []uint
	err := r.db.Model(&models.Follow{}).
		Where("follower_id = ? AND following_id IN ? AND status = ?", viewerID, ownerIDs, models.FollowAccepted).
		Pluck("following_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

// HasAcceptedEither reports whether an accepted edge exists in either
// direction between the pair.
func (r *PostgresFollowRepository) HasAcceptedEither(a, b uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Follow{}).
		Where("status = ? AND ((follower_id = ? AND following_id = ?) OR (follower_id = ? AND following_id = ?))",
			models.FollowAccepted, a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresFollowRepository) ListFollowers(ownerID uint, before time.Time, limit int) ([]models.Follow, error) {
	var follows []models.Follow
	q := r.db.Where("following_id = ? AND status = ?", ownerID, models.FollowAccepted)
	if !before.IsZero() {
		q = q.Where("created_at < ?", before)
	}
	err := q.Order("created_at DESC").Limit(limit).Find(&follows).Error
	return follows, err
}

func (r *PostgresFollowRepository) ListFollowing(followerID uint, before time.Time, limit int) ([]models.Follow, error) {
	var follows []models.Follow
	q := r.db.Where("follower_id = ? AND status = ?", followerID, models.FollowAccepted)
	if !before.IsZero() {
		q = q.Where("created_at < ?", before)
	}
	err := q.Order("created_at DESC").Limit(limit).Find(&follows).Error
	return follows, err
}

func (r *PostgresFollowRepository) ListPendingRequests(ownerID uint) ([]models.Follow, error) {
	var follows []models.Follow
	err := r.db.Where("following_id = ? AND status = ?", ownerID, models.FollowPending).
		Order("created_at DESC").Find(&follows).Error
	return follows, err
}

func (r *PostgresFollowRepository) CountFollowers(ownerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Follow{}).
		Where("following_id = ? AND status = ?", ownerID, models.FollowAccepted).Count(&count).Error
	return count, err
}

func (r *PostgresFollowRepository) CountFollowing(followerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Follow{}).
		Where("follower_id = ? AND status = ?", followerID, models.FollowAccepted).Count(&count).Error
	return count, err
}

func (r *PostgresFollowRepository) CountFollows() (int64, error) {
	var count int64
	err := r.db.Model(&models.Follow{}).Count(&count).Error
	return count, err
}
