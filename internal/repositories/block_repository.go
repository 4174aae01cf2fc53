package repositories

import (
	"github.com/tarhal-app/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlockRepository defines the interface for block-edge data operations
type BlockRepository interface {
	CreateBlock(blockerID, blockedID uint) error
	DeleteBlock(blockerID, blockedID uint) error
	ListBlocked(blockerID uint) ([]models.Block, error)
	ExcludedCounterparts(viewerID uint, candidateIDs []uint) (map[uint]struct{}, error)
	IsBlockedEither(a, b uint) (bool, error)
}

// PostgresBlockRepository implements BlockRepository for PostgreSQL
type PostgresBlockRepository struct {
	db *gorm.DB
}

// NewPostgresBlockRepository creates a new PostgresBlockRepository
func NewPostgresBlockRepository(db *gorm.DB) *PostgresBlockRepository {
	return &PostgresBlockRepository{db: db}
}

func (r *PostgresBlockRepository) CreateBlock(blockerID, blockedID uint) error {
	block := &models.Block{BlockerID: blockerID, BlockedID: blockedID}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "blocker_id"}, {Name: "blocked_id"}},
		DoNothing: true,
	}).Create(block).Error
}

func (r *PostgresBlockRepository) DeleteBlock(blockerID, blockedID uint) error {
	return r.db.Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.Block{}).Error
}

func (r *PostgresBlockRepository) ListBlocked(blockerID uint) ([]models.Block, error) {
	var blocks []models.Block
	err := r.db.Where("blocker_id = ?", blockerID).Order("created_at DESC").Find(&blocks).Error
	return blocks, err
}

// ExcludedCounterparts returns the subset of candidateIDs that are mutually
// exclusionary with the viewer: users the viewer blocked plus users who
// blocked the viewer. A single query covers the whole candidate set so the
// query count stays constant per page.
func (r *PostgresBlockRepository) ExcludedCounterparts(viewerID uint, candidateIDs []uint) (map[uint]struct{}, error) {
	excluded := make(map[uint]struct{}, len(candidateIDs))
	if len(candidateIDs) == 0 {
		return excluded, nil
	}
	var blocks []models.Block
	err := r.db.
		Where("(blocker_id = ? AND blocked_id IN ?) OR (blocker_id IN ? AND blocked_id = ?)",
			viewerID, candidateIDs, candidateIDs, viewerID).
		Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	for _, b := range blocks {
		if b.BlockerID == viewerID {
			excluded[b.BlockedID] = struct{}{}
		} else {
			excluded[b.BlockerID] = struct{}{}
		}
	}
	return excluded, nil
}

func (r *PostgresBlockRepository) IsBlockedEither(a, b uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
