package repositories

import (
	"time"

	"github.com/tarhal-app/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification data operations
type NotificationRepository interface {
	CreateNotification(n *models.Notification) error
	ListNotifications(recipientID uint, before time.Time, limit int) ([]models.Notification, error)
	MarkRead(id, recipientID uint) error
	MarkAllRead(recipientID uint) error
	CountUnread(recipientID uint) (int64, error)
	CountNotifications() (int64, error)
}

// PostgresNotificationRepository implements NotificationRepository for PostgreSQL
type PostgresNotificationRepository struct {
	db *gorm.DB
}

// NewPostgresNotificationRepository creates a new PostgresNotificationRepository
func NewPostgresNotificationRepository(db *gorm.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) CreateNotification(n *models.Notification) error {
	return r.db.Create(n).Error
}

func (r *PostgresNotificationRepository) ListNotifications(recipientID uint, before time.Time, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	q := r.db.Where("recipient_id = ?", recipientID)
	if !before.IsZero() {
		q = q.Where("created_at < ?", before)
	}
	err := q.Order("created_at DESC").Limit(limit).Find(&notifications).Error
	return notifications, err
}

func (r *PostgresNotificationRepository) MarkRead(id, recipientID uint) error {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *PostgresNotificationRepository) MarkAllRead(recipientID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true).Error
}

func (r *PostgresNotificationRepository) CountUnread(recipientID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).Count(&count).Error
	return count, err
}

func (r *PostgresNotificationRepository) CountNotifications() (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).Count(&count).Error
	return count, err
}
