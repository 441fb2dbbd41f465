package repository

import (
	"errors"

	"github.com/assem2023-habib/shehrezad/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository 通知数据访问接口
type NotificationRepository interface {
	Create(notification *models.Notification) error
	GetByID(id uint) (*models.Notification, error)
	ListByUser(userID uint, limit int) ([]models.Notification, error)
	MarkRead(id uint) error
}

// GormNotificationRepository GORM 实现
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓库
func NewNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create 创建通知
func (r *GormNotificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// GetByID 按 ID 查询通知
func (r *GormNotificationRepository) GetByID(id uint) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.First(&notification, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

// ListByUser 查询用户通知
func (r *GormNotificationRepository) ListByUser(userID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var notifications []models.Notification
	err := r.db.Where("user_id = ?", userID).
		Order("created_at desc").Limit(limit).Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead 标记已读
func (r *GormNotificationRepository) MarkRead(id uint) error {
	return r.db.Model(&models.Notification{}).
		Where("id = ?", id).Update("read_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}
