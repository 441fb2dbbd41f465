package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification 通知表（管理端与用户端共用）
type Notification struct {
	ID        uint           `gorm:"primarykey" json:"id"`           // 主键
	Audience  string         `gorm:"index;not null" json:"audience"` // 受众（admin/user）
	UserID    uint           `gorm:"index" json:"user_id"`           // 用户ID（admin 通知为 0）
	Title     string         `gorm:"not null" json:"title"`          // 标题
	Body      string         `gorm:"type:text" json:"body"`          // 正文
	Type      string         `gorm:"index;not null" json:"type"`     // 类型
	DataJSON  JSON           `gorm:"type:json" json:"data"`          // 附加数据
	ReadAt    *time.Time     `gorm:"index" json:"read_at"`           // 阅读时间
	CreatedAt time.Time      `gorm:"index" json:"created_at"`        // 创建时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                 // 软删除时间
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}
