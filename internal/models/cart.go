package models

import (
	"time"

	"gorm.io/gorm"
)

// Cart 购物车表
type Cart struct {
	ID           uint           `gorm:"primarykey" json:"id"`                          // 主键
	UserID       uint           `gorm:"not null;index" json:"user_id"`                 // 用户ID
	CartCode     string         `gorm:"uniqueIndex;not null" json:"cart_code"`         // 购物车编号（CRT-YYYYMMDD-NNNNN）
	Status       string         `gorm:"index;not null;default:'active'" json:"status"` // 状态
	ReminderSent bool           `gorm:"not null;default:false" json:"reminder_sent"`   // 是否已发送提醒
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                       // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间

	Items []CartItem `gorm:"foreignKey:CartID" json:"items,omitempty"` // 关联购物车项
	User  *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`  // 关联用户
}

// TableName 指定表名
func (Cart) TableName() string {
	return "carts"
}
