package models

import (
	"time"

	"gorm.io/gorm"
)

// Invoice 发票表（编号格式 INV-YYYYMMDD-{零填充订单ID}）
type Invoice struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderID       uint           `gorm:"uniqueIndex;not null" json:"order_id"`                      // 订单ID
	InvoiceNumber string         `gorm:"uniqueIndex;not null" json:"invoice_number"`                // 发票编号
	TotalAmount   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 发票总额
	Currency      string         `gorm:"type:varchar(8);not null" json:"currency"`                  // 币种
	IssuedAt      time.Time      `gorm:"index;not null" json:"issued_at"`                           // 开具时间
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (Invoice) TableName() string {
	return "invoices"
}
