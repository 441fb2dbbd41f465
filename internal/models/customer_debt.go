package models

import (
	"time"

	"gorm.io/gorm"
)

// CustomerDebt 顾客债务表
// 不变量：remaining = amount - paid_amount，remaining >= 0，remaining = 0 当且仅当 status = paid。
type CustomerDebt struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                     // 主键
	UserID      uint           `gorm:"not null;index" json:"user_id"`                            // 用户ID
	OrderID     *uint          `gorm:"index" json:"order_id"`                                    // 关联订单ID（可空）
	Amount      Money          `gorm:"type:decimal(20,2);not null" json:"amount"`                // 债务总额
	PaidAmount  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"paid_amount"` // 已还金额
	Remaining   Money          `gorm:"type:decimal(20,2);not null" json:"remaining"`             // 剩余金额
	Status      string         `gorm:"index;not null;default:'pending'" json:"status"`           // 状态（pending/partial/paid）
	Currency    string         `gorm:"type:varchar(8);not null;index" json:"currency"`           // 币种
	Description string         `gorm:"type:text" json:"description"`                             // 说明
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                  // 创建时间（FIFO 分配顺序依据）
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                  // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                           // 软删除时间
}

// TableName 指定表名
func (CustomerDebt) TableName() string {
	return "customer_debts"
}

// DebtPayment 债务还款流水
type DebtPayment struct {
	ID        uint      `gorm:"primarykey" json:"id"`                      // 主键
	DebtID    uint      `gorm:"not null;index" json:"debt_id"`             // 债务ID
	UserID    uint      `gorm:"not null;index" json:"user_id"`             // 用户ID
	Amount    Money     `gorm:"type:decimal(20,2);not null" json:"amount"` // 还款金额
	Source    string    `gorm:"not null;default:'direct'" json:"source"`   // 来源（direct/checkout_excess）
	StaffID   uint      `gorm:"index" json:"staff_id"`                     // 操作员工ID
	CreatedAt time.Time `gorm:"index" json:"created_at"`                   // 创建时间
}

// TableName 指定表名
func (DebtPayment) TableName() string {
	return "debt_payments"
}
