package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表（结算时从购物车快照生成，只创建一次）
type Order struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                      // 主键
	UserID         uint           `gorm:"index;not null" json:"user_id"`                             // 用户ID
	CartID         *uint          `gorm:"index" json:"cart_id"`                                      // 来源购物车ID
	Status         string         `gorm:"index;not null" json:"status"`                              // 订单状态（unpaid/partial/paid/cancelled）
	Currency       string         `gorm:"type:varchar(8);not null" json:"currency"`                  // 结算币种
	TotalAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 结算总额
	PaidAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"paid_amount"`  // 已付金额
	ManualOverride bool           `gorm:"not null;default:false" json:"manual_override"`             // 员工是否手工覆盖总价
	ShippingInfo   JSON           `gorm:"type:json" json:"shipping_info"`                            // 配送信息快照
	PaymentInfo    JSON           `gorm:"type:json" json:"payment_info"`                             // 支付方式快照
	StaffID        uint           `gorm:"index" json:"staff_id"`                                     // 确认员工ID
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Items   []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`   // 订单项
	Invoice *Invoice    `gorm:"foreignKey:OrderID" json:"invoice,omitempty"` // 发票
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
