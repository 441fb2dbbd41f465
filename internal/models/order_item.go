package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem 订单项表（冻结下单时的价格快照）
type OrderItem struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                           // 主键
	OrderID         uint           `gorm:"index;not null" json:"order_id"`                                 // 订单ID
	ProductID       uint           `gorm:"index;not null" json:"product_id"`                               // 商品ID
	ColorID         uint           `gorm:"not null" json:"color_id"`                                       // 颜色ID
	SizeID          uint           `gorm:"not null" json:"size_id"`                                        // 尺码ID
	Quantity        int            `gorm:"not null" json:"quantity"`                                       // 数量
	PriceAtPurchase Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_at_purchase"` // 结算币种单价快照
	Currency        string         `gorm:"type:varchar(8);not null" json:"currency"`                       // 币种
	Beneficiaries   StringArray    `gorm:"type:json" json:"beneficiaries"`                                 // 受益人快照
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                        // 创建时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                                 // 软删除时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
