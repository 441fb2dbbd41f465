package models

import (
	"time"

	"gorm.io/gorm"
)

// CartItem 购物车项
type CartItem struct {
	ID            uint           `gorm:"primarykey" json:"id"`                          // 主键
	CartID        uint           `gorm:"not null;index" json:"cart_id"`                 // 购物车ID
	ProductID     uint           `gorm:"not null;index" json:"product_id"`              // 商品ID
	ColorID       uint           `gorm:"not null" json:"color_id"`                      // 颜色ID
	SizeID        uint           `gorm:"not null;index" json:"size_id"`                 // 尺码ID
	Quantity      int            `gorm:"not null" json:"quantity"`                      // 数量
	IsLocked      bool           `gorm:"not null;default:false;index" json:"is_locked"` // 是否已锁定
	StockDeducted bool           `gorm:"not null;default:false" json:"stock_deducted"`  // 库存是否已扣减（隐含 is_locked=true）
	AddedAt       time.Time      `gorm:"index;not null" json:"added_at"`                // 加入时间（锁定窗口起点）
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                       // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间

	Product       *Product              `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
	Size          *ProductSize          `gorm:"foreignKey:SizeID" json:"size,omitempty"`       // 关联尺码
	Beneficiaries []CartItemBeneficiary `gorm:"foreignKey:CartItemID" json:"beneficiaries,omitempty"`
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}

// CartItemBeneficiary 购物车项受益人（整体替换写入）
type CartItemBeneficiary struct {
	ID         uint      `gorm:"primarykey" json:"id"`               // 主键
	CartItemID uint      `gorm:"not null;index" json:"cart_item_id"` // 购物车项ID
	Name       string    `gorm:"not null" json:"name"`               // 受益人姓名
	CreatedAt  time.Time `gorm:"index" json:"created_at"`            // 创建时间
}

// TableName 指定表名
func (CartItemBeneficiary) TableName() string {
	return "cart_item_beneficiaries"
}
