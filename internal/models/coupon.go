package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon 优惠券
type Coupon struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                                             // 主键
	Code               string         `gorm:"uniqueIndex;not null" json:"code"`                                 // 优惠码
	DiscountType       string         `gorm:"not null" json:"discount_type"`                                    // 类型（percentage/fixed）
	DiscountValue      Money          `gorm:"type:decimal(20,2);not null" json:"discount_value"`                // 数值（百分比或固定金额）
	MinPurchaseAmount  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"min_purchase_amount"` // 使用门槛
	MaxDiscountAmount  *Money         `gorm:"type:decimal(20,2)" json:"max_discount_amount"`                    // 最大优惠金额（空表示不封顶）
	StartDate          *time.Time     `gorm:"index" json:"start_date"`                                          // 生效时间
	EndDate            *time.Time     `gorm:"index" json:"end_date"`                                            // 失效时间
	UsageLimit         *int           `json:"usage_limit"`                                                      // 总使用上限（空表示不限制）
	UsedCount          int            `gorm:"not null;default:0" json:"used_count"`                             // 已使用次数
	Status             string         `gorm:"not null;default:'active'" json:"status"`                          // 状态（active/inactive）
	TargetAudience     string         `gorm:"not null;default:'all'" json:"target_audience"`                    // 适用人群（all/specific_users）
	TargetProductsType string         `gorm:"not null;default:'all'" json:"target_products_type"`               // 适用商品（all/specific_products）
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                                          // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                                          // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                                   // 软删除时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}

// CouponUser 优惠券用户白名单
type CouponUser struct {
	ID       uint `gorm:"primarykey" json:"id"`                                  // 主键
	CouponID uint `gorm:"not null;uniqueIndex:idx_coupon_user" json:"coupon_id"` // 优惠券ID
	UserID   uint `gorm:"not null;uniqueIndex:idx_coupon_user" json:"user_id"`   // 用户ID
}

// TableName 指定表名
func (CouponUser) TableName() string {
	return "coupon_users"
}

// CouponProduct 优惠券商品白名单
type CouponProduct struct {
	ID        uint `gorm:"primarykey" json:"id"`                                      // 主键
	CouponID  uint `gorm:"not null;uniqueIndex:idx_coupon_product" json:"coupon_id"`  // 优惠券ID
	ProductID uint `gorm:"not null;uniqueIndex:idx_coupon_product" json:"product_id"` // 商品ID
}

// TableName 指定表名
func (CouponProduct) TableName() string {
	return "coupon_products"
}
