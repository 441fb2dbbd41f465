package models

import (
	"time"

	"gorm.io/gorm"
)

// AppliedCoupon 购物车优惠券应用记录
// item_id 为空表示整车级应用；(cart_id, item_id, coupon_id) 唯一，重复应用按幂等处理。
type AppliedCoupon struct {
	ID        uint           `gorm:"primarykey" json:"id"`                           // 主键
	CartID    uint           `gorm:"not null;index:idx_applied_cart" json:"cart_id"` // 购物车ID
	ItemID    *uint          `gorm:"index" json:"item_id"`                           // 购物车项ID（空表示整车）
	CouponID  uint           `gorm:"not null;index" json:"coupon_id"`                // 优惠券ID
	UserID    uint           `gorm:"not null;index" json:"user_id"`                  // 用户ID
	AppliedAt time.Time      `gorm:"index;not null" json:"applied_at"`               // 应用时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                 // 软删除时间

	Coupon *Coupon `gorm:"foreignKey:CouponID" json:"coupon,omitempty"` // 关联优惠券
}

// TableName 指定表名
func (AppliedCoupon) TableName() string {
	return "cart_applied_coupons"
}
