package repository

import (
	"errors"

	"github.com/assem2023-habib/shehrezad/internal/models"

	"gorm.io/gorm"
)

// CouponRepository 优惠券数据访问接口
type CouponRepository interface {
	GetByCode(code string) (*models.Coupon, error)
	GetByID(id uint) (*models.Coupon, error)
	IsUserAllowed(couponID, userID uint) (bool, error)
	IsProductAllowed(couponID, productID uint) (bool, error)
	ListApplied(cartID uint) ([]models.AppliedCoupon, error)
	FindApplied(cartID, couponID uint, itemID *uint) (*models.AppliedCoupon, error)
	CreateApplied(applied *models.AppliedCoupon) error
	DeleteApplied(id uint) error
	DeleteAppliedByCart(cartID uint) error
	IncrementUsedCount(couponID uint) (int64, error)
	WithTx(tx *gorm.DB) CouponRepository
}

// GormCouponRepository GORM 实现
type GormCouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓库
func NewCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponRepository) WithTx(tx *gorm.DB) CouponRepository {
	if tx == nil {
		return r
	}
	return &GormCouponRepository{db: tx}
}

// GetByCode 按券码查询
func (r *GormCouponRepository) GetByCode(code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.Where("code = ?", code).First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// GetByID 按 ID 查询
func (r *GormCouponRepository) GetByID(id uint) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.First(&coupon, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// IsUserAllowed 用户是否在白名单
func (r *GormCouponRepository) IsUserAllowed(couponID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.CouponUser{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).Count(&count).Error
	return count > 0, err
}

// IsProductAllowed 商品是否在白名单
func (r *GormCouponRepository) IsProductAllowed(couponID, productID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.CouponProduct{}).
		Where("coupon_id = ? AND product_id = ?", couponID, productID).Count(&count).Error
	return count > 0, err
}

// ListApplied 查询购物车已应用的优惠券
func (r *GormCouponRepository) ListApplied(cartID uint) ([]models.AppliedCoupon, error) {
	var applied []models.AppliedCoupon
	if err := r.db.Preload("Coupon").Where("cart_id = ?", cartID).
		Order("applied_at asc").Find(&applied).Error; err != nil {
		return nil, err
	}
	return applied, nil
}

// FindApplied 查找同券同目标的应用记录（幂等判定）
func (r *GormCouponRepository) FindApplied(cartID, couponID uint, itemID *uint) (*models.AppliedCoupon, error) {
	var applied models.AppliedCoupon
	query := r.db.Where("cart_id = ? AND coupon_id = ?", cartID, couponID)
	if itemID == nil {
		query = query.Where("item_id IS NULL")
	} else {
		query = query.Where("item_id = ?", *itemID)
	}
	err := query.First(&applied).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &applied, nil
}

// CreateApplied 记录优惠券应用
func (r *GormCouponRepository) CreateApplied(applied *models.AppliedCoupon) error {
	return r.db.Create(applied).Error
}

// DeleteApplied 移除应用记录
func (r *GormCouponRepository) DeleteApplied(id uint) error {
	return r.db.Delete(&models.AppliedCoupon{}, id).Error
}

// DeleteAppliedByCart 清空购物车应用记录
func (r *GormCouponRepository) DeleteAppliedByCart(cartID uint) error {
	return r.db.Where("cart_id = ?", cartID).Delete(&models.AppliedCoupon{}).Error
}

// IncrementUsedCount 条件递增使用次数（超限时零行生效）
func (r *GormCouponRepository) IncrementUsedCount(couponID uint) (int64, error) {
	result := r.db.Model(&models.Coupon{}).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", couponID).
		Update("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
