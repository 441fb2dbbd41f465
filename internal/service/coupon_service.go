package service

import (
	"strings"
	"time"

	"github.com/assem2023-habib/shehrezad/internal/constants"
	"github.com/assem2023-habib/shehrezad/internal/models"
	"github.com/assem2023-habib/shehrezad/internal/repository"

	"github.com/shopspring/decimal"
)

// CouponService 优惠券服务
type CouponService struct {
	couponRepo repository.CouponRepository
	cartRepo   repository.CartRepository
	settings   *SettingService
}

// NewCouponService 创建优惠券服务
func NewCouponService(couponRepo repository.CouponRepository, cartRepo repository.CartRepository, settings *SettingService) *CouponService {
	return &CouponService{
		couponRepo: couponRepo,
		cartRepo:   cartRepo,
		settings:   settings,
	}
}

// ApplyCouponResult 应用优惠券结果
type ApplyCouponResult struct {
	Applied   *models.AppliedCoupon `json:"applied"`
	Coupon    *models.Coupon        `json:"coupon"`
	Duplicate bool                  `json:"duplicate"`
}

// ComputeDiscount 计算单价折扣金额
// percentage 为 price*value/100，fixed 为 min(price, value)，再按 max_discount_amount 封顶。
// 各币种独立计算，绝不跨币种换算。
func (s *CouponService) ComputeDiscount(price models.Money, coupon *models.Coupon) models.Money {
	if coupon == nil {
		return models.NewMoneyFromInt(0)
	}

	var discount decimal.Decimal
	switch coupon.DiscountType {
	case constants.CouponTypePercentage:
		percent := coupon.DiscountValue.Decimal.Div(decimal.NewFromInt(100))
		discount = price.Decimal.Mul(percent)
	case constants.CouponTypeFixed:
		discount = coupon.DiscountValue.Decimal
		if discount.GreaterThan(price.Decimal) {
			discount = price.Decimal
		}
	default:
		return models.NewMoneyFromInt(0)
	}

	if coupon.MaxDiscountAmount != nil && discount.GreaterThan(coupon.MaxDiscountAmount.Decimal) {
		discount = coupon.MaxDiscountAmount.Decimal
	}
	if discount.LessThan(decimal.Zero) {
		discount = decimal.Zero
	}
	return models.NewMoneyFromDecimal(discount)
}

// ValidateApplicability 校验优惠券是否可用
// productID 为空表示整车应用，不做商品白名单校验。
func (s *CouponService) ValidateApplicability(coupon *models.Coupon, now time.Time, userID uint, productID *uint) error {
	if coupon == nil {
		return ErrCouponNotFound
	}
	if coupon.Status != constants.CouponStatusActive {
		return ErrCouponInactive
	}
	if coupon.StartDate != nil && now.Before(*coupon.StartDate) {
		return ErrCouponNotStarted
	}
	if coupon.EndDate != nil && now.After(*coupon.EndDate) {
		return ErrCouponExpired
	}
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return ErrCouponUsageLimit
	}

	if coupon.TargetAudience == constants.CouponAudienceSpecific {
		allowed, err := s.couponRepo.IsUserAllowed(coupon.ID, userID)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrCouponNotEligible
		}
	}

	if productID != nil && coupon.TargetProductsType == constants.CouponProductsSpecific {
		allowed, err := s.couponRepo.IsProductAllowed(coupon.ID, *productID)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrCouponNotEligible
		}
	}
	return nil
}

// Apply 应用优惠券到购物车或指定购物车项（幂等）
func (s *CouponService) Apply(userID uint, code string, itemID *uint) (*ApplyCouponResult, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, ErrCouponInvalid
	}

	cart, err := s.cartRepo.GetActiveByUser(userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}

	coupon, err := s.couponRepo.GetByCode(trimmed)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}

	var productID *uint
	var targetItem *models.CartItem
	if itemID != nil {
		item, err := s.cartRepo.GetItem(*itemID)
		if err != nil {
			return nil, err
		}
		if item == nil || item.CartID != cart.ID {
			return nil, ErrCartItemNotFound
		}
		targetItem = item
		productID = &item.ProductID
	}

	if err := s.ValidateApplicability(coupon, time.Now(), userID, productID); err != nil {
		return nil, err
	}
	if err := s.checkMinPurchase(coupon, cart.ID, targetItem); err != nil {
		return nil, err
	}

	existing, err := s.couponRepo.FindApplied(cart.ID, coupon.ID, itemID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Coupon = coupon
		return &ApplyCouponResult{Applied: existing, Coupon: coupon, Duplicate: true}, nil
	}

	affected, err := s.couponRepo.IncrementUsedCount(coupon.ID)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrCouponUsageLimit
	}

	applied := &models.AppliedCoupon{
		CartID:    cart.ID,
		ItemID:    itemID,
		CouponID:  coupon.ID,
		UserID:    userID,
		AppliedAt: time.Now(),
	}
	if err := s.couponRepo.CreateApplied(applied); err != nil {
		return nil, err
	}
	applied.Coupon = coupon
	return &ApplyCouponResult{Applied: applied, Coupon: coupon, Duplicate: false}, nil
}

// checkMinPurchase 按参考币种校验使用门槛
// 整车券以全车标价合计为基数，单品券以该行标价小计为基数。
func (s *CouponService) checkMinPurchase(coupon *models.Coupon, cartID uint, item *models.CartItem) error {
	if !coupon.MinPurchaseAmount.Decimal.GreaterThan(decimal.Zero) {
		return nil
	}

	currency := s.settings.GetReferenceCurrency()
	basis := decimal.Zero
	if item != nil {
		if item.Size != nil {
			basis = item.Size.PriceFor(currency).Decimal.Mul(decimal.NewFromInt(int64(item.Quantity)))
		}
	} else {
		items, err := s.cartRepo.ListItems(cartID)
		if err != nil {
			return err
		}
		for _, row := range items {
			if row.Size == nil {
				continue
			}
			basis = basis.Add(row.Size.PriceFor(currency).Decimal.Mul(decimal.NewFromInt(int64(row.Quantity))))
		}
	}

	if basis.LessThan(coupon.MinPurchaseAmount.Decimal) {
		return ErrCouponMinAmount
	}
	return nil
}

// ListApplied 查询当前购物车已应用的优惠券
func (s *CouponService) ListApplied(userID uint) ([]models.AppliedCoupon, error) {
	cart, err := s.cartRepo.GetActiveByUser(userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return []models.AppliedCoupon{}, nil
	}
	return s.couponRepo.ListApplied(cart.ID)
}

// RemoveApplied 移除已应用的优惠券
func (s *CouponService) RemoveApplied(userID uint, appliedID uint) error {
	cart, err := s.cartRepo.GetActiveByUser(userID)
	if err != nil {
		return err
	}
	if cart == nil {
		return ErrCartNotFound
	}
	applied, err := s.couponRepo.ListApplied(cart.ID)
	if err != nil {
		return err
	}
	for _, row := range applied {
		if row.ID == appliedID {
			return s.couponRepo.DeleteApplied(appliedID)
		}
	}
	return ErrCouponNotFound
}
