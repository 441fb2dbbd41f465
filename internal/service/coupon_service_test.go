package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/assem2023-habib/shehrezad/internal/constants"
	"github.com/assem2023-habib/shehrezad/internal/models"
	"github.com/assem2023-habib/shehrezad/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupCouponServiceTest(t *testing.T) (*CouponService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:coupon_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.ProductColor{},
		&models.ProductSize{},
		&models.Cart{},
		&models.CartItem{},
		&models.CartItemBeneficiary{},
		&models.Coupon{},
		&models.CouponUser{},
		&models.CouponProduct{},
		&models.AppliedCoupon{},
		&models.Setting{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	settings := NewSettingService(repository.NewSettingRepository(db), nil)
	return NewCouponService(repository.NewCouponRepository(db), repository.NewCartRepository(db), settings), db
}

func createTestCoupon(t *testing.T, db *gorm.DB, coupon *models.Coupon) *models.Coupon {
	t.Helper()
	if coupon.Status == "" {
		coupon.Status = constants.CouponStatusActive
	}
	if coupon.TargetAudience == "" {
		coupon.TargetAudience = constants.CouponAudienceAll
	}
	if coupon.TargetProductsType == "" {
		coupon.TargetProductsType = constants.CouponProductsAll
	}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	return coupon
}

func TestComputeDiscount(t *testing.T) {
	svc, _ := setupCouponServiceTest(t)
	price := models.NewMoneyFromInt(200)

	percent := &models.Coupon{DiscountType: constants.CouponTypePercentage, DiscountValue: models.NewMoneyFromInt(10)}
	if got := svc.ComputeDiscount(price, percent); !got.Decimal.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected 20, got %s", got)
	}

	capped := models.NewMoneyFromInt(15)
	percent.MaxDiscountAmount = &capped
	if got := svc.ComputeDiscount(price, percent); !got.Decimal.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected cap 15, got %s", got)
	}

	fixed := &models.Coupon{DiscountType: constants.CouponTypeFixed, DiscountValue: models.NewMoneyFromInt(50)}
	if got := svc.ComputeDiscount(models.NewMoneyFromInt(30), fixed); !got.Decimal.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("fixed discount must not exceed price, got %s", got)
	}

	unknown := &models.Coupon{DiscountType: "bogus", DiscountValue: models.NewMoneyFromInt(50)}
	if got := svc.ComputeDiscount(price, unknown); !got.Decimal.IsZero() {
		t.Fatalf("unknown type should discount nothing, got %s", got)
	}
	if got := svc.ComputeDiscount(price, nil); !got.Decimal.IsZero() {
		t.Fatalf("nil coupon should discount nothing, got %s", got)
	}
}

func TestValidateApplicability(t *testing.T) {
	svc, db := setupCouponServiceTest(t)
	now := time.Now()

	inactive := createTestCoupon(t, db, &models.Coupon{Code: "OFF", Status: constants.CouponStatusInactive})
	if err := svc.ValidateApplicability(inactive, now, 1, nil); !errors.Is(err, ErrCouponInactive) {
		t.Fatalf("expected ErrCouponInactive, got %v", err)
	}

	future := now.Add(time.Hour)
	notStarted := createTestCoupon(t, db, &models.Coupon{Code: "SOON", StartDate: &future})
	if err := svc.ValidateApplicability(notStarted, now, 1, nil); !errors.Is(err, ErrCouponNotStarted) {
		t.Fatalf("expected ErrCouponNotStarted, got %v", err)
	}

	past := now.Add(-time.Hour)
	expired := createTestCoupon(t, db, &models.Coupon{Code: "LATE", EndDate: &past})
	if err := svc.ValidateApplicability(expired, now, 1, nil); !errors.Is(err, ErrCouponExpired) {
		t.Fatalf("expected ErrCouponExpired, got %v", err)
	}

	limit := 2
	exhausted := createTestCoupon(t, db, &models.Coupon{Code: "FULL", UsageLimit: &limit, UsedCount: 2})
	if err := svc.ValidateApplicability(exhausted, now, 1, nil); !errors.Is(err, ErrCouponUsageLimit) {
		t.Fatalf("expected ErrCouponUsageLimit, got %v", err)
	}

	gated := createTestCoupon(t, db, &models.Coupon{Code: "VIP", TargetAudience: constants.CouponAudienceSpecific})
	if err := svc.ValidateApplicability(gated, now, 1, nil); !errors.Is(err, ErrCouponNotEligible) {
		t.Fatalf("expected ErrCouponNotEligible, got %v", err)
	}
	if err := db.Create(&models.CouponUser{CouponID: gated.ID, UserID: 1}).Error; err != nil {
		t.Fatalf("create whitelist failed: %v", err)
	}
	if err := svc.ValidateApplicability(gated, now, 1, nil); err != nil {
		t.Fatalf("whitelisted user should pass, got %v", err)
	}

	productGated := createTestCoupon(t, db, &models.Coupon{Code: "ABAYA", TargetProductsType: constants.CouponProductsSpecific})
	productID := uint(5)
	if err := svc.ValidateApplicability(productGated, now, 1, &productID); !errors.Is(err, ErrCouponNotEligible) {
		t.Fatalf("expected ErrCouponNotEligible, got %v", err)
	}
	if err := svc.ValidateApplicability(productGated, now, 1, nil); err != nil {
		t.Fatalf("cart-level apply skips the product whitelist, got %v", err)
	}
}

func TestApplyCouponIdempotent(t *testing.T) {
	svc, db := setupCouponServiceTest(t)
	cart := createCheckoutCart(t, db, 1, "CRT-20250101-00011")
	limit := 10
	coupon := createTestCoupon(t, db, &models.Coupon{Code: "WELCOME10", DiscountType: constants.CouponTypePercentage,
		DiscountValue: models.NewMoneyFromInt(10), UsageLimit: &limit})

	result, err := svc.Apply(1, "WELCOME10", nil)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if result.Duplicate {
		t.Fatalf("first apply must not be a duplicate")
	}
	if result.Applied.CartID != cart.ID || result.Applied.ItemID != nil {
		t.Fatalf("expected cart-level application, got %+v", result.Applied)
	}

	again, err := svc.Apply(1, "WELCOME10", nil)
	if err != nil {
		t.Fatalf("second apply failed: %v", err)
	}
	if !again.Duplicate {
		t.Fatalf("second apply should be a duplicate")
	}

	var stored models.Coupon
	if err := db.First(&stored, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if stored.UsedCount != 1 {
		t.Fatalf("duplicate apply must not double count, got %d", stored.UsedCount)
	}
	var count int64
	db.Model(&models.AppliedCoupon{}).Where("cart_id = ?", cart.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected a single application row, got %d", count)
	}
}

func TestApplyCouponUsageLimitRace(t *testing.T) {
	svc, db := setupCouponServiceTest(t)
	createCheckoutCart(t, db, 1, "CRT-20250101-00012")
	limit := 1
	createTestCoupon(t, db, &models.Coupon{Code: "ONCE", DiscountType: constants.CouponTypeFixed,
		DiscountValue: models.NewMoneyFromInt(5), UsageLimit: &limit, UsedCount: 1})

	if _, err := svc.Apply(1, "ONCE", nil); !errors.Is(err, ErrCouponUsageLimit) {
		t.Fatalf("expected ErrCouponUsageLimit, got %v", err)
	}
}

func TestApplyCouponToItem(t *testing.T) {
	svc, db := setupCouponServiceTest(t)
	cart := createCheckoutCart(t, db, 1, "CRT-20250101-00013")
	item := &models.CartItem{CartID: cart.ID, ProductID: 1, ColorID: 1, SizeID: 1, Quantity: 1, AddedAt: time.Now()}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("create cart item failed: %v", err)
	}
	createTestCoupon(t, db, &models.Coupon{Code: "ITEM5", DiscountType: constants.CouponTypeFixed,
		DiscountValue: models.NewMoneyFromInt(5)})

	result, err := svc.Apply(1, "ITEM5", &item.ID)
	if err != nil {
		t.Fatalf("apply to item failed: %v", err)
	}
	if result.Applied.ItemID == nil || *result.Applied.ItemID != item.ID {
		t.Fatalf("expected item-level application, got %+v", result.Applied)
	}

	missing := uint(999)
	if _, err := svc.Apply(1, "ITEM5", &missing); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("expected ErrCartItemNotFound, got %v", err)
	}
	if _, err := svc.Apply(1, "NOPE", nil); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected ErrCouponNotFound, got %v", err)
	}
	if _, err := svc.Apply(2, "ITEM5", nil); !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound for user without a cart, got %v", err)
	}
}

func TestRemoveAppliedCoupon(t *testing.T) {
	svc, db := setupCouponServiceTest(t)
	createCheckoutCart(t, db, 1, "CRT-20250101-00014")
	createTestCoupon(t, db, &models.Coupon{Code: "GONE", DiscountType: constants.CouponTypeFixed,
		DiscountValue: models.NewMoneyFromInt(5)})

	result, err := svc.Apply(1, "GONE", nil)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := svc.RemoveApplied(1, result.Applied.ID); err != nil {
		t.Fatalf("remove applied failed: %v", err)
	}
	listed, err := svc.ListApplied(1)
	if err != nil {
		t.Fatalf("list applied failed: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected no applications left, got %d", len(listed))
	}
	if err := svc.RemoveApplied(1, result.Applied.ID); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected ErrCouponNotFound on second removal, got %v", err)
	}
}

func TestApplyCouponMinPurchase(t *testing.T) {
	svc, db := setupCouponServiceTest(t)
	cart := createCheckoutCart(t, db, 1, "CRT-20250101-00015")
	size := createCheckoutSize(t, db, 100, 10)
	addCheckoutItem(t, db, cart, size, 2)
	createTestCoupon(t, db, &models.Coupon{Code: "BIG500", DiscountType: constants.CouponTypeFixed,
		DiscountValue: models.NewMoneyFromInt(20), MinPurchaseAmount: models.NewMoneyFromInt(500)})

	// 全车 200 TRY，未到门槛
	if _, err := svc.Apply(1, "BIG500", nil); !errors.Is(err, ErrCouponMinAmount) {
		t.Fatalf("expected ErrCouponMinAmount, got %v", err)
	}
	var stored models.Coupon
	if err := db.Where("code = ?", "BIG500").First(&stored).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if stored.UsedCount != 0 {
		t.Fatalf("rejected apply must not consume usage, got %d", stored.UsedCount)
	}

	// 补到 500 TRY，正好达标
	addCheckoutItem(t, db, cart, size, 3)
	if _, err := svc.Apply(1, "BIG500", nil); err != nil {
		t.Fatalf("apply at threshold failed: %v", err)
	}
}

func TestApplyCouponMinPurchaseOnItem(t *testing.T) {
	svc, db := setupCouponServiceTest(t)
	cart := createCheckoutCart(t, db, 1, "CRT-20250101-00016")
	cheap := createCheckoutSize(t, db, 50, 10)
	pricey := createCheckoutSize(t, db, 300, 10)
	cheapItem := addCheckoutItem(t, db, cart, cheap, 1)
	priceyItem := addCheckoutItem(t, db, cart, pricey, 1)
	createTestCoupon(t, db, &models.Coupon{Code: "LINE100", DiscountType: constants.CouponTypePercentage,
		DiscountValue: models.NewMoneyFromInt(10), MinPurchaseAmount: models.NewMoneyFromInt(100)})

	// 单品券门槛只看该行小计，车内其他行不计入
	if _, err := svc.Apply(1, "LINE100", &cheapItem.ID); !errors.Is(err, ErrCouponMinAmount) {
		t.Fatalf("expected ErrCouponMinAmount for the cheap line, got %v", err)
	}
	if _, err := svc.Apply(1, "LINE100", &priceyItem.ID); err != nil {
		t.Fatalf("apply to qualifying line failed: %v", err)
	}
}
