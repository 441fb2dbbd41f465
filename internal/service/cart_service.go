package service

import (
	"strings"
	"time"

	"github.com/assem2023-habib/shehrezad/internal/constants"
	"github.com/assem2023-habib/shehrezad/internal/logger"
	"github.com/assem2023-habib/shehrezad/internal/models"
	"github.com/assem2023-habib/shehrezad/internal/repository"

	"gorm.io/gorm"
)

// CartService 购物车预订服务
// 锁定窗口在每次读写时按 added_at 与当前配置实时推导，写操作用条件更新收口，
// 与后台锁定扫描的竞态由先提交的一方胜出。
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	couponRepo  repository.CouponRepository
	userRepo    repository.UserRepository
	seqRepo     repository.SequenceRepository
	settings    *SettingService
	couponSvc   *CouponService
}

// NewCartService 创建购物车服务
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	couponRepo repository.CouponRepository,
	userRepo repository.UserRepository,
	seqRepo repository.SequenceRepository,
	settings *SettingService,
	couponSvc *CouponService,
) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		couponRepo:  couponRepo,
		userRepo:    userRepo,
		seqRepo:     seqRepo,
		settings:    settings,
		couponSvc:   couponSvc,
	}
}

// AddItemRequest 加入购物车请求
type AddItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	ColorID   uint `json:"color_id" binding:"required"`
	SizeID    uint `json:"size_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// ItemCouponView 购物车项上已应用优惠券的折后价
type ItemCouponView struct {
	AppliedID        uint                    `json:"applied_id"`
	Code             string                  `json:"code"`
	DiscountedPrices map[string]models.Money `json:"discounted_prices"`
}

// CartItemView 购物车项投影
type CartItemView struct {
	ID                uint                    `json:"id"`
	ProductID         uint                    `json:"product_id"`
	ProductName       string                  `json:"product_name"`
	ColorID           uint                    `json:"color_id"`
	SizeID            uint                    `json:"size_id"`
	SizeName          string                  `json:"size_name"`
	Quantity          int                     `json:"quantity"`
	IsLocked          bool                    `json:"is_locked"`
	StockDeducted     bool                    `json:"stock_deducted"`
	AddedAt           time.Time               `json:"added_at"`
	LockTimeRemaining int64                   `json:"lock_time_remaining"`
	Prices            map[string]models.Money `json:"prices"`
	Beneficiaries     []string                `json:"beneficiaries"`
	Coupons           []ItemCouponView        `json:"coupons"`
}

// CustomerSummary 顾客摘要
type CustomerSummary struct {
	ID           uint   `json:"id"`
	CustomerCode string `json:"customer_code"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
}

// CartView 购物车完整投影
type CartView struct {
	Cart        *models.Cart    `json:"cart"`
	Customer    CustomerSummary `json:"customer"`
	Items       []CartItemView  `json:"items"`
	CartCoupons []string        `json:"cart_coupons"`
}

// lockWindow 当前锁定窗口时长
func (s *CartService) lockWindow() time.Duration {
	return time.Duration(s.settings.GetLockWindowMinutes()) * time.Minute
}

// editCutoff 可编辑窗口起点（added_at 早于此值的项视为已过期）
func (s *CartService) editCutoff(now time.Time) time.Time {
	return now.Add(-s.lockWindow())
}

// GetOrCreateCart 获取用户 active 购物车，不存在则创建
func (s *CartService) GetOrCreateCart(userID uint) (*models.Cart, error) {
	cart, err := s.cartRepo.GetActiveByUser(userID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}

	code, err := nextDailyCode(s.seqRepo, constants.CodePrefixCart, time.Now())
	if err != nil {
		return nil, err
	}
	cart = &models.Cart{
		UserID:   userID,
		CartCode: code,
		Status:   constants.CartStatusActive,
	}
	if err := s.cartRepo.Create(cart); err != nil {
		return nil, err
	}
	logger.Infow("cart created", "user_id", userID, "cart_code", code)
	return cart, nil
}

// AddItem 加入购物车
// 同商品/颜色/尺码且未锁定的行合并数量，合并与新增都按当前库存校验。
func (s *CartService) AddItem(userID uint, req AddItemRequest) (*CartItemView, error) {
	if req.Quantity <= 0 {
		return nil, ErrQuantityInvalid
	}

	product, err := s.productRepo.GetByID(req.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !product.IsActive {
		return nil, ErrProductInactive
	}

	size, err := s.productRepo.GetSizeForColor(req.ColorID, req.SizeID)
	if err != nil {
		return nil, err
	}
	if size == nil || size.ProductID != req.ProductID {
		return nil, ErrSizeNotFound
	}

	cart, err := s.GetOrCreateCart(userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	existing, err := s.cartRepo.FindLine(cart.ID, req.ProductID, req.ColorID, req.SizeID)
	if err != nil {
		return nil, err
	}

	var itemID uint
	if existing != nil && !existing.IsLocked && existing.AddedAt.After(s.editCutoff(now)) {
		merged := existing.Quantity + req.Quantity
		if merged > size.Quantity {
			return nil, ErrInsufficientStock
		}
		affected, err := s.cartRepo.UpdateItemQuantityIfEditable(existing.ID, merged, s.editCutoff(now))
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, ErrCartItemLocked
		}
		itemID = existing.ID
	} else {
		if req.Quantity > size.Quantity {
			return nil, ErrInsufficientStock
		}
		count, err := s.cartRepo.CountItems(cart.ID)
		if err != nil {
			return nil, err
		}
		if int(count) >= s.settings.GetMaxCartItems() {
			return nil, ErrCartLimitExceeded
		}
		item := &models.CartItem{
			CartID:    cart.ID,
			ProductID: req.ProductID,
			ColorID:   req.ColorID,
			SizeID:    req.SizeID,
			Quantity:  req.Quantity,
			AddedAt:   now,
		}
		if err := s.cartRepo.CreateItem(item); err != nil {
			return nil, err
		}
		itemID = item.ID
	}

	item, err := s.cartRepo.GetItem(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrCartItemNotFound
	}
	view := s.itemView(item, nil, now)
	return &view, nil
}

// UpdateItem 更新购物车项数量
// quantity <= 0 等同删除；增加数量按当前库存重新校验。
func (s *CartService) UpdateItem(userID uint, itemID uint, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(userID, itemID)
	}

	item, err := s.ownedItem(userID, itemID)
	if err != nil {
		return err
	}
	if item.IsLocked {
		return ErrCartItemLocked
	}

	if quantity > item.Quantity {
		size, err := s.productRepo.GetSize(item.SizeID)
		if err != nil {
			return err
		}
		if size == nil {
			return ErrSizeNotFound
		}
		if quantity > size.Quantity {
			return ErrInsufficientStock
		}
	}

	affected, err := s.cartRepo.UpdateItemQuantityIfEditable(itemID, quantity, s.editCutoff(time.Now()))
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemLocked
	}
	return nil
}

// RemoveItem 删除购物车项（锁定后拒绝）
func (s *CartService) RemoveItem(userID uint, itemID uint) error {
	if _, err := s.ownedItem(userID, itemID); err != nil {
		return err
	}

	affected, err := s.cartRepo.DeleteItemIfEditable(itemID, s.editCutoff(time.Now()))
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemLocked
	}
	return nil
}

// ClearCart 清空购物车中未锁定的项，已扣减库存的项绝不静默丢弃
func (s *CartService) ClearCart(userID uint) error {
	cart, err := s.cartRepo.GetActiveByUser(userID)
	if err != nil {
		return err
	}
	if cart == nil {
		return ErrCartNotFound
	}
	return s.cartRepo.DeleteUnlockedItems(cart.ID)
}

// SetItemBeneficiaries 整体替换受益人名单（去重、去空白）
func (s *CartService) SetItemBeneficiaries(userID uint, itemID uint, names []string) ([]string, error) {
	if _, err := s.ownedItem(userID, itemID); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(names))
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		cleaned = append(cleaned, trimmed)
	}

	if err := s.cartRepo.ReplaceBeneficiaries(itemID, cleaned); err != nil {
		return nil, err
	}
	return cleaned, nil
}

// GetCart 返回购物车完整投影
func (s *CartService) GetCart(userID uint) (*CartView, error) {
	cart, err := s.cartRepo.GetActiveByUser(userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	return s.buildCartView(cart)
}

// GetCartByCode 按购物车编号查询 active 购物车（员工侧）
func (s *CartService) GetCartByCode(code string) (*CartView, error) {
	cart, err := s.cartRepo.GetActiveByCode(code)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	return s.buildCartView(cart)
}

func (s *CartService) buildCartView(cart *models.Cart) (*CartView, error) {
	user, err := s.userRepo.GetByID(cart.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	items, err := s.cartRepo.ListItems(cart.ID)
	if err != nil {
		return nil, err
	}
	applied, err := s.couponRepo.ListApplied(cart.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	view := &CartView{
		Cart: cart,
		Customer: CustomerSummary{
			ID:           user.ID,
			CustomerCode: user.CustomerCode,
			Name:         user.Name,
			Phone:        user.Phone,
		},
		Items:       make([]CartItemView, 0, len(items)),
		CartCoupons: make([]string, 0),
	}

	itemCoupons := make(map[uint][]models.AppliedCoupon)
	for _, row := range applied {
		if row.ItemID == nil {
			if row.Coupon != nil {
				view.CartCoupons = append(view.CartCoupons, row.Coupon.Code)
			}
			continue
		}
		itemCoupons[*row.ItemID] = append(itemCoupons[*row.ItemID], row)
	}

	for i := range items {
		view.Items = append(view.Items, s.itemView(&items[i], itemCoupons[items[i].ID], now))
	}
	return view, nil
}

// RemoveItemByStaff 员工强制删除购物车项
// 已扣减库存的项先回补库存再删除，整个操作在一个事务内完成。
func (s *CartService) RemoveItemByStaff(staffID uint, itemID uint) error {
	item, err := s.cartRepo.GetItem(itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrCartItemNotFound
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if item.StockDeducted {
			if _, err := s.productRepo.WithTx(tx).RestoreSizeStock(item.SizeID, item.Quantity); err != nil {
				return err
			}
		}
		return s.cartRepo.WithTx(tx).DeleteItem(itemID)
	})
	if err != nil {
		return err
	}

	logger.Infow("cart item removed by staff",
		"staff_id", staffID,
		"item_id", itemID,
		"stock_restored", item.StockDeducted,
		"quantity", item.Quantity)
	return nil
}

// ownedItem 校验购物车项归属当前用户的 active 购物车
func (s *CartService) ownedItem(userID uint, itemID uint) (*models.CartItem, error) {
	cart, err := s.cartRepo.GetActiveByUser(userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	item, err := s.cartRepo.GetItem(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.CartID != cart.ID {
		return nil, ErrCartItemNotFound
	}
	return item, nil
}

// itemView 构建单项投影（剩余锁定秒数与各币种折后价）
func (s *CartService) itemView(item *models.CartItem, coupons []models.AppliedCoupon, now time.Time) CartItemView {
	view := CartItemView{
		ID:            item.ID,
		ProductID:     item.ProductID,
		ColorID:       item.ColorID,
		SizeID:        item.SizeID,
		Quantity:      item.Quantity,
		IsLocked:      item.IsLocked,
		StockDeducted: item.StockDeducted,
		AddedAt:       item.AddedAt,
		Beneficiaries: make([]string, 0, len(item.Beneficiaries)),
		Prices:        make(map[string]models.Money, 3),
		Coupons:       make([]ItemCouponView, 0, len(coupons)),
	}
	if item.Product != nil {
		view.ProductName = item.Product.Name
	}
	for _, b := range item.Beneficiaries {
		view.Beneficiaries = append(view.Beneficiaries, b.Name)
	}

	if !item.IsLocked {
		elapsed := int64(now.Sub(item.AddedAt).Seconds())
		windowSeconds := int64(s.lockWindow().Seconds())
		if remaining := windowSeconds - elapsed; remaining > 0 {
			view.LockTimeRemaining = remaining
		}
	}

	if item.Size == nil {
		return view
	}
	view.SizeName = item.Size.Name
	currencies := []string{constants.CurrencyUSD, constants.CurrencyTRY, constants.CurrencySYP}
	for _, currency := range currencies {
		view.Prices[currency] = item.Size.PriceFor(currency)
	}

	for _, row := range coupons {
		if row.Coupon == nil {
			continue
		}
		couponView := ItemCouponView{
			AppliedID:        row.ID,
			Code:             row.Coupon.Code,
			DiscountedPrices: make(map[string]models.Money, 3),
		}
		for _, currency := range currencies {
			price := item.Size.PriceFor(currency)
			discount := s.couponSvc.ComputeDiscount(price, row.Coupon)
			couponView.DiscountedPrices[currency] = models.NewMoneyFromDecimal(price.Decimal.Sub(discount.Decimal))
		}
		view.Coupons = append(view.Coupons, couponView)
	}
	return view
}
