package repository

import (
	"errors"
	"time"

	"github.com/assem2023-habib/shehrezad/internal/constants"
	"github.com/assem2023-habib/shehrezad/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	GetByID(id uint) (*models.Cart, error)
	GetActiveByUser(userID uint) (*models.Cart, error)
	GetActiveByCode(code string) (*models.Cart, error)
	Create(cart *models.Cart) error
	UpdateStatus(cartID uint, status string, updates map[string]interface{}) error
	CountItems(cartID uint) (int64, error)
	GetItem(itemID uint) (*models.CartItem, error)
	ListItems(cartID uint) ([]models.CartItem, error)
	FindLine(cartID, productID, colorID, sizeID uint) (*models.CartItem, error)
	CreateItem(item *models.CartItem) error
	UpdateItemQuantityIfEditable(itemID uint, quantity int, addedAfter time.Time) (int64, error)
	DeleteItemIfEditable(itemID uint, addedAfter time.Time) (int64, error)
	DeleteItem(itemID uint) error
	DeleteUnlockedItems(cartID uint) error
	DeleteItemsByCart(cartID uint) error
	ReplaceBeneficiaries(itemID uint, names []string) error
	MarkItemLocked(itemID uint) (int64, error)
	MarkItemStockDeducted(itemID uint) error
	ListExpiredUnlocked(cutoff time.Time) ([]models.CartItem, error)
	ListRemindersDue(cutoff time.Time) ([]models.Cart, error)
	WithTx(tx *gorm.DB) CartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// GetByID 按 ID 查询购物车
func (r *GormCartRepository) GetByID(id uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.First(&cart, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetActiveByUser 查询用户当前 active 购物车
func (r *GormCartRepository) GetActiveByUser(userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Where("user_id = ? AND status = ?", userID, constants.CartStatusActive).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetActiveByCode 按编号查询 active 购物车
func (r *GormCartRepository) GetActiveByCode(code string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Preload("User").Where("cart_code = ? AND status = ?", code, constants.CartStatusActive).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Create 创建购物车
func (r *GormCartRepository) Create(cart *models.Cart) error {
	return r.db.Create(cart).Error
}

// UpdateStatus 更新购物车状态
func (r *GormCartRepository) UpdateStatus(cartID uint, status string, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	return r.db.Model(&models.Cart{}).Where("id = ?", cartID).Updates(updates).Error
}

// CountItems 统计购物车项数
func (r *GormCartRepository) CountItems(cartID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.CartItem{}).Where("cart_id = ?", cartID).Count(&count).Error
	return count, err
}

// GetItem 查询购物车项（带尺码与受益人）
func (r *GormCartRepository) GetItem(itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.Preload("Product").Preload("Size").Preload("Beneficiaries").First(&item, itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems 查询购物车全部项
func (r *GormCartRepository) ListItems(cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Preload("Product").Preload("Size").Preload("Beneficiaries").
		Where("cart_id = ?", cartID).Order("added_at asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindLine 查找同商品/颜色/尺码的未锁定行
// 已锁定行不参与合并，取最新一条未锁定行。
func (r *GormCartRepository) FindLine(cartID, productID, colorID, sizeID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.Where("cart_id = ? AND product_id = ? AND color_id = ? AND size_id = ? AND is_locked = ?",
		cartID, productID, colorID, sizeID, false).
		Order("added_at desc, id desc").First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem 创建购物车项
func (r *GormCartRepository) CreateItem(item *models.CartItem) error {
	return r.db.Create(item).Error
}

// UpdateItemQuantityIfEditable 条件更新数量
// 仅未锁定且仍在编辑窗口内的行生效；零行生效即视为锁定冲突。
func (r *GormCartRepository) UpdateItemQuantityIfEditable(itemID uint, quantity int, addedAfter time.Time) (int64, error) {
	result := r.db.Model(&models.CartItem{}).
		Where("id = ? AND is_locked = ? AND added_at > ?", itemID, false, addedAfter).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteItemIfEditable 条件删除（同上，零行生效即锁定冲突）
func (r *GormCartRepository) DeleteItemIfEditable(itemID uint, addedAfter time.Time) (int64, error) {
	result := r.db.Where("id = ? AND is_locked = ? AND added_at > ?", itemID, false, addedAfter).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteItem 无条件删除购物车项（员工介入）
func (r *GormCartRepository) DeleteItem(itemID uint) error {
	return r.db.Delete(&models.CartItem{}, itemID).Error
}

// DeleteUnlockedItems 删除购物车内全部未锁定项
func (r *GormCartRepository) DeleteUnlockedItems(cartID uint) error {
	return r.db.Where("cart_id = ? AND is_locked = ?", cartID, false).Delete(&models.CartItem{}).Error
}

// DeleteItemsByCart 删除购物车全部项（结算时使用）
func (r *GormCartRepository) DeleteItemsByCart(cartID uint) error {
	return r.db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// ReplaceBeneficiaries 整体替换受益人名单
func (r *GormCartRepository) ReplaceBeneficiaries(itemID uint, names []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_item_id = ?", itemID).Delete(&models.CartItemBeneficiary{}).Error; err != nil {
			return err
		}
		now := time.Now()
		for _, name := range names {
			beneficiary := models.CartItemBeneficiary{
				CartItemID: itemID,
				Name:       name,
				CreatedAt:  now,
			}
			if err := tx.Create(&beneficiary).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// MarkItemLocked 将未锁定项标记为锁定（零行生效表示已被处理）
func (r *GormCartRepository) MarkItemLocked(itemID uint) (int64, error) {
	result := r.db.Model(&models.CartItem{}).
		Where("id = ? AND is_locked = ?", itemID, false).
		Updates(map[string]interface{}{
			"is_locked":  true,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkItemStockDeducted 标记库存已扣减
func (r *GormCartRepository) MarkItemStockDeducted(itemID uint) error {
	return r.db.Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"stock_deducted": true,
			"updated_at":     time.Now(),
		}).Error
}

// ListExpiredUnlocked 查询 active 购物车中编辑窗口已过且未锁定的项
func (r *GormCartRepository) ListExpiredUnlocked(cutoff time.Time) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.
		Joins("JOIN carts ON carts.id = cart_items.cart_id AND carts.status = ? AND carts.deleted_at IS NULL", constants.CartStatusActive).
		Where("cart_items.is_locked = ? AND cart_items.added_at <= ?", false, cutoff).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListRemindersDue 查询超过提醒窗口且未提醒的 active 购物车
func (r *GormCartRepository) ListRemindersDue(cutoff time.Time) ([]models.Cart, error) {
	var carts []models.Cart
	err := r.db.Preload("Items").Preload("Items.Size").Preload("User").
		Where("status = ? AND reminder_sent = ? AND created_at <= ?", constants.CartStatusActive, false, cutoff).
		Find(&carts).Error
	if err != nil {
		return nil, err
	}
	return carts, nil
}
