package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/assem2023-habib/shehrezad/internal/constants"
	"github.com/assem2023-habib/shehrezad/internal/models"
	"github.com/assem2023-habib/shehrezad/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupSweepServiceTest(t *testing.T) (*SweepService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:sweep_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
		&models.Notification{},
		&models.Setting{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	svc := NewSweepService(
		repository.NewCartRepository(db),
		repository.NewProductRepository(db),
		repository.NewUserRepository(db),
		NewSettingService(repository.NewSettingRepository(db), nil),
		NewNotificationService(repository.NewNotificationRepository(db), nil),
		nil,
	)
	return svc, db
}

func createSweepItem(t *testing.T, db *gorm.DB, cart *models.Cart, size *models.ProductSize, quantity int, age time.Duration) *models.CartItem {
	t.Helper()
	item := &models.CartItem{
		CartID:    cart.ID,
		ProductID: size.ProductID,
		ColorID:   size.ColorID,
		SizeID:    size.ID,
		Quantity:  quantity,
		AddedAt:   time.Now().Add(-age),
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("create cart item failed: %v", err)
	}
	return item
}

func TestLockExpiredItemsDeductsStock(t *testing.T) {
	svc, db := setupSweepServiceTest(t)
	user := createCheckoutUser(t, db, 1)
	size := createCheckoutSize(t, db, 250, 5)
	cart := createCheckoutCart(t, db, user.ID, "CRT-20250101-00021")
	item := createSweepItem(t, db, cart, size, 3, 2*time.Hour)

	if err := svc.LockExpiredItems(time.Now()); err != nil {
		t.Fatalf("lock sweep failed: %v", err)
	}

	var reloaded models.CartItem
	if err := db.First(&reloaded, item.ID).Error; err != nil {
		t.Fatalf("reload item failed: %v", err)
	}
	if !reloaded.IsLocked || !reloaded.StockDeducted {
		t.Fatalf("item should be locked with stock deducted, got locked=%v deducted=%v",
			reloaded.IsLocked, reloaded.StockDeducted)
	}

	var stock models.ProductSize
	if err := db.First(&stock, size.ID).Error; err != nil {
		t.Fatalf("reload size failed: %v", err)
	}
	if stock.Quantity != 2 {
		t.Fatalf("expected stock 2, got %d", stock.Quantity)
	}

	var notifications []models.Notification
	if err := db.Where("audience = ?", constants.NotificationAudienceAdmin).Find(&notifications).Error; err != nil {
		t.Fatalf("list notifications failed: %v", err)
	}
	if len(notifications) != 1 || notifications[0].Type != constants.NotificationTypeItemLocked {
		t.Fatalf("expected an admin lock notification, got %+v", notifications)
	}
}

func TestLockExpiredItemsInsufficientStock(t *testing.T) {
	svc, db := setupSweepServiceTest(t)
	user := createCheckoutUser(t, db, 1)
	size := createCheckoutSize(t, db, 250, 2)
	cart := createCheckoutCart(t, db, user.ID, "CRT-20250101-00022")
	item := createSweepItem(t, db, cart, size, 3, 2*time.Hour)

	if err := svc.LockExpiredItems(time.Now()); err != nil {
		t.Fatalf("lock sweep failed: %v", err)
	}

	var reloaded models.CartItem
	if err := db.First(&reloaded, item.ID).Error; err != nil {
		t.Fatalf("reload item failed: %v", err)
	}
	if !reloaded.IsLocked {
		t.Fatalf("item should still be locked")
	}
	if reloaded.StockDeducted {
		t.Fatalf("stock must not be marked deducted when unavailable")
	}

	var stock models.ProductSize
	if err := db.First(&stock, size.ID).Error; err != nil {
		t.Fatalf("reload size failed: %v", err)
	}
	if stock.Quantity != 2 {
		t.Fatalf("stock should be untouched, got %d", stock.Quantity)
	}
}

func TestLockExpiredItemsSkipsFreshAndLocked(t *testing.T) {
	svc, db := setupSweepServiceTest(t)
	user := createCheckoutUser(t, db, 1)
	size := createCheckoutSize(t, db, 250, 10)
	cart := createCheckoutCart(t, db, user.ID, "CRT-20250101-00023")
	fresh := createSweepItem(t, db, cart, size, 2, 10*time.Minute)
	locked := createSweepItem(t, db, cart, size, 2, 3*time.Hour)
	if err := db.Model(&models.CartItem{}).Where("id = ?", locked.ID).
		Updates(map[string]interface{}{"is_locked": true, "stock_deducted": true}).Error; err != nil {
		t.Fatalf("pre-lock item failed: %v", err)
	}

	if err := svc.LockExpiredItems(time.Now()); err != nil {
		t.Fatalf("lock sweep failed: %v", err)
	}

	var reloaded models.CartItem
	if err := db.First(&reloaded, fresh.ID).Error; err != nil {
		t.Fatalf("reload item failed: %v", err)
	}
	if reloaded.IsLocked {
		t.Fatalf("item inside the window must stay editable")
	}

	var stock models.ProductSize
	if err := db.First(&stock, size.ID).Error; err != nil {
		t.Fatalf("reload size failed: %v", err)
	}
	if stock.Quantity != 10 {
		t.Fatalf("already locked item must not deduct again, got %d", stock.Quantity)
	}
}

func TestLockExpiredItemsIgnoresInactiveCarts(t *testing.T) {
	svc, db := setupSweepServiceTest(t)
	user := createCheckoutUser(t, db, 1)
	size := createCheckoutSize(t, db, 250, 10)
	cart := createCheckoutCart(t, db, user.ID, "CRT-20250101-00024")
	item := createSweepItem(t, db, cart, size, 2, 3*time.Hour)
	if err := db.Model(&models.Cart{}).Where("id = ?", cart.ID).
		Update("status", constants.CartStatusCompleted).Error; err != nil {
		t.Fatalf("complete cart failed: %v", err)
	}

	if err := svc.LockExpiredItems(time.Now()); err != nil {
		t.Fatalf("lock sweep failed: %v", err)
	}

	var reloaded models.CartItem
	if err := db.First(&reloaded, item.ID).Error; err != nil {
		t.Fatalf("reload item failed: %v", err)
	}
	if reloaded.IsLocked {
		t.Fatalf("items of non-active carts must not be swept")
	}
}

func TestEnqueueDueRemindersWithoutQueue(t *testing.T) {
	svc, db := setupSweepServiceTest(t)
	user := createCheckoutUser(t, db, 1)
	cart := createCheckoutCart(t, db, user.ID, "CRT-20250101-00025")
	if err := db.Model(&models.Cart{}).Where("id = ?", cart.ID).
		Update("created_at", time.Now().Add(-5*24*time.Hour)).Error; err != nil {
		t.Fatalf("age cart failed: %v", err)
	}

	// 队列未启用时只跳过，不报错
	if err := svc.EnqueueDueReminders(time.Now()); err != nil {
		t.Fatalf("reminder sweep failed: %v", err)
	}
}
