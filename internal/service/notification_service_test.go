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
	"gorm.io/gorm"
)

func setupNotificationServiceTest(t *testing.T) (*NotificationService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:notification_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Notification{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewNotificationService(repository.NewNotificationRepository(db), nil), db
}

func TestSendToAdminPersists(t *testing.T) {
	svc, db := setupNotificationServiceTest(t)

	svc.SendToAdmin(NotificationMessage{
		Title: "Cart item locked",
		Body:  "Item in cart CRT-20250101-00001 is now locked",
		Type:  constants.NotificationTypeItemLocked,
		Data:  models.JSON{"cart_id": 1},
	})

	var stored models.Notification
	if err := db.First(&stored).Error; err != nil {
		t.Fatalf("load notification failed: %v", err)
	}
	if stored.Audience != constants.NotificationAudienceAdmin || stored.UserID != 0 {
		t.Fatalf("expected admin notification, got %+v", stored)
	}
	if stored.Type != constants.NotificationTypeItemLocked {
		t.Fatalf("expected type %s, got %s", constants.NotificationTypeItemLocked, stored.Type)
	}
}

func TestSendToUsersFanOut(t *testing.T) {
	svc, db := setupNotificationServiceTest(t)

	svc.SendToUsers(NotificationMessage{
		Title: "Order confirmed",
		Type:  constants.NotificationTypeCartSettled,
	}, []uint{1, 2})

	var count int64
	db.Model(&models.Notification{}).Where("audience = ?", constants.NotificationAudienceUser).Count(&count)
	if count != 2 {
		t.Fatalf("expected one notification per user, got %d", count)
	}
}

func TestMarkReadScopedToOwner(t *testing.T) {
	svc, db := setupNotificationServiceTest(t)

	svc.SendToUsers(NotificationMessage{
		Title: "Order confirmed",
		Type:  constants.NotificationTypeCartSettled,
	}, []uint{1})

	var stored models.Notification
	if err := db.First(&stored).Error; err != nil {
		t.Fatalf("load notification failed: %v", err)
	}

	if err := svc.MarkRead(2, stored.ID); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("another user must not mark it read, got %v", err)
	}
	if err := svc.MarkRead(1, stored.ID); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}

	if err := db.First(&stored, stored.ID).Error; err != nil {
		t.Fatalf("reload notification failed: %v", err)
	}
	if stored.ReadAt == nil {
		t.Fatalf("read_at should be set")
	}

	listed, err := svc.ListForUser(1, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected one notification, got %d", len(listed))
	}
}
