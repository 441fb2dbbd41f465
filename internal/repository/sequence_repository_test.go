package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/assem2023-habib/shehrezad/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupSequenceRepositoryTest(t *testing.T) *GormSequenceRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:sequence_repository_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.CodeSequence{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewSequenceRepository(db)
}

func TestSequenceNextIncrements(t *testing.T) {
	repo := setupSequenceRepositoryTest(t)

	for want := int64(1); want <= 3; want++ {
		got, err := repo.Next("CRT", "20250101")
		if err != nil {
			t.Fatalf("next failed: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
}

func TestSequenceNextIsolatedPerPrefixAndDate(t *testing.T) {
	repo := setupSequenceRepositoryTest(t)

	if _, err := repo.Next("CRT", "20250101"); err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if _, err := repo.Next("CRT", "20250101"); err != nil {
		t.Fatalf("next failed: %v", err)
	}

	got, err := repo.Next("CUS", "20250101")
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if got != 1 {
		t.Fatalf("different prefix must start at 1, got %d", got)
	}

	got, err = repo.Next("CRT", "20250102")
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if got != 1 {
		t.Fatalf("new day must reset to 1, got %d", got)
	}
}
