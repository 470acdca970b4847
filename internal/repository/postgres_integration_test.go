//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/campusdash/internal/constants"
	"github.com/campusdash/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), models.GormConfig(false))
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}
	all := models.AllModels()
	_ = db.Migrator().DropTable(all...)
	if err := db.AutoMigrate(all...); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Migrator().DropTable(all...)
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestPostgresPaymentMetaFilters(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewPaymentRepository(db)

	payment := models.Payment{UserID: 1, TxRef: "CD-PG-1", Provider: constants.PaymentProviderManual, Amount: models.NewMoneyFromInt(3000), Currency: "MWK", Status: constants.PaymentStatusPending}
	payment.SetMeta(models.PaymentMeta{
		OrderCode: "ORD-20260101-PGPG01",
		Notes:     []models.ReconciliationNote{models.NewTextNote(models.NoteSourceGateway, "unrecognized status: reversed", time.Now())},
	})
	if err := repo.Create(&payment); err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	rows, total, err := repo.ListAdmin(PaymentListFilter{OrderCode: "ORD-20260101-PGPG01", Flagged: true})
	if err != nil {
		t.Fatalf("list admin failed: %v", err)
	}
	if total != 1 || rows[0].TxRef != "CD-PG-1" {
		t.Fatalf("unexpected rows: total=%d", total)
	}
}

func TestPostgresLockAndDecrementStock(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewProductRepository(db)

	product := models.Product{Name: "Bread", Slug: "bread", Price: models.NewMoneyFromInt(1200), Stock: 1, IsActive: true}
	if err := repo.Create(&product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		txRepo := repo.WithTx(tx)
		locked, err := txRepo.LockByID(product.ID)
		if err != nil || locked == nil {
			t.Fatalf("lock product failed: %v", err)
		}
		affected, err := txRepo.DecrementStock(product.ID, 1)
		if err != nil || affected != 1 {
			t.Fatalf("decrement failed: affected=%d err=%v", affected, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
}
