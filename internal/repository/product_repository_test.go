package repository

import (
	"testing"

	"github.com/campusdash/internal/models"
)

func TestProductRepositoryDecrementStockGuardsAvailability(t *testing.T) {
	db := openTestDB(t, "product_repo_decrement")
	repo := NewProductRepository(db)

	product := models.Product{Name: "Chips", Slug: "chips", Price: models.NewMoneyFromInt(800), Stock: 3, IsActive: true}
	if err := repo.Create(&product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	affected, err := repo.DecrementStock(product.ID, 2)
	if err != nil || affected != 1 {
		t.Fatalf("decrement 2 failed: affected=%d err=%v", affected, err)
	}
	affected, err = repo.DecrementStock(product.ID, 2)
	if err != nil {
		t.Fatalf("decrement over stock returned error: %v", err)
	}
	if affected != 0 {
		t.Fatalf("decrement over stock should affect 0 rows, got %d", affected)
	}

	reloaded, err := repo.GetByID(product.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.Stock != 1 {
		t.Fatalf("stock want 1 got %d", reloaded.Stock)
	}
	if _, err := repo.DecrementStock(product.ID, 0); err == nil {
		t.Fatalf("zero quantity should be rejected")
	}
}

func TestProductRepositoryListSearchAndActive(t *testing.T) {
	db := openTestDB(t, "product_repo_list")
	repo := NewProductRepository(db)

	rows := []models.Product{
		{Name: "Rice 1kg", Slug: "rice-1kg", Price: models.NewMoneyFromInt(2500), Stock: 5, IsActive: true},
		{Name: "Rice 5kg", Slug: "rice-5kg", Price: models.NewMoneyFromInt(11000), Stock: 5, IsActive: true},
		{Name: "Soap", Slug: "soap", Price: models.NewMoneyFromInt(600), Stock: 5, IsActive: true},
	}
	for i := range rows {
		if err := repo.Create(&rows[i]); err != nil {
			t.Fatalf("create product failed: %v", err)
		}
	}
	if err := db.Model(&models.Product{}).Where("slug = ?", "rice-5kg").Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	items, total, err := repo.List(ProductListFilter{Search: "rice", OnlyActive: true, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].Slug != "rice-1kg" {
		t.Fatalf("unexpected list result: total=%d items=%+v", total, items)
	}
}
