package main

import (
	"fmt"
	"os"

	"github.com/campusdash/internal/app"
	"github.com/campusdash/internal/config"
	"github.com/campusdash/internal/constants"
	"github.com/campusdash/internal/logger"
	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/service"

	"gorm.io/datatypes"
)

const seedPassword = "campus-demo-123"

func floatPtr(v float64) *float64 {
	return &v
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := app.PrepareDatabase(cfg, false); err != nil {
		stdLog.Fatalf("Failed to prepare database: %v", err)
	}

	if err := models.InitDefaultAdmin(os.Getenv("CD_DEFAULT_ADMIN_USERNAME"), os.Getenv("CD_DEFAULT_ADMIN_PASSWORD")); err != nil {
		stdLog.Printf("Failed to create default admin: %v", err)
	}

	// 演示账号
	hash, err := service.HashPassword(seedPassword)
	if err != nil {
		stdLog.Fatalf("Failed to hash password: %v", err)
	}
	users := []models.User{
		{
			Email:        "student@campus.test",
			Phone:        "+265991234567",
			PasswordHash: hash,
			DisplayName:  "Demo Student",
			Role:         constants.UserRoleCustomer,
			Status:       constants.UserStatusActive,
			Locale:       "en-US",
		},
		{
			Email:        "rider@campus.test",
			Phone:        "+265881234567",
			PasswordHash: hash,
			DisplayName:  "Demo Rider",
			Role:         constants.UserRoleDelivery,
			Status:       constants.UserStatusActive,
			Locale:       "en-US",
		},
	}
	for _, user := range users {
		var existing models.User
		if err := models.DB.Where("email = ?", user.Email).First(&existing).Error; err != nil {
			if err := models.DB.Create(&user).Error; err != nil {
				stdLog.Printf("Failed to create user %s: %v", user.Email, err)
			} else {
				stdLog.Printf("Created user: %s (%s)", user.Email, user.Role)
			}
		} else {
			stdLog.Printf("User already exists: %s", user.Email)
		}
	}

	// 配送区域：一个圆形、一个多边形
	locations := []models.Location{
		{
			Name:        "Chancellor College Main Campus",
			IsActive:    true,
			CenterLat:   floatPtr(-15.3850),
			CenterLng:   floatPtr(35.3360),
			RadiusKm:    floatPtr(1.2),
			DeliveryFee: models.NewMoneyFromInt(500),
		},
		{
			Name:     "Hostel Block C",
			IsActive: true,
			Polygon: datatypes.NewJSONType(models.GeoPolygon{
				{-15.3900, 35.3300},
				{-15.3900, 35.3340},
				{-15.3930, 35.3340},
				{-15.3930, 35.3300},
			}),
			DeliveryFee: models.NewMoneyFromInt(300),
		},
		{
			Name:        "Old Library Annex (closed)",
			IsActive:    false,
			CenterLat:   floatPtr(-15.3800),
			CenterLng:   floatPtr(35.3400),
			RadiusKm:    floatPtr(0.3),
			DeliveryFee: models.NewMoneyFromInt(200),
		},
	}
	for _, loc := range locations {
		var existing models.Location
		if err := models.DB.Where("name = ?", loc.Name).First(&existing).Error; err != nil {
			active := loc.IsActive
			if err := models.DB.Create(&loc).Error; err != nil {
				stdLog.Printf("Failed to create location %s: %v", loc.Name, err)
			} else {
				// is_active 带默认值，零值需单独写入
				if !active {
					models.DB.Model(&loc).Update("is_active", false)
				}
				stdLog.Printf("Created location: %s", loc.Name)
			}
		} else {
			stdLog.Printf("Location already exists: %s", loc.Name)
		}
	}

	// 添加商品
	products := []models.Product{
		{Name: "Rice 5kg", Slug: "rice-5kg", Description: "Locally milled white rice", Price: models.NewMoneyFromInt(2500), Stock: 40, IsActive: true, SortOrder: 100},
		{Name: "Cooking Oil 2L", Slug: "cooking-oil-2l", Description: "Sunflower cooking oil", Price: models.NewMoneyFromInt(4200), Stock: 25, IsActive: true, SortOrder: 90},
		{Name: "Instant Noodles (5 pack)", Slug: "instant-noodles-5", Description: "Chicken flavour", Price: models.NewMoneyFromInt(1500), Stock: 120, IsActive: true, SortOrder: 80},
		{Name: "Exercise Book A4", Slug: "exercise-book-a4", Description: "96 pages, ruled", Price: models.NewMoneyFromInt(800), Stock: 200, IsActive: true, SortOrder: 70},
		{Name: "Airtime Bundle", Slug: "airtime-bundle", Description: "Sold out demo product", Price: models.NewMoneyFromInt(1000), Stock: 0, IsActive: true, SortOrder: 10},
		{Name: "Seasonal Mangoes", Slug: "seasonal-mangoes", Description: "Out of season", Price: models.NewMoneyFromInt(600), Stock: 15, IsActive: false, SortOrder: 5},
	}
	for _, product := range products {
		var existing models.Product
		if err := models.DB.Where("slug = ?", product.Slug).First(&existing).Error; err != nil {
			active := product.IsActive
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", product.Slug, err)
			} else {
				if !active {
					models.DB.Model(&product).Update("is_active", false)
				}
				stdLog.Printf("Created product: %s", product.Slug)
			}
		} else {
			existing.Price = product.Price
			existing.Stock = product.Stock
			existing.IsActive = product.IsActive
			if err := models.DB.Save(&existing).Error; err != nil {
				stdLog.Printf("Failed to update product %s: %v", product.Slug, err)
			} else {
				stdLog.Printf("Updated product: %s", product.Slug)
			}
		}
	}

	fmt.Println("\n✅ Demo data created successfully!")
	fmt.Println("Summary:")
	fmt.Printf("- %d Users (password: %s)\n", len(users), seedPassword)
	fmt.Printf("- %d Delivery zones (circle + polygon)\n", len(locations))
	fmt.Printf("- %d Products\n", len(products))
}
