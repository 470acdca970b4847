package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/campusdash/internal/logger"
	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/repository"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ProductService 商品业务服务
type ProductService struct {
	repo repository.ProductRepository
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

// ProductInput 创建/更新商品输入
type ProductInput struct {
	Name        string
	Slug        string
	Description string
	Price       models.Money
	Stock       int
	Image       string
	IsActive    *bool
	SortOrder   int
}

// ListPublic 获取上架商品列表
func (s *ProductService) ListPublic(search string, page, pageSize int) ([]models.Product, int64, error) {
	return s.repo.List(repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		Search:     search,
		OnlyActive: true,
	})
}

// GetPublic 获取上架商品详情
func (s *ProductService) GetPublic(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListAdmin 获取后台商品列表
func (s *ProductService) ListAdmin(search string, page, pageSize int) ([]models.Product, int64, error) {
	return s.repo.List(repository.ProductListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   search,
	})
}

// Create 创建商品
func (s *ProductService) Create(input ProductInput) (*models.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}
	slug := strings.TrimSpace(input.Slug)
	existing, err := s.repo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrProductSlugExists
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	now := time.Now()
	product := &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Stock:       input.Stock,
		Image:       strings.TrimSpace(input.Image),
		IsActive:    isActive,
		SortOrder:   input.SortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(product); err != nil {
		return nil, err
	}
	logger.Infow("product_created", "product_id", product.ID, "slug", product.Slug)
	return product, nil
}

// Update 更新商品
func (s *ProductService) Update(id uint, input ProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if err := validateProductInput(input); err != nil {
		return nil, err
	}
	slug := strings.TrimSpace(input.Slug)
	if slug != product.Slug {
		existing, err := s.repo.GetBySlug(slug)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != product.ID {
			return nil, ErrProductSlugExists
		}
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Slug = slug
	product.Description = strings.TrimSpace(input.Description)
	product.Price = input.Price
	product.Stock = input.Stock
	product.Image = strings.TrimSpace(input.Image)
	product.SortOrder = input.SortOrder
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	product.UpdatedAt = time.Now()
	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return NewValidationError("name", "required")
	}
	if !slugPattern.MatchString(strings.TrimSpace(input.Slug)) {
		return NewValidationError("slug", "slug")
	}
	if !input.Price.IsPositive() {
		return NewValidationError("price", "gt")
	}
	if input.Stock < 0 {
		return NewValidationError("stock", "gte")
	}
	return nil
}
