package service

import (
	"time"

	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/repository"
)

// CartItemDetail 购物车项详情（用于响应）
type CartItemDetail struct {
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice models.Money    `json:"unit_price"`
	LineTotal models.Money    `json:"line_total"`
	Product   *models.Product `json:"product"`
}

// CartView 购物车视图
type CartView struct {
	Items     []CartItemDetail `json:"items"`
	CartTotal models.Money     `json:"cart_total"`
	Hash      string           `json:"hash"`
}

// UpsertCartItemInput 购物车更新输入
type UpsertCartItemInput struct {
	UserID    uint
	ProductID uint
	Quantity  int
}

// CartService 购物车服务
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// ListByUser 获取用户购物车，已下架商品自动移除
func (s *CartService) ListByUser(userID uint) (*CartView, error) {
	if userID == 0 {
		return nil, ErrInvalidCartItem
	}
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	view := &CartView{Items: make([]CartItemDetail, 0, len(items))}
	snapshotItems := make([]models.CartSnapshotItem, 0, len(items))
	for _, item := range items {
		product := item.Product
		if product == nil || product.ID == 0 {
			p, err := s.productRepo.GetByID(item.ProductID)
			if err != nil {
				return nil, err
			}
			product = p
		}
		if product == nil || !product.IsActive {
			_ = s.cartRepo.DeleteByUserAndProduct(userID, item.ProductID)
			continue
		}
		lineTotal := product.Price.MulInt(item.Quantity)
		view.Items = append(view.Items, CartItemDetail{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
			LineTotal: lineTotal,
			Product:   product,
		})
		view.CartTotal = view.CartTotal.Add(lineTotal)
		snapshotItems = append(snapshotItems, models.CartSnapshotItem{
			ProductID: product.ID,
			UnitPrice: product.Price,
			Quantity:  item.Quantity,
		})
	}
	view.Hash = SnapshotHash(snapshotItems)
	return view, nil
}

// UpsertItem 添加或更新购物车项（数量为覆盖值）
func (s *CartService) UpsertItem(input UpsertCartItemInput) error {
	if input.UserID == 0 || input.ProductID == 0 || input.Quantity <= 0 {
		return ErrInvalidCartItem
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive {
		return ErrProductNotAvailable
	}

	now := time.Now()
	item := &models.CartItem{
		UserID:    input.UserID,
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.cartRepo.Upsert(item)
}

// RemoveItem 删除购物车项
func (s *CartService) RemoveItem(userID, productID uint) error {
	if userID == 0 || productID == 0 {
		return ErrInvalidCartItem
	}
	return s.cartRepo.DeleteByUserAndProduct(userID, productID)
}
