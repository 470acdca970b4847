package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/repository"
)

// CartSnapshotBuilder 将实时购物车冻结为快照
type CartSnapshotBuilder struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	now         func() time.Time
}

// NewCartSnapshotBuilder 创建快照构建器
func NewCartSnapshotBuilder(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartSnapshotBuilder {
	return &CartSnapshotBuilder{cartRepo: cartRepo, productRepo: productRepo, now: time.Now}
}

// Build 读取用户当前购物车与实时价格，空购物车返回空快照
func (b *CartSnapshotBuilder) Build(userID uint) (*models.CartSnapshot, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	items, err := b.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	return buildSnapshot(items, b.productRepo, b.now())
}

// buildSnapshot 根据购物车行构建快照，事务内调用时传入绑定事务的仓库
func buildSnapshot(items []models.CartItem, productRepo repository.ProductRepository, now time.Time) (*models.CartSnapshot, error) {
	snapshot := &models.CartSnapshot{Items: []models.CartSnapshotItem{}, TakenAt: now}
	if len(items) == 0 {
		snapshot.Hash = SnapshotHash(nil)
		return snapshot, nil
	}

	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := productRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	total := models.Money{}
	for _, item := range items {
		if err := checkDemandLine(item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
		product, ok := byID[item.ProductID]
		if !ok || !product.IsActive {
			return nil, fmt.Errorf("%w: product %d", ErrProductNotAvailable, item.ProductID)
		}
		line := models.CartSnapshotItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    item.Quantity,
		}
		snapshot.Items = append(snapshot.Items, line)
		total = total.Add(line.LineTotal())
	}
	sort.SliceStable(snapshot.Items, func(i, j int) bool {
		return snapshot.Items[i].ProductID < snapshot.Items[j].ProductID
	})
	snapshot.CartTotal = total
	snapshot.Hash = SnapshotHash(snapshot.Items)
	return snapshot, nil
}

// SnapshotHash 快照哈希：按商品 ID 排序，每行编码为 "id:qty:price"，以 "|" 连接，
// 对 UTF-8 字节做 h = h*31 + b（uint32 溢出回绕），输出 8 位小写十六进制
func SnapshotHash(items []models.CartSnapshotItem) string {
	sorted := append([]models.CartSnapshotItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	parts := make([]string, 0, len(sorted))
	for _, item := range sorted {
		parts = append(parts, fmt.Sprintf("%d:%d:%s", item.ProductID, item.Quantity, item.UnitPrice.StringFixed(2)))
	}
	var h uint32
	for _, b := range []byte(strings.Join(parts, "|")) {
		h = h*31 + uint32(b)
	}
	return fmt.Sprintf("%08x", h)
}
