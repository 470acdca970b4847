package service

import (
	"fmt"
	"sort"

	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/repository"

	"gorm.io/gorm"
)

// StockDemand 单个商品的扣减需求
type StockDemand struct {
	ProductID uint
	Quantity  int
}

// StockDemandSource 库存需求来源：实时购物车或冻结快照
type StockDemandSource interface {
	stockLines() []StockDemand
}

// LiveCartSource 实时购物车
type LiveCartSource []models.CartItem

func (s LiveCartSource) stockLines() []StockDemand {
	lines := make([]StockDemand, 0, len(s))
	for _, item := range s {
		lines = append(lines, StockDemand{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

// SnapshotSource 支付时冻结的快照
type SnapshotSource struct {
	Snapshot *models.CartSnapshot
}

func (s SnapshotSource) stockLines() []StockDemand {
	if s.Snapshot == nil {
		return nil
	}
	lines := make([]StockDemand, 0, len(s.Snapshot.Items))
	for _, item := range s.Snapshot.Items {
		lines = append(lines, StockDemand{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

// checkDemandLine 购物车行与快照行共用的数量校验
func checkDemandLine(productID uint, quantity int) error {
	if productID == 0 || quantity <= 0 {
		return fmt.Errorf("%w: product %d quantity %d", ErrInvalidCartItem, productID, quantity)
	}
	return nil
}

// ResolveStockDemands 两种来源统一解析：合并重复商品，拒绝非正数量，按商品 ID 升序
func ResolveStockDemands(source StockDemandSource) ([]StockDemand, error) {
	if source == nil {
		return nil, ErrEmptyCart
	}
	merged := make(map[uint]int)
	for _, line := range source.stockLines() {
		if err := checkDemandLine(line.ProductID, line.Quantity); err != nil {
			return nil, err
		}
		merged[line.ProductID] += line.Quantity
	}
	if len(merged) == 0 {
		return nil, ErrEmptyCart
	}
	demands := make([]StockDemand, 0, len(merged))
	for productID, qty := range merged {
		demands = append(demands, StockDemand{ProductID: productID, Quantity: qty})
	}
	sort.Slice(demands, func(i, j int) bool { return demands[i].ProductID < demands[j].ProductID })
	return demands, nil
}

// StockLedger 行锁下的库存校验与扣减
type StockLedger struct {
	productRepo repository.ProductRepository
}

// NewStockLedger 创建库存账本
func NewStockLedger(productRepo repository.ProductRepository) *StockLedger {
	return &StockLedger{productRepo: productRepo}
}

// ReserveAndDecrement 在调用方事务内按商品 ID 升序加锁，全部满足才扣减；
// 任一不足返回包含全部短缺明细的 InsufficientStockError
func (l *StockLedger) ReserveAndDecrement(tx *gorm.DB, demands []StockDemand) error {
	if len(demands) == 0 {
		return ErrEmptyCart
	}
	ordered := append([]StockDemand(nil), demands...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ProductID < ordered[j].ProductID })

	productRepo := l.productRepo.WithTx(tx)
	var shortages []models.StockShortageLine
	for _, demand := range ordered {
		product, err := productRepo.LockByID(demand.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return fmt.Errorf("%w: product %d vanished during placement", ErrIntegrityViolation, demand.ProductID)
		}
		if product.Stock < demand.Quantity {
			shortages = append(shortages, models.StockShortageLine{
				ProductID: demand.ProductID,
				Available: product.Stock,
				Requested: demand.Quantity,
			})
		}
	}
	if len(shortages) > 0 {
		return &InsufficientStockError{Items: shortages}
	}

	for _, demand := range ordered {
		affected, err := productRepo.DecrementStock(demand.ProductID, demand.Quantity)
		if err != nil {
			return err
		}
		if affected == 0 {
			// 锁内校验通过但条件更新未命中，视为并发扣减
			current, err := productRepo.GetByID(demand.ProductID)
			if err != nil {
				return err
			}
			available := 0
			if current != nil {
				available = current.Stock
			}
			return &InsufficientStockError{Items: []models.StockShortageLine{{
				ProductID: demand.ProductID,
				Available: available,
				Requested: demand.Quantity,
			}}}
		}
	}
	return nil
}
