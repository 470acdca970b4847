package service

import (
	"testing"

	"github.com/campusdash/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestResolveStockDemandsMergesAndSorts(t *testing.T) {
	live := LiveCartSource{
		{ProductID: 9, Quantity: 1},
		{ProductID: 2, Quantity: 2},
		{ProductID: 9, Quantity: 3},
	}
	demands, err := ResolveStockDemands(live)
	require.NoError(t, err)
	assert.Equal(t, []StockDemand{{ProductID: 2, Quantity: 2}, {ProductID: 9, Quantity: 4}}, demands)

	snapshot := SnapshotSource{Snapshot: &models.CartSnapshot{Items: []models.CartSnapshotItem{
		{ProductID: 9, Quantity: 4},
		{ProductID: 2, Quantity: 2},
	}}}
	fromSnapshot, err := ResolveStockDemands(snapshot)
	require.NoError(t, err)
	assert.Equal(t, demands, fromSnapshot)
}

func TestResolveStockDemandsRejectsBadLines(t *testing.T) {
	_, err := ResolveStockDemands(LiveCartSource{{ProductID: 1, Quantity: 0}})
	require.ErrorIs(t, err, ErrInvalidCartItem)
	_, err = ResolveStockDemands(LiveCartSource{{ProductID: 0, Quantity: 1}})
	require.ErrorIs(t, err, ErrInvalidCartItem)
	_, err = ResolveStockDemands(LiveCartSource{})
	require.ErrorIs(t, err, ErrEmptyCart)
	_, err = ResolveStockDemands(SnapshotSource{})
	require.ErrorIs(t, err, ErrEmptyCart)
	_, err = ResolveStockDemands(nil)
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestReserveAndDecrementAllOrNothing(t *testing.T) {
	env := newWorkflowEnv(t, "ledger_all_or_nothing")
	ledger := NewStockLedger(env.productRepo)
	a := env.seedProduct(t, "A", 100, 5)
	b := env.seedProduct(t, "B", 100, 1)
	c := env.seedProduct(t, "C", 100, 0)

	err := env.db.Transaction(func(tx *gorm.DB) error {
		return ledger.ReserveAndDecrement(tx, []StockDemand{
			{ProductID: c.ID, Quantity: 1},
			{ProductID: a.ID, Quantity: 2},
			{ProductID: b.ID, Quantity: 2},
		})
	})
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	// 全部短缺按商品 ID 升序列出
	assert.Equal(t, []models.StockShortageLine{
		{ProductID: b.ID, Available: 1, Requested: 2},
		{ProductID: c.ID, Available: 0, Requested: 1},
	}, stockErr.Items)
	assert.Equal(t, 5, env.reloadProduct(t, a.ID).Stock)

	err = env.db.Transaction(func(tx *gorm.DB) error {
		return ledger.ReserveAndDecrement(tx, []StockDemand{{ProductID: a.ID, Quantity: 5}, {ProductID: b.ID, Quantity: 1}})
	})
	require.NoError(t, err)
	assert.Equal(t, 0, env.reloadProduct(t, a.ID).Stock)
	assert.Equal(t, 0, env.reloadProduct(t, b.ID).Stock)
}

func TestReserveAndDecrementUnknownProduct(t *testing.T) {
	env := newWorkflowEnv(t, "ledger_unknown_product")
	ledger := NewStockLedger(env.productRepo)

	err := env.db.Transaction(func(tx *gorm.DB) error {
		return ledger.ReserveAndDecrement(tx, []StockDemand{{ProductID: 404, Quantity: 1}})
	})
	require.ErrorIs(t, err, ErrIntegrityViolation)

	err = env.db.Transaction(func(tx *gorm.DB) error {
		return ledger.ReserveAndDecrement(tx, nil)
	})
	require.ErrorIs(t, err, ErrEmptyCart)
}
