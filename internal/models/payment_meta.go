package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrOrderAlreadyLinked 支付已关联其他订单
var ErrOrderAlreadyLinked = errors.New("payment already linked to another order")

// CartSnapshotItem 快照中的单个商品行
type CartSnapshotItem struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   Money  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
}

// LineTotal 行小计
func (i CartSnapshotItem) LineTotal() Money {
	return i.UnitPrice.MulInt(i.Quantity)
}

// CartSnapshot 发起支付时冻结的购物车，附加到支付后不再修改
type CartSnapshot struct {
	Items     []CartSnapshotItem `json:"items"`
	Hash      string             `json:"hash"`
	CartTotal Money              `json:"cart_total"`
	TakenAt   time.Time          `json:"taken_at"`
}

// IsEmpty 快照是否为空
func (s *CartSnapshot) IsEmpty() bool {
	return s == nil || len(s.Items) == 0
}

// GeofenceResult 发起支付时记录的配送区域判定
type GeofenceResult struct {
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	Inside       bool      `json:"inside"`
	LocationID   uint      `json:"location_id"`
	LocationName string    `json:"location_name"`
	DeliveryFee  Money     `json:"delivery_fee"`
	CheckedAt    time.Time `json:"checked_at"`
}

// 对账记录类型
const (
	NoteKindAmountMismatch = "amount_mismatch"
	NoteKindStockIssue     = "stock_issue"
	NoteKindNote           = "note"
)

// 文本记录来源
const (
	NoteSourceInitiation = "initiation"
	NoteSourceApproval   = "approval"
	NoteSourceGateway    = "gateway"
	NoteSourceAdmin      = "admin"
)

// AmountMismatchNote 金额不一致
type AmountMismatchNote struct {
	Expected  Money  `json:"expected"`
	Submitted Money  `json:"submitted"`
	Source    string `json:"source"`
}

// StockShortageLine 库存不足明细
type StockShortageLine struct {
	ProductID uint `json:"product_id"`
	Available int  `json:"available"`
	Requested int  `json:"requested"`
}

// StockIssueNote 下单时库存不足
type StockIssueNote struct {
	Items []StockShortageLine `json:"items"`
}

// TextNote 自由文本记录
type TextNote struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// ReconciliationNote 对账记录，Kind 决定唯一有效的载荷字段
type ReconciliationNote struct {
	Kind           string              `json:"kind"`
	At             time.Time           `json:"at"`
	AmountMismatch *AmountMismatchNote `json:"amount_mismatch,omitempty"`
	StockIssue     *StockIssueNote     `json:"stock_issue,omitempty"`
	Note           *TextNote           `json:"note,omitempty"`
}

// NewAmountMismatchNote 构造金额不一致记录
func NewAmountMismatchNote(expected, submitted Money, source string, at time.Time) ReconciliationNote {
	return ReconciliationNote{
		Kind:           NoteKindAmountMismatch,
		At:             at,
		AmountMismatch: &AmountMismatchNote{Expected: expected, Submitted: submitted, Source: source},
	}
}

// NewStockIssueNote 构造库存不足记录
func NewStockIssueNote(items []StockShortageLine, at time.Time) ReconciliationNote {
	copied := append([]StockShortageLine(nil), items...)
	return ReconciliationNote{Kind: NoteKindStockIssue, At: at, StockIssue: &StockIssueNote{Items: copied}}
}

// NewTextNote 构造文本记录
func NewTextNote(source, message string, at time.Time) ReconciliationNote {
	return ReconciliationNote{Kind: NoteKindNote, At: at, Note: &TextNote{Source: source, Message: message}}
}

// Validate 校验载荷与 Kind 一致
func (n ReconciliationNote) Validate() error {
	set := 0
	if n.AmountMismatch != nil {
		set++
	}
	if n.StockIssue != nil {
		set++
	}
	if n.Note != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("reconciliation note must carry exactly one payload, got %d", set)
	}
	switch n.Kind {
	case NoteKindAmountMismatch:
		if n.AmountMismatch == nil {
			return fmt.Errorf("kind %s without payload", n.Kind)
		}
	case NoteKindStockIssue:
		if n.StockIssue == nil {
			return fmt.Errorf("kind %s without payload", n.Kind)
		}
	case NoteKindNote:
		if n.Note == nil {
			return fmt.Errorf("kind %s without payload", n.Kind)
		}
	default:
		return fmt.Errorf("unknown reconciliation note kind %q", n.Kind)
	}
	return nil
}

// PaymentMeta 支付元数据
type PaymentMeta struct {
	CartSnapshot    *CartSnapshot        `json:"cart_snapshot,omitempty"`
	Geofence        *GeofenceResult      `json:"geofence,omitempty"`
	DeliveryAddress string               `json:"delivery_address,omitempty"`
	ClientAmount    *Money               `json:"client_amount,omitempty"`
	CustomerNote    string               `json:"customer_note,omitempty"`
	OrderCode       string               `json:"order_code,omitempty"`
	Notes           []ReconciliationNote `json:"notes,omitempty"`
}

// Merge 增量合并：已有字段不覆盖，对账记录追加
func (m PaymentMeta) Merge(patch PaymentMeta) (PaymentMeta, error) {
	out := m
	if out.CartSnapshot == nil && patch.CartSnapshot != nil {
		out.CartSnapshot = patch.CartSnapshot
	}
	if out.Geofence == nil && patch.Geofence != nil {
		out.Geofence = patch.Geofence
	}
	if out.DeliveryAddress == "" {
		out.DeliveryAddress = patch.DeliveryAddress
	}
	if out.ClientAmount == nil && patch.ClientAmount != nil {
		out.ClientAmount = patch.ClientAmount
	}
	if out.CustomerNote == "" {
		out.CustomerNote = patch.CustomerNote
	}
	if patch.OrderCode != "" {
		linked, err := out.LinkOrder(patch.OrderCode)
		if err != nil {
			return m, err
		}
		out = linked
	}
	if len(patch.Notes) > 0 {
		notes := make([]ReconciliationNote, 0, len(out.Notes)+len(patch.Notes))
		notes = append(notes, out.Notes...)
		for _, note := range patch.Notes {
			if err := note.Validate(); err != nil {
				return m, err
			}
			notes = append(notes, note)
		}
		out.Notes = notes
	}
	return out, nil
}

// LinkOrder 写入订单号，只允许写一次
func (m PaymentMeta) LinkOrder(orderCode string) (PaymentMeta, error) {
	if m.OrderCode != "" && m.OrderCode != orderCode {
		return m, ErrOrderAlreadyLinked
	}
	m.OrderCode = orderCode
	return m, nil
}

// HasNote 是否包含指定类型的记录
func (m PaymentMeta) HasNote(kind string) bool {
	for _, note := range m.Notes {
		if note.Kind == kind {
			return true
		}
	}
	return false
}
