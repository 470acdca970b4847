package models

import (
	"time"

	"github.com/campusdash/internal/constants"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Payment 支付记录：pending -> success | failed，终态不可变
type Payment struct {
	ID            uint                            `gorm:"primarykey" json:"id"`                          // 主键
	UserID        uint                            `gorm:"index;not null" json:"user_id"`                 // 付款用户
	TxRef         string                          `gorm:"uniqueIndex;not null" json:"tx_ref"`            // 平台交易号
	Provider      string                          `gorm:"type:varchar(32);not null" json:"provider"`     // mobile_money / manual
	ProviderRef   *string                         `gorm:"index" json:"provider_ref"`                     // 网关流水号
	Network       string                          `gorm:"type:varchar(32)" json:"network"`               // 运营商网络（airtel/tnm）
	Mobile        string                          `gorm:"type:varchar(32)" json:"mobile"`                // 付款手机号
	Amount        Money                           `gorm:"type:decimal(20,2);not null" json:"amount"`     // 服务端核定金额
	Currency      string                          `gorm:"type:varchar(8);not null" json:"currency"`      // 币种
	Status        string                          `gorm:"type:varchar(20);index;not null" json:"status"` // 支付状态
	ProofRef      *string                         `json:"proof_ref"`                                     // 付款凭证路径
	CheckoutURL   string                          `gorm:"type:text" json:"checkout_url"`                 // 网关收银台地址
	Meta          datatypes.JSONType[PaymentMeta] `gorm:"type:json" json:"meta"`                         // 快照、地理围栏与对账记录
	PaidAt        *time.Time                      `gorm:"index" json:"paid_at"`                          // 成功时间
	FailedAt      *time.Time                      `json:"failed_at"`                                     // 失败时间
	LastCheckedAt *time.Time                      `gorm:"index" json:"last_checked_at"`                  // 最近一次网关查询时间
	CreatedAt     time.Time                       `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt     time.Time                       `json:"updated_at"`                                    // 更新时间
	DeletedAt     gorm.DeletedAt                  `gorm:"index" json:"-"`                                // 软删除时间
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}

// IsTerminal 是否已进入终态
func (p *Payment) IsTerminal() bool {
	return p.Status == constants.PaymentStatusSuccess || p.Status == constants.PaymentStatusFailed
}

// MetaData 返回元数据副本
func (p *Payment) MetaData() PaymentMeta {
	return p.Meta.Data()
}

// SetMeta 覆盖元数据（调用方负责先 Merge）
func (p *Payment) SetMeta(meta PaymentMeta) {
	p.Meta = datatypes.NewJSONType(meta)
}
