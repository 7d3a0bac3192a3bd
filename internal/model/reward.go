package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reward 回报档位，QuantityTotal 为空表示不限量
type Reward struct {
	Base

	ProjectID         string          `json:"project_id" gorm:"type:varchar(36);not null;index"`
	Title             string          `json:"title" gorm:"not null"`
	Description       string          `json:"description" gorm:"type:text"`
	Amount            decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	OrderIndex        int             `json:"order_index" gorm:"not null;default:0"`
	QuantityTotal     *int            `json:"quantity_total"`
	QuantityClaimed   int             `json:"quantity_claimed" gorm:"not null;default:0"`
	ShippingType      ShippingType    `json:"shipping_type" gorm:"type:varchar(16);not null"`
	EstimatedDelivery *time.Time      `json:"estimated_delivery"`
	IsActive          bool            `json:"is_active" gorm:"not null;default:true"`
}

// SoldOut 限量档位是否已领完
func (r *Reward) SoldOut() bool {
	return r.QuantityTotal != nil && r.QuantityClaimed >= *r.QuantityTotal
}

// ShippingType 配送方式
type ShippingType string

const (
	ShippingDigital   ShippingType = "digital"
	ShippingLocal     ShippingType = "local"
	ShippingDomestic  ShippingType = "domestic"
	ShippingWorldwide ShippingType = "worldwide"
)

func (s ShippingType) Valid() bool {
	switch s {
	case ShippingDigital, ShippingLocal, ShippingDomestic, ShippingWorldwide:
		return true
	}
	return false
}
