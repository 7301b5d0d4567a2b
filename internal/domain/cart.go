package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is a single line in the cart. ID is the catalog product id and is
// unique within a cart. Stock is the last-known available inventory; nil means
// unknown and is treated as unconstrained.
type CartItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Stock    *int            `json:"stock,omitempty"`
	ImageURL string          `json:"image_url,omitempty"`
	Brand    string          `json:"brand,omitempty"`
	Category string          `json:"category,omitempty"`
	Tags     []string        `json:"tags,omitempty"`
}

// DeletedItem is a CartItem snapshot taken at removal time, held in the
// recently-deleted buffer so it can be restored.
type DeletedItem struct {
	CartItem
	DeletedAt time.Time `json:"deleted_at"`
}

// CouponType enumerates the supported discount strategies.
type CouponType string

const (
	// CouponPercentage discounts a percentage of the subtotal.
	CouponPercentage CouponType = "percentage"
	// CouponFixed discounts a fixed amount, capped at the subtotal.
	CouponFixed CouponType = "fixed"
	// CouponShipping waives the shipping fee without touching the subtotal.
	CouponShipping CouponType = "shipping"
)

// Coupon is a discount code. At most one coupon is active on a cart.
// MinPurchase is the subtotal required to apply the coupon; MaxDiscount caps
// percentage discounts. Both are optional.
type Coupon struct {
	Code        string           `json:"code"`
	Type        CouponType       `json:"type"`
	Value       decimal.Decimal  `json:"value"`
	MinPurchase *decimal.Decimal `json:"min_purchase,omitempty"`
	MaxDiscount *decimal.Decimal `json:"max_discount,omitempty"`
}

// CartState is the aggregate persisted per owner. Items keep insertion order.
// RecentlyDeleted holds at most the five newest deletions, newest first.
type CartState struct {
	Items           []CartItem    `json:"items"`
	Selected        []string      `json:"selected"`
	RecentlyDeleted []DeletedItem `json:"recently_deleted,omitempty"`
	Coupon          *Coupon       `json:"coupon,omitempty"`
	LastAdded       *CartItem     `json:"last_added,omitempty"`
}

// Result is the structured outcome of mutators that can fail on business
// conditions. Expected failures are returned, never raised as errors.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// QuantityResult extends Result with the maximum allowed quantity when an
// update is rejected for exceeding the last-known stock.
type QuantityResult struct {
	Result
	MaxQuantity *int `json:"max_quantity,omitempty"`
}
