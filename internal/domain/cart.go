package domain

import "time"

// ProductSnapshot is the slice of a product a cart or order view needs:
// current price and savings plus the flags that gate availability.
type ProductSnapshot struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	Price    float64  `json:"price"`
	Images   []string `json:"images"`
	CO2Saved float64  `json:"co2_saved"`
	IsActive bool     `json:"is_active"`
	SellerID int64    `json:"-"`
}

type CartItem struct {
	ID       int64            `json:"id"`
	Quantity int              `json:"quantity"`
	AddedAt  time.Time        `json:"added_at"`
	Product  *ProductSnapshot `json:"product"`
}

type CartTotals struct {
	TotalItems    int     `json:"totalItems"`
	TotalPrice    float64 `json:"totalPrice"`
	TotalCO2Saved float64 `json:"totalCO2Saved"`
}

type Cart struct {
	ID     int64      `json:"id"`
	UserID int64      `json:"user_id"`
	Items  []CartItem `json:"items"`
	CartTotals
	UpdatedAt time.Time `json:"updated_at"`
}

// RecomputeTotals derives cart totals from the resolved line items. It is the
// single source of truth for the denormalized columns; mutating operations
// call it and persist the result, nothing hand-maintains the numbers.
func RecomputeTotals(items []CartItem) CartTotals {
	var t CartTotals
	for _, it := range items {
		if it.Product == nil {
			continue
		}
		t.TotalItems += it.Quantity
		t.TotalPrice += it.Product.Price * float64(it.Quantity)
		t.TotalCO2Saved += it.Product.CO2Saved * float64(it.Quantity)
	}
	return t
}

// ActiveItems filters out line items whose product has been deactivated.
// Stale references stay in storage but are hidden from views and totals.
func ActiveItems(items []CartItem) []CartItem {
	active := make([]CartItem, 0, len(items))
	for _, it := range items {
		if it.Product != nil && it.Product.IsActive {
			active = append(active, it)
		}
	}
	return active
}
