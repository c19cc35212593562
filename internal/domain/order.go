package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled:
		return OrderStatus(s), true
	default:
		return "", false
	}
}

type PaymentMethod string

const (
	PaymentCreditCard     PaymentMethod = "credit_card"
	PaymentDebitCard      PaymentMethod = "debit_card"
	PaymentPaypal         PaymentMethod = "paypal"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(s) {
	case PaymentCreditCard, PaymentDebitCard, PaymentPaypal, PaymentCashOnDelivery:
		return PaymentMethod(s), true
	default:
		return "", false
	}
}

// IsCard reports whether the method settles through the card processor.
func (m PaymentMethod) IsCard() bool {
	return m == PaymentCreditCard || m == PaymentDebitCard
}

type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

func (a *ShippingAddress) Normalize() {
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.ZipCode = strings.TrimSpace(a.ZipCode)
	if a.Country == "" {
		a.Country = "US"
	}
}

func (a *ShippingAddress) Validate() error {
	if a.Street == "" || a.City == "" || a.State == "" || a.ZipCode == "" {
		return fmt.Errorf("shipping address requires street, city, state and zipCode")
	}
	return nil
}

// OrderItem is a frozen snapshot: price and savings are copied at checkout so
// later product edits never alter historical orders.
type OrderItem struct {
	ID        int64            `json:"id"`
	ProductID int64            `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Price     float64          `json:"price"`
	CO2Saved  float64          `json:"co2_saved"`
	Product   *ProductSnapshot `json:"product,omitempty"`
}

type Order struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	BuyerID         int64           `json:"buyer_id"`
	Buyer           *Profile        `json:"buyer,omitempty"`
	Items           []OrderItem     `json:"items"`
	TotalAmount     float64         `json:"totalAmount"`
	TotalCO2Saved   float64         `json:"totalCO2Saved"`
	Status          OrderStatus     `json:"status"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	Notes           string          `json:"notes"`
	PaymentRef      string          `json:"payment_ref,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type CheckoutRequest struct {
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	Notes           string          `json:"notes"`
}

func (r *CheckoutRequest) Normalize() {
	r.ShippingAddress.Normalize()
	r.Notes = strings.TrimSpace(r.Notes)
	if r.PaymentMethod == "" {
		r.PaymentMethod = string(PaymentCreditCard)
	}
}

func (r *CheckoutRequest) Validate() error {
	if err := r.ShippingAddress.Validate(); err != nil {
		return err
	}
	if _, ok := ParsePaymentMethod(r.PaymentMethod); !ok {
		return fmt.Errorf("invalid payment method: %s", r.PaymentMethod)
	}
	if len(r.Notes) > 500 {
		return fmt.Errorf("notes must be at most 500 characters")
	}
	return nil
}

// DirectOrderRequest creates an order without going through the cart. The
// server resolves prices and savings itself; clients only name products and
// quantities.
type DirectOrderRequest struct {
	Items           []DirectOrderItem `json:"items"`
	ShippingAddress ShippingAddress   `json:"shippingAddress"`
	PaymentMethod   string            `json:"paymentMethod"`
	Notes           string            `json:"notes"`
}

type DirectOrderItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

func (r *DirectOrderRequest) Normalize() {
	r.ShippingAddress.Normalize()
	r.Notes = strings.TrimSpace(r.Notes)
	if r.PaymentMethod == "" {
		r.PaymentMethod = string(PaymentCreditCard)
	}
}

func (r *DirectOrderRequest) Validate() error {
	if len(r.Items) == 0 {
		return fmt.Errorf("order items are required")
	}
	for _, it := range r.Items {
		if it.ProductID <= 0 || it.Quantity < 1 {
			return fmt.Errorf("each item needs a product id and quantity >= 1")
		}
	}
	if err := r.ShippingAddress.Validate(); err != nil {
		return err
	}
	if _, ok := ParsePaymentMethod(r.PaymentMethod); !ok {
		return fmt.Errorf("invalid payment method: %s", r.PaymentMethod)
	}
	if len(r.Notes) > 500 {
		return fmt.Errorf("notes must be at most 500 characters")
	}
	return nil
}

type OrderPage struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

type BuyerStats struct {
	TotalOrders   int64   `json:"totalOrders"`
	TotalSpent    float64 `json:"totalSpent"`
	TotalCO2Saved float64 `json:"totalCO2Saved"`
	TotalItems    int64   `json:"totalItems"`
}

type SellerStats struct {
	TotalSales    int64   `json:"totalSales"`
	TotalRevenue  float64 `json:"totalRevenue"`
	TotalCO2Saved float64 `json:"totalCO2Saved"`
}

type OrderStats struct {
	Buyer  BuyerStats  `json:"buyer"`
	Seller SellerStats `json:"seller"`
}

// NewOrderNumber builds a human-readable, collision-resistant order number.
// The uuid-derived suffix replaces the original count-then-format scheme,
// which could hand two concurrent checkouts the same number.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("ECO-%d-%s", now.UnixMilli(), suffix)
}
