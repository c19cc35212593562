package service

import (
	"context"
	"fmt"

	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/domain"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/mailer"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/payments"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/repository"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/pkg/logger"
)

type CartService interface {
	GetCart(ctx context.Context, userID int64) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) (*domain.Cart, error)
	UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID int64) (*domain.Cart, error)
	Clear(ctx context.Context, userID int64) error
	// Checkout turns the cart into an immutable order and empties the cart
	// in the same transaction.
	Checkout(ctx context.Context, userID int64, req *domain.CheckoutRequest) (*domain.Order, error)
}

type cartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	orders   repository.OrderRepository
	users    repository.UserRepository
	payments payments.Service
	mailer   mailer.Service
}

func NewCartService(
	carts repository.CartRepository,
	products repository.ProductRepository,
	orders repository.OrderRepository,
	users repository.UserRepository,
	pay payments.Service,
	m mailer.Service,
) CartService {
	return &cartService{
		carts:    carts,
		products: products,
		orders:   orders,
		users:    users,
		payments: pay,
		mailer:   m,
	}
}

// view hides delisted products and recomputes totals over what remains, so
// the response always matches what the buyer can actually purchase.
func view(cart *domain.Cart) *domain.Cart {
	cart.Items = domain.ActiveItems(cart.Items)
	cart.CartTotals = domain.RecomputeTotals(cart.Items)
	return cart
}

func (s *cartService) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
	}
	return view(cart), nil
}

func (s *cartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		quantity = 1
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, domain.ErrNotFound
	}
	if product.SellerID == userID {
		return nil, domain.ErrSelfPurchase
	}

	cartID, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if err := s.carts.UpsertItem(ctx, cartID, productID, quantity); err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}

	return s.refresh(ctx, userID, cartID)
}

func (s *cartService) UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}

	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, domain.ErrNotFound
	}

	found, err := s.carts.UpdateItemQuantity(ctx, cart.ID, itemID, quantity)
	if err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	if !found {
		return nil, domain.ErrNotFound
	}

	return s.refresh(ctx, userID, cart.ID)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, itemID int64) (*domain.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, domain.ErrNotFound
	}

	found, err := s.carts.RemoveItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, fmt.Errorf("remove cart item: %w", err)
	}
	if !found {
		return nil, domain.ErrNotFound
	}

	return s.refresh(ctx, userID, cart.ID)
}

func (s *cartService) Clear(ctx context.Context, userID int64) error {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if cart == nil {
		return domain.ErrNotFound
	}

	if err := s.carts.ClearItems(ctx, cart.ID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return s.carts.UpdateTotals(ctx, cart.ID, domain.CartTotals{})
}

// refresh reloads the cart, persists recomputed totals and returns the view.
func (s *cartService) refresh(ctx context.Context, userID, cartID int64) (*domain.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
	}

	totals := domain.RecomputeTotals(domain.ActiveItems(cart.Items))
	if err := s.carts.UpdateTotals(ctx, cartID, totals); err != nil {
		return nil, fmt.Errorf("persist cart totals: %w", err)
	}
	return view(cart), nil
}

func (s *cartService) Checkout(ctx context.Context, userID int64, req *domain.CheckoutRequest) (*domain.Order, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	// Delisted products block checkout instead of being silently dropped;
	// the buyer removes them explicitly. The cart is left untouched.
	var unavailable []string
	for _, it := range cart.Items {
		if it.Product != nil && !it.Product.IsActive {
			unavailable = append(unavailable, it.Product.Title)
		}
	}
	if len(unavailable) > 0 {
		return nil, &domain.ItemsUnavailableError{Titles: unavailable}
	}

	method, _ := domain.ParsePaymentMethod(req.PaymentMethod)

	order := &domain.Order{
		OrderNumber:     domain.NewOrderNumber(nowFunc()),
		BuyerID:         userID,
		Status:          domain.OrderPending,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   method,
		Notes:           req.Notes,
	}
	for _, it := range cart.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: it.Product.ID,
			Quantity:  it.Quantity,
			Price:     it.Product.Price,
			CO2Saved:  it.Product.CO2Saved,
			Product:   it.Product,
		})
		order.TotalAmount += it.Product.Price * float64(it.Quantity)
		order.TotalCO2Saved += it.Product.CO2Saved * float64(it.Quantity)
	}

	if err := s.orders.CreateAndClearCart(ctx, order, cart.ID); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	logger.InfoContext(ctx, "order placed",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"buyer_id", userID,
		"total", order.TotalAmount,
	)

	s.afterCheckout(ctx, order)
	return order, nil
}

// afterCheckout runs the best-effort follow-ups: a card payment intent and
// the confirmation email. The order is already committed, so failures here
// are logged, never surfaced.
func (s *cartService) afterCheckout(ctx context.Context, order *domain.Order) {
	if order.PaymentMethod.IsCard() && s.payments != nil && s.payments.Enabled() {
		ref, err := s.payments.CreateIntent(ctx, order.TotalAmount, order.OrderNumber)
		if err != nil {
			logger.ErrorContext(ctx, "payment intent failed", "error", err, "order_id", order.ID)
		} else if err := s.orders.SetPaymentRef(ctx, order.ID, ref); err != nil {
			logger.ErrorContext(ctx, "failed to record payment ref", "error", err, "order_id", order.ID)
		} else {
			order.PaymentRef = ref
		}
	}

	if s.mailer == nil {
		return
	}
	buyer, err := s.users.FindByID(ctx, order.BuyerID)
	if err != nil || buyer == nil {
		return
	}
	if err := s.mailer.SendOrderConfirmation(buyer.Email, buyer.FullName, order.OrderNumber, order.TotalAmount, order.TotalCO2Saved); err != nil {
		logger.ErrorContext(ctx, "failed to send order confirmation", "error", err, "order_id", order.ID)
	}
}
