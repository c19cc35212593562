package service

import (
	"context"
	"fmt"

	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/domain"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/repository"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/pkg/logger"
)

type OrderService interface {
	ListMine(ctx context.Context, userID int64, status string, page, limit int) (*domain.OrderPage, error)
	Get(ctx context.Context, userID, id int64) (*domain.Order, error)
	Stats(ctx context.Context, userID int64) (*domain.OrderStats, error)
	// SellerOrders lists orders containing at least one product sold by the user.
	SellerOrders(ctx context.Context, userID int64, status string, page, limit int) (*domain.OrderPage, error)
	// CreateDirect places an order without a cart. Prices and savings come
	// from the catalog, never from the request.
	CreateDirect(ctx context.Context, userID int64, req *domain.DirectOrderRequest) (*domain.Order, error)
	UpdateStatus(ctx context.Context, userID, id int64, status string) (*domain.Order, error)
}

type orderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
}

func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository) OrderService {
	return &orderService{orders: orders, products: products}
}

func parseStatusFilter(status string) (domain.OrderStatus, error) {
	if status == "" {
		return "", nil
	}
	parsed, ok := domain.ParseOrderStatus(status)
	if !ok {
		return "", fmt.Errorf("invalid order status: %s", status)
	}
	return parsed, nil
}

func (s *orderService) ListMine(ctx context.Context, userID int64, status string, page, limit int) (*domain.OrderPage, error) {
	filter, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	return s.orders.ListByBuyer(ctx, userID, filter, page, limit)
}

func (s *orderService) Get(ctx context.Context, userID, id int64) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if order.BuyerID != userID {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

func (s *orderService) Stats(ctx context.Context, userID int64) (*domain.OrderStats, error) {
	buyer, err := s.orders.BuyerStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("buyer stats: %w", err)
	}
	seller, err := s.orders.SellerStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("seller stats: %w", err)
	}
	return &domain.OrderStats{Buyer: *buyer, Seller: *seller}, nil
}

func (s *orderService) SellerOrders(ctx context.Context, userID int64, status string, page, limit int) (*domain.OrderPage, error) {
	filter, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	return s.orders.ListBySeller(ctx, userID, filter, page, limit)
}

func (s *orderService) CreateDirect(ctx context.Context, userID int64, req *domain.DirectOrderRequest) (*domain.Order, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.ProductID)
	}
	snapshots, err := s.products.Snapshots(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	var unavailable []string
	for _, it := range req.Items {
		snap := snapshots[it.ProductID]
		if snap == nil {
			return nil, domain.ErrNotFound
		}
		if !snap.IsActive {
			unavailable = append(unavailable, snap.Title)
		}
		if snap.SellerID == userID {
			return nil, domain.ErrSelfPurchase
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
	for _, it := range req.Items {
		snap := snapshots[it.ProductID]
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: snap.ID,
			Quantity:  it.Quantity,
			Price:     snap.Price,
			CO2Saved:  snap.CO2Saved,
			Product:   snap,
		})
		order.TotalAmount += snap.Price * float64(it.Quantity)
		order.TotalCO2Saved += snap.CO2Saved * float64(it.Quantity)
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	logger.InfoContext(ctx, "direct order placed",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"buyer_id", userID,
	)
	return order, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, userID, id int64, status string) (*domain.Order, error) {
	parsed, ok := domain.ParseOrderStatus(status)
	if !ok {
		return nil, fmt.Errorf("invalid order status: %s", status)
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}

	// Buyers may cancel their own pending orders; everything else is the
	// seller's call.
	if order.BuyerID == userID && parsed == domain.OrderCancelled {
		if order.Status != domain.OrderPending {
			return nil, fmt.Errorf("only pending orders can be cancelled")
		}
	} else {
		sells, err := s.orders.SellerHasItems(ctx, id, userID)
		if err != nil {
			return nil, err
		}
		if !sells {
			return nil, domain.ErrForbidden
		}
	}

	if err := s.orders.UpdateStatus(ctx, id, parsed); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = parsed

	logger.InfoContext(ctx, "order status updated", "order_id", id, "status", parsed, "by", userID)
	return order, nil
}
