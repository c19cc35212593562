package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/domain"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/service"
)

type orderFixture struct {
	svc      service.OrderService
	products *mockProductRepo
	orders   *mockOrderRepo
}

func setupOrders(t *testing.T) *orderFixture {
	t.Helper()
	products := newMockProductRepo()
	carts := newMockCartRepo(products)
	orders := newMockOrderRepo(products, carts)
	return &orderFixture{
		svc:      service.NewOrderService(orders, products),
		products: products,
		orders:   orders,
	}
}

func placeOrder(t *testing.T, f *orderFixture, buyer int64, items []domain.DirectOrderItem) *domain.Order {
	t.Helper()
	order, err := f.svc.CreateDirect(context.Background(), buyer, &domain.DirectOrderRequest{
		Items:           items,
		ShippingAddress: defaultAddress(),
		PaymentMethod:   "paypal",
	})
	if err != nil {
		t.Fatalf("CreateDirect failed: %v", err)
	}
	return order
}

func TestCreateDirect_ServerResolvesPrices(t *testing.T) {
	f := setupOrders(t)
	p := f.products.add(sellerID, "Used Laptop", 25, 2.5)

	order := placeOrder(t, f, buyerID, []domain.DirectOrderItem{{ProductID: p.ID, Quantity: 2}})

	if order.TotalAmount != 50 {
		t.Fatalf("Expected total 50, got %v", order.TotalAmount)
	}
	if order.TotalCO2Saved != 5 {
		t.Fatalf("Expected 5kg CO2, got %v", order.TotalCO2Saved)
	}
	if order.Items[0].Price != 25 {
		t.Fatalf("Expected frozen price 25, got %v", order.Items[0].Price)
	}
	if order.Status != domain.OrderPending {
		t.Fatalf("Expected pending, got %s", order.Status)
	}
}

func TestCreateDirect_UnknownProduct(t *testing.T) {
	f := setupOrders(t)

	_, err := f.svc.CreateDirect(context.Background(), buyerID, &domain.DirectOrderRequest{
		Items:           []domain.DirectOrderItem{{ProductID: 42, Quantity: 1}},
		ShippingAddress: defaultAddress(),
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestCreateDirect_OwnProductBlocked(t *testing.T) {
	f := setupOrders(t)
	p := f.products.add(sellerID, "Used Laptop", 25, 2.5)

	_, err := f.svc.CreateDirect(context.Background(), sellerID, &domain.DirectOrderRequest{
		Items:           []domain.DirectOrderItem{{ProductID: p.ID, Quantity: 1}},
		ShippingAddress: defaultAddress(),
	})
	if !errors.Is(err, domain.ErrSelfPurchase) {
		t.Fatalf("Expected ErrSelfPurchase, got %v", err)
	}
}

func TestCreateDirect_InactiveProduct(t *testing.T) {
	f := setupOrders(t)
	p := f.products.add(sellerID, "Used Laptop", 25, 2.5)
	p.IsActive = false

	_, err := f.svc.CreateDirect(context.Background(), buyerID, &domain.DirectOrderRequest{
		Items:           []domain.DirectOrderItem{{ProductID: p.ID, Quantity: 1}},
		ShippingAddress: defaultAddress(),
	})

	var unavailable *domain.ItemsUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("Expected ItemsUnavailableError, got %v", err)
	}
}

func TestGetOrder_OnlyBuyer(t *testing.T) {
	f := setupOrders(t)
	p := f.products.add(sellerID, "Used Laptop", 25, 2.5)
	order := placeOrder(t, f, buyerID, []domain.DirectOrderItem{{ProductID: p.ID, Quantity: 1}})

	if _, err := f.svc.Get(context.Background(), buyerID, order.ID); err != nil {
		t.Fatalf("Buyer should see own order: %v", err)
	}

	_, err := f.svc.Get(context.Background(), int64(99), order.ID)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Expected ErrForbidden for stranger, got %v", err)
	}

	_, err = f.svc.Get(context.Background(), buyerID, 12345)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatus_SellerOnly(t *testing.T) {
	f := setupOrders(t)
	p := f.products.add(sellerID, "Used Laptop", 25, 2.5)
	order := placeOrder(t, f, buyerID, []domain.DirectOrderItem{{ProductID: p.ID, Quantity: 1}})

	updated, err := f.svc.UpdateStatus(context.Background(), sellerID, order.ID, "shipped")
	if err != nil {
		t.Fatalf("Seller status update failed: %v", err)
	}
	if updated.Status != domain.OrderShipped {
		t.Fatalf("Expected shipped, got %s", updated.Status)
	}

	_, err = f.svc.UpdateStatus(context.Background(), int64(99), order.ID, "delivered")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Expected ErrForbidden for stranger, got %v", err)
	}
}

func TestUpdateStatus_BuyerCanCancelPending(t *testing.T) {
	f := setupOrders(t)
	p := f.products.add(sellerID, "Used Laptop", 25, 2.5)
	order := placeOrder(t, f, buyerID, []domain.DirectOrderItem{{ProductID: p.ID, Quantity: 1}})

	updated, err := f.svc.UpdateStatus(context.Background(), buyerID, order.ID, "cancelled")
	if err != nil {
		t.Fatalf("Buyer cancel failed: %v", err)
	}
	if updated.Status != domain.OrderCancelled {
		t.Fatalf("Expected cancelled, got %s", updated.Status)
	}
}

func TestUpdateStatus_BuyerCannotCancelShipped(t *testing.T) {
	f := setupOrders(t)
	p := f.products.add(sellerID, "Used Laptop", 25, 2.5)
	order := placeOrder(t, f, buyerID, []domain.DirectOrderItem{{ProductID: p.ID, Quantity: 1}})

	if _, err := f.svc.UpdateStatus(context.Background(), sellerID, order.ID, "shipped"); err != nil {
		t.Fatalf("Seller status update failed: %v", err)
	}

	if _, err := f.svc.UpdateStatus(context.Background(), buyerID, order.ID, "cancelled"); err == nil {
		t.Fatal("Expected error cancelling a shipped order")
	}
}

func TestUpdateStatus_InvalidValue(t *testing.T) {
	f := setupOrders(t)
	p := f.products.add(sellerID, "Used Laptop", 25, 2.5)
	order := placeOrder(t, f, buyerID, []domain.DirectOrderItem{{ProductID: p.ID, Quantity: 1}})

	if _, err := f.svc.UpdateStatus(context.Background(), sellerID, order.ID, "teleported"); err == nil {
		t.Fatal("Expected error for unknown status")
	}
}

func TestStats_AggregateBuyerAndSeller(t *testing.T) {
	f := setupOrders(t)
	p1 := f.products.add(sellerID, "Used Laptop", 25, 2.5)
	p2 := f.products.add(sellerID, "Wool Sweater", 10, 1)

	placeOrder(t, f, buyerID, []domain.DirectOrderItem{{ProductID: p1.ID, Quantity: 2}})
	placeOrder(t, f, buyerID, []domain.DirectOrderItem{{ProductID: p2.ID, Quantity: 1}})

	buyerStats, err := f.svc.Stats(context.Background(), buyerID)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if buyerStats.Buyer.TotalOrders != 2 {
		t.Fatalf("Expected 2 orders, got %d", buyerStats.Buyer.TotalOrders)
	}
	if buyerStats.Buyer.TotalSpent != 60 {
		t.Fatalf("Expected 60 spent, got %v", buyerStats.Buyer.TotalSpent)
	}
	if buyerStats.Buyer.TotalItems != 3 {
		t.Fatalf("Expected 3 items, got %d", buyerStats.Buyer.TotalItems)
	}

	sellerStats, err := f.svc.Stats(context.Background(), sellerID)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if sellerStats.Seller.TotalSales != 2 {
		t.Fatalf("Expected 2 sales, got %d", sellerStats.Seller.TotalSales)
	}
	if sellerStats.Seller.TotalRevenue != 60 {
		t.Fatalf("Expected 60 revenue, got %v", sellerStats.Seller.TotalRevenue)
	}
}

func TestSellerOrders_ListsSales(t *testing.T) {
	f := setupOrders(t)
	p := f.products.add(sellerID, "Used Laptop", 25, 2.5)
	otherSellerProduct := f.products.add(int64(7), "Novel", 5, 0.2)

	placeOrder(t, f, buyerID, []domain.DirectOrderItem{{ProductID: p.ID, Quantity: 1}})
	placeOrder(t, f, buyerID, []domain.DirectOrderItem{{ProductID: otherSellerProduct.ID, Quantity: 1}})

	page, err := f.svc.SellerOrders(context.Background(), sellerID, "", 1, 20)
	if err != nil {
		t.Fatalf("SellerOrders failed: %v", err)
	}
	if len(page.Orders) != 1 {
		t.Fatalf("Expected 1 sale for seller, got %d", len(page.Orders))
	}
}
