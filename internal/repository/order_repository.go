package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/domain"
)

type OrderRepository interface {
	// Create inserts an order with its items in one transaction.
	Create(ctx context.Context, order *domain.Order) error
	// CreateAndClearCart inserts the order and empties the buyer's cart
	// atomically, so a failed insert never loses the cart.
	CreateAndClearCart(ctx context.Context, order *domain.Order, cartID int64) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	ListByBuyer(ctx context.Context, buyerID int64, status domain.OrderStatus, page, limit int) (*domain.OrderPage, error)
	ListBySeller(ctx context.Context, sellerID int64, status domain.OrderStatus, page, limit int) (*domain.OrderPage, error)
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error
	// SellerHasItems reports whether any line of the order was sold by the user.
	SellerHasItems(ctx context.Context, orderID, userID int64) (bool, error)
	BuyerStats(ctx context.Context, userID int64) (*domain.BuyerStats, error)
	SellerStats(ctx context.Context, userID int64) (*domain.SellerStats, error)
	SetPaymentRef(ctx context.Context, id int64, ref string) error
}

type orderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

const orderCols = `o.id, o.order_number, o.buyer_id, o.total_amount, o.total_co2_saved,
	o.status, o.ship_street, o.ship_city, o.ship_state, o.ship_zip, o.ship_country,
	o.payment_method, o.notes, COALESCE(o.payment_ref, ''), o.created_at, o.updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.BuyerID, &o.TotalAmount, &o.TotalCO2Saved,
		&o.Status, &o.ShippingAddress.Street, &o.ShippingAddress.City,
		&o.ShippingAddress.State, &o.ShippingAddress.ZipCode, &o.ShippingAddress.Country,
		&o.PaymentMethod, &o.Notes, &o.PaymentRef, &o.CreatedAt, &o.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) insertOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	const q = `
		INSERT INTO orders (order_number, buyer_id, total_amount, total_co2_saved, status,
			ship_street, ship_city, ship_state, ship_zip, ship_country,
			payment_method, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, created_at, updated_at`

	err := tx.QueryRow(ctx, q,
		order.OrderNumber, order.BuyerID, order.TotalAmount, order.TotalCO2Saved, order.Status,
		order.ShippingAddress.Street, order.ShippingAddress.City, order.ShippingAddress.State,
		order.ShippingAddress.ZipCode, order.ShippingAddress.Country,
		order.PaymentMethod, order.Notes,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	const itemQ = `
		INSERT INTO order_items (order_id, product_id, quantity, price, co2_saved)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id`

	for i := range order.Items {
		it := &order.Items[i]
		if err := tx.QueryRow(ctx, itemQ, order.ID, it.ProductID, it.Quantity, it.Price, it.CO2Saved).Scan(&it.ID); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.insertOrder(ctx, tx, order); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *orderRepository) CreateAndClearCart(ctx context.Context, order *domain.Order, cartID int64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.insertOrder(ctx, tx, order); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	const resetQ = `UPDATE carts
		SET total_items = 0, total_price = 0, total_co2_saved = 0, updated_at = now()
		WHERE id = $1`
	if _, err := tx.Exec(ctx, resetQ, cartID); err != nil {
		return fmt.Errorf("reset cart totals: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	const q = `SELECT ` + orderCols + ` FROM orders o WHERE o.id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	order, err := scanOrder(r.pool.QueryRow(ctx, q, id))
	if err != nil || order == nil {
		return order, err
	}

	const buyerQ = `SELECT id, username, email, full_name, is_verified FROM users WHERE id = $1`
	var p domain.Profile
	if err := r.pool.QueryRow(ctx, buyerQ, order.BuyerID).Scan(
		&p.ID, &p.Username, &p.Email, &p.FullName, &p.IsVerified,
	); err == nil {
		order.Buyer = &p
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	items, err := r.itemsForOrders(ctx, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	return order, nil
}

// itemsForOrders batch-loads line items with product snapshots for a set of
// orders, keyed by order id.
func (r *orderRepository) itemsForOrders(ctx context.Context, orderIDs []int64) (map[int64][]domain.OrderItem, error) {
	const q = `
		SELECT oi.order_id, oi.id, oi.product_id, oi.quantity, oi.price, oi.co2_saved,
			p.id, p.title, p.price, p.images, p.co2_saved, p.is_active, p.seller_id
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id ASC`

	rows, err := r.pool.Query(ctx, q, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var (
			orderID int64
			it      domain.OrderItem
			p       domain.ProductSnapshot
		)
		if err := rows.Scan(&orderID, &it.ID, &it.ProductID, &it.Quantity, &it.Price, &it.CO2Saved,
			&p.ID, &p.Title, &p.Price, &p.Images, &p.CO2Saved, &p.IsActive, &p.SellerID,
		); err != nil {
			return nil, err
		}
		it.Product = &p
		out[orderID] = append(out[orderID], it)
	}
	return out, rows.Err()
}

func (r *orderRepository) list(ctx context.Context, where string, args []any, page, limit int) (*domain.OrderPage, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	countQ := `SELECT COUNT(DISTINCT o.id) FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		JOIN products p ON p.id = oi.product_id
		WHERE ` + where
	var total int64
	if err := r.pool.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, err
	}

	pageQ := fmt.Sprintf(`SELECT DISTINCT `+orderCols+` FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		JOIN products p ON p.id = oi.product_id
		WHERE %s
		ORDER BY o.created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.pool.Query(ctx, pageQ, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	var ids []int64
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.BuyerID, &o.TotalAmount, &o.TotalCO2Saved,
			&o.Status, &o.ShippingAddress.Street, &o.ShippingAddress.City,
			&o.ShippingAddress.State, &o.ShippingAddress.ZipCode, &o.ShippingAddress.Country,
			&o.PaymentMethod, &o.Notes, &o.PaymentRef, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		items, err := r.itemsForOrders(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range orders {
			orders[i].Items = items[orders[i].ID]
		}
	}

	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	return &domain.OrderPage{
		Orders: orders,
		Pagination: domain.Pagination{
			Current: page,
			Pages:   pages,
			Total:   total,
		},
	}, nil
}

func (r *orderRepository) ListByBuyer(ctx context.Context, buyerID int64, status domain.OrderStatus, page, limit int) (*domain.OrderPage, error) {
	where := `o.buyer_id = $1`
	args := []any{buyerID}
	if status != "" {
		where += ` AND o.status = $2`
		args = append(args, status)
	}
	return r.list(ctx, where, args, page, limit)
}

func (r *orderRepository) ListBySeller(ctx context.Context, sellerID int64, status domain.OrderStatus, page, limit int) (*domain.OrderPage, error) {
	where := `p.seller_id = $1`
	args := []any{sellerID}
	if status != "" {
		where += ` AND o.status = $2`
		args = append(args, status)
	}
	return r.list(ctx, where, args, page, limit)
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	const q = `UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, status, id)
	return err
}

func (r *orderRepository) SellerHasItems(ctx context.Context, orderID, userID int64) (bool, error) {
	const q = `SELECT EXISTS (
		SELECT 1 FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1 AND p.seller_id = $2)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var ok bool
	err := r.pool.QueryRow(ctx, q, orderID, userID).Scan(&ok)
	return ok, err
}

func (r *orderRepository) BuyerStats(ctx context.Context, userID int64) (*domain.BuyerStats, error) {
	const q = `
		SELECT COUNT(*),
			COALESCE(SUM(total_amount), 0),
			COALESCE(SUM(total_co2_saved), 0),
			COALESCE((SELECT SUM(oi.quantity) FROM order_items oi
				JOIN orders o2 ON o2.id = oi.order_id
				WHERE o2.buyer_id = $1 AND o2.status <> 'cancelled'), 0)
		FROM orders
		WHERE buyer_id = $1 AND status <> 'cancelled'`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var s domain.BuyerStats
	err := r.pool.QueryRow(ctx, q, userID).Scan(&s.TotalOrders, &s.TotalSpent, &s.TotalCO2Saved, &s.TotalItems)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *orderRepository) SellerStats(ctx context.Context, userID int64) (*domain.SellerStats, error) {
	const q = `
		SELECT COUNT(DISTINCT oi.order_id),
			COALESCE(SUM(oi.price * oi.quantity), 0),
			COALESCE(SUM(oi.co2_saved * oi.quantity), 0)
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		JOIN orders o ON o.id = oi.order_id
		WHERE p.seller_id = $1 AND o.status <> 'cancelled'`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var s domain.SellerStats
	err := r.pool.QueryRow(ctx, q, userID).Scan(&s.TotalSales, &s.TotalRevenue, &s.TotalCO2Saved)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *orderRepository) SetPaymentRef(ctx context.Context, id int64, ref string) error {
	const q = `UPDATE orders SET payment_ref = $1 WHERE id = $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, ref, id)
	return err
}
