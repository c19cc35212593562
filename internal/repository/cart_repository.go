package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/domain"
)

type CartRepository interface {
	// GetByUserID loads the cart with resolved line items, nil if the user
	// has never added anything.
	GetByUserID(ctx context.Context, userID int64) (*domain.Cart, error)
	// GetOrCreate returns the user's cart id, creating the row lazily.
	GetOrCreate(ctx context.Context, userID int64) (int64, error)
	// UpsertItem appends a line item or merges quantities when the product
	// is already in the cart.
	UpsertItem(ctx context.Context, cartID, productID int64, quantity int) error
	UpdateItemQuantity(ctx context.Context, cartID, itemID int64, quantity int) (bool, error)
	RemoveItem(ctx context.Context, cartID, itemID int64) (bool, error)
	ClearItems(ctx context.Context, cartID int64) error
	UpdateTotals(ctx context.Context, cartID int64, totals domain.CartTotals) error
}

type cartRepository struct {
	pool *pgxpool.Pool
}

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &cartRepository{pool: pool}
}

func (r *cartRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Cart, error) {
	const cartQ = `SELECT id, user_id, total_items, total_price, total_co2_saved, updated_at
		FROM carts WHERE user_id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c domain.Cart
	err := r.pool.QueryRow(ctx, cartQ, userID).Scan(
		&c.ID, &c.UserID, &c.TotalItems, &c.TotalPrice, &c.TotalCO2Saved, &c.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	const itemsQ = `SELECT ci.id, ci.quantity, ci.added_at,
			p.id, p.title, p.price, p.images, p.co2_saved, p.is_active, p.seller_id
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id ASC`

	rows, err := r.pool.Query(ctx, itemsQ, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it domain.CartItem
			p  domain.ProductSnapshot
		)
		if err := rows.Scan(&it.ID, &it.Quantity, &it.AddedAt,
			&p.ID, &p.Title, &p.Price, &p.Images, &p.CO2Saved, &p.IsActive, &p.SellerID,
		); err != nil {
			return nil, err
		}
		it.Product = &p
		c.Items = append(c.Items, it)
	}
	return &c, rows.Err()
}

func (r *cartRepository) GetOrCreate(ctx context.Context, userID int64) (int64, error) {
	const q = `
		INSERT INTO carts (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = now()
		RETURNING id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var id int64
	err := r.pool.QueryRow(ctx, q, userID).Scan(&id)
	return id, err
}

func (r *cartRepository) UpsertItem(ctx context.Context, cartID, productID int64, quantity int) error {
	const q = `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, cartID, productID, quantity)
	return err
}

func (r *cartRepository) UpdateItemQuantity(ctx context.Context, cartID, itemID int64, quantity int) (bool, error) {
	const q = `UPDATE cart_items SET quantity = $1 WHERE id = $2 AND cart_id = $3`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, quantity, itemID, cartID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *cartRepository) RemoveItem(ctx context.Context, cartID, itemID int64) (bool, error) {
	const q = `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, itemID, cartID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *cartRepository) ClearItems(ctx context.Context, cartID int64) error {
	const q = `DELETE FROM cart_items WHERE cart_id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, cartID)
	return err
}

func (r *cartRepository) UpdateTotals(ctx context.Context, cartID int64, totals domain.CartTotals) error {
	const q = `UPDATE carts
		SET total_items = $1, total_price = $2, total_co2_saved = $3, updated_at = now()
		WHERE id = $4`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, totals.TotalItems, totals.TotalPrice, totals.TotalCO2Saved, cartID)
	return err
}
