package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/domain"
)

type ProductRepository interface {
	Create(ctx context.Context, sellerID int64, req *domain.CreateProductRequest) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]domain.Product, error)
	Update(ctx context.Context, id int64, req *domain.UpdateProductRequest) (*domain.Product, error)
	Deactivate(ctx context.Context, id int64) error
	Snapshots(ctx context.Context, ids []int64) (map[int64]*domain.ProductSnapshot, error)
}

type productRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &productRepository{pool: pool}
}

const productCols = `p.id, p.title, p.description, p.price, p.category, p.condition, p.images,
p.seller_id, p.is_active, p.co2_saved, p.loc_city, p.loc_state, p.loc_country, p.tags,
p.created_at, p.updated_at, u.username, u.email, u.full_name, u.is_verified`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p      domain.Product
		seller domain.Profile
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Price, &p.Category, &p.Condition, &p.Images,
		&p.SellerID, &p.IsActive, &p.CO2Saved,
		&p.Location.City, &p.Location.State, &p.Location.Country, &p.Tags,
		&p.CreatedAt, &p.UpdatedAt,
		&seller.Username, &seller.Email, &seller.FullName, &seller.IsVerified,
	)
	if err != nil {
		return nil, err
	}
	seller.ID = p.SellerID
	p.Seller = &seller
	return &p, nil
}

func (r *productRepository) Create(ctx context.Context, sellerID int64, req *domain.CreateProductRequest) (*domain.Product, error) {
	q := `
		WITH inserted AS (
			INSERT INTO products (title, description, price, category, condition, images,
				seller_id, co2_saved, loc_city, loc_state, loc_country, tags)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			RETURNING *
		)
		SELECT ` + strings.ReplaceAll(productCols, "p.", "inserted.") + `
		FROM inserted JOIN users u ON u.id = inserted.seller_id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanProduct(r.pool.QueryRow(ctx, q,
		req.Title, req.Description, req.Price, req.Category, req.Condition, req.Images,
		sellerID, req.CO2Saved, req.Location.City, req.Location.State, req.Location.Country, req.Tags,
	))
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	const q = `SELECT ` + productCols + ` FROM products p JOIN users u ON u.id = p.seller_id WHERE p.id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	where := []string{"p.is_active"}
	args := []any{}

	if filter.Category != "" && filter.Category != "all" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("p.category = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(p.title ILIKE $%d OR p.description ILIKE $%d OR array_to_string(p.tags, ' ') ILIKE $%d)", n, n, n))
	}
	whereSQL := strings.Join(where, " AND ")

	var orderBy string
	switch filter.Sort {
	case domain.SortPriceAsc:
		orderBy = "p.price ASC"
	case domain.SortPriceDesc:
		orderBy = "p.price DESC"
	default:
		orderBy = "p.created_at DESC"
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var total int64
	countSQL := "SELECT count(*) FROM products p WHERE " + whereSQL
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	listSQL := fmt.Sprintf(`SELECT `+productCols+` FROM products p JOIN users u ON u.id = p.seller_id
		WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`, whereSQL, orderBy, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	return products, total, rows.Err()
}

func (r *productRepository) ListBySeller(ctx context.Context, sellerID int64) ([]domain.Product, error) {
	const q = `SELECT ` + productCols + ` FROM products p JOIN users u ON u.id = p.seller_id
		WHERE p.seller_id = $1 AND p.is_active ORDER BY p.created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *productRepository) Update(ctx context.Context, id int64, req *domain.UpdateProductRequest) (*domain.Product, error) {
	set := []string{"updated_at = now()"}
	args := []any{}

	add := func(col string, val any) {
		args = append(args, val)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if req.Title != nil {
		add("title", *req.Title)
	}
	if req.Description != nil {
		add("description", *req.Description)
	}
	if req.Price != nil {
		add("price", *req.Price)
	}
	if req.Category != nil {
		add("category", *req.Category)
	}
	if req.Condition != nil {
		add("condition", *req.Condition)
	}
	if req.Images != nil {
		add("images", *req.Images)
	}
	if req.CO2Saved != nil {
		add("co2_saved", *req.CO2Saved)
	}
	if req.Location != nil {
		add("loc_city", req.Location.City)
		add("loc_state", req.Location.State)
		add("loc_country", req.Location.Country)
	}
	if req.Tags != nil {
		add("tags", *req.Tags)
	}

	args = append(args, id)
	q := fmt.Sprintf(`
		WITH updated AS (
			UPDATE products SET %s WHERE id = $%d RETURNING *
		)
		SELECT `+strings.ReplaceAll(productCols, "p.", "updated.")+`
		FROM updated JOIN users u ON u.id = updated.seller_id`,
		strings.Join(set, ", "), len(args))

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p, err := scanProduct(r.pool.QueryRow(ctx, q, args...))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *productRepository) Deactivate(ctx context.Context, id int64) error {
	const q = `UPDATE products SET is_active = false, updated_at = now() WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id)
	return err
}

func (r *productRepository) Snapshots(ctx context.Context, ids []int64) (map[int64]*domain.ProductSnapshot, error) {
	const q = `SELECT id, title, price, images, co2_saved, is_active, seller_id
		FROM products WHERE id = ANY($1)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make(map[int64]*domain.ProductSnapshot, len(ids))
	for rows.Next() {
		var s domain.ProductSnapshot
		if err := rows.Scan(&s.ID, &s.Title, &s.Price, &s.Images, &s.CO2Saved, &s.IsActive, &s.SellerID); err != nil {
			return nil, err
		}
		snapshots[s.ID] = &s
	}
	return snapshots, rows.Err()
}
