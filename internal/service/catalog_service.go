package service

import (
	"context"
	"fmt"

	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/domain"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/repository"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/pkg/logger"
)

type CatalogService interface {
	Create(ctx context.Context, sellerID int64, req *domain.CreateProductRequest) (*domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error)
	MyListings(ctx context.Context, sellerID int64) ([]domain.Product, error)
	Update(ctx context.Context, userID, id int64, req *domain.UpdateProductRequest) (*domain.Product, error)
	// Delete deactivates the listing. The row survives so order history
	// keeps resolving product details.
	Delete(ctx context.Context, userID, id int64) error
}

type catalogService struct {
	products repository.ProductRepository
}

func NewCatalogService(products repository.ProductRepository) CatalogService {
	return &catalogService{products: products}
}

func (s *catalogService) Create(ctx context.Context, sellerID int64, req *domain.CreateProductRequest) (*domain.Product, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	product, err := s.products.Create(ctx, sellerID, req)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	logger.InfoContext(ctx, "product listed", "product_id", product.ID, "seller_id", sellerID)
	return product, nil
}

func (s *catalogService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

func (s *catalogService) List(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	pages := int(total) / filter.Limit
	if int(total)%filter.Limit != 0 {
		pages++
	}
	return &domain.ProductPage{
		Products: products,
		Pagination: domain.Pagination{
			Current: filter.Page,
			Pages:   pages,
			Total:   total,
		},
	}, nil
}

func (s *catalogService) MyListings(ctx context.Context, sellerID int64) ([]domain.Product, error) {
	return s.products.ListBySeller(ctx, sellerID)
}

func (s *catalogService) Update(ctx context.Context, userID, id int64, req *domain.UpdateProductRequest) (*domain.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if product.SellerID != userID {
		return nil, domain.ErrForbidden
	}

	updated, err := s.products.Update(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

func (s *catalogService) Delete(ctx context.Context, userID, id int64) error {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrNotFound
	}
	if product.SellerID != userID {
		return domain.ErrForbidden
	}

	if err := s.products.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	logger.InfoContext(ctx, "product delisted", "product_id", id, "seller_id", userID)
	return nil
}
