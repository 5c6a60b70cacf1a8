package service

import (
	"context"
	"errors"

	"go-stock-reconciler/internal/model"
	"go-stock-reconciler/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService manages product master data. None of its writes touch
// current_stock.
type CatalogService interface {
	CreateProduct(ctx context.Context, req *model.Product, userID string) error
	UpdateProduct(ctx context.Context, id uuid.UUID, req *model.Product, userID string) (*model.Product, error)
	GetAllProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

type catalogService struct {
	productRepo repository.ProductRepository
	log         *zap.Logger
}

func NewCatalogService(productRepo repository.ProductRepository, log *zap.Logger) CatalogService {
	return &catalogService{productRepo: productRepo, log: log}
}

func (s *catalogService) CreateProduct(ctx context.Context, req *model.Product, userID string) error {
	if err := validateProduct(req); err != nil {
		return err
	}

	existing, err := s.productRepo.FindBySKU(ctx, req.SKU)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if existing != nil {
		return ErrDuplicateSKU
	}

	req.CurrentStock = 0
	req.CreatedBy = userID
	req.UpdatedBy = userID
	if err := s.productRepo.Create(ctx, req); err != nil {
		return err
	}

	s.log.Info("product created", zap.String("product_id", req.ID.String()), zap.String("sku", req.SKU))
	return nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req *model.Product, userID string) (*model.Product, error) {
	if err := validateProduct(req); err != nil {
		return nil, err
	}

	existing, err := s.productRepo.FindBySKU(ctx, req.SKU)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.ID != id {
		return nil, ErrDuplicateSKU
	}

	req.ID = id
	req.UpdatedBy = userID
	if err := s.productRepo.Update(ctx, req); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	s.log.Info("product updated", zap.String("product_id", id.String()), zap.String("sku", req.SKU))
	return s.GetProduct(ctx, id)
}

func (s *catalogService) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.FindAll(ctx)
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func validateProduct(req *model.Product) error {
	if err := validate(req); err != nil {
		return err
	}
	if req.CostPrice.IsNegative() {
		return validationError("Product.CostPrice", "gte")
	}
	if req.FloorPrice.IsNegative() {
		return validationError("Product.FloorPrice", "gte")
	}
	return nil
}
