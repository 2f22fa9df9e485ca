package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mercantile/storefront/internal/cart"
	"github.com/mercantile/storefront/pkg/db"
	"github.com/mercantile/storefront/pkg/db/models"
	pkgerrors "github.com/mercantile/storefront/pkg/errors"
	"github.com/mercantile/storefront/pkg/types"
)

var hundred = decimal.NewFromInt(100)

// Service exposes catalog reads and admin product management.
type Service interface {
	GetSnapshot(ctx context.Context, productID uuid.UUID) (cart.ProductSnapshot, error)
	Get(ctx context.Context, productID uuid.UUID, includeInactive bool) (*ProductDTO, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, productID uuid.UUID) error
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	SKU                string
	Title              string
	Description        string
	Category           string
	Thumbnail          string
	Price              decimal.Decimal
	DiscountPercentage decimal.Decimal
	Stock              int
	IsActive           bool
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	SKU                *string
	Title              *string
	Description        *string
	Category           *string
	Thumbnail          *string
	Price              *decimal.Decimal
	DiscountPercentage *decimal.Decimal
	Stock              *int
	IsActive           *bool
}

type service struct {
	repo *Repository
}

// NewService constructs a product service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

// GetSnapshot serves cart adds. Inactive products are reported as missing.
func (s *service) GetSnapshot(ctx context.Context, productID uuid.UUID) (cart.ProductSnapshot, error) {
	product, err := s.load(ctx, productID, false)
	if err != nil {
		return cart.ProductSnapshot{}, err
	}
	stock := product.Stock
	return cart.ProductSnapshot{
		ProductID:          product.ID,
		Price:              product.Price,
		DiscountPercentage: product.DiscountPercentage,
		Stock:              &stock,
		Title:              product.Title,
		Category:           product.Category,
		Thumbnail:          product.Thumbnail,
	}, nil
}

func (s *service) Get(ctx context.Context, productID uuid.UUID, includeInactive bool) (*ProductDTO, error) {
	product, err := s.load(ctx, productID, includeInactive)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	rows, total, err := s.repo.List(ctx, input.Filters, input.Page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	result := &ListResult{
		Products: make([]ProductDTO, 0, len(rows)),
		Meta: types.PageMeta{
			Page:  input.Page.Page,
			Limit: input.Page.Limit,
			Total: total,
		},
	}
	for i := range rows {
		result.Products = append(result.Products, *NewProductDTO(&rows[i]))
	}
	return result, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	product := &models.Product{
		SKU:                strings.TrimSpace(input.SKU),
		Title:              strings.TrimSpace(input.Title),
		Description:        input.Description,
		Category:           strings.ToLower(strings.TrimSpace(input.Category)),
		Thumbnail:          strings.TrimSpace(input.Thumbnail),
		Price:              input.Price,
		DiscountPercentage: input.DiscountPercentage,
		Stock:              input.Stock,
		IsActive:           input.IsActive,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already exists").
				WithDetails(map[string]any{"sku": product.SKU})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return NewProductDTO(created), nil
}

func (s *service) Update(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.load(ctx, productID, true)
	if err != nil {
		return nil, err
	}

	if input.SKU != nil {
		product.SKU = strings.TrimSpace(*input.SKU)
	}
	if input.Title != nil {
		product.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Category != nil {
		product.Category = strings.ToLower(strings.TrimSpace(*input.Category))
	}
	if input.Thumbnail != nil {
		product.Thumbnail = strings.TrimSpace(*input.Thumbnail)
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.DiscountPercentage != nil {
		product.DiscountPercentage = *input.DiscountPercentage
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already exists").
				WithDetails(map[string]any{"sku": product.SKU})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	return NewProductDTO(updated), nil
}

func (s *service) Delete(ctx context.Context, productID uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) load(ctx context.Context, productID uuid.UUID, includeInactive bool) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	if !product.IsActive && !includeInactive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func validateProduct(p *models.Product) error {
	switch {
	case p.SKU == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	case p.Title == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	case p.Category == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	case p.Price.IsNegative():
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	case p.DiscountPercentage.IsNegative() || p.DiscountPercentage.GreaterThan(hundred):
		return pkgerrors.New(pkgerrors.CodeValidation, "discount_percentage must be between 0 and 100")
	case p.Stock < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
	}
	return nil
}
