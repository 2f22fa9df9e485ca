package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mercantile/storefront/api/responses"
	"github.com/mercantile/storefront/api/validators"
	product "github.com/mercantile/storefront/internal/products"
	pkgerrors "github.com/mercantile/storefront/pkg/errors"
	"github.com/mercantile/storefront/pkg/logger"
)

type createProductRequest struct {
	SKU                string           `json:"sku" validate:"required,max=64"`
	Title              string           `json:"title" validate:"required,max=255"`
	Description        string           `json:"description"`
	Category           string           `json:"category" validate:"required,max=64"`
	Thumbnail          string           `json:"thumbnail" validate:"omitempty,url"`
	Price              decimal.Decimal  `json:"price"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty"`
	Stock              int              `json:"stock" validate:"gte=0"`
	IsActive           *bool            `json:"is_active,omitempty"`
}

func (r createProductRequest) toInput() product.CreateProductInput {
	input := product.CreateProductInput{
		SKU:         r.SKU,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Thumbnail:   r.Thumbnail,
		Price:       r.Price,
		Stock:       r.Stock,
		IsActive:    true,
	}
	if r.DiscountPercentage != nil {
		input.DiscountPercentage = *r.DiscountPercentage
	}
	if r.IsActive != nil {
		input.IsActive = *r.IsActive
	}
	return input
}

type updateProductRequest struct {
	SKU                *string          `json:"sku,omitempty" validate:"omitempty,max=64"`
	Title              *string          `json:"title,omitempty" validate:"omitempty,max=255"`
	Description        *string          `json:"description,omitempty"`
	Category           *string          `json:"category,omitempty" validate:"omitempty,max=64"`
	Thumbnail          *string          `json:"thumbnail,omitempty" validate:"omitempty,url"`
	Price              *decimal.Decimal `json:"price,omitempty"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty"`
	Stock              *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	IsActive           *bool            `json:"is_active,omitempty"`
}

func (r updateProductRequest) toInput() product.UpdateProductInput {
	return product.UpdateProductInput{
		SKU:                r.SKU,
		Title:              r.Title,
		Description:        r.Description,
		Category:           r.Category,
		Thumbnail:          r.Thumbnail,
		Price:              r.Price,
		DiscountPercentage: r.DiscountPercentage,
		Stock:              r.Stock,
		IsActive:           r.IsActive,
	}
}

// AdminListProducts lists the catalog including inactive products.
func AdminListProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		input, err := product.ParseListQuery(r.URL.Query())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Filters.IncludeInactive = true

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminGetProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Get(r.Context(), productID, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminCreateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func AdminUpdateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), productID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminDeleteProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
