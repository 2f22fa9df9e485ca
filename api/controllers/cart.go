package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mercantile/storefront/api/middleware"
	"github.com/mercantile/storefront/api/responses"
	"github.com/mercantile/storefront/api/validators"
	"github.com/mercantile/storefront/internal/cart"
	pkgerrors "github.com/mercantile/storefront/pkg/errors"
	"github.com/mercantile/storefront/pkg/logger"
)

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"lte=999"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"lte=999"`
}

type applyPromoRequest struct {
	Code string `json:"code" validate:"max=64"`
}

// cartHandler resolves the session and hands the request to fn.
func cartHandler(svc cart.Service, logg *logger.Logger, fn func(w http.ResponseWriter, r *http.Request, sessionKey string) (*cart.View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		sessionKey := middleware.CartSessionFromContext(r.Context())
		if sessionKey == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session missing"))
			return
		}

		view, err := fn(w, r, sessionKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func GetCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(_ http.ResponseWriter, r *http.Request, key string) (*cart.View, error) {
		return svc.Get(r.Context(), key)
	})
}

// AddCartItem adds a product; an insufficient stock conflict surfaces as 409.
func AddCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(_ http.ResponseWriter, r *http.Request, key string) (*cart.View, error) {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id")
		}
		return svc.AddItem(r.Context(), key, productID, payload.Quantity)
	})
}

func UpdateCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(_ http.ResponseWriter, r *http.Request, key string) (*cart.View, error) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			return nil, err
		}
		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.UpdateQuantity(r.Context(), key, productID, payload.Quantity)
	})
}

func RemoveCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(_ http.ResponseWriter, r *http.Request, key string) (*cart.View, error) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			return nil, err
		}
		return svc.RemoveItem(r.Context(), key, productID)
	})
}

// ApplyPromo applies a code; unknown codes clear the promo rather than fail.
func ApplyPromo(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(_ http.ResponseWriter, r *http.Request, key string) (*cart.View, error) {
		var payload applyPromoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.ApplyPromoCode(r.Context(), key, payload.Code)
	})
}

func ClearCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(_ http.ResponseWriter, r *http.Request, key string) (*cart.View, error) {
		return svc.Clear(r.Context(), key)
	})
}
