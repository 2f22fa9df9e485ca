package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mercantile/storefront/api/middleware"
	"github.com/mercantile/storefront/api/responses"
	"github.com/mercantile/storefront/internal/checkout"
	pkgerrors "github.com/mercantile/storefront/pkg/errors"
	"github.com/mercantile/storefront/pkg/logger"
)

// StartCheckout opens a hosted payment session for the caller's ledger.
// A nil service means payments are not configured.
func StartCheckout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "payments are not configured"))
			return
		}
		sessionKey := middleware.CartSessionFromContext(r.Context())
		if sessionKey == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session missing"))
			return
		}

		input := checkout.StartInput{SessionKey: sessionKey}
		if userID := middleware.UserUUIDFromContext(r.Context()); userID != uuid.Nil {
			input.UserID = &userID
		}

		result, err := svc.Start(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
