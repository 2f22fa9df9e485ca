package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mercantile/storefront/internal/cart"
	"github.com/mercantile/storefront/pkg/config"
	"github.com/mercantile/storefront/pkg/logger"
)

const CartSessionHeader = "X-Cart-Session"

// CartSession resolves which ledger the request operates on. Authenticated
// callers always use their user ledger; anonymous callers reuse the guest
// key from the header or cookie, and get a fresh one otherwise.
func CartSession(cfg config.CartConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	cookieName := cfg.SessionCookieName
	if cookieName == "" {
		cookieName = "sf_cart"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var key string
			if userID := UserUUIDFromContext(r.Context()); userID != uuid.Nil {
				key = cart.UserSessionKey(userID)
			} else {
				key = guestKey(r, cookieName)
				if key == "" {
					key = cart.NewGuestSessionKey()
					http.SetCookie(w, &http.Cookie{
						Name:     cookieName,
						Value:    key,
						Path:     "/",
						MaxAge:   int(cfg.TTL / time.Second),
						HttpOnly: true,
						Secure:   cfg.CookieSecure,
						SameSite: http.SameSiteLaxMode,
					})
				}
				w.Header().Set(CartSessionHeader, key)
			}

			ctx := WithCartSession(r.Context(), key)
			if logg != nil {
				ctx = logg.WithCartSession(ctx, key)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func guestKey(r *http.Request, cookieName string) string {
	candidates := []string{strings.TrimSpace(r.Header.Get(CartSessionHeader))}
	if c, err := r.Cookie(cookieName); err == nil {
		candidates = append(candidates, strings.TrimSpace(c.Value))
	}
	for _, key := range candidates {
		if key != "" && cart.IsGuestSessionKey(key) && cart.ValidateSessionKey(key) == nil {
			return key
		}
	}
	return ""
}
