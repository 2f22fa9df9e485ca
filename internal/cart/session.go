package cart

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	sessionPrefixUser  = "user"
	sessionPrefixGuest = "guest"
)

// UserSessionKey keys the ledger of an authenticated user.
func UserSessionKey(userID uuid.UUID) string {
	return sessionPrefixUser + ":" + userID.String()
}

// GuestSessionKey keys the ledger of an anonymous visitor.
func GuestSessionKey(guestID uuid.UUID) string {
	return sessionPrefixGuest + ":" + guestID.String()
}

// NewGuestSessionKey mints a fresh guest key.
func NewGuestSessionKey() string {
	return GuestSessionKey(uuid.New())
}

// ValidateSessionKey accepts only user:<uuid> and guest:<uuid>.
func ValidateSessionKey(key string) error {
	prefix, id, ok := strings.Cut(key, ":")
	if !ok {
		return fmt.Errorf("malformed cart session %q", key)
	}
	if prefix != sessionPrefixUser && prefix != sessionPrefixGuest {
		return fmt.Errorf("unknown cart session kind %q", prefix)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("cart session id: %w", err)
	}
	return nil
}

// IsGuestSessionKey reports whether key belongs to an anonymous visitor.
func IsGuestSessionKey(key string) bool {
	return strings.HasPrefix(key, sessionPrefixGuest+":")
}
