package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mercantile/storefront/pkg/config"
	"github.com/mercantile/storefront/pkg/enums"
)

var testCfg = config.JWTConfig{Secret: "secret", Issuer: "auth.storefront.test"}

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims AccessTokenClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(role enums.UserRole) AccessTokenClaims {
	now := time.Now()
	return AccessTokenClaims{
		UserID: uuid.New(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testCfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
		},
	}
}

func TestParseAccessToken(t *testing.T) {
	claims := validClaims(enums.UserRoleAdmin)
	parsed, err := ParseAccessToken(testCfg, signToken(t, testCfg.Secret, jwt.SigningMethodHS256, claims))
	require.NoError(t, err)
	require.Equal(t, claims.UserID, parsed.UserID)
	require.True(t, parsed.IsAdmin())
}

func TestParseAccessTokenRejects(t *testing.T) {
	expired := validClaims(enums.UserRoleCustomer)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongIssuer := validClaims(enums.UserRoleCustomer)
	wrongIssuer.Issuer = "someone-else"

	noUser := validClaims(enums.UserRoleCustomer)
	noUser.UserID = uuid.Nil

	badRole := validClaims("superuser")

	cases := map[string]string{
		"expired":      signToken(t, testCfg.Secret, jwt.SigningMethodHS256, expired),
		"wrong issuer": signToken(t, testCfg.Secret, jwt.SigningMethodHS256, wrongIssuer),
		"wrong secret": signToken(t, "other", jwt.SigningMethodHS256, validClaims(enums.UserRoleCustomer)),
		"wrong alg":    signToken(t, testCfg.Secret, jwt.SigningMethodHS512, validClaims(enums.UserRoleCustomer)),
		"missing user": signToken(t, testCfg.Secret, jwt.SigningMethodHS256, noUser),
		"unknown role": signToken(t, testCfg.Secret, jwt.SigningMethodHS256, badRole),
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAccessToken(testCfg, token)
			require.Error(t, err)
		})
	}
}

func TestParseAccessTokenRequiresSecret(t *testing.T) {
	_, err := ParseAccessToken(config.JWTConfig{}, "x")
	require.Error(t, err)
}
