package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/mercantile/storefront/pkg/errors"
)

type addItemBody struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"gte=0,lte=999"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":"`+uuid.NewString()+`","quantity":2}`))
	var body addItemBody
	require.NoError(t, DecodeJSONBody(req, &body))
	require.Equal(t, 2, body.Quantity)
}

func TestDecodeJSONBodyRejects(t *testing.T) {
	cases := map[string]string{
		"malformed":     `{"product_id":`,
		"unknown field": `{"product_id":"` + uuid.NewString() + `","qty":1}`,
		"missing id":    `{"quantity":1}`,
		"bad uuid":      `{"product_id":"nope"}`,
		"too many":      `{"product_id":"` + uuid.NewString() + `","quantity":1000}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
			var body addItemBody
			err := DecodeJSONBody(req, &body)
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestValidationDetailsUseJSONNames(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":1}`))
	var body addItemBody
	err := DecodeJSONBody(req, &body)
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	require.Equal(t, "is required", details["product_id"])
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=abc&size=500", nil)
	v, err := ParseQueryInt(req, "page", 1, 1, 100)
	require.NoError(t, err)
	require.Equal(t, 3, v)

	v, err = ParseQueryInt(req, "missing", 7, 1, 100)
	require.NoError(t, err)
	require.Equal(t, 7, v)

	_, err = ParseQueryInt(req, "limit", 1, 1, 100)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = ParseQueryInt(req, "size", 1, 1, 100)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	rc := chi.NewRouteContext()
	rc.URLParams.Add("productId", id.String())
	rc.URLParams.Add("orderId", "x")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	got, err := ParseUUIDParam(req, "productId")
	require.NoError(t, err)
	require.Equal(t, id, got)

	_, err = ParseUUIDParam(req, "orderId")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
