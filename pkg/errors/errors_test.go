package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected", detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		assert.Equal(t, tt.status, meta.HTTPStatus, tt.code)
		assert.Equal(t, tt.publicMsg, meta.PublicMessage, tt.code)
		assert.Equal(t, tt.retryable, meta.Retryable, tt.code)
		assert.Equal(t, tt.detailsOK, meta.DetailsAllowed, tt.code)
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	require.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	require.Equal(t, CodeValidation, base.Code())
	require.Equal(t, "missing foo", base.Message())
	require.Nil(t, base.Details())

	base.WithDetails(map[string]any{"field": "foo"})
	require.Equal(t, map[string]any{"field": "foo"}, base.Details())

	cause := stdErrors.New("redis down")
	wrapped := Wrap(CodeDependency, cause, "load cart")
	require.ErrorIs(t, wrapped, cause)
	require.Contains(t, wrapped.Error(), "redis down")

	formatted := Newf(CodeNotFound, "product %s not found", "abc")
	require.Equal(t, "product abc not found", formatted.Message())
}

func TestAsAndIsCodeWalkTheChain(t *testing.T) {
	typed := New(CodeConflict, "insufficient stock")
	outer := fmt.Errorf("add item: %w", typed)

	require.Same(t, typed, As(outer))
	require.True(t, IsCode(outer, CodeConflict))
	require.False(t, IsCode(outer, CodeNotFound))
	require.False(t, IsCode(stdErrors.New("plain"), CodeConflict))
	require.Nil(t, As(nil))
}

func TestDumpCollectsChain(t *testing.T) {
	err := fmt.Errorf("outer: %w", Wrap(CodeInternal, stdErrors.New("inner"), "save"))
	d := Dump(err)
	require.Equal(t, CodeInternal, d.Code)
	require.Len(t, d.Chain, 3)
	require.Empty(t, d.PGCode)
}
