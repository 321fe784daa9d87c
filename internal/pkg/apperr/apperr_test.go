package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAsWrapsUnknownErrorAsInternal(t *testing.T) {
	e := As(errors.New("boom"))
	require.Equal(t, InternalCode, e.Code)
	require.Equal(t, http.StatusInternalServerError, e.Code.HTTPStatus())
}

func TestAsFindsWrappedAppError(t *testing.T) {
	inner := InsufficientStock("SKU-1")
	err := fmt.Errorf("checkout: %w", inner)

	require.True(t, Is(err, InsufficientStockCode))
	require.Contains(t, As(err).Message, "SKU-1")
	require.Equal(t, http.StatusConflict, CodeOf(err).HTTPStatus())
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("db down")
	err := Internal(cause, "load order")
	require.ErrorIs(t, err, cause)
	require.Nil(t, As(nil))
	require.Equal(t, Code(0), CodeOf(nil))
}

func TestConflictCodes(t *testing.T) {
	for _, code := range []Code{InsufficientStockCode, InvalidTransitionCode, CartChangedCode} {
		require.Equal(t, http.StatusConflict, code.HTTPStatus(), code.String())
	}
}
