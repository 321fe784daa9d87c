package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/RoyceAzure/lab/storefront/internal/util"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestPathUUID(t *testing.T) {
	id := uuid.New()
	r := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", id.String())
	got, err := pathUUID(r, "id")
	require.NoError(t, err)
	require.Equal(t, id, got)

	r = withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "123")
	_, err = pathUUID(r, "id")
	require.Equal(t, apperr.ValidationCode, apperr.As(err).Code)
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=3&limit=x", nil)

	n, err := queryInt(r, "page")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	n, err = queryInt(r, "missing")
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = queryInt(r, "limit")
	require.Equal(t, apperr.ValidationCode, apperr.As(err).Code)
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Quantity int `json:"quantity"`
	}
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":2}`))
	require.NoError(t, decodeJSON(w, r, &dst))
	require.Equal(t, 2, dst.Quantity)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":"two"}`))
	err := decodeJSON(w, r, &dst)
	require.Equal(t, apperr.ValidationCode, apperr.As(err).Code)

	big := `{"note":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	require.Error(t, decodeJSON(w, r, &dst))
}

func TestCaller(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := caller(r)
	require.Equal(t, apperr.UnauthenticatedCode, apperr.As(err).Code)

	c := &service.Caller{UserID: uuid.New(), Role: "user"}
	r = r.WithContext(util.WithCaller(r.Context(), c))
	got, err := caller(r)
	require.NoError(t, err)
	require.Equal(t, c.UserID, got.UserID)
}
