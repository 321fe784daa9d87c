package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/stretchr/testify/require"
)

func TestErrorJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x", nil)

	w := httptest.NewRecorder()
	ErrorJSON(w, r, apperr.InsufficientStock("SKU-1"))
	require.Equal(t, http.StatusConflict, w.Code)
	var body ResponseError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, int(apperr.InsufficientStockCode), body.Code)
	require.Contains(t, body.Message, "SKU-1")

	// 內部錯誤不外洩
	w = httptest.NewRecorder()
	ErrorJSON(w, r, errors.New("pq: connection refused"))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "pq:")
}

func TestSuccessJSON(t *testing.T) {
	w := httptest.NewRecorder()
	SuccessJSON(w, map[string]int{"n": 1})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.JSONEq(t, `{"code":0,"message":"success","data":{"n":1}}`, w.Body.String())
}
