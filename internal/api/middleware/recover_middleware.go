package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/util"
	"github.com/rs/zerolog/log"
)

func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("panic", err).
					Str("request_id", util.GetRequestID(r.Context())).
					Str("method", r.Method).
					Str("url", r.URL.String()).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				response.WriteJSON(w, http.StatusInternalServerError, response.ResponseError{
					Code:    int(apperr.InternalCode),
					Message: apperr.ErrStrMap[apperr.InternalCode],
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}
