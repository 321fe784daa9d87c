package middleware

import (
	"net/http"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/RoyceAzure/lab/storefront/internal/util"
	"github.com/google/uuid"
)

// AuthPayloadMiddleware token 由上游 gateway 驗證，這裡只把轉發的 header 放進 ctx
// header 不存在或格式錯誤時不設定，交給 AuthMiddleware 決定是否拒絕
func AuthPayloadMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.Header.Get(constants.HeaderUserID))
		if err != nil || userID == uuid.Nil {
			next.ServeHTTP(w, r)
			return
		}

		role := strings.ToLower(r.Header.Get(constants.HeaderUserRole))
		if role == "" {
			role = constants.RoleUser
		}
		caller := &service.Caller{
			UserID: userID,
			Role:   role,
			Name:   r.Header.Get(constants.HeaderUserName),
			Email:  r.Header.Get(constants.HeaderUserEmail),
			Phone:  r.Header.Get(constants.HeaderUserPhone),
		}
		next.ServeHTTP(w, r.WithContext(util.WithCaller(r.Context(), caller)))
	})
}

// AuthMiddleware 驗證 ctx 是否有使用者資訊
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if util.GetCaller(r.Context()) == nil {
			response.ErrorJSON(w, r, apperr.New(apperr.UnauthenticatedCode, "unauthenticated"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := util.GetCaller(r.Context())
		if caller == nil {
			response.ErrorJSON(w, r, apperr.New(apperr.UnauthenticatedCode, "unauthenticated"))
			return
		}
		if !caller.IsAdmin() {
			response.ErrorJSON(w, r, apperr.Forbidden("admin only"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
