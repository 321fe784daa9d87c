package response

import (
	"encoding/json"
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/util"
	"github.com/rs/zerolog/log"
)

type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func SuccessJSON(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

func CreatedJSON(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Code: 0, Message: "created", Data: data})
}

// ErrorJSON 只回傳錯誤碼與訊息，內部錯誤細節只寫入 log
func ErrorJSON(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.As(err)
	status := e.Code.HTTPStatus()

	l := log.Warn()
	if status >= http.StatusInternalServerError {
		l = log.Error()
	}
	l.Err(err).
		Str("request_id", util.GetRequestID(r.Context())).
		Str("method", r.Method).
		Str("url", r.URL.String()).
		Int("code", int(e.Code)).
		Msg("request failed")

	msg := e.Message
	if e.Code == apperr.InternalCode {
		msg = apperr.ErrStrMap[apperr.InternalCode]
	}
	WriteJSON(w, status, ResponseError{Code: int(e.Code), Message: msg})
}
