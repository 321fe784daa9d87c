package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code int

const (
	InternalCode Code = iota + 1
	ValidationCode
	NotFoundCode
	UnauthenticatedCode
	ForbiddenCode
	InsufficientStockCode
	VariantUnavailableCode
	InvalidTransitionCode
	GatewayAuthFailureCode
	GatewayErrorCode
	GatewayNotFoundCode
	TooManyRequestsCode
	CartChangedCode
)

var ErrStrMap = map[Code]string{
	InternalCode:           "internal error",
	ValidationCode:         "validation error",
	NotFoundCode:           "not found",
	UnauthenticatedCode:    "unauthenticated",
	ForbiddenCode:          "forbidden",
	InsufficientStockCode:  "insufficient stock",
	VariantUnavailableCode: "variant unavailable",
	InvalidTransitionCode:  "invalid transition",
	GatewayAuthFailureCode: "invalid signature",
	GatewayErrorCode:       "payment gateway error",
	GatewayNotFoundCode:    "transaction not found in payment gateway",
	TooManyRequestsCode:    "too many requests",
	CartChangedCode:        "cart changed",
}

var httpStatusMap = map[Code]int{
	InternalCode:           http.StatusInternalServerError,
	ValidationCode:         http.StatusBadRequest,
	NotFoundCode:           http.StatusNotFound,
	UnauthenticatedCode:    http.StatusUnauthorized,
	ForbiddenCode:          http.StatusForbidden,
	InsufficientStockCode:  http.StatusConflict,
	VariantUnavailableCode: http.StatusUnprocessableEntity,
	InvalidTransitionCode:  http.StatusConflict,
	GatewayAuthFailureCode: http.StatusForbidden,
	GatewayErrorCode:       http.StatusBadGateway,
	GatewayNotFoundCode:    http.StatusNotFound,
	TooManyRequestsCode:    http.StatusTooManyRequests,
	CartChangedCode:        http.StatusConflict,
}

func (c Code) String() string {
	if s, ok := ErrStrMap[c]; ok {
		return s
	}
	return ErrStrMap[InternalCode]
}

func (c Code) HTTPStatus() int {
	if s, ok := httpStatusMap[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error 對外錯誤，Message 會回給呼叫端，Err 只用於 log
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func Validation(format string, args ...any) *Error {
	return New(ValidationCode, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(NotFoundCode, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return New(ForbiddenCode, format, args...)
}

// InsufficientStock 訊息必須帶出庫存不足的 SKU
func InsufficientStock(sku string) *Error {
	return New(InsufficientStockCode, "stock not enough for %s", sku)
}

func VariantUnavailable(format string, args ...any) *Error {
	return New(VariantUnavailableCode, format, args...)
}

func InvalidTransition(err error, format string, args ...any) *Error {
	return Wrap(InvalidTransitionCode, err, format, args...)
}

func Internal(err error, format string, args ...any) *Error {
	return Wrap(InternalCode, err, format, args...)
}

// As 取出 *Error；非 *Error 一律視為 Internal
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err, "internal error")
}

func CodeOf(err error) Code {
	if err == nil {
		return 0
	}
	return As(err).Code
}

func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
