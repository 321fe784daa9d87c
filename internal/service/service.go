package service

import (
	"context"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/google/uuid"
)

// IPaymentGateway 外部金流
type IPaymentGateway interface {
	CreateSession(ctx context.Context, order *model.Order, customer model.Customer) (*model.PaymentSession, error)
	VerifySignature(n *model.Notification) bool
	TransactionStatus(ctx context.Context, orderNumber string) (*model.RemoteTransaction, error)
	CancelTransaction(ctx context.Context, orderNumber string) (*model.RemoteTransaction, error)
	ClientKey() string
	IsProduction() bool
}

// Caller 由認證層轉發的使用者資訊
type Caller struct {
	UserID uuid.UUID
	Role   string
	Name   string
	Email  string
	Phone  string
}

func (c Caller) IsAdmin() bool {
	return c.Role == constants.RoleAdmin
}

func (c Caller) Customer() model.Customer {
	return model.Customer{UserID: c.UserID, Name: c.Name, Email: c.Email, Phone: c.Phone}
}

// notFoundOr repository 的 ErrNotFound 轉為 NotFound，其餘視為 Internal
func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(format, args...)
	}
	return apperr.Internal(err, "internal error")
}

type clock func() time.Time
