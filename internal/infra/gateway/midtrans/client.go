package midtrans

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	mt "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

var (
	// ErrRemoteNotFound 金流端查無此交易
	ErrRemoteNotFound = errors.New("transaction not found on gateway")
	ErrGateway        = errors.New("gateway request failed")
)

const (
	maxItemNameLen  = 50
	shippingItemID  = "SHIPPING"
	defaultCustomer = "Customer"
)

// Client Midtrans Snap 與 Core API
// 每個 instance 有自己的 server key 與 http client，不使用 SDK 的全域設定
type Client struct {
	cfg  Config
	snap snap.Client
	core coreapi.Client
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	cfg = cfg.withDefaults()
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	env := cfg.environment()
	sdkHTTP := mt.GetHttpClient(env)
	sdkHTTP.HttpClient = withEndpointOverride(httpClient, env, cfg.SnapBaseURL, cfg.CoreBaseURL)

	c := &Client{cfg: cfg}
	c.snap.New(cfg.ServerKey, env)
	c.snap.HttpClient = sdkHTTP
	c.core.New(cfg.ServerKey, env)
	c.core.HttpClient = sdkHTTP
	return c
}

func (c *Client) ClientKey() string {
	return c.cfg.ClientKey
}

func (c *Client) IsProduction() bool {
	return c.cfg.IsProduction
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func buildSnapRequest(order *model.Order, customer model.Customer, frontendURL string) *snap.Request {
	items := make([]mt.ItemDetails, 0, len(order.Lines)+1)
	for _, l := range order.Lines {
		items = append(items, mt.ItemDetails{
			ID:    l.VariantID.String(),
			Price: l.Price.Round(0).IntPart(),
			Qty:   int32(l.Quantity),
			Name:  truncate(l.ProductName, maxItemNameLen),
		})
	}
	if order.ShippingCost.IsPositive() {
		items = append(items, mt.ItemDetails{
			ID:    shippingItemID,
			Price: order.ShippingCost.Round(0).IntPart(),
			Qty:   1,
			Name:  fmt.Sprintf("Ongkir - %s", order.ShippingMethod),
		})
	}

	name := customer.Name
	if name == "" {
		name = defaultCustomer
	}

	return &snap.Request{
		TransactionDetails: mt.TransactionDetails{
			OrderID:  order.OrderNumber,
			GrossAmt: order.TotalAmount.Round(0).IntPart(),
		},
		Items: &items,
		CustomerDetail: &mt.CustomerDetails{
			FName: name,
			Email: customer.Email,
			Phone: customer.Phone,
			ShipAddr: &mt.CustomerAddress{
				FName:   name,
				Address: order.ShippingAddress,
			},
		},
		Callbacks: &snap.Callbacks{Finish: frontendURL + "/orders"},
	}
}

// CreateSession 建立 Snap 付款頁面
func (c *Client) CreateSession(ctx context.Context, order *model.Order, customer model.Customer) (*model.PaymentSession, error) {
	req := buildSnapRequest(order, customer, c.cfg.FrontendURL)
	resp, err := call(ctx, func() (*snap.Response, *mt.Error) {
		return c.snap.CreateTransaction(req)
	})
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: snap returned no token: %s", ErrGateway, strings.Join(resp.ErrorMessages, "; "))
	}
	return &model.PaymentSession{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

// TransactionStatus 查詢金流端交易狀態
func (c *Client) TransactionStatus(ctx context.Context, orderNumber string) (*model.RemoteTransaction, error) {
	resp, err := call(ctx, func() (*coreapi.TransactionStatusResponse, *mt.Error) {
		return c.core.CheckTransaction(orderNumber)
	})
	if err != nil {
		return nil, err
	}
	return checkRemote(resp, &model.RemoteTransaction{
		OrderID:           resp.OrderID,
		TransactionID:     resp.TransactionID,
		TransactionStatus: resp.TransactionStatus,
		FraudStatus:       resp.FraudStatus,
		PaymentType:       resp.PaymentType,
		GrossAmount:       resp.GrossAmount,
		StatusCode:        resp.StatusCode,
		StatusMessage:     resp.StatusMessage,
	})
}

// CancelTransaction 取消金流端交易
func (c *Client) CancelTransaction(ctx context.Context, orderNumber string) (*model.RemoteTransaction, error) {
	resp, err := call(ctx, func() (*coreapi.CancelResponse, *mt.Error) {
		return c.core.CancelTransaction(orderNumber)
	})
	if err != nil {
		return nil, err
	}
	return checkRemote(resp, &model.RemoteTransaction{
		OrderID:           resp.OrderID,
		TransactionID:     resp.TransactionID,
		TransactionStatus: resp.TransactionStatus,
		FraudStatus:       resp.FraudStatus,
		PaymentType:       resp.PaymentType,
		GrossAmount:       resp.GrossAmount,
		StatusCode:        resp.StatusCode,
		StatusMessage:     resp.StatusMessage,
	})
}

// Core API 的業務錯誤放在 body 的 status_code，大多已由 SDK 轉成 *midtrans.Error
// 407 (交易已過期) 仍是正常的查詢結果
func checkRemote(raw any, tx *model.RemoteTransaction) (*model.RemoteTransaction, error) {
	if code, err := strconv.Atoi(tx.StatusCode); err == nil {
		switch {
		case code == http.StatusNotFound:
			return nil, ErrRemoteNotFound
		case code >= http.StatusBadRequest && code != http.StatusProxyAuthRequired:
			return nil, fmt.Errorf("%w: core status %s: %s", ErrGateway, tx.StatusCode, tx.StatusMessage)
		}
	}
	if b, err := json.Marshal(raw); err == nil {
		tx.Raw = b
	}
	return tx, nil
}

type result[T any] struct {
	resp T
	err  *mt.Error
}

// call SDK 不接受 context，逾時由 ctx 決定，底層請求由 http.Client 的 Timeout 收尾
func call[T any](ctx context.Context, fn func() (T, *mt.Error)) (T, error) {
	done := make(chan result[T], 1)
	go func() {
		resp, err := fn()
		done <- result[T]{resp: resp, err: err}
	}()

	var zero T
	select {
	case <-ctx.Done():
		return zero, fmt.Errorf("%w: %v", ErrGateway, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return zero, translateErr(r.err)
		}
		return r.resp, nil
	}
}

func translateErr(e *mt.Error) error {
	if e.StatusCode == http.StatusNotFound {
		return ErrRemoteNotFound
	}
	return fmt.Errorf("%w: status %d: %s", ErrGateway, e.StatusCode, e.Message)
}

// Signature hex(sha512(order_id + status_code + gross_amount + server_key))
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifySignature 比對通知內的 signature_key
func (c *Client) VerifySignature(n *model.Notification) bool {
	if n == nil || n.SignatureKey == "" || c.cfg.ServerKey == "" {
		return false
	}
	expected := Signature(n.OrderID, n.StatusCode, n.GrossAmount, c.cfg.ServerKey)
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(n.SignatureKey)), []byte(expected)) == 1
}
