package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	circuit "github.com/rubyist/circuitbreaker"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aditbap/eventhub-sub000/entity"
)

const (
	sandboxSnapURL    = "https://app.sandbox.midtrans.com/snap/v1"
	productionSnapURL = "https://app.midtrans.com/snap/v1"
	sandboxAPIURL     = "https://api.sandbox.midtrans.com/v2"
	productionAPIURL  = "https://api.midtrans.com/v2"
)

type MidtransConfig struct {
	ServerKey  string
	Production bool

	// SnapURL and APIURL override the environment defaults.
	SnapURL string
	APIURL  string

	Timeout          time.Duration
	BreakerThreshold int64
}

type MidtransClient struct {
	serverKey  string
	snapURL    string
	apiURL     string
	timeout    time.Duration
	breaker    *circuit.Breaker
	httpClient *http.Client
}

func NewMidtransClient(cfg MidtransConfig) *MidtransClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerThreshold == 0 {
		cfg.BreakerThreshold = 5
	}

	snapURL, apiURL := sandboxSnapURL, sandboxAPIURL
	if cfg.Production {
		snapURL, apiURL = productionSnapURL, productionAPIURL
	}
	if cfg.SnapURL != "" {
		snapURL = cfg.SnapURL
	}
	if cfg.APIURL != "" {
		apiURL = cfg.APIURL
	}

	return &MidtransClient{
		serverKey: cfg.ServerKey,
		snapURL:   strings.TrimSuffix(snapURL, "/"),
		apiURL:    strings.TrimSuffix(apiURL, "/"),
		timeout:   cfg.Timeout,
		breaker:   circuit.NewConsecutiveBreaker(cfg.BreakerThreshold),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *MidtransClient) Configured() bool {
	return c.serverKey != ""
}

func (c *MidtransClient) ServerKey() string {
	return c.serverKey
}

type snapTransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type snapItemDetails struct {
	ID       string `json:"id"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

type snapCustomerDetails struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

type snapRequest struct {
	TransactionDetails snapTransactionDetails `json:"transaction_details"`
	ItemDetails        []snapItemDetails      `json:"item_details"`
	CustomerDetails    snapCustomerDetails    `json:"customer_details"`
	CustomField1       string                 `json:"custom_field1,omitempty"`
}

type snapResponse struct {
	Token         string   `json:"token"`
	RedirectURL   string   `json:"redirect_url"`
	ErrorMessages []string `json:"error_messages"`
}

func (c *MidtransClient) CreateTransaction(ctx context.Context, request entity.CheckoutRequest) (entity.Checkout, error) {
	body, err := json.Marshal(snapRequest{
		TransactionDetails: snapTransactionDetails{
			OrderID:     request.OrderID,
			GrossAmount: request.GrossAmount.IntPart(),
		},
		ItemDetails: []snapItemDetails{
			{
				ID:       request.Item.ID,
				Price:    request.Item.Price.IntPart(),
				Quantity: request.Item.Quantity,
				Name:     truncateName(request.Item.Name),
			},
		},
		CustomerDetails: snapCustomerDetails{
			FirstName: request.Customer.Name,
			Email:     request.Customer.Email,
			Phone:     request.Customer.Phone,
		},
		CustomField1: request.CustomData,
	})
	if err != nil {
		return entity.Checkout{}, fmt.Errorf("could not marshal snap request: %w", err)
	}

	var resp snapResponse
	statusCode, err := c.do(ctx, http.MethodPost, c.snapURL+"/transactions", body, &resp)
	if err != nil {
		return entity.Checkout{}, err
	}
	if statusCode != http.StatusCreated && statusCode != http.StatusOK {
		return entity.Checkout{}, &Error{StatusCode: statusCode, Messages: resp.ErrorMessages}
	}
	if resp.Token == "" {
		return entity.Checkout{}, &Error{StatusCode: statusCode, Messages: []string{"empty snap token"}}
	}

	return entity.Checkout{
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}

type statusResponse struct {
	StatusCode        string          `json:"status_code"`
	StatusMessage     string          `json:"status_message"`
	TransactionID     string          `json:"transaction_id"`
	OrderID           string          `json:"order_id"`
	GrossAmount       decimal.Decimal `json:"gross_amount"`
	TransactionStatus string          `json:"transaction_status"`
	FraudStatus       string          `json:"fraud_status"`
}

// TransactionStatus queries the authoritative status of the order.
func (c *MidtransClient) TransactionStatus(ctx context.Context, orderID string) (entity.GatewayTransaction, error) {
	var resp statusResponse
	statusCode, err := c.do(ctx, http.MethodGet, c.apiURL+"/"+url.PathEscape(orderID)+"/status", nil, &resp)
	if err != nil {
		return entity.GatewayTransaction{}, err
	}
	if statusCode != http.StatusOK {
		return entity.GatewayTransaction{}, &Error{StatusCode: statusCode, Messages: []string{resp.StatusMessage}}
	}

	// the status endpoint reports business errors in the body with HTTP 200
	if resp.TransactionStatus == "" {
		return entity.GatewayTransaction{}, &Error{
			StatusCode: statusCode,
			Messages:   []string{fmt.Sprintf("%s: %s", resp.StatusCode, resp.StatusMessage)},
		}
	}

	return entity.GatewayTransaction{
		OrderID:       resp.OrderID,
		TransactionID: resp.TransactionID,
		Status:        entity.TransactionStatus(resp.TransactionStatus),
		FraudStatus:   entity.FraudStatus(resp.FraudStatus),
		StatusCode:    resp.StatusCode,
		GrossAmount:   resp.GrossAmount,
	}, nil
}

// serverError marks a 5xx reply so the breaker counts it as a failure.
type serverError struct {
	statusCode int
}

func (e serverError) Error() string {
	return fmt.Sprintf("midtrans responded with status %d", e.statusCode)
}

func (c *MidtransClient) do(ctx context.Context, method, endpoint string, body []byte, out any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, fmt.Errorf("could not create request: %w", err)
	}
	req.SetBasicAuth(c.serverKey, "")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Correlation-ID", log.CorrelationIDFromContext(ctx))

	var statusCode int
	// the request context bounds the call, the breaker only counts outcomes
	err = c.breaker.CallContext(ctx, func() error {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("midtrans request %s %s failed: %w", method, endpoint, err)
		}
		defer resp.Body.Close()

		statusCode = resp.StatusCode

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("could not read midtrans response: %w", err)
		}

		if len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil && resp.StatusCode < 300 {
				return fmt.Errorf("could not unmarshal midtrans response: %w", err)
			}
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			return serverError{statusCode: resp.StatusCode}
		}

		return nil
	}, 0)

	var srvErr serverError
	switch {
	case err == nil:
	case errors.As(err, &srvErr):
		// callers turn the status and parsed body into a gateway.Error
		return srvErr.statusCode, nil
	case errors.Is(err, circuit.ErrBreakerOpen):
		return 0, fmt.Errorf("midtrans %s %s skipped: %w", method, endpoint, err)
	default:
		return statusCode, err
	}

	return statusCode, nil
}

// Midtrans rejects item names longer than 50 characters.
func truncateName(name string) string {
	runes := []rune(name)
	if len(runes) <= 50 {
		return name
	}
	return string(runes[:50])
}
