package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/fotoescola/api/internal/domain"
)

const (
	eupagoMBWayPath      = "/api/v1.02/mbway/create"
	eupagoMultibancoPath = "/clientes/rest_api/multibanco/create"

	defaultEupagoTimeout = 20 * time.Second
)

// EupagoError carries a failure reported by the gateway rather than transport.
type EupagoError struct {
	Operation string
	Message   string
}

func (e *EupagoError) Error() string {
	return fmt.Sprintf("eupago: %s: %s", e.Operation, e.Message)
}

// jsonAmount marshals a decimal as a plain JSON number with two decimal
// places, matching the gateway's major-unit amount convention.
type jsonAmount decimal.Decimal

func (a jsonAmount) MarshalJSON() ([]byte, error) {
	return []byte(domain.MajorUnitsString(decimal.Decimal(a))), nil
}

// EupagoClientConfig configures the EupagoClient.
type EupagoClientConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     Logger
}

// EupagoClient speaks the gateway's REST API for MBWay pushes and Multibanco
// reference generation. The newer versioned endpoint authenticates through the
// ApiKey header while the legacy one carries the merchant key in the body.
type EupagoClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     Logger
}

// NewEupagoClient constructs a gateway client.
func NewEupagoClient(cfg EupagoClientConfig) (*EupagoClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("eupago: api key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("eupago: base url is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultEupagoTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &EupagoClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		logger:     logger,
	}, nil
}

// MBWayPayment describes an instant push-to-phone payment request.
type MBWayPayment struct {
	Amount     decimal.Decimal
	OrderID    string
	Phone      string
	Email      string
	Name       string
	SuccessURL string
	FailURL    string
	BackURL    string
}

// MBWayResult is the gateway's answer to an MBWay push.
type MBWayResult struct {
	Reference     string
	TransactionID string
	Status        string
}

type mbwayCreateRequest struct {
	Payment  mbwayPaymentBody  `json:"payment"`
	Customer mbwayCustomerBody `json:"customer"`
}

type mbwayPaymentBody struct {
	Amount     mbwayAmountBody `json:"amount"`
	Identifier string          `json:"identifier"`
	SuccessURL string          `json:"successUrl,omitempty"`
	FailURL    string          `json:"failUrl,omitempty"`
	BackURL    string          `json:"backUrl,omitempty"`
}

type mbwayAmountBody struct {
	Currency string     `json:"currency"`
	Value    jsonAmount `json:"value"`
}

type mbwayCustomerBody struct {
	Notify bool   `json:"notify"`
	Phone  string `json:"phoneNumber"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
}

type mbwayCreateResponse struct {
	TransactionStatus string `json:"transactionStatus"`
	Reference         string `json:"reference"`
	TransactionID     string `json:"transactionID"`
	Status            string `json:"status"`
	Message           string `json:"message"`
	Text              string `json:"text"`
}

// CreateMBWay pushes a payment request to the customer's phone.
func (c *EupagoClient) CreateMBWay(ctx context.Context, payment MBWayPayment) (MBWayResult, error) {
	if c == nil || c.httpClient == nil {
		return MBWayResult{}, errors.New("eupago: client not initialised")
	}
	orderID := strings.TrimSpace(payment.OrderID)
	phone := strings.TrimSpace(payment.Phone)
	if orderID == "" || phone == "" {
		return MBWayResult{}, errors.New("eupago: order id and phone are required")
	}

	body := mbwayCreateRequest{
		Payment: mbwayPaymentBody{
			Amount:     mbwayAmountBody{Currency: "EUR", Value: jsonAmount(payment.Amount)},
			Identifier: orderID,
			SuccessURL: strings.TrimSpace(payment.SuccessURL),
			FailURL:    strings.TrimSpace(payment.FailURL),
			BackURL:    strings.TrimSpace(payment.BackURL),
		},
		Customer: mbwayCustomerBody{
			Notify: true,
			Phone:  phone,
			Email:  strings.TrimSpace(payment.Email),
			Name:   strings.TrimSpace(payment.Name),
		},
	}

	var resp mbwayCreateResponse
	status, err := c.post(ctx, eupagoMBWayPath, map[string]string{"ApiKey": c.apiKey}, body, &resp)
	if err != nil {
		return MBWayResult{}, err
	}
	if status < 200 || status >= 300 || !strings.EqualFold(resp.TransactionStatus, "Success") {
		return MBWayResult{}, &EupagoError{Operation: "mbway create", Message: eupagoMessage(resp.Message, resp.Text, status)}
	}

	c.logger(ctx, "payments.eupago.mbway.created", map[string]any{
		"orderId":   orderID,
		"reference": resp.Reference,
	})

	return MBWayResult{
		Reference:     resp.Reference,
		TransactionID: resp.TransactionID,
		Status:        resp.Status,
	}, nil
}

// MultibancoPayment describes a bank reference generation request.
type MultibancoPayment struct {
	Amount  decimal.Decimal
	OrderID string
}

type multibancoCreateRequest struct {
	Key     string     `json:"chave"`
	Value   jsonAmount `json:"valor"`
	OrderID string     `json:"id"`
}

type multibancoCreateResponse struct {
	Success   bool        `json:"sucesso"`
	Answer    string      `json:"resposta"`
	Reference string      `json:"referencia"`
	Entity    string      `json:"entidade"`
	Value     json.Number `json:"valor"`
}

// CreateMultibanco generates an entity/reference pair the customer pays
// against at an ATM or through home banking.
func (c *EupagoClient) CreateMultibanco(ctx context.Context, payment MultibancoPayment) (domain.MultibancoReference, error) {
	if c == nil || c.httpClient == nil {
		return domain.MultibancoReference{}, errors.New("eupago: client not initialised")
	}
	orderID := strings.TrimSpace(payment.OrderID)
	if orderID == "" {
		return domain.MultibancoReference{}, errors.New("eupago: order id is required")
	}

	body := multibancoCreateRequest{
		Key:     c.apiKey,
		Value:   jsonAmount(payment.Amount),
		OrderID: orderID,
	}

	var resp multibancoCreateResponse
	status, err := c.post(ctx, eupagoMultibancoPath, nil, body, &resp)
	if err != nil {
		return domain.MultibancoReference{}, err
	}
	if status < 200 || status >= 300 || !resp.Success {
		return domain.MultibancoReference{}, &EupagoError{Operation: "multibanco create", Message: eupagoMessage(resp.Answer, "", status)}
	}

	amount := payment.Amount
	if raw := strings.TrimSpace(resp.Value.String()); raw != "" {
		if parsed, err := decimal.NewFromString(raw); err == nil {
			amount = parsed
		}
	}

	c.logger(ctx, "payments.eupago.multibanco.created", map[string]any{
		"orderId":   orderID,
		"entity":    resp.Entity,
		"reference": resp.Reference,
	})

	return domain.MultibancoReference{
		Entity:    resp.Entity,
		Reference: resp.Reference,
		Amount:    amount,
	}, nil
}

func (c *EupagoClient) post(ctx context.Context, path string, headers map[string]string, body, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("eupago: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("eupago: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("eupago: %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("eupago: read response: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("eupago: decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func eupagoMessage(primary, secondary string, status int) string {
	if msg := strings.TrimSpace(primary); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(secondary); msg != "" {
		return msg
	}
	return fmt.Sprintf("gateway returned status %d", status)
}
