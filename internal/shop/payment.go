package shop

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

// minorUnitsPerPriceUnit converts a storefront price into the gateway's
// minor-unit currency.
const minorUnitsPerPriceUnit = 655

// PaymentStatus is the gateway's verdict on a charge.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentApproved  PaymentStatus = "ACCEPTED"
	PaymentDeclined  PaymentStatus = "REFUSED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// ChargeRequest describes one charge to place with the gateway.
type ChargeRequest struct {
	TransactionID    string `json:"transactionId"`
	AmountMinorUnits int64  `json:"amount"`
	Currency         string `json:"currency"`
	Description      string `json:"description"`
	CustomerName     string `json:"customerName"`
}

// ChargeSession is the gateway's handle for a pending charge.
type ChargeSession struct {
	Reference  string `json:"reference"`
	PaymentURL string `json:"paymentUrl"`
}

// Gateway places charges with the external payment capability. The charge
// outcome arrives later through the gateway's callback, never from this call.
type Gateway interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (ChargeSession, error)
}

// AmountMinorUnits converts a storefront price to gateway minor units.
func AmountMinorUnits(price float64) int64 {
	return int64(math.Round(price * minorUnitsPerPriceUnit))
}

// HTTPGateway talks to a CinetPay-style checkout API.
type HTTPGateway struct {
	baseURL    string
	apiKey     string
	siteID     string
	currency   string
	httpClient *http.Client
}

// HTTPGatewayConfig configures the checkout API client.
type HTTPGatewayConfig struct {
	BaseURL  string
	APIKey   string
	SiteID   string
	Currency string
	Timeout  time.Duration
}

func NewHTTPGateway(cfg HTTPGatewayConfig) (*HTTPGateway, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("payment api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api-checkout.cinetpay.com/v2"
	}
	if cfg.Currency == "" {
		cfg.Currency = "XOF"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPGateway{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		siteID:     cfg.SiteID,
		currency:   cfg.Currency,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (g *HTTPGateway) CreateCharge(ctx context.Context, req ChargeRequest) (ChargeSession, error) {
	if req.Currency == "" {
		req.Currency = g.currency
	}
	payload := struct {
		ChargeRequest
		APIKey string `json:"apikey"`
		SiteID string `json:"site_id"`
	}{ChargeRequest: req, APIKey: g.apiKey, SiteID: g.siteID}

	body, err := json.Marshal(payload)
	if err != nil {
		return ChargeSession{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/payment", bytes.NewReader(body))
	if err != nil {
		return ChargeSession{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return ChargeSession{}, fmt.Errorf("payment gateway: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return ChargeSession{}, fmt.Errorf("payment gateway: read body: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return ChargeSession{}, fmt.Errorf("payment gateway: status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var resp struct {
		Data ChargeSession `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ChargeSession{}, fmt.Errorf("payment gateway: decode: %w", err)
	}
	if resp.Data.Reference == "" {
		return ChargeSession{}, errors.New("payment gateway: missing charge reference")
	}
	return resp.Data, nil
}
