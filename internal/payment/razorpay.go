package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vinayak200306/Veluno/config"
	"github.com/google/uuid"
)

// GatewayOrder 网关订单接口返回的订单。
// 金额在线上一律为paise（最小货币单位）
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// GatewayPayment 网关支付详情中可安全透出的字段子集
type GatewayPayment struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	Method    string `json:"method"`
	Email     string `json:"email"`
	Contact   string `json:"contact"`
	CreatedAt int64  `json:"created_at"`
}

// GatewayRefund 退款请求的返回结果
type GatewayRefund struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
	PaymentID string `json:"payment_id"`
}

// RazorpayClient 网关REST客户端，
// 用key id/secret做Basic认证
type RazorpayClient struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

func NewRazorpayClient(cfg *config.RazorpayConfig, httpClient *http.Client) *RazorpayClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &RazorpayClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		httpClient: httpClient,
	}
}

// KeyID 下发给前端，用于唤起收银台组件
func (c *RazorpayClient) KeyID() string {
	return c.keyID
}

// NewReceipt 生成网关订单的唯一收据号
func NewReceipt() string {
	return "rcpt_" + uuid.NewString()
}

// CreateOrder 在网关登记一笔待支付。
// amountPaise必须已换算成最小货币单位
func (c *RazorpayClient) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (*GatewayOrder, error) {
	if amountPaise <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	if currency == "" {
		currency = "INR"
	}
	if receipt == "" {
		receipt = NewReceipt()
	}

	payload := map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	}
	var out GatewayOrder
	if err := c.post(ctx, "/orders", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchPayment 管理后台查询支付详情
func (c *RazorpayClient) FetchPayment(ctx context.Context, paymentID string) (*GatewayPayment, error) {
	var out GatewayPayment
	if err := c.get(ctx, "/payments/"+paymentID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refund amountPaise为0时全额退款，否则部分退款
func (c *RazorpayClient) Refund(ctx context.Context, paymentID string, amountPaise int64) (*GatewayRefund, error) {
	payload := map[string]interface{}{}
	if amountPaise > 0 {
		payload["amount"] = amountPaise
	}
	var out GatewayRefund
	if err := c.post(ctx, "/payments/"+paymentID+"/refund", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RazorpayClient) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *RazorpayClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *RazorpayClient) do(req *http.Request, out interface{}) error {
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
