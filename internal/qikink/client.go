package qikink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/vinayak200306/Veluno/config"
)

// TokenProvider 缓存Qikink访问令牌及其有效期，按需刷新。
// 以依赖注入方式交给Client，生命周期和测试隔离都是显式的，
// 不放在包级变量里
type TokenProvider struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	now          func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewTokenProvider(cfg *config.QikinkConfig, httpClient *http.Client) *TokenProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &TokenProvider{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   httpClient,
		now:          time.Now,
	}
}

// Token 返回有效令牌，缓存缺失或临近过期时刷新
func (t *TokenProvider) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// 提前一分钟刷新，避免请求途中令牌过期
	if t.token != "" && t.now().Add(time.Minute).Before(t.expiresAt) {
		return t.token, nil
	}

	form := url.Values{}
	form.Set("client_id", t.clientID)
	form.Set("client_secret", t.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty token")
	}

	t.token = body.AccessToken
	t.expiresAt = t.now().Add(time.Duration(body.ExpiresIn) * time.Second)
	return t.token, nil
}

// Invalidate 丢弃缓存令牌，下次Token调用强制刷新
func (t *TokenProvider) Invalidate() {
	t.mu.Lock()
	t.token = ""
	t.expiresAt = time.Time{}
	t.mu.Unlock()
}

// RemoteVariant 远端商品的尺码/颜色变体
type RemoteVariant struct {
	Size  string `json:"size"`
	Color string `json:"color"`
}

// RemoteProduct GET /products 返回的远端目录商品
type RemoteProduct struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       json.Number     `json:"price"`
	Stock       int32           `json:"stock"`
	Images      []string        `json:"images"`
	Tags        []string        `json:"tags"`
	Variants    []RemoteVariant `json:"variants"`
}

// FulfillmentItem 提交给Qikink的订单行
type FulfillmentItem struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color,omitempty"`
}

// FulfillmentOrder POST /orders 的请求体
type FulfillmentOrder struct {
	OrderID  string `json:"order_id"` // 本地订单号，作为外部幂等键
	Customer struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Address struct {
			Line1   string `json:"line1"`
			City    string `json:"city"`
			State   string `json:"state"`
			Pincode string `json:"pincode"`
			Country string `json:"country"`
		} `json:"address"`
	} `json:"customer"`
	Items []FulfillmentItem `json:"items"`
}

// Client Qikink代发货API的REST客户端
type Client struct {
	baseURL    string
	tokens     *TokenProvider
	httpClient *http.Client
}

func NewClient(cfg *config.QikinkConfig, tokens *TokenProvider, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		tokens:     tokens,
		httpClient: httpClient,
	}
}

// ListProducts 同步任务拉取远端全量目录
func (c *Client) ListProducts(ctx context.Context) ([]RemoteProduct, error) {
	var products []RemoteProduct
	// 接口可能返回裸数组，也可能返回 {"data": [...]}
	raw, err := c.get(ctx, "/products")
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &products); err == nil {
		return products, nil
	}
	var wrapped struct {
		Data []RemoteProduct `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode products response: %w", err)
	}
	return wrapped.Data, nil
}

// CreateOrder 为本地订单提交代发货单
func (c *Client) CreateOrder(ctx context.Context, order *FulfillmentOrder) error {
	body, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encode fulfillment order: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/orders", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qikink order request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate()
		return fmt.Errorf("qikink rejected token (status 401)")
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("qikink order endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qikink request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate()
		return nil, fmt.Errorf("qikink rejected token (status 401)")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("qikink API returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}
