package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cosmoconnect/storefront/internal/core/domain"
	"github.com/cosmoconnect/storefront/internal/port"
)

const defaultStripeBaseURL = "https://api.stripe.com"

// StripeClient creates and voids hosted checkout sessions against the Stripe
// API. Form-encoded requests, bearer auth, non-2xx treated as failure.
type StripeClient struct {
	secretKey  string
	baseURL    string
	successURL string
	cancelURL  string
	currency   string
	client     *http.Client
}

type StripeConfig struct {
	SecretKey  string
	SuccessURL string
	CancelURL  string
	Currency   string
	// BaseURL overrides the Stripe endpoint, used by tests.
	BaseURL string
	Timeout time.Duration
}

func NewStripeClient(cfg StripeConfig) *StripeClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultStripeBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &StripeClient{
		secretKey:  cfg.SecretKey,
		baseURL:    baseURL,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		currency:   strings.ToLower(cfg.Currency),
		client:     &http.Client{Timeout: timeout},
	}
}

type sessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (c *StripeClient) CreateHostedSession(ctx context.Context, lines []domain.OrderItem, total decimal.Decimal, meta port.SessionMetadata) (port.HostedSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", c.successURL)
	form.Set("cancel_url", c.cancelURL)
	form.Set("metadata[user_id]", meta.UserID)
	form.Set("metadata[total]", total.String())
	if meta.CouponCode != "" {
		form.Set("metadata[coupon_code]", meta.CouponCode)
	}

	for i, line := range lines {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[quantity]", strconv.Itoa(line.Quantity))
		form.Set(prefix+"[price_data][currency]", c.currency)
		form.Set(prefix+"[price_data][product_data][name]", line.Name)
		// unit_amount is in the currency's minor unit
		form.Set(prefix+"[price_data][unit_amount]", line.UnitPrice.Shift(2).Round(0).String())
	}

	var resp sessionResponse
	if err := c.post(ctx, "/v1/checkout/sessions", form, meta.IdempotencyKey, &resp); err != nil {
		return port.HostedSession{}, err
	}

	return port.HostedSession{SessionID: resp.ID, RedirectURL: resp.URL}, nil
}

func (c *StripeClient) VoidSession(ctx context.Context, sessionID string) error {
	path := "/v1/checkout/sessions/" + url.PathEscape(sessionID) + "/expire"
	return c.post(ctx, path, url.Values{}, "", nil)
}

func (c *StripeClient) post(ctx context.Context, path string, form url.Values, idempotencyKey string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("stripe request: %w", err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("stripe call failed status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode stripe response: %w", err)
		}
	}
	return nil
}
