package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cosmoconnect/storefront/internal/core/domain"
	"github.com/cosmoconnect/storefront/internal/core/service"
)

const defaultRecommendationCount = 4

type HTTPHandler struct {
	catalog  *service.CatalogService
	pricing  *service.PricingService
	checkout *service.CheckoutService
	log      *slog.Logger
}

func NewHTTPHandler(catalog *service.CatalogService, pricing *service.PricingService, checkout *service.CheckoutService, log *slog.Logger) *HTTPHandler {
	return &HTTPHandler{catalog: catalog, pricing: pricing, checkout: checkout, log: log}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/featured", h.GetFeatured)
	mux.HandleFunc("GET /api/products/recommendations", h.Recommendations)
	mux.HandleFunc("GET /api/products/category/{category}", h.ListByCategory)
	mux.HandleFunc("POST /api/products", h.CreateProduct)
	mux.HandleFunc("DELETE /api/products/{id}", h.DeleteProduct)
	mux.HandleFunc("PATCH /api/products/{id}/featured", h.ToggleFeatured)

	mux.HandleFunc("POST /api/cart/price", h.PriceCart)
	mux.HandleFunc("POST /api/payments/create-checkout-session", h.CheckoutWithGateway)
	mux.HandleFunc("POST /api/payments/cash-on-delivery", h.CheckoutCashOnDelivery)
	mux.HandleFunc("POST /api/payments/webhook", h.PaymentWebhook)

	mux.HandleFunc("GET /api/orders", h.ListOrders)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type cartLinePayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func toCart(lines []cartLinePayload) domain.Cart {
	cart := make(domain.Cart, len(lines))
	for i, l := range lines {
		cart[i] = domain.CartLine{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	return cart
}

type productPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Image       string `json:"image"`
	Category    string `json:"category"`
	IsFeatured  bool   `json:"is_featured"`
}

func toProductPayload(p domain.Product) productPayload {
	return productPayload{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.String(),
		Image:       p.Image,
		Category:    p.Category,
		IsFeatured:  p.IsFeatured,
	}
}

func toProductPayloads(products []domain.Product) []productPayload {
	out := make([]productPayload, len(products))
	for i, p := range products {
		out[i] = toProductPayload(p)
	}
	return out
}

type orderItemPayload struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

type orderPayload struct {
	ID            string             `json:"id"`
	Items         []orderItemPayload `json:"items"`
	TotalAmount   string             `json:"total_amount"`
	PaymentStatus string             `json:"payment_status"`
	CouponCode    string             `json:"coupon_code,omitempty"`
	CreatedAt     string             `json:"created_at"`
}

func toOrderPayload(o domain.Order) orderPayload {
	items := make([]orderItemPayload, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemPayload{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice.String(),
			Quantity:  it.Quantity,
		}
	}
	return orderPayload{
		ID:            o.ID,
		Items:         items,
		TotalAmount:   o.TotalAmount.String(),
		PaymentStatus: string(o.PaymentStatus),
		CouponCode:    o.CouponCode,
		CreatedAt:     o.CreatedAt.Format(time.RFC3339),
	}
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListAll(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": toProductPayloads(products)})
}

func (h *HTTPHandler) GetFeatured(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.GetFeatured(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductPayloads(products))
}

func (h *HTTPHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	n := defaultRecommendationCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeBadRequest(w, "count must be a positive integer")
			return
		}
		n = parsed
	}

	products, err := h.catalog.Recommendations(r.Context(), n)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductPayloads(products))
}

func (h *HTTPHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListByCategory(r.Context(), r.PathValue("category"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": toProductPayloads(products)})
}

type createProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Image       string `json:"image"`
	Category    string `json:"category"`
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" || req.Price == "" || req.Category == "" {
		h.writeBadRequest(w, "missing required fields")
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		h.writeBadRequest(w, "price must be a non-negative decimal")
		return
	}

	product, err := h.catalog.Create(r.Context(), service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Category:    req.Category,
		Image:       req.Image,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductPayload(product))
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

func (h *HTTPHandler) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.ToggleFeatured(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductPayload(product))
}

type priceCartRequest struct {
	Products   []cartLinePayload `json:"products"`
	CouponCode string            `json:"coupon_code"`
}

type quoteResponse struct {
	Subtotal string `json:"subtotal"`
	Total    string `json:"total"`
	Savings  string `json:"savings"`
}

func (h *HTTPHandler) PriceCart(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(w, r)
	if userID == "" {
		return
	}

	var req priceCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "invalid request body")
		return
	}

	quote, err := h.pricing.Price(r.Context(), userID, toCart(req.Products), req.CouponCode)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{
		Subtotal: quote.Subtotal.String(),
		Total:    quote.Total.String(),
		Savings:  quote.Savings.String(),
	})
}

type checkoutRequest struct {
	Products       []cartLinePayload `json:"products"`
	CouponCode     string            `json:"coupon_code"`
	IdempotencyKey string            `json:"idempotency_key"`
}

func (h *HTTPHandler) CheckoutWithGateway(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(w, r)
	if userID == "" {
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "invalid request body")
		return
	}

	result, err := h.checkout.CheckoutWithGateway(r.Context(), service.CheckoutInput{
		UserID:         userID,
		Cart:           toCart(req.Products),
		CouponCode:     req.CouponCode,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":       result.SessionID,
		"url":      result.RedirectURL,
		"order_id": result.Order.ID,
	})
}

func (h *HTTPHandler) CheckoutCashOnDelivery(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(w, r)
	if userID == "" {
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "invalid request body")
		return
	}

	order, err := h.checkout.CheckoutCashOnDelivery(r.Context(), service.CheckoutInput{
		UserID:         userID,
		Cart:           toCart(req.Products),
		CouponCode:     req.CouponCode,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"order":   toOrderPayload(order),
	})
}

type webhookRequest struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// PaymentWebhook is the gateway's reconciliation signal: mark the order
// behind a session paid or failed. Idempotent; repeats are no-ops.
func (h *HTTPHandler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "invalid request body")
		return
	}
	if req.SessionID == "" {
		h.writeBadRequest(w, "session_id is required")
		return
	}

	status := domain.PaymentStatus(req.Status)
	if status != domain.PaymentStatusPaid && status != domain.PaymentStatusFailed {
		h.writeBadRequest(w, "status must be paid or failed")
		return
	}

	order, err := h.checkout.MarkSettled(r.Context(), req.SessionID, status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderPayload(order))
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(w, r)
	if userID == "" {
		return
	}

	orders, err := h.checkout.ListOrders(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	payloads := make([]orderPayload, len(orders))
	for i, o := range orders {
		payloads[i] = toOrderPayload(o)
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": payloads})
}

// userID reads the identity the auth layer injected upstream. Writes a 401
// and returns empty when it is missing.
func (h *HTTPHandler) userID(w http.ResponseWriter, r *http.Request) string {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Code: "unauthorized", Message: "missing user identity"})
	}
	return userID
}

func (h *HTTPHandler) writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Message: message})
}

// writeError maps the error taxonomy to a stable client-facing
// classification; raw upstream messages never leak.
func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Code: "not_found", Message: "resource not found"})
	case errors.Is(err, domain.ErrEmptyCart):
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "empty_cart", Message: "cart is empty"})
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "invalid_quantity", Message: "quantity must be at least 1"})
	case errors.Is(err, domain.ErrInvalidCoupon):
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "invalid_coupon", Message: "coupon is invalid or expired"})
	case errors.Is(err, domain.ErrDuplicateRequest):
		writeJSON(w, http.StatusConflict, errorResponse{Code: "duplicate_request", Message: "checkout already submitted"})
	case errors.Is(err, domain.ErrGatewayTimeout):
		writeJSON(w, http.StatusGatewayTimeout, errorResponse{Code: "gateway_timeout", Message: "payment gateway timed out, try again"})
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		writeJSON(w, http.StatusBadGateway, errorResponse{Code: "upstream_unavailable", Message: "service temporarily unavailable"})
	default:
		h.log.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "internal_error", Message: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
