package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"resort/config"
	"resort/infras/otel"
	"resort/shared/constant"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

type razorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type razorpayRefund struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

type razorpayGateway struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
	otel      otel.Otel
}

func newRazorpay(cfg *config.Config, otl otel.Otel, client *http.Client, timeout time.Duration) *razorpayGateway {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	return &razorpayGateway{
		baseURL:   strings.TrimSuffix(cfg.Payment.Razorpay.BaseURL, "/"),
		keyID:     cfg.Payment.Razorpay.KeyID,
		keySecret: cfg.Payment.Razorpay.KeySecret,
		client:    client,
		otel:      otl,
	}
}

func (g *razorpayGateway) Name() string {
	return ProviderRazorpay
}

func (g *razorpayGateway) CreateOrder(ctx context.Context, req OrderRequest) (res Order, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".razorpay.CreateOrder")
	defer scope.End()
	defer scope.TraceIfError(&err)

	scope.SetAttribute(constant.OtelGatewayAttributeKey, ProviderRazorpay)

	body := map[string]any{
		"amount":   req.AmountMinor,
		"currency": strings.ToUpper(req.Currency),
		"receipt":  req.Receipt,
		"notes":    req.Notes,
	}

	order := razorpayOrder{}
	if err = g.call(ctx, http.MethodPost, "/orders", body, &order); err != nil {
		return res, fmt.Errorf("failed to create razorpay order: %w", err)
	}

	return Order{
		ID:          order.ID,
		AmountMinor: order.Amount,
		Currency:    order.Currency,
		Status:      order.Status,
		ClientToken: g.keyID,
	}, nil
}

// VerifyPayment checks the checkout signature, hex(HMAC-SHA256(order_id|payment_id)).
func (g *razorpayGateway) VerifyPayment(ctx context.Context, confirmation Confirmation) (err error) {
	_, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".razorpay.VerifyPayment")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if confirmation.OrderID == "" || confirmation.PaymentID == "" || confirmation.Signature == "" {
		return ErrInvalidSignature
	}

	expected := Sign(g.keySecret, confirmation.OrderID, confirmation.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(confirmation.Signature)) {
		log.Warn().Str("order_id", confirmation.OrderID).Msg("razorpay signature mismatch")

		return ErrInvalidSignature
	}

	return nil
}

func (g *razorpayGateway) Refund(ctx context.Context, req RefundRequest) (res Refund, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".razorpay.Refund")
	defer scope.End()
	defer scope.TraceIfError(&err)

	scope.SetAttribute(constant.OtelGatewayAttributeKey, ProviderRazorpay)

	body := map[string]any{
		"amount": req.AmountMinor,
		"notes":  req.Notes,
	}

	refund := razorpayRefund{}
	if err = g.call(ctx, http.MethodPost, "/payments/"+url.PathEscape(req.PaymentID)+"/refund", body, &refund); err != nil {
		return res, fmt.Errorf("failed to refund razorpay payment: %w", err)
	}

	return Refund{
		ID:          refund.ID,
		AmountMinor: refund.Amount,
		Status:      refund.Status,
	}, nil
}

func (g *razorpayGateway) call(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)

	resp, err := g.client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("razorpay request failed")

		return fmt.Errorf("failed to call razorpay: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read razorpay response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := razorpayError{}
		_ = json.Unmarshal(raw, &apiErr)

		log.Error().
			Int("status", resp.StatusCode).
			Str("code", apiErr.Error.Code).
			Str("description", apiErr.Error.Description).
			Msg("razorpay returned an error")

		return fmt.Errorf("razorpay %s: %s", apiErr.Error.Code, apiErr.Error.Description)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode razorpay response: %w", err)
	}

	return nil
}

// Sign computes the razorpay checkout signature for an order and payment pair.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))

	return hex.EncodeToString(mac.Sum(nil))
}
