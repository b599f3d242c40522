package payment

//go:generate go run go.uber.org/mock/mockgen -source=./payment.go -destination=./mocks/payment_mock.go -package=mocks

import (
	"context"
	"errors"
	"resort/config"
	"resort/infras/otel"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	ProviderRazorpay = "razorpay"
	ProviderStripe   = "stripe"
)

var (
	ErrInvalidSignature = errors.New("invalid payment signature")
	ErrNotCaptured      = errors.New("payment not captured")
)

type OrderRequest struct {
	Receipt     string
	AmountMinor int64
	Currency    string
	Notes       map[string]string
}

type Order struct {
	ID          string `json:"id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	// ClientToken is handed to the checkout widget: the publishable key id for
	// razorpay, the intent client secret for stripe.
	ClientToken string `json:"client_token,omitempty"`
}

type Confirmation struct {
	OrderID   string
	PaymentID string
	Signature string
}

type RefundRequest struct {
	PaymentID   string
	AmountMinor int64
	Notes       map[string]string
}

type Refund struct {
	ID          string
	AmountMinor int64
	Status      string
}

// Gateway is a hosted payment provider. Calls are synchronous and never retried.
type Gateway interface {
	Name() string
	CreateOrder(ctx context.Context, req OrderRequest) (Order, error)
	VerifyPayment(ctx context.Context, confirmation Confirmation) error
	Refund(ctx context.Context, req RefundRequest) (Refund, error)
}

func New(cfg *config.Config, otl otel.Otel) Gateway {
	timeout := time.Duration(cfg.Payment.TimeoutSeconds) * time.Second

	switch strings.ToLower(cfg.Payment.Provider) {
	case ProviderStripe:
		log.Info().Str("provider", ProviderStripe).Msg("Payment gateway initialized")

		return newStripe(cfg, otl, nil, timeout)
	default:
		log.Info().Str("provider", ProviderRazorpay).Msg("Payment gateway initialized")

		return newRazorpay(cfg, otl, nil, timeout)
	}
}
