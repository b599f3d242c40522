package payment

import (
	"context"
	"fmt"
	"net/http"
	"resort/config"
	"resort/infras/otel"
	"resort/shared/constant"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type stripeLogger struct{}

func (stripeLogger) Debugf(format string, v ...interface{}) { log.Debug().Msgf(format, v...) }
func (stripeLogger) Infof(format string, v ...interface{})  { log.Debug().Msgf(format, v...) }
func (stripeLogger) Warnf(format string, v ...interface{})  { log.Warn().Msgf(format, v...) }
func (stripeLogger) Errorf(format string, v ...interface{}) { log.Error().Msgf(format, v...) }

type stripeGateway struct {
	api  *client.API
	otel otel.Otel
}

// newStripe builds the PaymentIntent based gateway. A nil backends value
// targets the live Stripe API.
func newStripe(cfg *config.Config, otl otel.Otel, backends *stripe.Backends, timeout time.Duration) *stripeGateway {
	if backends == nil {
		backends = &stripe.Backends{
			API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
				HTTPClient:        &http.Client{Timeout: timeout},
				LeveledLogger:     stripeLogger{},
				MaxNetworkRetries: stripe.Int64(0),
			}),
			Connect: stripe.GetBackend(stripe.ConnectBackend),
			Uploads: stripe.GetBackend(stripe.UploadsBackend),
		}
	}

	return &stripeGateway{
		api:  client.New(cfg.Payment.Stripe.SecretKey, backends),
		otel: otl,
	}
}

func (g *stripeGateway) Name() string {
	return ProviderStripe
}

func (g *stripeGateway) CreateOrder(ctx context.Context, req OrderRequest) (res Order, err error) {
	_, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".stripe.CreateOrder")
	defer scope.End()
	defer scope.TraceIfError(&err)

	scope.SetAttribute(constant.OtelGatewayAttributeKey, ProviderStripe)

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountMinor),
		Currency: stripe.String(strings.ToLower(req.Currency)),
	}
	params.AddMetadata("receipt", req.Receipt)

	for key, value := range req.Notes {
		params.AddMetadata(key, value)
	}

	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		log.Error().Err(err).Str("receipt", req.Receipt).Msg("failed to create stripe payment intent")

		return res, fmt.Errorf("failed to create stripe payment intent: %w", err)
	}

	return Order{
		ID:          intent.ID,
		AmountMinor: intent.Amount,
		Currency:    string(intent.Currency),
		Status:      string(intent.Status),
		ClientToken: intent.ClientSecret,
	}, nil
}

// VerifyPayment retrieves the intent and requires it to have succeeded. The
// payment id may be either the intent id or its latest charge id.
func (g *stripeGateway) VerifyPayment(ctx context.Context, confirmation Confirmation) (err error) {
	_, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".stripe.VerifyPayment")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if confirmation.OrderID == "" || confirmation.PaymentID == "" {
		return ErrInvalidSignature
	}

	intent, err := g.api.PaymentIntents.Get(confirmation.OrderID, nil)
	if err != nil {
		log.Error().Err(err).Str("order_id", confirmation.OrderID).Msg("failed to retrieve stripe payment intent")

		return fmt.Errorf("failed to retrieve stripe payment intent: %w", err)
	}

	if intent.ID != confirmation.OrderID {
		return ErrInvalidSignature
	}

	if confirmation.PaymentID != intent.ID && (intent.LatestCharge == nil || intent.LatestCharge.ID != confirmation.PaymentID) {
		return ErrInvalidSignature
	}

	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return ErrNotCaptured
	}

	return nil
}

func (g *stripeGateway) Refund(ctx context.Context, req RefundRequest) (res Refund, err error) {
	_, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".stripe.Refund")
	defer scope.End()
	defer scope.TraceIfError(&err)

	scope.SetAttribute(constant.OtelGatewayAttributeKey, ProviderStripe)

	params := &stripe.RefundParams{
		Amount: stripe.Int64(req.AmountMinor),
	}

	if strings.HasPrefix(req.PaymentID, "ch_") {
		params.Charge = stripe.String(req.PaymentID)
	} else {
		params.PaymentIntent = stripe.String(req.PaymentID)
	}

	for key, value := range req.Notes {
		params.AddMetadata(key, value)
	}

	refund, err := g.api.Refunds.New(params)
	if err != nil {
		log.Error().Err(err).Str("payment_id", req.PaymentID).Msg("failed to create stripe refund")

		return res, fmt.Errorf("failed to create stripe refund: %w", err)
	}

	return Refund{
		ID:          refund.ID,
		AmountMinor: refund.Amount,
		Status:      string(refund.Status),
	}, nil
}
