package service

//go:generate go run go.uber.org/mock/mockgen -source=./publisher.go -destination=../mocks/publisher_mock.go -package=mocks

import (
	"context"
	"resort/config"
	"resort/infras/kafka"
	"resort/infras/otel"
	"resort/internal/domains/notification/model"
	"resort/internal/domains/notification/model/dto"
	"resort/shared/constant"
	"resort/shared/timezone"

	"github.com/rs/zerolog/log"
)

// Publisher queues outbound emails. Delivery failures are logged and never
// reach the caller.
type Publisher interface {
	SendOTP(ctx context.Context, to, code string, ttlMinutes int)
	SendBookingConfirmation(ctx context.Context, notice dto.BookingNotice)
	SendRefundRequested(ctx context.Context, notice dto.RefundNotice)
	SendRefundProcessed(ctx context.Context, notice dto.RefundNotice)
}

type publisherImpl struct {
	client kafka.Client
	topic  string
	otel   otel.Otel
}

func NewPublisher(client kafka.Client, cfg *config.Config, otel otel.Otel) Publisher {
	return &publisherImpl{
		client: client,
		topic:  cfg.Kafka.NotificationTopic,
		otel:   otel,
	}
}

func (p *publisherImpl) SendOTP(ctx context.Context, to, code string, ttlMinutes int) {
	p.publish(ctx, model.Event{
		Type:    model.TypeOTP,
		To:      to,
		Subject: "Your sign-in code",
		Data: map[string]any{
			model.DataCode:       code,
			model.DataTTLMinutes: ttlMinutes,
		},
		OccurredAt: timezone.Now(),
	})
}

func (p *publisherImpl) SendBookingConfirmation(ctx context.Context, notice dto.BookingNotice) {
	p.publish(ctx, notice.ToEvent())
}

func (p *publisherImpl) SendRefundRequested(ctx context.Context, notice dto.RefundNotice) {
	p.publish(ctx, notice.ToEvent(model.TypeRefundRequested))
}

func (p *publisherImpl) SendRefundProcessed(ctx context.Context, notice dto.RefundNotice) {
	p.publish(ctx, notice.ToEvent(model.TypeRefundProcessed))
}

func (p *publisherImpl) publish(ctx context.Context, event model.Event) {
	ctx, scope := p.otel.NewScope(ctx, constant.OtelPublisherScopeName, constant.OtelPublisherScopeName+"."+event.Type)
	defer scope.End()

	if event.To == "" {
		log.Warn().Str("type", event.Type).Msg("skipping notification without recipient")

		return
	}

	err := p.client.Publish(ctx, p.topic, kafka.Message{Key: event.To, Value: event})
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("type", event.Type).Msg("failed to publish notification")

		return
	}

	scope.AddEvent("notification published")
}
