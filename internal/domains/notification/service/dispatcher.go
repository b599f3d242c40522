package service

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"resort/config"
	"resort/infras/kafka"
	"resort/infras/mailer"
	"resort/infras/otel"
	"resort/internal/domains/notification/model"
	"resort/shared/constant"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"
	"golang.org/x/time/rate"
)

//go:embed templates/*.html
var templateFS embed.FS

const templateExt = ".html"

// Dispatcher renders notification events consumed from the topic and mails them.
type Dispatcher interface {
	Handle(ctx context.Context, message kafkaGo.Message) error
}

type dispatcherImpl struct {
	mailer    mailer.Mailer
	limiter   *rate.Limiter
	templates *template.Template
	otel      otel.Otel
}

func NewDispatcher(mail mailer.Mailer, cfg *config.Config, otel otel.Otel) (Dispatcher, error) {
	templates, err := template.ParseFS(templateFS, "templates/*"+templateExt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse notification templates: %w", err)
	}

	limit := rate.Limit(cfg.Mail.RatePerSecond)
	if cfg.Mail.RatePerSecond <= 0 {
		limit = rate.Inf
	}

	burst := max(cfg.Mail.Burst, 1)

	return &dispatcherImpl{
		mailer:    mail,
		limiter:   rate.NewLimiter(limit, burst),
		templates: templates,
		otel:      otel,
	}, nil
}

// Handle returns nil for messages that can never be delivered so the consumer
// commits past them. Mail transport errors are returned and leave the offset
// uncommitted.
func (d *dispatcherImpl) Handle(ctx context.Context, message kafkaGo.Message) (err error) {
	ctx, scope := d.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".notification.Handle")
	defer scope.End()
	defer scope.TraceIfError(&err)

	event, err := kafka.Decode[model.Event](message)
	if err != nil {
		log.Error().Err(err).Int64("offset", message.Offset).Msg("dropping malformed notification")

		return nil
	}

	scope.SetAttribute("notification.type", event.Type)

	tmpl := d.templates.Lookup(event.Type + templateExt)
	if tmpl == nil {
		log.Warn().Str("type", event.Type).Msg("dropping notification with unknown type")

		return nil
	}

	body := bytes.Buffer{}
	if err = tmpl.Execute(&body, event); err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("failed to render notification")

		return nil
	}

	if err = d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for mail rate limiter: %w", err)
	}

	err = d.mailer.Send(ctx, mailer.Message{
		To:       event.To,
		Subject:  event.Subject,
		HTMLBody: body.String(),
	})
	if errors.Is(err, mailer.ErrNoRecipient) {
		log.Warn().Str("type", event.Type).Msg("dropping notification without recipient")

		return nil
	}

	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("failed to deliver notification")

		return fmt.Errorf("failed to deliver notification: %w", err)
	}

	return nil
}
