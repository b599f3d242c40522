package mailer

//go:generate go run go.uber.org/mock/mockgen -source=./mailer.go -destination=./mocks/mailer_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"resort/config"
	"resort/infras/otel"
	"resort/shared/constant"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

var ErrNoRecipient = errors.New("mail recipient is required")

type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

type Mailer interface {
	Send(ctx context.Context, message Message) error
}

type mailerImpl struct {
	from   string
	sender func(messages ...*gomail.Message) error
	otel   otel.Otel
}

func New(cfg *config.Config, otl otel.Otel) Mailer {
	dialer := gomail.NewDialer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password)

	log.Info().Str("host", cfg.Mail.Host).Int("port", cfg.Mail.Port).Msg("Mailer initialized")

	return &mailerImpl{
		from:   cfg.Mail.From,
		sender: dialer.DialAndSend,
		otel:   otl,
	}
}

func (m *mailerImpl) Send(ctx context.Context, message Message) (err error) {
	_, scope := m.otel.NewScope(ctx, constant.OtelMailerScopeName, constant.OtelMailerScopeName+".Send")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if message.To == "" {
		return ErrNoRecipient
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", message.To)
	msg.SetHeader("Subject", message.Subject)
	msg.SetBody("text/html", message.HTMLBody)

	if err = m.sender(msg); err != nil {
		log.Error().Err(err).Str("subject", message.Subject).Msg("failed to send mail")

		return fmt.Errorf("failed to send mail: %w", err)
	}

	log.Info().Str("subject", message.Subject).Msg("mail sent")

	return nil
}
