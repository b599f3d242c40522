package di

import (
	"resort/config"
	"resort/infras/kafka"
	"resort/infras/otel"
	notificationService "resort/internal/domains/notification/service"
)

// Notifier bundles what the notification consumer process needs.
type Notifier struct {
	Config     *config.Config
	Client     kafka.Client
	Dispatcher notificationService.Dispatcher
	Otel       otel.Otel
}
