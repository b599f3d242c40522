package di

import (
	"context"

	"resort/infras/kafka"
	"resort/infras/otel"
	"resort/infras/postgres"
	"resort/transport/http"
)

// shutdownHooks closes producers before the tracer so their last spans are
// still exported.
func shutdownHooks(messaging kafka.Client, db *postgres.Connection, tracing otel.Otel) []http.Hook {
	return []http.Hook{
		{Name: "kafka", Run: func(context.Context) error { return messaging.Close() }},
		{Name: "postgres", Run: func(context.Context) error { return db.Close() }},
		{Name: "otel", Run: tracing.Shutdown},
	}
}
