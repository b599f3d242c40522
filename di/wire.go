//go:build wireinject
// +build wireinject

package di

import (
	"resort/config"
	"resort/infras/jwt"
	"resort/infras/kafka"
	"resort/infras/mailer"
	"resort/infras/otel"
	"resort/infras/payment"
	"resort/infras/postgres"
	"resort/infras/redis"
	"resort/infras/s3"
	"resort/permissions"
	"resort/shared/cache"
	"resort/transport/http"
	"resort/transport/http/middleware"
	"resort/transport/http/router"

	authService "resort/internal/domains/auth/service"
	bookingRepository "resort/internal/domains/booking/repository"
	bookingService "resort/internal/domains/booking/service"
	catalogRepository "resort/internal/domains/catalog/repository"
	catalogService "resort/internal/domains/catalog/service"
	notificationService "resort/internal/domains/notification/service"
	paymentService "resort/internal/domains/payment/service"
	refundService "resort/internal/domains/refund/service"
	userRepository "resort/internal/domains/user/repository"
	userService "resort/internal/domains/user/service"

	authHandler "resort/internal/handlers/auth"
	bookingHandler "resort/internal/handlers/booking"
	catalogHandler "resort/internal/handlers/catalog"
	paymentHandler "resort/internal/handlers/payment"
	userHandler "resort/internal/handlers/user"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	s3.New,
	kafka.New,
	payment.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var notificationDomain = wire.NewSet(
	notificationService.NewPublisher,
)

var userDomain = wire.NewSet(
	userRepository.New,
	userService.New,
)

var authDomain = wire.NewSet(
	authService.New,
)

var catalogDomain = wire.NewSet(
	catalogRepository.NewItem,
	catalogRepository.NewAddon,
	catalogService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingRepository.NewItem,
	bookingService.New,
)

var paymentDomain = wire.NewSet(
	paymentService.New,
	refundService.New,
)

var domains = wire.NewSet(
	notificationDomain,
	userDomain,
	authDomain,
	catalogDomain,
	bookingDomain,
	paymentDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	userHandler.New,
	catalogHandler.New,
	bookingHandler.New,
	paymentHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		shutdownHooks,
		http.New,
	)

	return &http.HTTP{}
}

func InitializeNotifier() (*Notifier, error) {
	wire.Build(
		config.Get,
		otel.New,
		kafka.New,
		mailer.New,
		notificationService.NewDispatcher,
		wire.Struct(new(Notifier), "*"),
	)

	return &Notifier{}, nil
}
