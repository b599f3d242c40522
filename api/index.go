package handler

import (
	"net/http"
	"sync"

	"resort/config"
	"resort/di"
	"resort/shared/logger"
	transport "resort/transport/http"
)

var (
	once    sync.Once
	service *transport.HTTP
)

// Handler serves requests on serverless platforms, building the router on the first call.
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		logger.InitLogger()
		logger.SetLogLevel(config.Get())

		service = di.InitializeService()
	})

	r.RequestURI = r.URL.String()

	service.ServeHTTP(w, r)
}
