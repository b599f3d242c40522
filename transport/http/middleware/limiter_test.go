package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"resort/config"
	"resort/infras/otel/mocks"
	cacheMocks "resort/shared/cache/mocks"
	"resort/shared/constant"
	"resort/transport/http/middleware"
)

func TestRateLimit(t *testing.T) {
	const key = "limiter:10.0.0.1:booking-app/2.1"

	tests := []struct {
		name       string
		enable     bool
		setupMock  func(*cacheMocks.MockRedisCache)
		wantCode   int
		remaining  string
		retryAfter string
	}{
		{
			name:      "disabled",
			setupMock: func(*cacheMocks.MockRedisCache) {},
			wantCode:  http.StatusOK,
		},
		{
			name:   "first request in window",
			enable: true,
			setupMock: func(m *cacheMocks.MockRedisCache) {
				m.EXPECT().Incr(gomock.Any(), key, 60).Return(int64(1), 60*time.Second, nil)
			},
			wantCode:  http.StatusOK,
			remaining: "1",
		},
		{
			name:   "last allowed request",
			enable: true,
			setupMock: func(m *cacheMocks.MockRedisCache) {
				m.EXPECT().Incr(gomock.Any(), key, 60).Return(int64(2), 30*time.Second, nil)
			},
			wantCode:  http.StatusOK,
			remaining: "0",
		},
		{
			name:   "limit exceeded",
			enable: true,
			setupMock: func(m *cacheMocks.MockRedisCache) {
				m.EXPECT().Incr(gomock.Any(), key, 60).Return(int64(3), 1500*time.Millisecond, nil)
			},
			wantCode:   http.StatusTooManyRequests,
			remaining:  "0",
			retryAfter: "2",
		},
		{
			name:   "cache unavailable lets request through",
			enable: true,
			setupMock: func(m *cacheMocks.MockRedisCache) {
				m.EXPECT().Incr(gomock.Any(), key, 60).Return(int64(0), time.Duration(0), errors.New("connection refused"))
			},
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockCache := cacheMocks.NewMockRedisCache(ctrl)
			tt.setupMock(mockCache)

			cfg := &config.Config{}
			cfg.App.RateLimiter.Enable = tt.enable
			cfg.App.RateLimiter.MaxRequests = 2
			cfg.App.RateLimiter.WindowSeconds = 60

			app := middleware.NewAppMiddleware(mocks.NewOtel(), cfg, mockCache)
			handler := app.RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequestWithContext(context.Background(), http.MethodGet, "/v1/catalog", nil)
			req.RemoteAddr = "10.0.0.1:52114"
			req.Header.Set(constant.RequestHeaderUserAgent, "booking-app/2.1")

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.remaining, rec.Header().Get(constant.RequestHeaderRateLimitRemaining))
			assert.Equal(t, tt.retryAfter, rec.Header().Get(constant.RequestHeaderRetryAfter))
		})
	}
}
