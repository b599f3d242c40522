package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"resort/infras/otel/mocks"
	authMocks "resort/internal/domains/auth/mocks"
	"resort/internal/domains/auth/model/dto"
	"resort/internal/handlers/auth"
	"resort/shared/constant"
	"resort/shared/failure"
)

func newRouter(t *testing.T) (http.Handler, *authMocks.MockAuth) {
	ctrl := gomock.NewController(t)
	mockService := authMocks.NewMockAuth(ctrl)

	handler := auth.New(mockService, mocks.NewOtel())

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), constant.ContextKeyUserID, "user-1")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	handler.Router(router)

	return router, mockService
}

func post(router http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func TestHandler_Requests(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		body      string
		setupMock func(*authMocks.MockAuth)
		wantCode  int
	}{
		{
			name: "register",
			path: "/auth/register",
			body: `{"email":"guest@resort.test","password":"sunset-villa"}`,
			setupMock: func(m *authMocks.MockAuth) {
				m.EXPECT().Register(gomock.Any(), dto.RegisterRequest{Email: "guest@resort.test", Password: "sunset-villa"}).Return(nil)
			},
			wantCode: http.StatusCreated,
		},
		{
			name:      "register with short password",
			path:      "/auth/register",
			body:      `{"email":"guest@resort.test","password":"short"}`,
			setupMock: func(*authMocks.MockAuth) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "register duplicate",
			path: "/auth/register",
			body: `{"email":"guest@resort.test","password":"sunset-villa"}`,
			setupMock: func(m *authMocks.MockAuth) {
				m.EXPECT().Register(gomock.Any(), gomock.Any()).Return(failure.BadRequestFromString("email already registered"))
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "login with wrong password",
			path: "/auth/login",
			body: `{"email":"guest@resort.test","password":"nope"}`,
			setupMock: func(m *authMocks.MockAuth) {
				m.EXPECT().Login(gomock.Any(), gomock.Any()).Return(dto.LoginResponse{}, failure.Unauthorized("invalid email or password"))
			},
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "change password uses the signed-in account",
			path: "/auth/change-password",
			body: `{"current_password":"sunset-villa","new_password":"sunrise-villa"}`,
			setupMock: func(m *authMocks.MockAuth) {
				m.EXPECT().ChangePassword(gomock.Any(), gomock.Any(), "user-1").Return(nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name: "send otp",
			path: "/auth/otp",
			body: `{"email":"guest@resort.test"}`,
			setupMock: func(m *authMocks.MockAuth) {
				m.EXPECT().SendOTP(gomock.Any(), dto.SendOTPRequest{Email: "guest@resort.test"}).Return(nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name:      "verify otp rejects letters",
			path:      "/auth/otp/verify",
			body:      `{"email":"guest@resort.test","code":"12ab56"}`,
			setupMock: func(*authMocks.MockAuth) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "malformed body",
			path:      "/auth/refresh-token",
			body:      `{"refresh_token":`,
			setupMock: func(*authMocks.MockAuth) {},
			wantCode:  http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, mockService := newRouter(t)
			tt.setupMock(mockService)

			rec := post(router, tt.path, tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestHandler_VerifyOTP(t *testing.T) {
	router, mockService := newRouter(t)

	mockService.EXPECT().
		VerifyOTP(gomock.Any(), dto.VerifyOTPRequest{Email: "guest@resort.test", Code: "123456"}).
		Return(dto.LoginResponse{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900}, nil)

	rec := post(router, "/auth/otp/verify", `{"email":"guest@resort.test","code":"123456"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data dto.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "access", body.Data.AccessToken)
	assert.Equal(t, int64(900), body.Data.ExpiresIn)
}
