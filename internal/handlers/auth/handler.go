package auth

import (
	"net/http"
	"resort/infras/otel"
	"resort/internal/domains/auth/model/dto"
	"resort/internal/domains/auth/service"
	"resort/shared"
	"resort/shared/constant"
	"resort/shared/validator"
	"resort/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Auth
	otel    otel.Otel
}

func New(service service.Auth, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", handler.Register)
		r.Post("/login", handler.Login)
		r.Post("/refresh-token", handler.RefreshToken)
		r.Post("/change-password", handler.ChangePassword)
		r.Post("/otp", handler.SendOTP)
		r.Post("/otp/verify", handler.VerifyOTP)
	})
}

func (handler *Handler) scope(r *http.Request, name string) (*http.Request, otel.Scope) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+"."+name)

	return r.WithContext(ctx), scope
}

func fail(w http.ResponseWriter, scope otel.Scope, err error, msg string) {
	scope.TraceError(err)
	log.Error().Err(err).Msg(msg)

	response.WithError(w, err)
}

// bind decodes and validates the JSON body, answering the request itself on failure.
func bind[T any](w http.ResponseWriter, r *http.Request, scope otel.Scope) (req T, ok bool) {
	if err := validator.Validate(r.Body, &req); err != nil {
		fail(w, scope, err, "failed to validate request body")

		return req, false
	}

	return req, true
}

// Register handles guest registration
// @Summary Register a guest account
// @Description Create a guest account with a password. An email that so far only signed in by code is upgraded in place.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Register Request"
// @Success 201 {object} response.Message "User registered successfully"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/auth/register [post]
func (handler *Handler) Register(w http.ResponseWriter, r *http.Request) {
	r, scope := handler.scope(r, "Register")
	defer scope.End()

	req, ok := bind[dto.RegisterRequest](w, r, scope)
	if !ok {
		return
	}

	if err := handler.service.Register(r.Context(), req); err != nil {
		fail(w, scope, err, "failed to register user")

		return
	}

	response.WithMessage(w, http.StatusCreated, "User registered successfully")
}

// Login handles password sign-in
// @Summary Sign in with a password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login Request"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/auth/login [post]
func (handler *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r, scope := handler.scope(r, "Login")
	defer scope.End()

	req, ok := bind[dto.LoginRequest](w, r, scope)
	if !ok {
		return
	}

	res, err := handler.service.Login(r.Context(), req)
	if err != nil {
		fail(w, scope, err, "failed to login user")

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}

// RefreshToken
// @Summary Rotate the token pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh Token Request"
// @Success 200 {object} dto.RefreshTokenResponse
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Router /v1/auth/refresh-token [post]
func (handler *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	r, scope := handler.scope(r, "RefreshToken")
	defer scope.End()

	req, ok := bind[dto.RefreshTokenRequest](w, r, scope)
	if !ok {
		return
	}

	res, err := handler.service.RefreshToken(r.Context(), req)
	if err != nil {
		fail(w, scope, err, "failed to refresh token")

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}

// ChangePassword
// @Summary Change password
// @Description Replace the password of the authenticated account.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.ChangePasswordRequest true "Change Password Request"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Router /v1/auth/change-password [post]
// @Security BearerAuth
func (handler *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	r, scope := handler.scope(r, "ChangePassword")
	defer scope.End()

	req, ok := bind[dto.ChangePasswordRequest](w, r, scope)
	if !ok {
		return
	}

	ctx := r.Context()

	if err := handler.service.ChangePassword(ctx, req, shared.UserID(ctx)); err != nil {
		fail(w, scope, err, "failed to change password")

		return
	}

	response.WithMessage(w, http.StatusOK, "Password changed successfully")
}

// SendOTP
// @Summary Request a sign-in code
// @Description Email a one-time code. Requesting again replaces a pending code.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.SendOTPRequest true "Send OTP Request"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Error
// @Failure 429 {object} response.Error
// @Router /v1/auth/otp [post]
func (handler *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	r, scope := handler.scope(r, "SendOTP")
	defer scope.End()

	req, ok := bind[dto.SendOTPRequest](w, r, scope)
	if !ok {
		return
	}

	if err := handler.service.SendOTP(r.Context(), req); err != nil {
		fail(w, scope, err, "failed to send otp")

		return
	}

	response.WithMessage(w, http.StatusOK, "Code sent")
}

// VerifyOTP
// @Summary Sign in with a one-time code
// @Description A guest account is created the first time an email signs in.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.VerifyOTPRequest true "Verify OTP Request"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Router /v1/auth/otp/verify [post]
func (handler *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	r, scope := handler.scope(r, "VerifyOTP")
	defer scope.End()

	req, ok := bind[dto.VerifyOTPRequest](w, r, scope)
	if !ok {
		return
	}

	res, err := handler.service.VerifyOTP(r.Context(), req)
	if err != nil {
		fail(w, scope, err, "failed to verify otp")

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}
