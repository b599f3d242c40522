//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"resort/config"
	"resort/infras/jwt"
	"resort/infras/otel"
	"resort/internal/domains/auth/model/dto"
	notification "resort/internal/domains/notification/service"
	userModel "resort/internal/domains/user/model"
	userRepo "resort/internal/domains/user/repository"
	"resort/shared"
	"resort/shared/cache"
	"resort/shared/constant"
	gDto "resort/shared/dto"
	"resort/shared/failure"
	"resort/shared/password"
	"resort/shared/timezone"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	cacheOTP = "otp"

	secondsPerMinute = 60
	otpDigits        = 10
	defaultOTPLength = 6
)

const (
	msgInvalidCredentials = "invalid email or password"
	msgInvalidOTP         = "invalid or expired code"
	msgDeactivated        = "user account is deactivated"
)

type Auth interface {
	Register(ctx context.Context, req dto.RegisterRequest) error
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
	RefreshToken(ctx context.Context, req dto.RefreshTokenRequest) (dto.RefreshTokenResponse, error)
	ChangePassword(ctx context.Context, req dto.ChangePasswordRequest, userID string) error
	SendOTP(ctx context.Context, req dto.SendOTPRequest) error
	VerifyOTP(ctx context.Context, req dto.VerifyOTPRequest) (dto.LoginResponse, error)
}

type serviceImpl struct {
	userRepo   userRepo.User
	cfg        *config.Config
	otel       otel.Otel
	jwtService jwt.JWT
	cache      cache.RedisCache
	notifier   notification.Publisher
}

func New(userRepo userRepo.User, cfg *config.Config, otel otel.Otel, jwt jwt.JWT, cache cache.RedisCache, notifier notification.Publisher) Auth {
	return &serviceImpl{
		userRepo:   userRepo,
		cfg:        cfg,
		otel:       otel,
		jwtService: jwt,
		cache:      cache,
		notifier:   notifier,
	}
}

func emailFilter(email string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    userModel.FieldEmail,
				Operator: gDto.FilterOperatorEq,
				Value:    strings.ToLower(email),
				Table:    userModel.TableName,
			},
		},
	}
}

// Register creates a guest account. An email held by an OTP guest is upgraded
// in place with the new password.
func (s *serviceImpl) Register(ctx context.Context, req dto.RegisterRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Register")
	defer scope.End()
	defer scope.TraceIfError(&err)

	req.Email = strings.ToLower(req.Email)

	existing, err := s.userRepo.Get(ctx, emailFilter(req.Email))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if user exists")

		return fmt.Errorf("failed to check if user exists: %w", err)
	}

	if existing.ID != "" && existing.Password != "" {
		return failure.BadRequestFromString("email already registered")
	}

	hashedPassword, err := password.Hash(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash password")

		return fmt.Errorf("failed to hash password: %w", err)
	}

	if existing.ID != "" {
		upgrade := dto.UpgradeGuestRequest{Password: hashedPassword, FullName: req.FullName, Phone: req.Phone}
		filter := shared.FilterByID(existing.ID, userModel.FieldID, userModel.TableName)

		if err = s.userRepo.Update(ctx, shared.TransformFields(upgrade, req.Email), filter); err != nil {
			log.Error().Err(err).Msg("failed to upgrade guest account")

			return fmt.Errorf("failed to upgrade guest account: %w", err)
		}

		return nil
	}

	if err = s.userRepo.Insert(ctx, req.ToUserModel(constant.ContextGuest, hashedPassword)); err != nil {
		log.Error().Err(err).Msg("failed to create user")

		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (s *serviceImpl) Login(ctx context.Context, req dto.LoginRequest) (res dto.LoginResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Login")
	defer scope.End()
	defer scope.TraceIfError(&err)

	user, err := s.userRepo.Get(ctx, emailFilter(req.Email))
	if err != nil {
		log.Error().Err(err).Msg("failed to get user")

		return res, fmt.Errorf("failed to get user: %w", err)
	}

	if user.ID == "" {
		log.Warn().Str("email", req.Email).Msg("login attempt with non-existent email")

		return res, failure.Unauthorized(msgInvalidCredentials)
	}

	if err := password.Verify(req.Password, user.Password); err != nil {
		log.Warn().Str("email", req.Email).Msg("login attempt with wrong password")

		return res, failure.Unauthorized(msgInvalidCredentials)
	}

	return s.issueTokens(ctx, user, user.IsVerified)
}

func (s *serviceImpl) RefreshToken(ctx context.Context, req dto.RefreshTokenRequest) (res dto.RefreshTokenResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RefreshToken")
	defer scope.End()
	defer scope.TraceIfError(&err)

	tokenPair, err := s.jwtService.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		log.Warn().Err(err).Msg("failed to refresh tokens")

		return res, failure.Unauthorized("invalid refresh token")
	}

	res.FromTokenPair(tokenPair)

	return res, nil
}

func (s *serviceImpl) ChangePassword(ctx context.Context, req dto.ChangePasswordRequest, userID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ChangePassword")
	defer scope.End()
	defer scope.TraceIfError(&err)

	filter := shared.FilterByID(userID, userModel.FieldID, userModel.TableName)

	user, err := s.userRepo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get user")

		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.ID == "" {
		return failure.NotFound("user not found")
	}

	if err := password.Verify(req.CurrentPassword, user.Password); err != nil {
		return failure.BadRequestFromString("current password is incorrect")
	}

	hashedPassword, err := password.Hash(req.NewPassword)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash new password")

		return fmt.Errorf("failed to hash new password: %w", err)
	}

	updatePassword := dto.UpdatePasswordRequest{Password: hashedPassword}
	updatedFields := shared.TransformFields(updatePassword, shared.Actor(ctx))

	if err = s.userRepo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update password")

		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// SendOTP stores a fresh one-time code for the email and queues it for delivery.
// A new request replaces any code still pending.
func (s *serviceImpl) SendOTP(ctx context.Context, req dto.SendOTPRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".SendOTP")
	defer scope.End()
	defer scope.TraceIfError(&err)

	email := strings.ToLower(req.Email)

	code, err := generateCode(s.cfg.Auth.OTP.Length)
	if err != nil {
		log.Error().Err(err).Msg("failed to generate otp")

		return fmt.Errorf("failed to generate otp: %w", err)
	}

	if err = s.cache.Save(ctx, shared.BuildCacheKey(cacheOTP, email), code, s.cfg.Auth.OTP.TTLSeconds); err != nil {
		log.Error().Err(err).Msg("failed to store otp")

		return fmt.Errorf("failed to store otp: %w", err)
	}

	ttlMinutes := max(s.cfg.Auth.OTP.TTLSeconds/secondsPerMinute, 1)

	go func() {
		c := context.WithoutCancel(ctx)

		s.notifier.SendOTP(c, email, code, ttlMinutes)
	}()

	return nil
}

// VerifyOTP consumes the pending code and signs the caller in, creating a
// guest account on first use.
func (s *serviceImpl) VerifyOTP(ctx context.Context, req dto.VerifyOTPRequest) (res dto.LoginResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".VerifyOTP")
	defer scope.End()
	defer scope.TraceIfError(&err)

	email := strings.ToLower(req.Email)
	cacheKey := shared.BuildCacheKey(cacheOTP, email)

	stored := ""
	if err := s.cache.Get(ctx, cacheKey, &stored); err != nil {
		log.Warn().Err(err).Str("email", email).Msg("otp not found")

		return res, failure.Unauthorized(msgInvalidOTP)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(req.Code)) != 1 {
		log.Warn().Str("email", email).Msg("otp mismatch")

		return res, failure.Unauthorized(msgInvalidOTP)
	}

	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		log.Error().Err(err).Str("email", email).Msg("failed to delete used otp")
	}

	user, err := s.userRepo.Get(ctx, emailFilter(email))
	if err != nil {
		log.Error().Err(err).Msg("failed to get user")

		return res, fmt.Errorf("failed to get user: %w", err)
	}

	if user.ID == "" {
		user = dto.NewOTPGuest(email)

		if err = s.userRepo.Insert(ctx, user); err != nil {
			log.Error().Err(err).Msg("failed to create guest account")

			return res, fmt.Errorf("failed to create guest account: %w", err)
		}
	}

	return s.issueTokens(ctx, user, true)
}

// issueTokens records the sign-in on the account. A code delivered to the
// mailbox also marks the account verified.
func (s *serviceImpl) issueTokens(ctx context.Context, user userModel.User, verified bool) (res dto.LoginResponse, err error) {
	if !user.Active {
		return res, failure.Unauthorized(msgDeactivated)
	}

	tokenPair, err := s.jwtService.GenerateTokenPair(ctx, user.ID, user.Email, user.Level)
	if err != nil {
		log.Error().Err(err).Msg("failed to generate tokens")

		return res, fmt.Errorf("failed to generate tokens: %w", err)
	}

	lastLogin := dto.UpdateLastLoginRequest{LastLogin: timezone.Now(), IsVerified: verified}
	updatedFields := shared.TransformFields(lastLogin, user.Email)

	if err := s.userRepo.Update(ctx, updatedFields, shared.FilterByID(user.ID, userModel.FieldID, userModel.TableName)); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to update last login")

		return res, fmt.Errorf("failed to update last login: %w", err)
	}

	res.FromTokenPair(tokenPair)

	return res, nil
}

func generateCode(length int) (string, error) {
	if length <= 0 {
		length = defaultOTPLength
	}

	code := make([]byte, length)
	limit := big.NewInt(otpDigits)

	for i := range code {
		digit, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to read random digit: %w", err)
		}

		code[i] = byte('0' + digit.Int64())
	}

	return string(code), nil
}
