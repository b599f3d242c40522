package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"resort/config"
	"resort/infras/jwt"
	"resort/infras/otel"
	"resort/permissions"
	"resort/shared/constant"
	"resort/shared/failure"
	"resort/transport/http/response"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const msgUnauthorized = "Invalid or missing access token"

// internalCallKey marks requests authenticated with the service API key.
type internalCallKey struct{}

type Auth interface {
	Auth(http.Handler) http.Handler
	OptionalAuth(http.Handler) http.Handler
	APIKey(http.Handler) http.Handler
}

type Role interface {
	RBAC(http.Handler) http.Handler
}

type AuthRole interface {
	Auth
	Role
}

type authRoleImpl struct {
	jwtService jwt.JWT
	otel       otel.Otel
	permission *permissions.PermissionData
	cfg        *config.Config
}

func NewAuthRoleMiddleware(jwtService jwt.JWT, otel otel.Otel, permissions *permissions.PermissionData, cfg *config.Config) AuthRole {
	return &authRoleImpl{
		jwtService: jwtService,
		otel:       otel,
		permission: permissions,
		cfg:        cfg,
	}
}

func internalCall(ctx context.Context) bool {
	trusted, _ := ctx.Value(internalCallKey{}).(bool)

	return trusted
}

func reject(w http.ResponseWriter, scope otel.Scope, err error) {
	scope.TraceError(err)
	scope.End()

	response.WithError(w, err)
}

// route resolves the matched chi pattern so permissions are keyed by route
// rather than by the concrete path. found is false when no rule covers it.
func (m *authRoleImpl) route(r *http.Request) (pattern string, permission permissions.Permission, found bool) {
	pattern = r.URL.Path

	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.Routes != nil {
		if matched := rctx.Routes.Find(chi.NewRouteContext(), r.Method, r.URL.Path); matched != "" {
			pattern = matched
		}
	}

	if m.permission == nil {
		return pattern, permissions.Permission{}, false
	}

	permission, found = m.permission.FindPermissions(pattern, r.Method)

	return pattern, permission, found
}

func (m *authRoleImpl) identify(ctx context.Context, authHeader string) (context.Context, error) {
	token, err := jwt.ExtractTokenFromHeader(authHeader)
	if err != nil {
		return ctx, err
	}

	claims, err := m.jwtService.ValidateToken(ctx, token, jwt.AccessToken)
	if err != nil {
		return ctx, err
	}

	if claims.UserID == "" || claims.Email == "" {
		return ctx, jwt.ErrInvalidClaim
	}

	for key, value := range map[any]string{
		constant.ContextKeyUserID:    claims.UserID,
		constant.ContextKeyUserEmail: claims.Email,
		constant.ContextKeyUserRole:  claims.Role,
		constant.ContextKeyTokenID:   claims.ID,
	} {
		ctx = context.WithValue(ctx, key, value)
	}

	return ctx, nil
}

func rejection(err error) string {
	switch {
	case errors.Is(err, jwt.ErrExpiredToken):
		return "token expired"
	case errors.Is(err, jwt.ErrInvalidClaim):
		return "invalid token claims"
	case errors.Is(err, jwt.ErrInvalidToken):
		return "invalid token"
	default:
		return "malformed authorization header"
	}
}

// Auth requires a valid access token. Routes flagged skip in permissions.json
// are public and only pick up an identity when the caller sends one.
func (m *authRoleImpl) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if internalCall(ctx) {
			next.ServeHTTP(w, r)

			return
		}

		pattern, permission, _ := m.route(r)
		if permission.Skip {
			m.OptionalAuth(next).ServeHTTP(w, r)

			return
		}

		_, scope := m.otel.NewScope(ctx, constant.OtelHandlerScopeName, "auth.middleware")
		scope.SetAttributes(map[string]any{
			"middleware.type": "auth",
			"http.path":       pattern,
			"http.method":     r.Method,
		})

		ctx, err := m.identify(ctx, r.Header.Get(constant.RequestHeaderAuthorization))
		if err != nil {
			log.Warn().Err(err).Str("path", pattern).Str("reason", rejection(err)).Msg("rejected access token")
			reject(w, scope, failure.Unauthorized(msgUnauthorized))

			return
		}

		scope.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth attaches the caller identity when a valid bearer token is
// present and lets anonymous requests through unchanged.
func (m *authRoleImpl) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(constant.RequestHeaderAuthorization)
		if header == "" {
			next.ServeHTTP(w, r)

			return
		}

		ctx, err := m.identify(r.Context(), header)
		if err != nil {
			log.Debug().Err(err).Str("reason", rejection(err)).Msg("ignoring invalid optional token")

			next.ServeHTTP(w, r)

			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RBAC must run after Auth. An endpoint listed without roles is open to any
// authenticated caller, an endpoint missing from the table is denied.
func (m *authRoleImpl) RBAC(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if internalCall(ctx) || (m.permission != nil && m.permission.Skip) {
			next.ServeHTTP(w, r)

			return
		}

		_, scope := m.otel.NewScope(ctx, constant.OtelHandlerScopeName, "rbac.middleware")

		if m.permission == nil {
			reject(w, scope, failure.ForbiddenError)

			return
		}

		pattern, permission, found := m.route(r)
		role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

		if !found {
			log.Warn().Str("method", r.Method).Str("path", pattern).Msg("no permission rule for route")
			reject(w, scope, failure.ForbiddenError)

			return
		}

		if !permission.Skip && len(permission.Permissions) > 0 && !slices.Contains(permission.Permissions, role) {
			scope.SetAttributes(map[string]any{
				"user_role":     role,
				"allowed_roles": permission.Permissions,
			})
			reject(w, scope, failure.ForbiddenError)

			return
		}

		scope.End()
		next.ServeHTTP(w, r)
	})
}

// APIKey lets internal services bypass token auth. Requests without the
// header continue as ordinary clients.
func (m *authRoleImpl) APIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(constant.RequestHeaderAPIKey)
		if key == "" {
			next.ServeHTTP(w, r)

			return
		}

		_, scope := m.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, "api_key.middleware")
		scope.SetAttribute("http.source", "internal")

		expected := m.cfg.App.APIKey
		if expected == "" || subtle.ConstantTimeCompare([]byte(key), []byte(expected)) != 1 {
			reject(w, scope, failure.ForbiddenError)

			return
		}

		scope.End()

		ctx := context.WithValue(r.Context(), internalCallKey{}, true)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
