package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/benedict-erwin/detection-reporter/internal/constants"
	"github.com/benedict-erwin/detection-reporter/pkg/auth"
	"github.com/benedict-erwin/detection-reporter/pkg/logger"
	"github.com/benedict-erwin/detection-reporter/pkg/response"
)

type contextKey string

const (
	SubjectKey     contextKey = "subject"
	PermissionsKey contextKey = "permissions"
)

// JWTAuthMiddleware creates JWT authentication middleware with required permission
func JWTAuthMiddleware(requiredPermission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Setup logger scope
			log := logger.WithScope("JWTAuthMiddleware")

			// Check if auth is enabled
			if !auth.Enabled() {
				log.Debug().
					Str("path", c.Request().URL.Path).
					Str("method", c.Request().Method).
					Msg("Auth disabled, skipping JWT authentication")
				return next(c)
			}

			// Extract Bearer token from Authorization header
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn().
					Str("path", c.Request().URL.Path).
					Str("method", c.Request().Method).
					Msg("Missing Authorization header")
				return response.FailWithCode(c, constants.CodeMissingAuth)
			}

			// Check Bearer prefix
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn().
					Str("path", c.Request().URL.Path).
					Str("method", c.Request().Method).
					Msg("Invalid Authorization header format")
				return response.FailWithCode(c, constants.CodeInvalidToken)
			}

			// Extract token
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == "" {
				log.Warn().
					Str("path", c.Request().URL.Path).
					Str("method", c.Request().Method).
					Msg("Empty bearer token")
				return response.FailWithCode(c, constants.CodeInvalidToken)
			}

			// Verify JWT token
			claims, err := auth.VerifyJWT(tokenString)
			if err != nil {
				log.Warn().
					Err(err).
					Str("path", c.Request().URL.Path).
					Str("method", c.Request().Method).
					Msg("JWT verification failed")
				return response.FailWithCode(c, constants.CodeInvalidToken)
			}

			// Check required permission against token claims
			if requiredPermission != "" && !auth.HasPermission(claims, requiredPermission) {
				log.Warn().
					Str("subject", claims.Subject).
					Str("required_permission", requiredPermission).
					Strs("token_permissions", claims.Permissions).
					Str("path", c.Request().URL.Path).
					Str("method", c.Request().Method).
					Msg("Insufficient permissions")
				return response.FailWithCode(c, constants.CodeInsufficientPerms)
			}

			// Set auth context for handlers
			ctx := context.WithValue(c.Request().Context(), SubjectKey, claims.Subject)
			ctx = context.WithValue(ctx, PermissionsKey, claims.Permissions)
			c.SetRequest(c.Request().WithContext(ctx))

			log.Info().
				Str("subject", claims.Subject).
				Str("required_permission", requiredPermission).
				Str("path", c.Request().URL.Path).
				Str("method", c.Request().Method).
				Msg("Authentication successful")

			return next(c)
		}
	}
}

// GetSubject extracts the authenticated subject from request context
func GetSubject(c echo.Context) string {
	if subject, ok := c.Request().Context().Value(SubjectKey).(string); ok {
		return subject
	}
	return ""
}

// GetPermissions extracts permissions from request context
func GetPermissions(c echo.Context) []string {
	if permissions, ok := c.Request().Context().Value(PermissionsKey).([]string); ok {
		return permissions
	}
	return []string{}
}
