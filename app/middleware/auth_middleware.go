// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"errors"
	"strings"

	"github.com/amirphl/order-relay/app/dto"
	"github.com/amirphl/order-relay/app/services"
	"github.com/gofiber/fiber/v3"
)

// AuthMiddleware guards the tenant administration endpoints with admin JWTs
type AuthMiddleware struct {
	tokenService services.TokenService
}

// NewAuthMiddleware creates a new authentication middleware. A nil token
// service disables the check.
func NewAuthMiddleware(tokenService services.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
	}
}

// Enabled reports whether admin requests must carry a token
func (m *AuthMiddleware) Enabled() bool {
	return m != nil && m.tokenService != nil
}

// AdminAuthenticate validates the admin token sent as "Authorization: Bearer <token>"
// or as the token query parameter
func (m *AuthMiddleware) AdminAuthenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		if !m.Enabled() {
			return c.Next()
		}

		token, code, msg := bearerToken(c)
		if code != "" {
			return unauthorized(c, msg, code)
		}

		claims, err := m.tokenService.ValidateAdminToken(token)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTokenExpired):
				return unauthorized(c, "Access token has expired", "TOKEN_EXPIRED")
			case errors.Is(err, services.ErrTokenInvalid):
				return unauthorized(c, "Invalid access token", "TOKEN_INVALID")
			default:
				return unauthorized(c, "Token validation failed", "TOKEN_VALIDATION_FAILED")
			}
		}

		c.Locals("admin_subject", claims.Subject)
		c.Locals("token_id", claims.TokenID)
		c.Locals("token_claims", claims)

		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals("request_id", requestID)
		}

		return c.Next()
	}
}

func bearerToken(c fiber.Ctx) (token, code, msg string) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		if token = strings.TrimSpace(c.Query("token")); token != "" {
			return token, "", ""
		}
		return "", "MISSING_AUTHORIZATION_HEADER", "Authorization header is required"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "INVALID_AUTHORIZATION_FORMAT", "Invalid authorization header format. Expected 'Bearer <token>'"
	}
	token = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", "MISSING_ACCESS_TOKEN", "Access token is required"
	}
	return token, "", ""
}

func unauthorized(c fiber.Ctx, message, code string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error:   dto.ErrorDetail{Code: code},
	})
}

// GetAdminClaimsFromContext extracts the admin token claims set by AdminAuthenticate
func GetAdminClaimsFromContext(c fiber.Ctx) (*services.AdminTokenClaims, bool) {
	claims, ok := c.Locals("token_claims").(*services.AdminTokenClaims)
	return claims, ok
}
