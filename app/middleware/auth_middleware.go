// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/skanfy/qr-backend/app/dto"
	"github.com/skanfy/qr-backend/app/services"
	businessflow "github.com/skanfy/qr-backend/business_flow"
)

// AuthMiddleware handles JWT token validation for protected endpoints
type AuthMiddleware struct {
	tokenService services.TokenService
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokenService services.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
	}
}

// Authenticate validates a user JWT and stores the user id in request locals
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, errResp := m.extractBearerToken(c)
		if errResp != nil {
			return errResp
		}

		claims, err := m.tokenService.ValidateToken(token)
		if err != nil {
			return m.tokenError(c, err)
		}

		// Only access tokens may be used for API authentication
		if claims.TokenType != "access" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Invalid token type. Access token required",
				Error: dto.ErrorDetail{
					Code: "INVALID_TOKEN_TYPE",
				},
			})
		}

		// Store user information in context for use by handlers
		c.Locals("user_id", claims.UserID)
		c.Locals("token_id", claims.TokenID)
		c.Locals("token_claims", claims)

		return c.Next()
	}
}

// AdminAuthenticate validates an admin JWT and stores the admin id in request locals
func (m *AuthMiddleware) AdminAuthenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, errResp := m.extractBearerToken(c)
		if errResp != nil {
			return errResp
		}

		claims, err := m.tokenService.ValidateAdminToken(token)
		if err != nil {
			return m.tokenError(c, err)
		}

		if claims.TokenType != "access" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Invalid token type. Access token required",
				Error: dto.ErrorDetail{
					Code: "INVALID_TOKEN_TYPE",
				},
			})
		}

		c.Locals("admin_id", claims.AdminID)
		c.Locals("token_id", claims.TokenID)
		c.Locals("token_claims", claims)

		return c.Next()
	}
}

// OptionalAuth tries to authenticate as user or admin but doesn't fail if no
// token is provided. Scan endpoints use this so anonymous visitors and owners
// share one route.
func (m *AuthMiddleware) OptionalAuth() fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Next()
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			return c.Next()
		}

		if claims, err := m.tokenService.ValidateToken(token); err == nil && claims.TokenType == "access" {
			c.Locals("user_id", claims.UserID)
			c.Locals("token_id", claims.TokenID)
			c.Locals("token_claims", claims)
			return c.Next()
		}

		if claims, err := m.tokenService.ValidateAdminToken(token); err == nil && claims.TokenType == "access" {
			c.Locals("admin_id", claims.AdminID)
			c.Locals("token_id", claims.TokenID)
			c.Locals("token_claims", claims)
		}

		// Invalid tokens are ignored, the request proceeds anonymously
		return c.Next()
	}
}

func (m *AuthMiddleware) extractBearerToken(c fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
			Success: false,
			Message: "Authorization header is required",
			Error: dto.ErrorDetail{
				Code: "MISSING_AUTHORIZATION_HEADER",
			},
		})
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
			Success: false,
			Message: "Invalid authorization header format. Expected 'Bearer <token>'",
			Error: dto.ErrorDetail{
				Code: "INVALID_AUTHORIZATION_FORMAT",
			},
		})
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
			Success: false,
			Message: "Access token is required",
			Error: dto.ErrorDetail{
				Code: "MISSING_ACCESS_TOKEN",
			},
		})
	}

	return token, nil
}

func (m *AuthMiddleware) tokenError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrTokenExpired):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
			Success: false,
			Message: "Access token has expired",
			Error: dto.ErrorDetail{
				Code: "TOKEN_EXPIRED",
			},
		})
	case errors.Is(err, services.ErrTokenRevoked):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
			Success: false,
			Message: "Access token has been revoked",
			Error: dto.ErrorDetail{
				Code: "TOKEN_REVOKED",
			},
		})
	default:
		return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
			Success: false,
			Message: "Invalid access token",
			Error: dto.ErrorDetail{
				Code: "INVALID_ACCESS_TOKEN",
			},
		})
	}
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(c fiber.Ctx) (uint, bool) {
	userID, ok := c.Locals("user_id").(uint)
	return userID, ok
}

// GetAdminIDFromContext extracts the admin ID from the request context
func GetAdminIDFromContext(c fiber.Ctx) (uint, bool) {
	adminID, ok := c.Locals("admin_id").(uint)
	return adminID, ok
}

// GetTokenIDFromContext extracts the token ID from the request context
func GetTokenIDFromContext(c fiber.Ctx) (string, bool) {
	tokenID, ok := c.Locals("token_id").(string)
	return tokenID, ok
}

// PrincipalFromContext builds the acting principal from request locals, or
// nil for anonymous requests.
func PrincipalFromContext(c fiber.Ctx) *businessflow.Principal {
	if adminID, ok := GetAdminIDFromContext(c); ok {
		return &businessflow.Principal{Kind: businessflow.PrincipalAdmin, ID: adminID}
	}
	if userID, ok := GetUserIDFromContext(c); ok {
		return &businessflow.Principal{Kind: businessflow.PrincipalUser, ID: userID}
	}
	return nil
}
