package middleware

import (
	"errors"
	"log"
	"strings"

	"taskapi/internal/services"

	"github.com/gofiber/fiber/v2"
)

const claimsKey = "auth_claims"

// UnauthenticatedMessage is returned for every rejected bearer token.
const UnauthenticatedMessage = "Unauthenticated."

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return unauthenticated(c)
		}

		claims, err := authService.ValidateToken(c.UserContext(), parts[1])
		if err != nil {
			if errors.Is(err, services.ErrUnauthenticated) {
				return unauthenticated(c)
			}
			return err
		}

		// Store claims in Fiber context for subsequent handlers
		c.Locals(claimsKey, claims)

		// Continue to the next handler
		return c.Next()
	}
}

// Claims returns the claims stored by AuthRequired, or nil on public routes.
func Claims(c *fiber.Ctx) *services.TokenClaims {
	claims, _ := c.Locals(claimsKey).(*services.TokenClaims)
	return claims
}

func unauthenticated(c *fiber.Ctx) error {
	log.Printf("Rejected unauthenticated %s %s", c.Method(), c.Path())
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"status":  false,
		"message": UnauthenticatedMessage,
	})
}
