package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "armazem/internal/log"
	"armazem/internal/services"
)

func bearerToken(c *fiber.Ctx) string {
	parts := strings.SplitN(c.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// RequireToken guards admin routes: a valid bearer token or nothing.
func RequireToken(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := bearerToken(c)
		if tok == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication token not provided"})
		}
		if _, err := auth.VerifyToken(tok); err != nil {
			applog.Security(c, "access.denied", map[string]any{"reason": err.Error()})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}
		return c.Next()
	}
}
