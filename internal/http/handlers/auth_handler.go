package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	applog "armazem/internal/log"
	"armazem/internal/services"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// Login exchanges the shared password for a short-lived token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request format"})
	}
	token, expiresAt, err := h.Auth.Login(req.Password)
	if err != nil {
		if errors.Is(err, services.ErrBadPassword) {
			applog.Security(c, "auth.login.fail", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid password"})
		}
		applog.Error(c, "auth.login", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "error generating token"})
	}
	applog.Audit(c, "auth.login.success", nil)
	return c.JSON(loginResponse{Token: token, ExpiresAt: expiresAt})
}

// Status reports whether the presented token is still valid.
func (h *AuthHandler) Status(c *fiber.Ctx) error {
	tok := bearerToken(c)
	if tok == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication token not provided"})
	}
	claims, err := h.Auth.VerifyToken(tok)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}
	return c.JSON(fiber.Map{
		"logged_in":  true,
		"expires_at": strconv.FormatInt(claims.ExpiresAt.Unix(), 10),
	})
}
