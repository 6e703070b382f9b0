package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "armazem/internal/log"
	"armazem/internal/services"
	"armazem/internal/validate"
)

type CartHandler struct {
	Carts *services.CartService
	Auth  *services.AuthService
}

type createCartRequest struct {
	Password string `json:"password"`
	Type     string `json:"type"`
}

// Create opens a new cart. The credential may be the shared password or a
// still-valid token, so a logged-in session keeps working.
func (h *CartHandler) Create(c *fiber.Ctx) error {
	var req createCartRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request format"})
	}
	if !h.Auth.Authorize(req.Password) {
		applog.Security(c, "cars.create.denied", nil)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "incorrect password"})
	}
	cart, err := h.Carts.Create(req.Type)
	if err != nil {
		if errors.Is(err, services.ErrBadCartType) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		applog.Error(c, "cars.create", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not create cart"})
	}
	applog.Audit(c, "cars.create", map[string]any{"id_car": cart.ID, "type": cart.Type})
	return c.Status(fiber.StatusCreated).JSON(cart)
}

func (h *CartHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.CartID(c.Query("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cart id is required"})
	}
	cart, err := h.Carts.Get(id)
	if errors.Is(err, services.ErrCartNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "cart not found"})
	}
	if err != nil {
		applog.Error(c, "cars.get", err, map[string]any{"id_car": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load cart"})
	}
	return c.JSON(cart)
}

func (h *CartHandler) All(c *fiber.Ctx) error {
	carts, err := h.Carts.All()
	if err != nil {
		applog.Error(c, "cars.list", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load carts"})
	}
	return c.JSON(carts)
}
