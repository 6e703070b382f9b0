package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "armazem/internal/log"
	"armazem/internal/repos"
	"armazem/internal/services"
	"armazem/internal/validate"
)

type DonorHandler struct {
	Donors *services.DonorService
}

type donorRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *DonorHandler) List(c *fiber.Ctx) error {
	donors, err := h.Donors.All()
	if err != nil {
		applog.Error(c, "donors.list", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load donors"})
	}
	return c.JSON(donors)
}

func (h *DonorHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid donor id"})
	}
	d, err := h.Donors.Get(id)
	if errors.Is(err, repos.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "donor not found"})
	}
	if err != nil {
		applog.Error(c, "donors.get", err, map[string]any{"id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load donor"})
	}
	return c.JSON(d)
}

func (h *DonorHandler) Create(c *fiber.Ctx) error {
	var req donorRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request format"})
	}
	id, ok := validate.ID(req.ID)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid donor id"})
	}
	name, ok := validate.Name(req.Name)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid donor name"})
	}
	if err := h.Donors.Create(id, name); err != nil {
		applog.Error(c, "donors.create", err, map[string]any{"id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not create donor"})
	}
	applog.Audit(c, "donors.create", map[string]any{"id": id})
	return c.SendStatus(fiber.StatusCreated)
}

func (h *DonorHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid donor id"})
	}
	var req donorRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request format"})
	}
	name, ok := validate.Name(req.Name)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid donor name"})
	}
	err := h.Donors.Update(id, name)
	if errors.Is(err, repos.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "donor not found"})
	}
	if err != nil {
		applog.Error(c, "donors.update", err, map[string]any{"id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not update donor"})
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *DonorHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid donor id"})
	}
	if err := h.Donors.Delete(id); err != nil {
		applog.Error(c, "donors.delete", err, map[string]any{"id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not delete donor"})
	}
	applog.Audit(c, "donors.delete", map[string]any{"id": id})
	return c.SendStatus(fiber.StatusOK)
}
