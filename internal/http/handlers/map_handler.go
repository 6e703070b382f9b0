package handlers

import (
	"io"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	applog "armazem/internal/log"
)

// MapHandler serves and replaces the warehouse floor-plan image products are
// positioned on.
type MapHandler struct {
	Path string
}

func (h *MapHandler) Get(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"path": h.Path})
}

func (h *MapHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("mapa")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "could not read file"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "could not read file"})
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(h.Path), 0o755); err != nil {
		applog.Error(c, "map.upload", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not store file"})
	}
	dst, err := os.Create(h.Path)
	if err != nil {
		applog.Error(c, "map.upload", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not store file"})
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		applog.Error(c, "map.upload", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not store file"})
	}

	applog.Audit(c, "map.upload", map[string]any{"size": fh.Size})
	return c.JSON(fiber.Map{"path": h.Path})
}
