package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "armazem/internal/log"
	"armazem/internal/services"
)

type SearchHandler struct {
	Catalog *services.CatalogService
	Donors  *services.DonorService
}

type searchResponse struct {
	Results any `json:"results"`
	Count   int `json:"count"`
}

// Products searches the catalog by id or name substring; an id fragment wins
// when both are present.
func (h *SearchHandler) Products(c *fiber.Ctx) error {
	idQ := strings.TrimSpace(c.Query("id"))
	nameQ := strings.TrimSpace(c.Query("name"))
	if idQ == "" && nameQ == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "search parameter 'name' or 'id' is required"})
	}
	products, err := h.Catalog.Search(idQ, nameQ)
	if err != nil {
		applog.Error(c, "search.products", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "search failed"})
	}
	return c.JSON(searchResponse{Results: products, Count: len(products)})
}

func (h *SearchHandler) DonorsSearch(c *fiber.Ctx) error {
	idQ := strings.TrimSpace(c.Query("id"))
	nameQ := strings.TrimSpace(c.Query("name"))
	if idQ == "" && nameQ == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "search parameter 'name' or 'id' is required"})
	}
	donors, err := h.Donors.Search(idQ, nameQ)
	if err != nil {
		applog.Error(c, "search.donors", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "search failed"})
	}
	return c.JSON(searchResponse{Results: donors, Count: len(donors)})
}
