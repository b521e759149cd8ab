package handler

import (
	"errors"

	"github.com/Zytronium/star-trek-battle-sim/internal/repository"
	"github.com/Zytronium/star-trek-battle-sim/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CatalogHandler exposes the read-only ship/weapon/defense reference data.
type CatalogHandler struct {
	catalog *service.CatalogService
}

func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) ListShips(c *fiber.Ctx) error {
	ships, err := h.catalog.ListShips(c.Context())
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(ships)
}

func (h *CatalogHandler) ListShipsFull(c *fiber.Ctx) error {
	ships, err := h.catalog.ListShipsFull(c.Context())
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(ships)
}

func (h *CatalogHandler) ListBosses(c *fiber.Ctx) error {
	bosses, err := h.catalog.ListBosses(c.Context())
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(bosses)
}

func (h *CatalogHandler) GetShip(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "ship id must be a non-negative number"})
	}
	ship, err := h.catalog.GetShipByID(c.Context(), id)
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(ship)
}

func (h *CatalogHandler) GetShipFull(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "ship id must be a non-negative number"})
	}
	tpl, err := h.catalog.GetShipFullByID(c.Context(), id)
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(tpl)
}

func (h *CatalogHandler) GetWeapon(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "weapon id must be a non-negative number"})
	}
	weapon, err := h.catalog.GetWeaponByID(c.Context(), id)
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(weapon)
}

func (h *CatalogHandler) GetDefense(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "defense id must be a non-negative number"})
	}
	defense, err := h.catalog.GetDefenseByID(c.Context(), id)
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(defense)
}

func catalogError(c *fiber.Ctx, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(500).JSON(fiber.Map{"error": "internal server error"})
}
