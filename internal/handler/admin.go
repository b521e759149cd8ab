package handler

import (
	"github.com/Zytronium/star-trek-battle-sim/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	games *service.GameService
	rooms *service.RoomService
	hub   *service.WSHub
}

func NewAdminHandler(games *service.GameService, rooms *service.RoomService, hub *service.WSHub) *AdminHandler {
	return &AdminHandler{games: games, rooms: rooms, hub: hub}
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"active_games":  h.games.ActiveCount(),
		"waiting_rooms": h.rooms.OpenCount(),
		"online":        h.hub.OnlineCount(),
	})
}
