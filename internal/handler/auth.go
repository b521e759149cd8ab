package handler

import (
	"github.com/Zytronium/star-trek-battle-sim/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authSvc *service.GuestAuthService
}

func NewAuthHandler(authSvc *service.GuestAuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Guest issues an anonymous signed ticket for the websocket upgrade.
func (h *AuthHandler) Guest(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	// Body is optional; an empty name gets a generated one.
	_ = c.BodyParser(&req)

	guestID, token, err := h.authSvc.IssueGuestToken(req.Name)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to issue guest token"})
	}

	return c.Status(201).JSON(fiber.Map{
		"guest_id": guestID,
		"token":    token,
	})
}
