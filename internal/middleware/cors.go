package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS allows the browser front-end to reach the catalog API and the
// websocket upgrade from any origin. The game carries no credentials over
// HTTP; slot tokens only travel inside socket messages.
func CORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,X-Admin-Key",
	})
}
