package gateway

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const devOrigin = "http://localhost:8081"

// Cors allows the local frontend with credentials when devKey is "dev",
// otherwise any origin without credentials.
func Cors(devKey string) fiber.Handler {
	cfg := cors.Config{
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:  "Authorization, Origin, Content-Type, Accept, X-Request-ID, X-Admin-Key",
		ExposeHeaders: RequestIDHeader,
	}
	if devKey == "dev" {
		cfg.AllowOrigins = devOrigin
		cfg.AllowCredentials = true
	} else {
		cfg.AllowOrigins = "*"
	}
	return cors.New(cfg)
}
