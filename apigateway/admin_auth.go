package gateway

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/umkm-labs/warung/apperr"
)

const headerAdminKey = "X-Admin-Key"

var errAdminNotConfigured = apperr.New("admin_auth_not_configured", fiber.StatusServiceUnavailable, "admin auth not configured")

// AdminAuthConfig controls access to operational endpoints such as /metrics.
type AdminAuthConfig struct {
	Key string
}

// RequireAdmin accepts the admin key from X-Admin-Key or as a bearer token,
// the form prometheus scrapers send.
func RequireAdmin(cfg AdminAuthConfig) fiber.Handler {
	want := []byte(cfg.Key)
	return func(c *fiber.Ctx) error {
		if len(want) == 0 {
			return errAdminNotConfigured
		}
		got := strings.TrimSpace(c.Get(headerAdminKey))
		if got == "" {
			got = bearerToken(c.Get(fiber.HeaderAuthorization))
		}
		if got == "" || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			return apperr.WithMessage(apperr.ErrUnauthorized, "admin key required")
		}
		return c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
