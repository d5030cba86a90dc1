// Package gateway holds the HTTP edge of the service: jwt auth, cors, request
// ids, request logging, instrumentation and error rendering.
package gateway

import (
	"crypto/rand"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/umkm-labs/warung/apperr"
)

const (
	localsUserID = "user_id"
	localsEmail  = "email"
)

var (
	errEmptyHeader  = apperr.New("unauthorized", fiber.StatusUnauthorized, "empty header was sent")
	errTokenExpired = apperr.New("jwt_expired", fiber.StatusUnauthorized, "Token has expired")
	errTokenBad     = apperr.New("jwt_malformed", fiber.StatusUnauthorized, "Malformed token")
)

// AuthMiddleware is a JWT authorization middleware. It accepts both
// "Authorization: Bearer <token>" and a bare token, and stores the user id and
// email in the request locals.
func (j *JWTAuth) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if h == "" {
			return errEmptyHeader
		}
		if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			h = strings.TrimSpace(h[7:])
		}

		claims, err := j.VerifyJWT(h)
		if err != nil {
			if isExpired(err) {
				return apperr.Wrap(err, errTokenExpired, "")
			}
			return apperr.Wrap(err, errTokenBad, "")
		}
		c.Locals(localsUserID, claims.UserID)
		c.Locals(localsEmail, claims.Email)
		return c.Next()
	}
}

// UserID returns the authenticated user id set by AuthMiddleware.
func UserID(c *fiber.Ctx) (uuid.UUID, error) {
	if v, ok := c.Locals(localsUserID).(uuid.UUID); ok && v != uuid.Nil {
		return v, nil
	}
	return uuid.Nil, apperr.WithMessage(apperr.ErrUnauthorized, "missing user")
}

// Email returns the authenticated user's email set by AuthMiddleware.
func Email(c *fiber.Ctx) string {
	if v, ok := c.Locals(localsEmail).(string); ok {
		return v
	}
	return ""
}

// GenerateSecretKey generates secret key for jwt signing
func GenerateSecretKey(n int) ([]byte, error) {
	key := make([]byte, n)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
