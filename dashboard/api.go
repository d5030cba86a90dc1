package dashboard

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	gateway "github.com/umkm-labs/warung/apigateway"
	"github.com/umkm-labs/warung/apperr"
	"github.com/umkm-labs/warung/fields"
	"github.com/umkm-labs/warung/store"
)

// Summary returns goods and sales totals over the last ?days= days.
func (s Service) Summary(c *fiber.Ctx) error {
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}
	days := c.QueryInt("days", defaultDays)
	if days < 1 || days > maxDays {
		return apperr.WithFields(apperr.WithMessage(apperr.ErrBadRequest, "days must be between 1 and 365"), map[string]any{"days": days})
	}
	since := s.now().AddDate(0, 0, -days)
	summary, err := s.Store.Summary(c.UserContext(), userID, since, s.threshold())
	if err != nil {
		return err
	}
	summary.Days = days
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": summary})
}

// LowStock pages through goods at or below the low stock threshold.
func (s Service) LowStock(c *fiber.Ctx) error {
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}
	page, limit := store.NormalizePage(c.QueryInt("page", 1), c.QueryInt("limit", store.DefaultPageLimit))
	items, total, err := s.Store.ListLowStock(c.UserContext(), userID, s.threshold(), limit, int(s.calculateOffset(page, limit)))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fields.ListResponse[fields.Goods]{Data: items, Total: total, Page: page, Limit: limit})
}

// Routes mounts the dashboard endpoints on r.
func (s Service) Routes(r fiber.Router) {
	r.Get("/summary", s.Summary)
	r.Get("/low-stock", s.LowStock)
}
