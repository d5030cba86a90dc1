package forecast

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	gateway "github.com/umkm-labs/warung/apigateway"
	"github.com/umkm-labs/warung/apperr"
	"github.com/umkm-labs/warung/fields"
)

// GetForecast serves ?days=&goods_id= forecasts.
func (s *Service) GetForecast(c *fiber.Ctx) error {
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}
	days := c.QueryInt("days", DefaultHorizonDays)
	if days < 1 || days > MaxHorizonDays {
		return apperr.WithFields(apperr.WithMessage(apperr.ErrBadRequest, "days must be between 1 and 30"), map[string]any{"days": days})
	}
	goodsID := uuid.Nil
	if v := c.Query("goods_id"); v != "" {
		if goodsID, err = uuid.Parse(v); err != nil {
			return apperr.WithFields(apperr.WithMessage(apperr.ErrBadRequest, "invalid goods_id"), map[string]any{"goods_id": "uuid"})
		}
	}
	data, err := s.Forecast(c.UserContext(), userID, goodsID, days)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": data})
}

func (s *Service) ListRestock(c *fiber.Ctx) error {
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}
	items, err := s.Store.ListRestock(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": items})
}

func (s *Service) GetRestock(c *fiber.Ctx) error {
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}
	goodsID, err := gateway.UUIDParam(c, "goods_id")
	if err != nil {
		return err
	}
	item, err := s.Store.GetRestockByGoods(c.UserContext(), userID, goodsID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": item})
}

func (s *Service) CreateRestock(c *fiber.Ctx) error {
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}
	var req fields.RestockInferenceCreate
	if err := gateway.BindJSON(c, &req); err != nil {
		return err
	}
	item, err := s.Store.CreateRestock(c.UserContext(), userID, req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"message": "Restock inference created successfully", "data": item})
}

func (s *Service) UpdateRestock(c *fiber.Ctx) error {
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}
	goodsID, err := gateway.UUIDParam(c, "goods_id")
	if err != nil {
		return err
	}
	var req fields.RestockInferenceUpdate
	if err := gateway.BindJSON(c, &req); err != nil {
		return err
	}
	item, err := s.Store.UpdateRestock(c.UserContext(), userID, goodsID, req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Restock inference updated successfully", "data": item})
}

func (s *Service) DeleteRestock(c *fiber.Ctx) error {
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}
	goodsID, err := gateway.UUIDParam(c, "goods_id")
	if err != nil {
		return err
	}
	item, err := s.Store.DeleteRestock(c.UserContext(), userID, goodsID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Restock inference deleted successfully", "data": item})
}

// RefreshRestock recomputes the caller's restock inferences now.
func (s *Service) RefreshRestock(c *fiber.Ctx) error {
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}
	n, err := s.RefreshUser(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Restock inferences refreshed", "updated": n})
}

// Routes mounts /forecast and /restock under r.
func (s *Service) Routes(r fiber.Router) {
	r.Get("/forecast", s.GetForecast)

	restock := r.Group("/restock")
	restock.Get("/", s.ListRestock)
	restock.Post("/", s.CreateRestock)
	restock.Post("/refresh", s.RefreshRestock)
	restock.Get("/:goods_id", s.GetRestock)
	restock.Put("/:goods_id", s.UpdateRestock)
	restock.Delete("/:goods_id", s.DeleteRestock)
}
