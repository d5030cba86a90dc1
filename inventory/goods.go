package inventory

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	gateway "github.com/umkm-labs/warung/apigateway"
	"github.com/umkm-labs/warung/apperr"
	"github.com/umkm-labs/warung/fields"
	"github.com/umkm-labs/warung/store"
)

func (s *Service) ListGoods(c *fiber.Ctx) error {
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}
	page, limit := store.NormalizePage(c.QueryInt("page", 1), c.QueryInt("limit", store.DefaultPageLimit))
	items, total, err := s.Store.ListGoods(c.UserContext(), userID, page, limit, c.Query("q"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fields.ListResponse[fields.Goods]{Data: items, Total: total, Page: page, Limit: limit})
}

func (s *Service) GetGoods(c *fiber.Ctx) error {
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}
	goodsID, err := gateway.UUIDParam(c, "id")
	if err != nil {
		return err
	}
	detail, err := s.Store.GetGoodsWithSales(c.UserContext(), userID, goodsID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": detail})
}

func (s *Service) CreateGoods(c *fiber.Ctx) error {
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}
	var req fields.GoodsCreate
	if err := gateway.BindJSON(c, &req); err != nil {
		return err
	}
	goods, err := s.Store.CreateGoods(c.UserContext(), userID, req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"message": "Goods created successfully", "data": goods})
}

func (s *Service) UpdateGoods(c *fiber.Ctx) error {
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}
	goodsID, err := gateway.UUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req fields.GoodsUpdate
	if err := gateway.BindJSON(c, &req); err != nil {
		return err
	}
	if req.Empty() {
		return apperr.WithMessage(apperr.ErrBadRequest, "no fields to update")
	}
	goods, err := s.Store.UpdateGoods(c.UserContext(), userID, goodsID, req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Goods updated successfully", "data": goods})
}

func (s *Service) DeleteGoods(c *fiber.Ctx) error {
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}
	goodsID, err := gateway.UUIDParam(c, "id")
	if err != nil {
		return err
	}
	goods, err := s.Store.DeleteGoods(c.UserContext(), userID, goodsID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Goods deleted successfully", "data": goods})
}
