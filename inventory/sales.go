package inventory

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	gateway "github.com/umkm-labs/warung/apigateway"
	"github.com/umkm-labs/warung/apperr"
	"github.com/umkm-labs/warung/fields"
	"github.com/umkm-labs/warung/store"
)

func (s *Service) ListSales(c *fiber.Ctx) error {
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}
	page, limit := store.NormalizePage(c.QueryInt("page", 1), c.QueryInt("limit", store.DefaultPageLimit))
	items, total, err := s.Store.ListSales(c.UserContext(), userID, page, limit, c.Query("q"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fields.ListResponse[fields.Sales]{Data: items, Total: total, Page: page, Limit: limit})
}

// FilterSales matches ?goods_name= and an inclusive ?datestart=&dateend= range.
// A bare dateend covers the whole day.
func (s *Service) FilterSales(c *fiber.Ctx) error {
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}
	page, limit := store.NormalizePage(c.QueryInt("page", 1), c.QueryInt("limit", store.MaxPageLimit))
	f := store.SalesFilter{GoodsName: c.Query("goods_name"), Page: page, Limit: limit}
	if v := c.Query("datestart"); v != "" {
		if f.Start, err = fields.ParseDate(v); err != nil {
			return apperr.WithFields(apperr.WithMessage(apperr.ErrBadRequest, err.Error()), map[string]any{"datestart": "iso_date"})
		}
	}
	if v := c.Query("dateend"); v != "" {
		if f.End, err = fields.ParseDate(v); err != nil {
			return apperr.WithFields(apperr.WithMessage(apperr.ErrBadRequest, err.Error()), map[string]any{"dateend": "iso_date"})
		}
		if len(v) == len(fields.DateLayout) {
			f.End = f.End.Add(24*time.Hour - time.Nanosecond)
		}
	}
	if !f.Start.IsZero() && !f.End.IsZero() && f.End.Before(f.Start) {
		return apperr.WithMessage(apperr.ErrBadRequest, "dateend is before datestart")
	}
	items, total, err := s.Store.FilterSales(c.UserContext(), userID, f)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fields.ListResponse[fields.Sales]{Data: items, Total: total, Page: page, Limit: limit})
}

func (s *Service) GetSales(c *fiber.Ctx) error {
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}
	salesID, err := gateway.UUIDParam(c, "id")
	if err != nil {
		return err
	}
	sale, err := s.Store.GetSales(c.UserContext(), userID, salesID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": sale})
}

func (s *Service) CreateSales(c *fiber.Ctx) error {
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}
	var req fields.SalesCreate
	if err := gateway.BindJSON(c, &req); err != nil {
		return err
	}
	sale, err := s.Store.CreateSales(c.UserContext(), userID, req)
	if err != nil {
		s.observeRejection(err)
		return err
	}
	if s.Metrics != nil {
		s.Metrics.SalesRecorded.Inc()
		s.Metrics.UnitsSold.Add(float64(sale.Quantity))
	}
	s.Logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"goods_id": sale.GoodsID,
		"quantity": sale.Quantity,
	}).Info("sale recorded")
	return c.Status(http.StatusCreated).JSON(fiber.Map{"message": "Sales created successfully", "data": sale})
}

func (s *Service) UpdateSales(c *fiber.Ctx) error {
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}
	salesID, err := gateway.UUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req fields.SalesUpdate
	if err := gateway.BindJSON(c, &req); err != nil {
		return err
	}
	if req.Quantity == nil && req.SaleDate == nil {
		return apperr.WithMessage(apperr.ErrBadRequest, "no fields to update")
	}
	sale, err := s.Store.UpdateSales(c.UserContext(), userID, salesID, req)
	if err != nil {
		s.observeRejection(err)
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Sales updated successfully", "data": sale})
}

func (s *Service) DeleteSales(c *fiber.Ctx) error {
	userID, err := gateway.UserID(c)
	if err != nil {
		return err
	}
	salesID, err := gateway.UUIDParam(c, "id")
	if err != nil {
		return err
	}
	sale, err := s.Store.DeleteSales(c.UserContext(), userID, salesID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Sales deleted successfully", "data": sale})
}

func (s *Service) observeRejection(err error) {
	if s.Metrics != nil && errors.Is(err, apperr.ErrInsufficientStock) {
		s.Metrics.StockRejected.Inc()
	}
}
