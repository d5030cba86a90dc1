package forecast

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/umkm-labs/warung/fields"
)

const lowestStockCount = 10

// Store is the data access forecasting needs.
type Store interface {
	GetGoods(ctx context.Context, userID, goodsID uuid.UUID) (*fields.Goods, error)
	LowestStockGoods(ctx context.Context, userID uuid.UUID, n int) ([]fields.Goods, error)
	AllGoods(ctx context.Context, userID uuid.UUID) ([]fields.Goods, error)
	SalesHistory(ctx context.Context, userID, goodsID uuid.UUID, since time.Time) ([]fields.Sales, error)
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)

	ListRestock(ctx context.Context, userID uuid.UUID) ([]fields.RestockInference, error)
	GetRestockByGoods(ctx context.Context, userID, goodsID uuid.UUID) (*fields.RestockInference, error)
	CreateRestock(ctx context.Context, userID uuid.UUID, in fields.RestockInferenceCreate) (*fields.RestockInference, error)
	UpsertRestock(ctx context.Context, userID, goodsID uuid.UUID, qty int, preds fields.JSONMap) (*fields.RestockInference, error)
	UpdateRestock(ctx context.Context, userID, goodsID uuid.UUID, in fields.RestockInferenceUpdate) (*fields.RestockInference, error)
	DeleteRestock(ctx context.Context, userID, goodsID uuid.UUID) (*fields.RestockInference, error)
}

type Service struct {
	Store       Store
	Forecaster  Forecaster
	Logger      *logrus.Logger
	HorizonDays int
	Now         func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) horizon() int {
	return ClampHorizon(s.HorizonDays)
}

// ForecastGoods builds the sales dataset of one goods and predicts days ahead.
// The series ends yesterday so a partially recorded today does not drag the
// level down.
func (s *Service) ForecastGoods(ctx context.Context, userID uuid.UUID, goods fields.Goods, days int) (fields.GoodsForecastData, error) {
	end := truncateDay(s.now()).AddDate(0, 0, -1)
	history, err := s.Store.SalesHistory(ctx, userID, goods.ID, s.Forecaster.Since(end))
	if err != nil {
		return fields.GoodsForecastData{}, err
	}
	series := s.Forecaster.DailySeries(history, end)
	out := fields.GoodsForecastData{
		ID:            goods.ID,
		Name:          goods.Name,
		Category:      goods.Category,
		Price:         goods.Price,
		StockQuantity: goods.StockQuantity,
		CreatedAt:     goods.CreatedAt,
		Sales:         series,
		Forecast:      []fields.ForecastItem{},
	}
	if items, ok := s.Forecaster.Predict(series, days); ok {
		out.IsForecasted = true
		out.Forecast = items
	}
	return out, nil
}

// Forecast predicts the goods with the lowest stock, or only goodsID when set.
func (s *Service) Forecast(ctx context.Context, userID, goodsID uuid.UUID, days int) ([]fields.GoodsForecastData, error) {
	var goods []fields.Goods
	if goodsID != uuid.Nil {
		g, err := s.Store.GetGoods(ctx, userID, goodsID)
		if err != nil {
			return nil, err
		}
		goods = []fields.Goods{*g}
	} else {
		var err error
		if goods, err = s.Store.LowestStockGoods(ctx, userID, lowestStockCount); err != nil {
			return nil, err
		}
	}
	out := make([]fields.GoodsForecastData, 0, len(goods))
	for _, g := range goods {
		data, err := s.ForecastGoods(ctx, userID, g, days)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

// RefreshUser recomputes the restock inference of every forecastable goods of
// the user and returns how many were written.
func (s *Service) RefreshUser(ctx context.Context, userID uuid.UUID) (int, error) {
	goods, err := s.Store.AllGoods(ctx, userID)
	if err != nil {
		return 0, err
	}
	horizon := s.horizon()
	written := 0
	for _, g := range goods {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		data, err := s.ForecastGoods(ctx, userID, g, horizon)
		if err != nil {
			return written, err
		}
		if !data.IsForecasted {
			continue
		}
		preds := fields.JSONMap{
			"horizon_days": horizon,
			"forecast":     data.Forecast,
		}
		if _, err := s.Store.UpsertRestock(ctx, userID, g.ID, RestockQuantity(data.Forecast, g.StockQuantity), preds); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// RefreshAll runs RefreshUser for every user owning goods. Failures of one
// user are logged and do not stop the others.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	ids, err := s.Store.ListUserIDs(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, id := range ids {
		n, err := s.RefreshUser(ctx, id)
		total += n
		if err != nil {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			s.Logger.WithError(err).WithField("user_id", id).Error("restock refresh failed")
		}
	}
	return total, nil
}
