// Package inventory serves the goods and sales endpoints.
package inventory

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	gateway "github.com/umkm-labs/warung/apigateway"
	"github.com/umkm-labs/warung/fields"
	"github.com/umkm-labs/warung/store"
)

// Store is the data access the handlers need.
type Store interface {
	ListGoods(ctx context.Context, userID uuid.UUID, page, limit int, q string) ([]fields.Goods, int, error)
	GetGoodsWithSales(ctx context.Context, userID, goodsID uuid.UUID) (*fields.GoodsDetail, error)
	CreateGoods(ctx context.Context, userID uuid.UUID, in fields.GoodsCreate) (*fields.Goods, error)
	UpdateGoods(ctx context.Context, userID, goodsID uuid.UUID, in fields.GoodsUpdate) (*fields.Goods, error)
	DeleteGoods(ctx context.Context, userID, goodsID uuid.UUID) (*fields.Goods, error)

	ListSales(ctx context.Context, userID uuid.UUID, page, limit int, q string) ([]fields.Sales, int, error)
	FilterSales(ctx context.Context, userID uuid.UUID, f store.SalesFilter) ([]fields.Sales, int, error)
	GetSales(ctx context.Context, userID, salesID uuid.UUID) (*fields.Sales, error)
	CreateSales(ctx context.Context, userID uuid.UUID, in fields.SalesCreate) (*fields.Sales, error)
	UpdateSales(ctx context.Context, userID, salesID uuid.UUID, in fields.SalesUpdate) (*fields.Sales, error)
	DeleteSales(ctx context.Context, userID, salesID uuid.UUID) (*fields.Sales, error)
}

type Service struct {
	Store   Store
	Logger  *logrus.Logger
	Metrics *Metrics
}

// Metrics counts recorded sales and the units they moved.
type Metrics struct {
	SalesRecorded prometheus.Counter
	UnitsSold     prometheus.Counter
	StockRejected prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	vec := gateway.RegisterCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "warung",
		Subsystem: "sales",
		Name:      "events_total",
		Help:      "Sales events by kind",
	}, []string{"kind"}))
	return &Metrics{
		SalesRecorded: vec.WithLabelValues("recorded"),
		UnitsSold:     vec.WithLabelValues("units"),
		StockRejected: vec.WithLabelValues("insufficient_stock"),
	}
}

// Routes mounts goods and sales endpoints on r.
func (s *Service) Routes(r fiber.Router) {
	goods := r.Group("/goods")
	goods.Get("/", s.ListGoods)
	goods.Post("/", s.CreateGoods)
	goods.Get("/:id", s.GetGoods)
	goods.Put("/:id", s.UpdateGoods)
	goods.Delete("/:id", s.DeleteGoods)

	sales := r.Group("/sales")
	sales.Get("/", s.ListSales)
	sales.Post("/", s.CreateSales)
	sales.Get("/filter", s.FilterSales)
	sales.Get("/:id", s.GetSales)
	sales.Put("/:id", s.UpdateSales)
	sales.Delete("/:id", s.DeleteSales)
}

// LegacyRoutes serves the sales filter at its old unprefixed path,
// /sales/filter/, behind auth.
func (s *Service) LegacyRoutes(r fiber.Router, auth fiber.Handler) {
	r.Get("/sales/filter", auth, s.FilterSales)
}
