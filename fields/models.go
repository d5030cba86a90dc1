package fields

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// User is an account owning goods, sales and restock inferences.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Goods is a single inventory item.
type Goods struct {
	ID            uuid.UUID `json:"id" db:"id"`
	UserID        uuid.UUID `json:"-" db:"user_id"`
	Name          string    `json:"name" db:"name"`
	Category      *string   `json:"category" db:"category"`
	Price         float64   `json:"price" db:"price"`
	StockQuantity int       `json:"stock_quantity" db:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// GoodsRef is the goods summary embedded in sales payloads.
type GoodsRef struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Category *string   `json:"category"`
}

// Sales is a recorded sale of one goods.
type Sales struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"-" db:"user_id"`
	GoodsID     uuid.UUID `json:"goods_id" db:"goods_id"`
	Quantity    int       `json:"quantity" db:"quantity"`
	SaleDate    time.Time `json:"sale_date" db:"sale_date"`
	TotalProfit *float64  `json:"total_profit" db:"total_profit"`
	CreatedAt   time.Time `json:"-" db:"created_at"`
	Goods       GoodsRef  `json:"goods" db:"-"`
}

// GoodsDetail is a goods together with its sales.
type GoodsDetail struct {
	Goods
	Sales []Sales `json:"sales"`
}

// RestockInference is the latest restock recommendation for a goods.
type RestockInference struct {
	ID            uuid.UUID `json:"id" db:"id"`
	UserID        uuid.UUID `json:"-" db:"user_id"`
	GoodsID       uuid.UUID `json:"goods_id" db:"goods_id"`
	TotalQuantity int       `json:"total_quantity" db:"total_quantity"`
	FuturePreds   JSONMap   `json:"future_preds" db:"future_preds"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// JSONMap is a JSON object persisted as text.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JSONMap) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported JSONMap source %T", src)
	}
	if len(data) == 0 {
		*m = nil
		return nil
	}
	out := JSONMap{}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// SalesDatasetItem is one day of aggregated sales.
type SalesDatasetItem struct {
	Date          string   `json:"date"`
	TotalQuantity int      `json:"total_quantity"`
	TotalProfit   *float64 `json:"total_profit"`
}

// ForecastItem is a predicted day of demand.
type ForecastItem struct {
	Date       string `json:"date"`
	TotalSales int    `json:"total_sales"`
	MaxSales   int    `json:"max_sales"`
	MinSales   int    `json:"min_sales"`
}

// GoodsForecastData carries sales history and predictions for a goods.
type GoodsForecastData struct {
	ID            uuid.UUID          `json:"id"`
	Name          string             `json:"name"`
	Category      *string            `json:"category"`
	Price         float64            `json:"price"`
	StockQuantity int                `json:"stock_quantity"`
	CreatedAt     time.Time          `json:"created_at"`
	Sales         []SalesDatasetItem `json:"sales"`
	IsForecasted  bool               `json:"is_forecasted"`
	Forecast      []ForecastItem     `json:"forecast"`
}

// Summary aggregates a user's inventory and sales over a window.
type Summary struct {
	GoodsCount    int     `json:"goods_count" db:"goods_count"`
	LowStockCount int     `json:"low_stock_count" db:"low_stock_count"`
	UnitsSold     int     `json:"units_sold" db:"units_sold"`
	Revenue       float64 `json:"revenue" db:"revenue"`
	Days          int     `json:"days" db:"-"`
}

// DateLayout is the calendar day format used across payloads.
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD or RFC3339")

// ParseDate accepts either a calendar day or a full RFC3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, ErrInvalidDate
}
