package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umkm-labs/warung/fields"
)

func series(qty ...int) []fields.SalesDatasetItem {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	out := make([]fields.SalesDatasetItem, len(qty))
	for i, q := range qty {
		out[i] = fields.SalesDatasetItem{Date: start.AddDate(0, 0, i).Format(fields.DateLayout), TotalQuantity: q}
	}
	return out
}

func TestDailySeries(t *testing.T) {
	f := Forecaster{LookbackDays: 5}
	end := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	profit := 3000.0
	sales := []fields.Sales{
		{Quantity: 2, SaleDate: time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC), TotalProfit: &profit},
		{Quantity: 3, SaleDate: time.Date(2024, 5, 6, 20, 0, 0, 0, time.UTC)},
		{Quantity: 1, SaleDate: time.Date(2024, 5, 10, 23, 0, 0, 0, time.UTC)},
		{Quantity: 9, SaleDate: time.Date(2024, 5, 5, 23, 59, 0, 0, time.UTC)},
		{Quantity: 9, SaleDate: time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC)},
	}

	got := f.DailySeries(sales, end)
	require.Len(t, got, 5)
	assert.Equal(t, "2024-05-06", got[0].Date)
	assert.Equal(t, 5, got[0].TotalQuantity)
	require.NotNil(t, got[0].TotalProfit)
	assert.Equal(t, 3000.0, *got[0].TotalProfit)
	assert.Equal(t, 0, got[1].TotalQuantity)
	assert.Nil(t, got[1].TotalProfit)
	assert.Equal(t, "2024-05-10", got[4].Date)
	assert.Equal(t, 1, got[4].TotalQuantity)
}

func TestPredictFlatDemand(t *testing.T) {
	f := NewForecaster()
	items, ok := f.Predict(series(4, 4, 4, 4, 4, 4, 4, 4, 4, 4), 3)
	require.True(t, ok)
	require.Len(t, items, 3)
	for _, it := range items {
		assert.Equal(t, 4, it.TotalSales)
		assert.Equal(t, 4, it.MaxSales)
		assert.Equal(t, 4, it.MinSales)
	}
	assert.Equal(t, "2024-05-11", items[0].Date)
	assert.Equal(t, "2024-05-13", items[2].Date)
}

func TestPredictTrendAndBounds(t *testing.T) {
	f := NewForecaster()
	items, ok := f.Predict(series(1, 2, 3, 4, 5, 6, 7, 8, 9, 10), 2)
	require.True(t, ok)
	// window mean 7 at index 6, slope 1: day 11 -> 7 + 1*(3+1) = 11
	assert.Equal(t, 11, items[0].TotalSales)
	assert.Equal(t, 12, items[1].TotalSales)
	assert.Greater(t, items[0].MaxSales, items[0].TotalSales)
	assert.Less(t, items[0].MinSales, items[0].TotalSales)
}

func TestPredictNeverNegative(t *testing.T) {
	f := NewForecaster()
	items, ok := f.Predict(series(9, 8, 7, 6, 5, 4, 3, 2, 1, 0, 0, 0), 7)
	require.True(t, ok)
	for _, it := range items {
		assert.GreaterOrEqual(t, it.TotalSales, 0)
		assert.GreaterOrEqual(t, it.MinSales, 0)
		assert.GreaterOrEqual(t, it.MaxSales, it.TotalSales)
	}
}

func TestPredictNeedsEnoughSaleDays(t *testing.T) {
	f := NewForecaster()
	_, ok := f.Predict(series(0, 5, 0, 0, 7, 0), 7)
	assert.False(t, ok)
	_, ok = f.Predict(nil, 7)
	assert.False(t, ok)
}

func TestClampHorizonAndRestock(t *testing.T) {
	assert.Equal(t, DefaultHorizonDays, ClampHorizon(0))
	assert.Equal(t, MaxHorizonDays, ClampHorizon(90))
	assert.Equal(t, 5, ClampHorizon(5))

	items := []fields.ForecastItem{{MaxSales: 4}, {MaxSales: 5}, {MaxSales: 6}}
	assert.Equal(t, 5, RestockQuantity(items, 10))
	assert.Equal(t, 0, RestockQuantity(items, 20))
}
