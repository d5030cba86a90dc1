// Package forecast predicts daily demand per goods and turns the prediction
// into restock recommendations.
package forecast

import (
	"math"
	"time"

	"github.com/umkm-labs/warung/fields"
)

const (
	DefaultLookbackDays = 30
	DefaultWindowDays   = 7
	DefaultMinSaleDays  = 3
	DefaultHorizonDays  = 7
	MaxHorizonDays      = 30

	// z value of a 95% interval
	confidenceZ = 1.96
)

// Forecaster predicts demand from a zero-filled daily sales series.
type Forecaster struct {
	LookbackDays int
	WindowDays   int
	MinSaleDays  int
}

func NewForecaster() Forecaster {
	return Forecaster{
		LookbackDays: DefaultLookbackDays,
		WindowDays:   DefaultWindowDays,
		MinSaleDays:  DefaultMinSaleDays,
	}
}

func (f Forecaster) lookback() int {
	if f.LookbackDays > 0 {
		return f.LookbackDays
	}
	return DefaultLookbackDays
}

// Since returns the first day of the lookback window ending on end.
func (f Forecaster) Since(end time.Time) time.Time {
	return truncateDay(end).AddDate(0, 0, -(f.lookback() - 1))
}

// DailySeries buckets sales per calendar day (UTC) for the lookback window
// ending on end, filling days without sales with zero.
func (f Forecaster) DailySeries(sales []fields.Sales, end time.Time) []fields.SalesDatasetItem {
	start := f.Since(end)
	days := f.lookback()

	qty := make([]int, days)
	profit := make([]float64, days)
	hasProfit := make([]bool, days)
	for _, s := range sales {
		idx := int(truncateDay(s.SaleDate).Sub(start).Hours() / 24)
		if idx < 0 || idx >= days {
			continue
		}
		qty[idx] += s.Quantity
		if s.TotalProfit != nil {
			profit[idx] += *s.TotalProfit
			hasProfit[idx] = true
		}
	}

	out := make([]fields.SalesDatasetItem, days)
	for i := range out {
		out[i] = fields.SalesDatasetItem{
			Date:          start.AddDate(0, 0, i).Format(fields.DateLayout),
			TotalQuantity: qty[i],
		}
		if hasProfit[i] {
			p := profit[i]
			out[i].TotalProfit = &p
		}
	}
	return out
}

// Predict forecasts days future days after the last day of series. The level
// is the mean of the trailing window, shifted by a least-squares trend fitted
// over the same window. Bounds are the level +/- 1.96 standard deviations of
// the window. ok is false when fewer than MinSaleDays days had sales.
func (f Forecaster) Predict(series []fields.SalesDatasetItem, days int) (items []fields.ForecastItem, ok bool) {
	if len(series) == 0 {
		return nil, false
	}
	days = ClampHorizon(days)

	minDays := f.MinSaleDays
	if minDays <= 0 {
		minDays = DefaultMinSaleDays
	}
	values := make([]float64, len(series))
	saleDays := 0
	for i, item := range series {
		values[i] = float64(item.TotalQuantity)
		if item.TotalQuantity > 0 {
			saleDays++
		}
	}
	if saleDays < minDays {
		return nil, false
	}

	window := f.WindowDays
	if window <= 0 {
		window = DefaultWindowDays
	}
	if window > len(values) {
		window = len(values)
	}
	recent := values[len(values)-window:]
	level := mean(recent)
	spread := confidenceZ * stddev(recent, level)
	slope := leastSquaresSlope(recent)
	// the window mean sits at the window's midpoint
	offset := float64(window-1) / 2

	last, err := time.Parse(fields.DateLayout, series[len(series)-1].Date)
	if err != nil {
		return nil, false
	}
	items = make([]fields.ForecastItem, 0, days)
	for h := 1; h <= days; h++ {
		pred := math.Max(0, level+slope*(offset+float64(h)))
		items = append(items, fields.ForecastItem{
			Date:       last.AddDate(0, 0, h).Format(fields.DateLayout),
			TotalSales: roundNonNegative(pred),
			MaxSales:   roundNonNegative(pred + spread),
			MinSales:   roundNonNegative(pred - spread),
		})
	}
	return items, true
}

// RestockQuantity is how many units to buy so stock covers the upper bound of
// predicted demand over the horizon.
func RestockQuantity(items []fields.ForecastItem, stock int) int {
	need := 0
	for _, it := range items {
		need += it.MaxSales
	}
	if need <= stock {
		return 0
	}
	return need - stock
}

// ClampHorizon bounds a requested horizon to 1..30 days, defaulting to 7.
func ClampHorizon(days int) int {
	switch {
	case days <= 0:
		return DefaultHorizonDays
	case days > MaxHorizonDays:
		return MaxHorizonDays
	}
	return days
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, m float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += (x - m) * (x - m)
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func leastSquaresSlope(ys []float64) float64 {
	n := float64(len(ys))
	if n < 2 {
		return 0
	}
	var sx, sy, sxy, sxx float64
	for i, y := range ys {
		x := float64(i)
		sx += x
		sy += y
		sxy += x * y
		sxx += x * x
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0
	}
	return (n*sxy - sx*sy) / den
}

func roundNonNegative(v float64) int {
	if v <= 0 {
		return 0
	}
	return int(math.Round(v))
}
